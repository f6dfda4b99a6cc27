// Package stats computes the derived metrics shown by commands: usage
// ranking, win-rate impact, faction-baseline lift and Elo dispersion.
// Missing operands never fail; they make the metric unavailable.
package stats

import (
	"sort"

	"github.com/okian/scrollstats/internal/domain/columns"
	"github.com/okian/scrollstats/internal/domain/normalize"
	"github.com/okian/scrollstats/internal/domain/table"
)

// Direction orders a ranking.
type Direction int

// Ranking directions.
const (
	Descending Direction = iota
	Ascending
)

// Scored pairs a record with the metric it was ranked by.
type Scored struct {
	Record table.Record
	Score  normalize.Number
	Games  normalize.Number
}

// Metric extracts a number from a record.
type Metric func(rec table.Record) normalize.Number

// Field returns a Metric reading f through res.
func Field(res columns.Resolution, f columns.Field) Metric {
	return func(rec table.Record) normalize.Number {
		return Num(res, rec, f)
	}
}

// Num parses f from rec; unresolved fields are unavailable.
func Num(res columns.Resolution, rec table.Record, f columns.Field) normalize.Number {
	v, ok := res.Value(rec, f)
	if !ok {
		return normalize.Unavailable
	}
	return normalize.ParseNumber(v)
}

// ImpactMetric is win rate with the unit minus win rate without it.
// Positive means lists including the unit win more often.
func ImpactMetric(res columns.Resolution) Metric {
	wr, without := Field(res, columns.WinRate), Field(res, columns.WinRateWithout)
	return func(rec table.Record) normalize.Number {
		return wr(rec).Sub(without(rec))
	}
}

// LiftMetric is unit win rate minus a faction baseline win rate.
func LiftMetric(res columns.Resolution, baseline normalize.Number) Metric {
	wr := Field(res, columns.WinRate)
	return func(rec table.Record) normalize.Number {
		return wr(rec).Sub(baseline)
	}
}

// Rank scores every record, drops those whose score is unavailable and
// sorts by score in dir. Ties go to the record with more games.
func Rank(res columns.Resolution, recs []table.Record, m Metric, dir Direction) []Scored {
	games := Field(res, columns.Games)
	out := make([]Scored, 0, len(recs))
	for _, rec := range recs {
		s := m(rec)
		if !s.Valid {
			continue
		}
		out = append(out, Scored{Record: rec, Score: s, Games: games(rec)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score.Value != b.Score.Value {
			if dir == Ascending {
				return a.Score.Value < b.Score.Value
			}
			return a.Score.Value > b.Score.Value
		}
		return gamesValue(a.Games) > gamesValue(b.Games)
	})
	return out
}

// Usage ranks records by used percent.
func Usage(res columns.Resolution, recs []table.Record, dir Direction) []Scored {
	return Rank(res, recs, Field(res, columns.UsedPercent), dir)
}

// Impact ranks records by within-unit impact.
func Impact(res columns.Resolution, recs []table.Record, dir Direction) []Scored {
	return Rank(res, recs, ImpactMetric(res), dir)
}

// PullingUp keeps units whose lift over baseline is positive, largest first.
func PullingUp(res columns.Resolution, recs []table.Record, baseline normalize.Number) []Scored {
	return keep(Rank(res, recs, LiftMetric(res, baseline), Descending), func(v float64) bool { return v > 0 })
}

// PullingDown keeps units whose lift is negative, most negative first.
func PullingDown(res columns.Resolution, recs []table.Record, baseline normalize.Number) []Scored {
	return keep(Rank(res, recs, LiftMetric(res, baseline), Ascending), func(v float64) bool { return v < 0 })
}

// FactionBaseline picks the faction-wide row among recs, which must already
// be narrowed to one faction: the row whose formation reads "overall", else
// the first row. It returns that row's win rate.
func FactionBaseline(res columns.Resolution, recs []table.Record) (normalize.Number, table.Record, bool) {
	if len(recs) == 0 {
		return normalize.Unavailable, nil, false
	}
	pick := recs[0]
	for _, rec := range recs {
		if v, ok := res.Value(rec, columns.Formation); ok && normalize.Text(v) == "overall" {
			pick = rec
			break
		}
	}
	return Num(res, pick, columns.WinRate), pick, true
}

func keep(in []Scored, pred func(float64) bool) []Scored {
	out := in[:0]
	for _, s := range in {
		if pred(s.Score.Value) {
			out = append(out, s)
		}
	}
	return out
}

func gamesValue(n normalize.Number) float64 {
	if !n.Valid {
		return -1
	}
	return n.Value
}

// ByGames orders records by games played, most first, keeping records whose
// count is unreadable at the end.
func ByGames(res columns.Resolution, recs []table.Record) []table.Record {
	games := Field(res, columns.Games)
	out := append([]table.Record(nil), recs...)
	sort.SliceStable(out, func(i, j int) bool {
		return gamesValue(games(out[i])) > gamesValue(games(out[j]))
	})
	return out
}
