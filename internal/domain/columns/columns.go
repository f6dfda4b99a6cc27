// Package columns resolves canonical fields against headers whose spelling
// drifts between spreadsheet revisions.
package columns

import "github.com/okian/scrollstats/internal/domain/table"

// Field identifies a logical column independent of its header spelling.
type Field string

// Canonical fields.
const (
	Name           Field = "name"
	Faction        Field = "faction"
	Formation      Field = "formation"
	Games          Field = "games"
	Wins           Field = "wins"
	Losses         Field = "losses"
	WinRate        Field = "win_rate"
	WinRateWithout Field = "win_rate_without"
	UsedPercent    Field = "used_percent"
	AvgElo         Field = "avg_elo"
	MedianElo      Field = "median_elo"
	Player         Field = "player"
	Elo            Field = "elo"
)

// All returns every canonical field in a stable order.
func All() []Field {
	return []Field{Name, Faction, Formation, Games, Wins, Losses, WinRate,
		WinRateWithout, UsedPercent, AvgElo, MedianElo, Player, Elo}
}

// Aliases returns a copy of the accepted header spellings for f.
func Aliases(f Field) []string {
	return append([]string(nil), aliases[f]...)
}

// Resolve returns the index of the first alias of f present in header.
// Matching is exact and case-sensitive.
func Resolve(header []string, f Field) (int, bool) {
	for _, alias := range aliases[f] {
		for i, h := range header {
			if h == alias {
				return i, true
			}
		}
	}
	return -1, false
}

// Resolution is the per-load mapping from fields to header names. It is
// computed once so lookups cannot change within a dataset generation.
type Resolution struct {
	headers map[Field]string
}

// NewResolution resolves every canonical field against header.
func NewResolution(header []string) Resolution {
	r := Resolution{headers: make(map[Field]string, len(aliases))}
	for f := range aliases {
		if i, ok := Resolve(header, f); ok {
			r.headers[f] = header[i]
		}
	}
	return r
}

// Has reports whether f resolved.
func (r Resolution) Has(f Field) bool {
	_, ok := r.headers[f]
	return ok
}

// Header returns the raw header f resolved to.
func (r Resolution) Header(f Field) (string, bool) {
	h, ok := r.headers[f]
	return h, ok
}

// Missing lists the fields of want that did not resolve.
func (r Resolution) Missing(want ...Field) []Field {
	var out []Field
	for _, f := range want {
		if !r.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Value returns rec's value for f. ok is false when f did not resolve.
func (r Resolution) Value(rec table.Record, f Field) (string, bool) {
	h, ok := r.headers[f]
	if !ok {
		return "", false
	}
	return rec[h], true
}
