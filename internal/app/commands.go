package service

import (
	"context"
	"strings"
	"time"

	"github.com/okian/scrollstats/internal/adapters/repository"
	"github.com/okian/scrollstats/internal/domain/columns"
	"github.com/okian/scrollstats/internal/domain/normalize"
	"github.com/okian/scrollstats/internal/domain/query"
	"github.com/okian/scrollstats/internal/domain/stats"
	"github.com/okian/scrollstats/internal/domain/table"
	"github.com/okian/scrollstats/pkg/logger"
)

// Command names.
const (
	CmdWarscrollSearch = "warscroll-search"
	CmdCompare         = "compare"
	CmdMostCommon      = "most-common"
	CmdLeastCommon     = "least-common"
	CmdImpact          = "impact"
	CmdLeastImpact     = "least-impact"
	CmdPullingUp       = "pulling-up"
	CmdPullingDown     = "pulling-down"
	CmdFactionStats    = "faction-stats"
	CmdLeague          = "league"
	CmdRefresh         = "refresh"
	CmdFactions        = "factions"
	CmdFormations      = "formations"
	CmdUnits           = "units"
	CmdStatus          = "status"
)

// WarscrollSearch finds units by name, most played first.
func (s *Service) WarscrollSearch(ctx context.Context, name string) (*Result, error) {
	if strings.TrimSpace(name) == "" {
		return nil, badRequest("a warscroll name is required")
	}
	ds, err := s.dataset(ctx, repository.Warscroll)
	if err != nil {
		return nil, err
	}
	res := ds.Resolution
	s.require(ctx, ds, columns.Name, columns.Games)

	sel := query.Filter(res, ds.Records, query.Spec{MinGames: s.minGames, Field: columns.Name, Term: name, AllVariants: true})
	impact := stats.ImpactMetric(res)
	out := &Result{Command: CmdWarscrollSearch, Meta: s.meta(ds)}
	out.Meta.Query, out.Meta.DisplayName = name, sel.DisplayName
	for _, rec := range query.Limit(stats.ByGames(res, sel.Records), s.limit) {
		row := Row{
			Label: display(res, rec, columns.Name),
			Cells: cells(res, rec, columns.Faction, columns.Games, columns.WinRate, columns.UsedPercent),
		}
		row.Cells = append(row.Cells, Cell{Field: CellImpact, Value: normalize.PointsDelta(impact(rec))})
		out.Records = append(out.Records, row)
	}
	return out, nil
}

// Compare puts the best match for each of two unit names side by side.
func (s *Service) Compare(ctx context.Context, a, b string) (*Result, error) {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return nil, badRequest("two warscroll names are required")
	}
	ds, err := s.dataset(ctx, repository.Warscroll)
	if err != nil {
		return nil, err
	}
	res := ds.Resolution
	s.require(ctx, ds, columns.Name, columns.WinRate, columns.WinRateWithout)

	impact := stats.ImpactMetric(res)
	out := &Result{Command: CmdCompare, Meta: s.meta(ds)}
	out.Meta.Query = a + " vs " + b
	for _, term := range []string{a, b} {
		sel := query.Filter(res, ds.Records, query.Spec{MinGames: s.minGames, Field: columns.Name, Term: term})
		best := query.Limit(stats.ByGames(res, sel.Records), 1)
		if len(best) == 0 {
			continue
		}
		rec := best[0]
		row := Row{
			Label: display(res, rec, columns.Name),
			Cells: cells(res, rec, columns.Faction, columns.Games, columns.WinRate, columns.WinRateWithout, columns.UsedPercent),
		}
		row.Cells = append(row.Cells, Cell{Field: CellImpact, Value: normalize.PointsDelta(impact(rec))})
		out.Records = append(out.Records, row)
	}
	return out, nil
}

// MostCommon lists a faction's most used units.
func (s *Service) MostCommon(ctx context.Context, faction string) (*Result, error) {
	return s.usage(ctx, CmdMostCommon, faction, stats.Descending)
}

// LeastCommon lists a faction's least used units.
func (s *Service) LeastCommon(ctx context.Context, faction string) (*Result, error) {
	return s.usage(ctx, CmdLeastCommon, faction, stats.Ascending)
}

// Impact lists a faction's units whose inclusion goes with the highest win
// rate relative to lists without them.
func (s *Service) Impact(ctx context.Context, faction string) (*Result, error) {
	return s.impact(ctx, CmdImpact, faction, stats.Descending)
}

// LeastImpact is Impact from the bottom.
func (s *Service) LeastImpact(ctx context.Context, faction string) (*Result, error) {
	return s.impact(ctx, CmdLeastImpact, faction, stats.Ascending)
}

// PullingUp lists units whose win rate beats their faction's overall win rate.
func (s *Service) PullingUp(ctx context.Context, faction string) (*Result, error) {
	return s.lift(ctx, CmdPullingUp, faction, true)
}

// PullingDown lists units whose win rate trails their faction's overall win rate.
func (s *Service) PullingDown(ctx context.Context, faction string) (*Result, error) {
	return s.lift(ctx, CmdPullingDown, faction, false)
}

// factionUnits loads the warscroll dataset narrowed to one faction.
func (s *Service) factionUnits(ctx context.Context, cmd, faction string, need ...columns.Field) (*repository.Dataset, query.Result, *Result, error) {
	if strings.TrimSpace(faction) == "" {
		return nil, query.Result{}, nil, badRequest("a faction is required")
	}
	ds, err := s.dataset(ctx, repository.Warscroll)
	if err != nil {
		return nil, query.Result{}, nil, err
	}
	s.require(ctx, ds, append([]columns.Field{columns.Faction, columns.Games}, need...)...)
	sel := query.Filter(ds.Resolution, ds.Records, query.Spec{MinGames: s.minGames, Field: columns.Faction, Term: faction})
	out := &Result{Command: cmd, Meta: s.meta(ds)}
	out.Meta.Query, out.Meta.DisplayName = faction, sel.DisplayName
	return ds, sel, out, nil
}

func (s *Service) usage(ctx context.Context, cmd, faction string, dir stats.Direction) (*Result, error) {
	ds, sel, out, err := s.factionUnits(ctx, cmd, faction, columns.UsedPercent)
	if err != nil {
		return nil, err
	}
	res := ds.Resolution
	for _, sc := range query.Limit(stats.Usage(res, sel.Records, dir), s.limit) {
		out.Records = append(out.Records, Row{
			Label: display(res, sc.Record, columns.Name),
			Cells: cells(res, sc.Record, columns.UsedPercent, columns.Games, columns.WinRate),
		})
	}
	return out, nil
}

func (s *Service) impact(ctx context.Context, cmd, faction string, dir stats.Direction) (*Result, error) {
	ds, sel, out, err := s.factionUnits(ctx, cmd, faction, columns.WinRate, columns.WinRateWithout)
	if err != nil {
		return nil, err
	}
	res := ds.Resolution
	for _, sc := range query.Limit(stats.Impact(res, sel.Records, dir), s.limit) {
		row := Row{Label: display(res, sc.Record, columns.Name)}
		row.Cells = append(row.Cells, Cell{Field: CellImpact, Value: normalize.PointsDelta(sc.Score)})
		row.Cells = append(row.Cells, cells(res, sc.Record, columns.WinRate, columns.WinRateWithout, columns.Games)...)
		out.Records = append(out.Records, row)
	}
	return out, nil
}

func (s *Service) lift(ctx context.Context, cmd, faction string, up bool) (*Result, error) {
	ds, sel, out, err := s.factionUnits(ctx, cmd, faction, columns.WinRate)
	if err != nil {
		return nil, err
	}
	fds, err := s.dataset(ctx, repository.Faction)
	if err != nil {
		return nil, err
	}
	s.require(ctx, fds, columns.Faction, columns.Formation, columns.WinRate)

	rows := query.Filter(fds.Resolution, fds.Records, query.Spec{Field: columns.Faction, Term: faction})
	baseline, _, ok := stats.FactionBaseline(fds.Resolution, rows.Records)
	if !ok || !baseline.Valid {
		s.logger.Info(ctx, "no faction baseline", logger.String("faction", faction))
		return out, nil
	}
	out.Meta.BaselineUsed = normalize.Percent(baseline)

	res := ds.Resolution
	ranked := stats.PullingDown(res, sel.Records, baseline)
	if up {
		ranked = stats.PullingUp(res, sel.Records, baseline)
	}
	for _, sc := range query.Limit(ranked, s.limit) {
		row := Row{Label: display(res, sc.Record, columns.Name)}
		row.Cells = append(row.Cells, Cell{Field: CellLift, Value: normalize.PointsDelta(sc.Score)})
		row.Cells = append(row.Cells, cells(res, sc.Record, columns.WinRate, columns.Games)...)
		out.Records = append(out.Records, row)
	}
	return out, nil
}

// FactionStats shows one faction's record for a formation, "overall" when
// formation is empty, with a description of its Elo spread.
func (s *Service) FactionStats(ctx context.Context, name, formation string) (*Result, error) {
	if strings.TrimSpace(name) == "" {
		return nil, badRequest("a faction name is required")
	}
	ds, err := s.dataset(ctx, repository.Faction)
	if err != nil {
		return nil, err
	}
	res := ds.Resolution
	s.require(ctx, ds, columns.Faction, columns.Formation, columns.Games, columns.WinRate, columns.AvgElo, columns.MedianElo)

	sel := query.Filter(res, ds.Records, query.Spec{MinGames: s.minGames, Field: columns.Faction, Term: name})
	out := &Result{Command: CmdFactionStats, Meta: s.meta(ds)}
	out.Meta.Query, out.Meta.DisplayName = name, sel.DisplayName

	var pick table.Record
	if f := normalize.Text(formation); f == "" || f == "overall" {
		_, pick, _ = stats.FactionBaseline(res, sel.Records)
	} else {
		byFormation := query.Filter(res, sel.Records, query.Spec{Field: columns.Formation, Term: formation})
		if len(byFormation.Records) > 0 {
			pick = byFormation.Records[0]
		}
	}
	if pick == nil {
		return out, nil
	}

	avg, median := stats.Num(res, pick, columns.AvgElo), stats.Num(res, pick, columns.MedianElo)
	row := Row{
		Label: sel.DisplayName,
		Cells: cells(res, pick, columns.Formation, columns.Games, columns.Wins, columns.Losses,
			columns.WinRate, columns.AvgElo, columns.MedianElo),
	}
	row.Cells = append(row.Cells, Cell{Field: CellDispersion, Value: string(stats.Dispersion(avg, median, s.thresholds))})
	out.Records = append(out.Records, row)
	out.Meta.Blurb = stats.Blurb(avg, median, s.thresholds)
	return out, nil
}

// League looks up league players by name, or lists the top rated players
// when player is empty.
func (s *Service) League(ctx context.Context, player string) (*Result, error) {
	ds, err := s.dataset(ctx, repository.League)
	if err != nil {
		return nil, err
	}
	res := ds.Resolution
	s.require(ctx, ds, columns.Player, columns.Elo, columns.Games)

	sel := query.Filter(res, ds.Records, query.Spec{MinGames: s.minGames, Field: columns.Player, Term: player})
	out := &Result{Command: CmdLeague, Meta: s.meta(ds)}
	out.Meta.Query, out.Meta.DisplayName = player, sel.DisplayName

	limit := s.limit
	if strings.TrimSpace(player) == "" {
		limit = s.compactLimit
	}
	for _, sc := range query.Limit(stats.Rank(res, sel.Records, stats.Field(res, columns.Elo), stats.Descending), limit) {
		out.Records = append(out.Records, Row{
			Label: display(res, sc.Record, columns.Player),
			Cells: cells(res, sc.Record, columns.Faction, columns.Elo, columns.Games, columns.Wins, columns.Losses),
		})
	}
	return out, nil
}

// Refresh force reloads every dataset. Only admins may call it; the check
// happens before any dataset is touched.
func (s *Service) Refresh(ctx context.Context, caller string) (*Result, error) {
	if !s.IsAdmin(caller) {
		s.logger.Warn(ctx, "refresh rejected", logger.String("caller", caller))
		return nil, &Error{Kind: KindUnauthorized, Message: "only bot admins can refresh data", Err: ErrUnauthorized}
	}

	out := &Result{Command: CmdRefresh}
	for _, o := range s.store.RefreshAll(ctx) {
		fields := []logger.Field{
			logger.String("dataset", string(o.Dataset)),
			logger.String("outcome", string(o.Kind)),
			logger.Int("rows", o.Rows),
		}
		if o.Err != nil {
			fields = append(fields, logger.Error(o.Err))
		}
		s.logger.Info(ctx, "refresh outcome", fields...)

		row := Row{Label: string(o.Dataset), Cells: []Cell{
			{Field: "outcome", Value: string(o.Kind)},
			{Field: "rows", Value: normalize.Int(normalize.Of(float64(o.Rows)))},
			{Field: "loaded_at", Value: timestamp(o.LoadedAt)},
		}}
		if o.Err != nil && o.Kind != repository.NotConfigured {
			row.Cells = append(row.Cells, Cell{Field: "error", Value: o.Err.Error()})
		}
		out.Records = append(out.Records, row)
		if o.LoadedAt.After(out.Meta.DatasetTimestamp) {
			out.Meta.DatasetTimestamp = o.LoadedAt
		}
	}
	return out, nil
}

// ListFactions lists distinct faction names matching filter. Without a
// faction dataset the unit dataset's faction column is used.
func (s *Service) ListFactions(ctx context.Context, filter string) (*Result, error) {
	ds, err := s.dataset(ctx, repository.Faction)
	if err != nil {
		if AsError(err).Kind != KindConfigurationMissing {
			return nil, err
		}
		if ds, err = s.dataset(ctx, repository.Warscroll); err != nil {
			return nil, err
		}
	}
	return s.distinct(CmdFactions, ds, ds.Records, columns.Faction, filter), nil
}

// ListFormations lists distinct formations, optionally within one faction.
func (s *Service) ListFormations(ctx context.Context, faction, filter string) (*Result, error) {
	ds, err := s.dataset(ctx, repository.Faction)
	if err != nil {
		return nil, err
	}
	recs := query.Filter(ds.Resolution, ds.Records, query.Spec{Field: columns.Faction, Term: faction}).Records
	return s.distinct(CmdFormations, ds, recs, columns.Formation, filter), nil
}

// ListUnits lists distinct unit names, optionally within one faction.
func (s *Service) ListUnits(ctx context.Context, faction, filter string) (*Result, error) {
	ds, err := s.dataset(ctx, repository.Warscroll)
	if err != nil {
		return nil, err
	}
	recs := query.Filter(ds.Resolution, ds.Records, query.Spec{Field: columns.Faction, Term: faction}).Records
	return s.distinct(CmdUnits, ds, recs, columns.Name, filter), nil
}

func (s *Service) distinct(cmd string, ds *repository.Dataset, recs []table.Record, f columns.Field, filter string) *Result {
	out := &Result{Command: cmd, Meta: s.meta(ds)}
	out.Meta.Query, out.Meta.MinGames = filter, 0
	for _, v := range query.Limit(query.Distinct(ds.Resolution, recs, f, filter), maxChoices) {
		out.Records = append(out.Records, Row{
			Label: v.Display,
			Cells: []Cell{{Field: CellCount, Value: normalize.Int(normalize.Of(float64(v.Count)))}},
		})
	}
	return out
}

// Status reports the cache state of every dataset.
func (s *Service) Status(ctx context.Context) (*Result, error) {
	out := &Result{Command: CmdStatus}
	for _, st := range s.store.Status(ctx) {
		configured := "no"
		if st.Configured {
			configured = "yes"
		}
		row := Row{Label: string(st.Dataset), Cells: []Cell{
			{Field: "configured", Value: configured},
			{Field: "state", Value: string(st.State)},
			{Field: "rows", Value: normalize.Int(normalize.Of(float64(st.Rows)))},
			{Field: "loaded_at", Value: timestamp(st.LoadedAt)},
		}}
		if st.LastError != "" {
			row.Cells = append(row.Cells, Cell{Field: "error", Value: st.LastError})
		}
		out.Records = append(out.Records, row)
	}
	return out, nil
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return normalize.Placeholder
	}
	return t.UTC().Format(time.RFC3339)
}
