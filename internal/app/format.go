package service

import (
	"strings"

	"github.com/okian/scrollstats/internal/domain/columns"
	"github.com/okian/scrollstats/internal/domain/normalize"
	"github.com/okian/scrollstats/internal/domain/stats"
	"github.com/okian/scrollstats/internal/domain/table"
)

// Derived cell names.
const (
	CellImpact     = "impact"
	CellLift       = "lift"
	CellDispersion = "dispersion"
	CellCount      = "count"
)

// display renders f of rec for output.
func display(res columns.Resolution, rec table.Record, f columns.Field) string {
	switch f {
	case columns.Games, columns.Wins, columns.Losses, columns.Elo:
		return normalize.Int(stats.Num(res, rec, f))
	case columns.WinRate, columns.WinRateWithout, columns.UsedPercent:
		return normalize.Percent(stats.Num(res, rec, f))
	case columns.AvgElo, columns.MedianElo:
		return normalize.OneDecimal(stats.Num(res, rec, f))
	default:
		v, _ := res.Value(rec, f)
		if v = strings.TrimSpace(v); v == "" {
			return normalize.Placeholder
		}
		return v
	}
}

func cells(res columns.Resolution, rec table.Record, fields ...columns.Field) []Cell {
	out := make([]Cell, 0, len(fields))
	for _, f := range fields {
		out = append(out, Cell{Field: string(f), Value: display(res, rec, f)})
	}
	return out
}
