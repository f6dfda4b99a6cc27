// Package render turns command results into plain text for the CLI and the
// HTTP text format.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	service "github.com/okian/scrollstats/internal/app"
)

const columnGap = 2

var titles = map[string]string{ //nolint:gochecknoglobals // fixed lookup table
	"name":             "Warscroll",
	"faction":          "Faction",
	"formation":        "Formation",
	"games":            "Games",
	"wins":             "W",
	"losses":           "L",
	"win_rate":         "Win %",
	"win_rate_without": "Without %",
	"used_percent":     "Used %",
	"avg_elo":          "Avg Elo",
	"median_elo":       "Median Elo",
	"player":           "Player",
	"elo":              "Elo",
	"impact":           "Impact",
	"lift":             "Lift",
	"dispersion":       "Spread",
	"count":            "Rows",
	"loaded_at":        "Loaded",
	"error":            "Error",
}

// Title returns the column heading for a cell field.
func Title(field string) string {
	if t, ok := titles[field]; ok {
		return t
	}
	return strings.ToUpper(field[:1]) + strings.ReplaceAll(field[1:], "_", " ")
}

// Text writes res as an aligned table with a heading and footer.
func Text(w io.Writer, res *service.Result) error {
	bw := bufio.NewWriter(w)

	heading := res.Command
	if res.Meta.DisplayName != "" {
		heading += ": " + res.Meta.DisplayName
	} else if res.Meta.Query != "" {
		heading += ": " + res.Meta.Query
	}
	fmt.Fprintln(bw, heading)

	if res.Empty() {
		fmt.Fprintln(bw, NoResults(res.Meta))
	} else {
		table(bw, res.Records)
	}

	if res.Meta.Blurb != "" {
		fmt.Fprintln(bw, res.Meta.Blurb)
	}
	if res.Meta.BaselineUsed != "" {
		fmt.Fprintf(bw, "Faction baseline: %s\n", res.Meta.BaselineUsed)
	}
	if !res.Meta.DatasetTimestamp.IsZero() {
		fmt.Fprintf(bw, "Data as of %s\n", res.Meta.DatasetTimestamp.UTC().Format("2006-01-02 15:04 MST"))
	}
	return bw.Flush()
}

// NoResults explains an empty answer, naming the game threshold in force.
func NoResults(m service.Meta) string {
	var b strings.Builder
	b.WriteString("No results")
	if m.MinGames > 0 {
		fmt.Fprintf(&b, " with at least %d games", m.MinGames)
	}
	if m.Query != "" {
		fmt.Fprintf(&b, " for %q", m.Query)
	}
	b.WriteString(".")
	return b.String()
}

// Error writes a command failure.
func Error(w io.Writer, err error) error {
	e := service.AsError(err)
	_, werr := fmt.Fprintf(w, "error (%s): %s\n", e.Kind, e.Message)
	return werr
}

func table(w io.Writer, rows []service.Row) {
	// Columns come from the union of cell fields in first-seen order; rows
	// of one result normally share them.
	var fields []string
	seen := map[string]bool{}
	for _, r := range rows {
		for _, c := range r.Cells {
			if !seen[c.Field] {
				seen[c.Field] = true
				fields = append(fields, c.Field)
			}
		}
	}

	header := append([]string{""}, make([]string, len(fields))...)
	for i, f := range fields {
		header[i+1] = Title(f)
	}
	lines := [][]string{header}
	for _, r := range rows {
		line := make([]string, len(fields)+1)
		line[0] = r.Label
		for i, f := range fields {
			line[i+1], _ = r.Get(f)
		}
		lines = append(lines, line)
	}

	widths := make([]int, len(header))
	for _, line := range lines {
		for i, v := range line {
			if n := runewidth.StringWidth(v); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for _, line := range lines {
		var b strings.Builder
		for i, v := range line {
			if i == len(line)-1 {
				b.WriteString(v)
				break
			}
			b.WriteString(runewidth.FillRight(v, widths[i]+columnGap))
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}
