package service

import "time"

// Cell is one labelled value of a row. Field is a canonical field name or a
// derived metric such as "impact" or "lift". Value is display-ready and is
// the placeholder glyph when unavailable.
type Cell struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Row is one result record.
type Row struct {
	Label string `json:"label"`
	Cells []Cell `json:"cells"`
}

// Get returns the value of field, if present.
func (r Row) Get(field string) (string, bool) {
	for _, c := range r.Cells {
		if c.Field == field {
			return c.Value, true
		}
	}
	return "", false
}

// Meta describes how a result was produced.
type Meta struct {
	Dataset          string    `json:"dataset,omitempty"`
	DatasetTimestamp time.Time `json:"dataset_timestamp,omitzero"`
	Generation       string    `json:"generation,omitempty"`
	// BaselineUsed is the faction win rate lift was measured against.
	BaselineUsed string `json:"baseline_used,omitempty"`
	MinGames     int    `json:"min_games"`
	// DisplayName is the canonical spelling of the matched faction or unit.
	DisplayName string `json:"display_name,omitempty"`
	Query       string `json:"query,omitempty"`
	Blurb       string `json:"blurb,omitempty"`
}

// Result is the output of every successful command. An empty Records is a
// normal "no match" answer.
type Result struct {
	Command string `json:"command"`
	Records []Row  `json:"records"`
	Meta    Meta   `json:"meta"`
}

// Empty reports whether the command matched nothing.
func (r *Result) Empty() bool { return len(r.Records) == 0 }
