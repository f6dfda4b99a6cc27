// Package query narrows a dataset's records for one command: sample-size
// filter first, then name matching, then the caller's ranking and limit.
package query

import (
	"sort"
	"strings"

	"github.com/okian/scrollstats/internal/domain/columns"
	"github.com/okian/scrollstats/internal/domain/normalize"
	"github.com/okian/scrollstats/internal/domain/table"
)

// Spec describes a filter.
type Spec struct {
	// MinGames is the inclusive sample-size threshold. Zero disables it.
	MinGames int
	// Field is matched against Term. An empty Term matches everything.
	Field columns.Field
	Term  string
	// AllVariants keeps every partial match instead of narrowing the
	// result to the records spelled like DisplayName.
	AllVariants bool
}

// Result is the filtered record set.
type Result struct {
	Records []table.Record
	// DisplayName is the most frequent raw spelling of Field among the
	// matches. Empty when Term is empty or nothing matched.
	DisplayName string
	// Eligible counts the records that passed the sample-size filter.
	Eligible int
}

// Filter applies the sample-size filter and then the name filter. Name
// matching prefers exact normalized matches and falls back to substring
// containment when there are none. Partial matches are narrowed to the
// records whose value normalizes like the chosen DisplayName, so one
// result never mixes two factions or units.
func Filter(res columns.Resolution, recs []table.Record, spec Spec) Result {
	eligible := MinGames(res, recs, spec.MinGames)
	out := Result{Records: eligible, Eligible: len(eligible)}
	if strings.TrimSpace(spec.Term) == "" {
		return out
	}

	var exact, partial []table.Record
	for _, rec := range eligible {
		v, ok := res.Value(rec, spec.Field)
		if !ok {
			continue
		}
		switch normalize.Match(spec.Term, v) {
		case normalize.MatchExact:
			exact = append(exact, rec)
		case normalize.MatchPrefix, normalize.MatchSubstring:
			partial = append(partial, rec)
		}
	}

	if len(exact) > 0 {
		out.Records = exact
		out.DisplayName = DisplayName(res, exact, spec.Field)
		return out
	}
	out.DisplayName = DisplayName(res, partial, spec.Field)
	out.Records = partial
	if !spec.AllVariants {
		out.Records = named(res, partial, spec.Field, out.DisplayName)
	}
	return out
}

func named(res columns.Resolution, recs []table.Record, f columns.Field, name string) []table.Record {
	key := normalize.Text(name)
	out := make([]table.Record, 0, len(recs))
	for _, rec := range recs {
		if v, ok := res.Value(rec, f); ok && normalize.Text(v) == key {
			out = append(out, rec)
		}
	}
	return out
}

// MinGames keeps records whose games count is at least threshold. With a
// positive threshold a record whose games cannot be read is dropped.
func MinGames(res columns.Resolution, recs []table.Record, threshold int) []table.Record {
	if threshold <= 0 {
		return recs
	}
	out := make([]table.Record, 0, len(recs))
	for _, rec := range recs {
		v, ok := res.Value(rec, columns.Games)
		if !ok {
			continue
		}
		if n := normalize.ParseNumber(v); n.Valid && n.Value >= float64(threshold) {
			out = append(out, rec)
		}
	}
	return out
}

// DisplayName returns the most frequent raw value of f in recs, preferring
// the first one seen on ties.
func DisplayName(res columns.Resolution, recs []table.Record, f columns.Field) string {
	counts := make(map[string]int)
	best, bestN := "", 0
	for _, rec := range recs {
		v, ok := res.Value(rec, f)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			continue
		}
		counts[v]++
		if counts[v] > bestN {
			best, bestN = v, counts[v]
		}
	}
	return best
}

// Limit truncates items to n. Non-positive n keeps everything.
func Limit[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

// Value is one entry of a distinct listing.
type Value struct {
	// Display is the most frequent raw spelling.
	Display string
	// Key is the normalized form shared by every spelling.
	Key   string
	Count int
	Match normalize.MatchKind
}

// Distinct lists the distinct normalized values of f that match filter.
// Better matches come first, then more frequent values, then alphabetical.
func Distinct(res columns.Resolution, recs []table.Record, f columns.Field, filter string) []Value {
	type entry struct {
		Value
		spellings map[string]int
		order     []string
	}
	byKey := make(map[string]*entry)
	var keys []string

	for _, rec := range recs {
		raw, ok := res.Value(rec, f)
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			continue
		}
		key := normalize.Text(raw)
		if key == "" {
			continue
		}
		kind := normalize.MatchPrefix
		if strings.TrimSpace(filter) != "" {
			if kind = normalize.Match(filter, raw); kind == normalize.MatchNone {
				continue
			}
		}
		e, seen := byKey[key]
		if !seen {
			e = &entry{Value: Value{Key: key, Match: kind}, spellings: make(map[string]int)}
			byKey[key] = e
			keys = append(keys, key)
		}
		e.Count++
		if _, known := e.spellings[raw]; !known {
			e.order = append(e.order, raw)
		}
		e.spellings[raw]++
	}

	out := make([]Value, 0, len(keys))
	for _, k := range keys {
		e := byKey[k]
		e.Display = e.order[0]
		for _, s := range e.order[1:] {
			if e.spellings[s] > e.spellings[e.Display] {
				e.Display = s
			}
		}
		out = append(out, e.Value)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Match != b.Match {
			return a.Match > b.Match
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Key < b.Key
	})
	return out
}
