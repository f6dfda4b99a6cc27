package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/scrollstats/pkg/logger"
	"github.com/okian/scrollstats/pkg/metrics"
)

// Command is a transport-neutral invocation.
type Command struct {
	Name   string            `json:"name"`
	Args   map[string]string `json:"args"`
	Caller string            `json:"caller"`
}

func (c Command) arg(key string) string { return strings.TrimSpace(c.Args[key]) }

// CommandInfo documents one command for help output.
type CommandInfo struct {
	Name        string   `json:"name"`
	Args        []string `json:"args,omitempty"`
	Description string   `json:"description"`
	Admin       bool     `json:"admin,omitempty"`
}

type handler func(ctx context.Context, s *Service, c Command) (*Result, error)

type route struct {
	info CommandInfo
	run  handler
}

func routes() []route {
	return []route{
		{CommandInfo{Name: CmdWarscrollSearch, Args: []string{"name"}, Description: "Search units by name"},
			func(ctx context.Context, s *Service, c Command) (*Result, error) { return s.WarscrollSearch(ctx, c.arg("name")) }},
		{CommandInfo{Name: CmdCompare, Args: []string{"a", "b"}, Description: "Compare two units side by side"},
			func(ctx context.Context, s *Service, c Command) (*Result, error) {
				return s.Compare(ctx, c.arg("a"), c.arg("b"))
			}},
		{CommandInfo{Name: CmdMostCommon, Args: []string{"faction"}, Description: "Most used units in a faction"},
			func(ctx context.Context, s *Service, c Command) (*Result, error) { return s.MostCommon(ctx, c.arg("faction")) }},
		{CommandInfo{Name: CmdLeastCommon, Args: []string{"faction"}, Description: "Least used units in a faction"},
			func(ctx context.Context, s *Service, c Command) (*Result, error) { return s.LeastCommon(ctx, c.arg("faction")) }},
		{CommandInfo{Name: CmdImpact, Args: []string{"faction"}, Description: "Units with the largest win rate impact"},
			func(ctx context.Context, s *Service, c Command) (*Result, error) { return s.Impact(ctx, c.arg("faction")) }},
		{CommandInfo{Name: CmdLeastImpact, Args: []string{"faction"}, Description: "Units with the lowest win rate impact"},
			func(ctx context.Context, s *Service, c Command) (*Result, error) { return s.LeastImpact(ctx, c.arg("faction")) }},
		{CommandInfo{Name: CmdPullingUp, Args: []string{"faction"}, Description: "Units beating the faction win rate"},
			func(ctx context.Context, s *Service, c Command) (*Result, error) { return s.PullingUp(ctx, c.arg("faction")) }},
		{CommandInfo{Name: CmdPullingDown, Args: []string{"faction"}, Description: "Units trailing the faction win rate"},
			func(ctx context.Context, s *Service, c Command) (*Result, error) { return s.PullingDown(ctx, c.arg("faction")) }},
		{CommandInfo{Name: CmdFactionStats, Args: []string{"name", "formation"}, Description: "Faction record and Elo spread"},
			func(ctx context.Context, s *Service, c Command) (*Result, error) {
				return s.FactionStats(ctx, c.arg("name"), c.arg("formation"))
			}},
		{CommandInfo{Name: CmdLeague, Args: []string{"player"}, Description: "League player lookup"},
			func(ctx context.Context, s *Service, c Command) (*Result, error) { return s.League(ctx, c.arg("player")) }},
		{CommandInfo{Name: CmdRefresh, Description: "Reload every dataset", Admin: true},
			func(ctx context.Context, s *Service, c Command) (*Result, error) { return s.Refresh(ctx, c.Caller) }},
		{CommandInfo{Name: CmdFactions, Args: []string{"filter"}, Description: "List factions"},
			func(ctx context.Context, s *Service, c Command) (*Result, error) { return s.ListFactions(ctx, c.arg("filter")) }},
		{CommandInfo{Name: CmdFormations, Args: []string{"faction", "filter"}, Description: "List formations"},
			func(ctx context.Context, s *Service, c Command) (*Result, error) {
				return s.ListFormations(ctx, c.arg("faction"), c.arg("filter"))
			}},
		{CommandInfo{Name: CmdUnits, Args: []string{"faction", "filter"}, Description: "List units"},
			func(ctx context.Context, s *Service, c Command) (*Result, error) {
				return s.ListUnits(ctx, c.arg("faction"), c.arg("filter"))
			}},
		{CommandInfo{Name: CmdStatus, Description: "Dataset cache status"},
			func(ctx context.Context, s *Service, _ Command) (*Result, error) { return s.Status(ctx) }},
	}
}

// Commands lists every command in help order.
func Commands() []CommandInfo {
	rs := routes()
	out := make([]CommandInfo, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.info)
	}
	return out
}

func lookup(name string) (route, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range routes() {
		if r.info.Name == name {
			return r, true
		}
	}
	return route{}, false
}

// Dispatch routes c to its operation. Errors are always *Error.
func (s *Service) Dispatch(ctx context.Context, c Command) (*Result, error) {
	start := time.Now()
	r, ok := lookup(c.Name)
	if !ok {
		metrics.RecordCommand("unknown", string(KindBadRequest), time.Since(start).Seconds())
		return nil, &Error{
			Kind:    KindBadRequest,
			Message: fmt.Sprintf("unknown command %q", c.Name),
			Err:     ErrUnknownCommand,
		}
	}

	res, err := r.run(ctx, s, c)
	outcome := "ok"
	switch {
	case err != nil:
		outcome = string(AsError(err).Kind)
	case res.Empty():
		outcome = "no_match"
		metrics.RecordNoMatch(r.info.Name)
	}
	elapsed := time.Since(start)
	metrics.RecordCommand(r.info.Name, outcome, elapsed.Seconds())
	s.logger.Debug(ctx, "command handled",
		logger.String("command", r.info.Name),
		logger.String("outcome", outcome),
		logger.Duration("elapsed", elapsed),
	)
	if err != nil {
		return nil, AsError(err)
	}
	return res, nil
}
