package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	service "github.com/okian/scrollstats/internal/app"
	"github.com/okian/scrollstats/internal/render"
)

// errReported marks a failure already written to stderr.
var errReported = errors.New("command failed")

var (
	queryCaller string
	queryJSON   bool
)

var queryCmd = &cobra.Command{
	Use:   "query <command> [key=value ...]",
	Short: "Run one bot command against the configured spreadsheets",
	Long: `Run a bot command locally and print its reply.

Arguments after the command name are key=value pairs. Without a command the
available commands are listed.

Examples:
  scrollstats query most-common faction="stormcast eternals"
  scrollstats query faction-stats name=seraphon formation=overall
  scrollstats query refresh --caller 1234567890`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryCaller, "caller", "", "caller id used for admin checks")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the structured result as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listCommands()
	}
	cargs, err := parseArgs(args[1:])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := bootstrap(ctx, os.Stderr)
	if err != nil {
		return err
	}

	res, err := c.svc.Dispatch(ctx, service.Command{Name: args[0], Args: cargs, Caller: queryCaller})
	if err != nil {
		_ = render.Error(os.Stderr, err)
		return errReported
	}
	if queryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return render.Text(os.Stdout, res)
}

func parseArgs(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("argument %q must be key=value", a)
		}
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out, nil
}

func listCommands() error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, info := range service.Commands() {
		args := strings.Join(info.Args, " ")
		if info.Admin {
			args = "(admin)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, args, info.Description)
	}
	return tw.Flush()
}
