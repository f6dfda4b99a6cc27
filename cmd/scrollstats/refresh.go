package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/scrollstats/internal/adapters/repository"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch every configured spreadsheet once and report the outcome",
	Long: `Fetch every configured spreadsheet once and report rows loaded per
dataset. Useful for checking source URLs before deploying. Exits non-zero
when a configured dataset fails to load.`,
	RunE: runRefresh,
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := bootstrap(ctx, os.Stderr)
	if err != nil {
		return err
	}

	failed := 0
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, o := range c.cache.RefreshAll(ctx) {
		detail := ""
		switch o.Kind {
		case repository.Reloaded:
			detail = o.LoadedAt.UTC().Format(time.RFC3339)
		case repository.Failed, repository.KeptStale:
			failed++
			detail = o.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d rows\t%s\n", o.Dataset, o.Kind, o.Rows, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d dataset(s) failed to load", failed)
	}
	return nil
}
