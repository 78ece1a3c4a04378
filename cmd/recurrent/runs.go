package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/born-ml/recurrent/internal/envconfig"
	"github.com/born-ml/recurrent/internal/track"
)

func newRunsCmd() *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List tracked training runs",
		Args:  cobra.NoArgs,
		RunE:  RunsHandler,
	}

	runsCmd.Flags().String("store", envconfig.Store(), "Tracking store backend: memory or sqlite")
	runsCmd.Flags().String("store-path", envconfig.StorePath(), "SQLite database path for the sqlite store")
	runsCmd.Flags().String("metrics", "", "Also print this metric series for every run")

	return runsCmd
}

// RunsHandler lists runs from the tracking store, newest last. The
// memory store is empty in a fresh process, so this is mainly useful
// with --store sqlite.
func RunsHandler(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	kind, _ := flags.GetString("store")
	path, _ := flags.GetString("store-path")
	series, _ := flags.GetString("metrics")

	store, err := track.NewStore(kind, path)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTARTED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", run.ID, run.Name, humanize.Time(run.StartedAt))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if series == "" {
		return nil
	}
	for _, run := range runs {
		metrics, err := store.Metrics(ctx, run.ID, series)
		if err != nil {
			return err
		}
		if len(metrics) == 0 {
			continue
		}
		fmt.Printf("\n%s %s:\n", run.Name, series)
		for _, m := range metrics {
			fmt.Printf("  step %d\t%.6f\n", m.Step, m.Value)
		}
	}
	return nil
}
