package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Refresh every enabled sport's index and report its build statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "source=%s  sports=%s\n\n", cfg.Source.Kind, sportNames(a.sports))

		for name, check := range a.healthChecks() {
			status := "ok"
			if err := check.Ping(ctx); err != nil {
				status = err.Error()
			}
			fmt.Fprintf(out, "%-9s %s\n", name+":", status)
		}
		fmt.Fprintln(out)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SPORT\tROWS\tINDEXED\tDUPLICATES\tUNKNOWN TYPE\tINVALID\tOFF GRID\tSTATUS")

		failed := 0
		for _, sport := range a.sports {
			snap, err := a.indexes.Refresh(ctx, sport)
			if err != nil {
				failed++
				fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t-\t%v\n", sport, err)
				continue
			}
			st := snap.Index.Stats()
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\tok\n",
				sport, st.Rows, st.Indexed, st.Duplicates, st.UnknownEdgeTypes, st.InvalidBuckets, st.OffGrid)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d sports failed to refresh", failed, len(a.sports))
		}
		return nil
	},
}
