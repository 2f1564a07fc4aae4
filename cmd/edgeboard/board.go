package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/edgeboard/internal/edge"
	"github.com/yourusername/edgeboard/internal/models"
	"github.com/yourusername/edgeboard/internal/service"
)

var (
	boardSport  string
	boardDate   string
	boardSort   string
	boardFormat string
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Print the ranked board for one sport and day",
	Example: `  edgeboard board --sport nba --date 2024-01-15 --sort spread
  edgeboard board --sport cfb --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sport, err := edge.ParseSport(boardSport)
		if err != nil {
			return err
		}
		sortMode := cfg.API.DefaultSort
		if boardSort != "" {
			sortMode = boardSort
		}
		mode, err := edge.ParseSortMode(sortMode)
		if err != nil {
			return err
		}
		date, err := resolveDate(boardDate, cfg.Location(), time.Now())
		if err != nil {
			return err
		}

		a, err := buildApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		board, err := a.boards.Board(cmd.Context(), service.BoardRequest{Sport: sport, Date: date, Sort: mode})
		if err != nil {
			return err
		}

		if boardFormat == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(board)
		}
		return printBoard(cmd.OutOrStdout(), board)
	},
}

func init() {
	boardCmd.Flags().StringVarP(&boardSport, "sport", "s", "", "Sport (nba, ncaab, nfl, cfb)")
	boardCmd.Flags().StringVarP(&boardDate, "date", "d", "", "Day as YYYY-MM-DD (default: today in the configured timezone)")
	boardCmd.Flags().StringVar(&boardSort, "sort", "", "Sort mode (time, spread, moneyline, ou)")
	boardCmd.Flags().StringVarP(&boardFormat, "format", "f", "table", "Output format (table, json)")
	boardCmd.MarkFlagRequired("sport")
}

// resolveDate parses raw, or returns today in loc when raw is empty
func resolveDate(raw string, loc *time.Location, now time.Time) (time.Time, error) {
	if raw == "" {
		local := now.In(loc)
		return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", models.ErrInvalidDate, raw)
	}
	return date, nil
}

func printBoard(out io.Writer, board *service.Board) error {
	fmt.Fprintf(out, "%s %s  sort=%s  run=%s\n\n", board.Sport, board.Date, board.Sort, orDash(board.RunID))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KICKOFF\tMATCHUP\tSPREAD EDGE\tSPREAD ACC\tOU EDGE\tOU ACC\tML PROB\tML ACC")
	for _, g := range board.Games {
		fmt.Fprintf(w, "%s\t%s @ %s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			g.Game.Kickoff(),
			orDash(g.Game.AwayTeam), orDash(g.Game.HomeTeam),
			formatEdge(g.SpreadEdge, g.SpreadPick), formatAccuracy(g.SpreadAccuracy),
			formatEdge(g.OUEdge, g.OUPick), formatAccuracy(g.OUAccuracy),
			formatEdge(g.MoneylineEdge, g.MoneylinePick), formatAccuracy(g.MoneylineAccuracy),
		)
	}
	return w.Flush()
}

func formatEdge(obs edge.EdgeObservation, pick edge.Side) string {
	if !obs.Known() {
		return "-"
	}
	if pick == edge.SideNone {
		return obs.Bucket.String()
	}
	return fmt.Sprintf("%s (%s)", obs.Bucket.String(), pick)
}

func formatAccuracy(stat *models.AccuracyStat) string {
	if stat == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%% %d-%d", stat.AccuracyPct, stat.Correct, stat.Losses())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
