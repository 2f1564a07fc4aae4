package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/edgeboard/internal/consensus"
	applogger "github.com/yourusername/edgeboard/internal/logger"
	"github.com/yourusername/edgeboard/internal/models"
	"github.com/yourusername/edgeboard/internal/service"
)

var (
	consensusTarget    string
	consensusFile      string
	consensusWeighting string
)

var consensusCmd = &cobra.Command{
	Use:   "consensus",
	Short: "Combine model predictions read from a JSON file",
	Long: `Reads a JSON array of model predictions ("-" for stdin), each with
model_name, win_pct, opponent_win_pct and optionally games and confidence,
and prints the weighted consensus.`,
	Example: `  edgeboard consensus --target moneyline --file preds.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := consensus.ParseTarget(consensusTarget)
		if err != nil {
			return err
		}
		weightingName := cfg.Consensus.Weighting
		if consensusWeighting != "" {
			weightingName = consensusWeighting
		}
		weighting, err := consensus.ParseWeighting(weightingName)
		if err != nil {
			return err
		}

		preds, err := readPredictions(consensusFile, cmd.InOrStdin())
		if err != nil {
			return err
		}

		svc := service.NewConsensusService(weighting, applogger.NewConsensusLogger(logger))
		result, err := svc.Compute(target, preds)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	consensusCmd.Flags().StringVarP(&consensusTarget, "target", "t", "moneyline", "Target (moneyline, spread_cover, over_under)")
	consensusCmd.Flags().StringVarP(&consensusFile, "file", "f", "-", "Predictions JSON file, - for stdin")
	consensusCmd.Flags().StringVarP(&consensusWeighting, "weighting", "w", "", "Weighting (equal, sample_size); defaults to config")
}

func readPredictions(path string, stdin io.Reader) ([]models.ModelPrediction, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open predictions: %w", err)
		}
		defer f.Close()
		r = f
	}

	var preds []models.ModelPrediction
	if err := json.NewDecoder(r).Decode(&preds); err != nil {
		return nil, fmt.Errorf("failed to decode predictions: %w", err)
	}
	return preds, nil
}
