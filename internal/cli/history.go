package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/j-veylop/omni-quota/internal/logger"
	"github.com/j-veylop/omni-quota/internal/models"
	"github.com/j-veylop/omni-quota/internal/services/history"
	"github.com/j-veylop/omni-quota/internal/ui/components"
)

const sparklineWidth = 60

func newHistoryCmd(e *env) *cobra.Command {
	var (
		account string
		model   string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded quota samples",
		Long: `Show recorded quota samples, oldest first.

Examples:
  oq history
  oq history --account inst_alice@example.com --model "Claude Opus 4.5"
  oq history --limit 0 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, done, err := e.openManager(cmd)
			if err != nil {
				return err
			}
			defer done()

			samples := selectSamples(mgr.History(), models.Identity(account), model)
			if limit > 0 && len(samples) > limit {
				samples = samples[len(samples)-limit:]
			}

			if e.flags.JSON {
				return writeJSON(cmd.OutOrStdout(), samples)
			}
			if err := writeHistoryTable(cmd.OutOrStdout(), samples); err != nil {
				return err
			}
			if account != "" && model != "" && len(samples) > 0 {
				series := mgr.History().Series(models.Identity(account), model)
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "\nTrend: %s\n", components.RenderSparkline(series, sparklineWidth))
			}
			return err
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Filter by account ID")
	cmd.Flags().StringVar(&model, "model", "", "Filter by model name")
	cmd.Flags().IntVar(&limit, "limit", 50, "Show at most this many recent samples (0 for all)")

	cmd.AddCommand(newHistoryClearCmd(e))
	return cmd
}

func newHistoryClearCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, done, err := e.openManager(cmd)
			if err != nil {
				return err
			}
			defer done()

			n := mgr.History().Len()
			if err := mgr.History().Clear(); err != nil {
				return err
			}
			if err := mgr.Compact(); err != nil {
				logger.Warn("Failed to compact store", "error", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d sample(s)\n", n)
			return err
		},
	}
}

// selectSamples returns the samples matching the non-empty filters.
func selectSamples(h *history.Sampler, account models.Identity, model string) []models.HistorySnapshot {
	switch {
	case account != "" && model != "":
		return h.ForModel(account, model)
	case account != "":
		return h.ForAccount(account)
	default:
		return filterSamples(h.History(), model)
	}
}

func filterSamples(all []models.HistorySnapshot, model string) []models.HistorySnapshot {
	if model == "" {
		return all
	}
	out := make([]models.HistorySnapshot, 0, len(all))
	for _, s := range all {
		if s.ModelName == model {
			out = append(out, s)
		}
	}
	return out
}
