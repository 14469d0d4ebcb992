package cmd

import (
	"github.com/chrisdamba/orderlens/internal/aggregate"
	"github.com/chrisdamba/orderlens/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [envelope.json]",
	Short: "Print spending statistics for a saved envelope",
	Long: `stats loads an envelope written by extract and prints the aggregate view for one service
filter, or for every filter with --all. A missing or unreadable envelope is replaced by sample data.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _ := cmd.Flags().GetString("service")
		all, _ := cmd.Flags().GetBool("all")

		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		res, err := loadEnvelope(path)
		if err != nil {
			log.Warn().Err(err).Msg("no usable envelope, falling back to sample data")
			res = offlineExtractor(cfg).Fallback(err)
		}

		engine := aggregate.New(cfg.Location())
		if all {
			stats, err := engine.AggregateAll(cmd.Context(), res.Data.Orders)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		}
		return writeJSON(cmd.OutOrStdout(), engine.Aggregate(res.Data.Orders, models.ParseServiceFilter(service)))
	},
}

func init() {
	statsCmd.Flags().String("service", "all", "Service filter: all, food, instamart, dineout or genie")
	statsCmd.Flags().Bool("all", false, "Print stats for every service filter")
	rootCmd.AddCommand(statsCmd)
}
