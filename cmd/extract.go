package cmd

import (
	"fmt"

	"github.com/chrisdamba/orderlens/internal/aggregate"
	"github.com/chrisdamba/orderlens/internal/extractor"
	"github.com/chrisdamba/orderlens/internal/models"
	"github.com/chrisdamba/orderlens/internal/output"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Fetch the order history and hand the envelope to the configured output",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		showProgress, _ := cmd.Flags().GetBool("progress")
		service, _ := cmd.Flags().GetString("service")

		bar := progressbar.NewOptions(cfg.PageCap,
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("fetching pages"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetVisibility(showProgress),
		)
		ex, err := newExtractor(cfg, func(page, collected int) {
			_ = bar.Set(page)
			bar.Describe(fmt.Sprintf("%d orders", collected))
		})
		if err != nil {
			return err
		}

		res := ex.Extract(ctx, extractor.ParseCookieHeader(cfg.Cookie))
		_ = bar.Finish()
		if res.IsFallback() {
			log.Warn().Msgf("showing sample data: %s", res.Data.Error)
		}

		dest, err := output.NewDestination(ctx, cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		pub := output.NewPublisher(dest, cfg.KafkaTopicPrefix)
		if err := pub.Publish(res); err != nil {
			_ = pub.Close()
			return err
		}
		if err := pub.Close(); err != nil {
			return err
		}

		if service != "" {
			engine := aggregate.New(cfg.Location())
			return writeJSON(cmd.OutOrStdout(), engine.Aggregate(res.Data.Orders, models.ParseServiceFilter(service)))
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().String("cookie", "", "Cookie header for the upstream domain")
	extractCmd.Flags().Int("page-cap", 20, "Maximum number of pages to request")
	extractCmd.Flags().Duration("page-delay", extractor.DefaultPageDelay, "Minimum spacing between page requests")
	extractCmd.Flags().Bool("progress", true, "Show page progress on stderr")
	extractCmd.Flags().String("service", "", "Also print stats for this service filter (all, food, instamart, dineout, genie)")
	bindFlags(extractCmd.Flags(), map[string]string{
		"cookie":     "cookie",
		"page_cap":   "page-cap",
		"page_delay": "page-delay",
	})
	rootCmd.AddCommand(extractCmd)
}
