package cmd

import (
	"errors"

	"github.com/chrisdamba/orderlens/internal/output"
	"github.com/spf13/cobra"
)

var errSampleRequested = errors.New("sample data requested")

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Generate a sample-data envelope and hand it to the configured output",
	RunE: func(cmd *cobra.Command, args []string) error {
		res := offlineExtractor(cfg).Fallback(errSampleRequested)

		dest, err := output.NewDestination(cmd.Context(), cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		pub := output.NewPublisher(dest, cfg.KafkaTopicPrefix)
		if err := pub.Publish(res); err != nil {
			_ = pub.Close()
			return err
		}
		return pub.Close()
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
}
