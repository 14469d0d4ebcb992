package cmd

import (
	"fmt"
	"os"

	"github.com/chrisdamba/orderlens/internal/logging"
	"github.com/chrisdamba/orderlens/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *models.Config
)

var rootCmd = &cobra.Command{
	Use:   "orderlens",
	Short: "Extracts food delivery order history and summarizes spending",
	Long: `orderlens walks the paginated order history of a food delivery account, normalizes every
order into one schema and derives spending statistics by month, restaurant, item and service.
When the account cannot be read it falls back to generated sample orders.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = models.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		return logging.Init(cfg.AppName, cfg.LogLevel, cfg.LogPretty)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./orderlens.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("output", "console", "Hand-off destination: console, json, kafka, parquet or none")
	rootCmd.PersistentFlags().String("output-path", ".", "Base path for json and parquet output")
	rootCmd.PersistentFlags().String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	rootCmd.PersistentFlags().String("timezone", "UTC", "Time zone for monthly buckets")
	rootCmd.PersistentFlags().Int64("seed", 0, "Random seed for sample data (0 seeds from the clock)")
	rootCmd.PersistentFlags().Int("sample-count", 30, "Number of sample orders generated on fallback")

	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"log_level":          "log-level",
		"output_destination": "output",
		"output_path":        "output-path",
		"kafka_broker_list":  "kafka-broker-list",
		"timezone":           "timezone",
		"sample_seed":        "seed",
		"sample_count":       "sample-count",
	})
}

// bindFlags binds config keys to flags so that an explicitly set flag wins
// over env and file values.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(name)))
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
