package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chrisdamba/orderlens/internal/cloudwriter"
	"github.com/chrisdamba/orderlens/internal/models"
)

const (
	DestinationConsole = "console"
	DestinationJSON    = "json"
	DestinationKafka   = "kafka"
	DestinationParquet = "parquet"
	DestinationNone    = "none"
)

// Discard drops every message.
type Discard struct{}

func (Discard) WriteMessage(string, []byte) error { return nil }
func (Discard) Close() error                      { return nil }

// NewDestination builds the sink selected by output_destination. Console
// output goes to stdout.
func NewDestination(ctx context.Context, cfg *models.Config, stdout io.Writer) (OutputDestination, error) {
	switch strings.ToLower(cfg.OutputDestination) {
	case "", DestinationConsole:
		return NewConsoleOutput(stdout), nil
	case DestinationJSON:
		return NewJSONOutput(cfg.OutputPath, cfg.OutputFolder), nil
	case DestinationKafka:
		return NewKafkaOutput(cfg.KafkaBrokerList, cfg.AppName)
	case DestinationParquet:
		return newParquetFromConfig(ctx, cfg)
	case DestinationNone:
		return Discard{}, nil
	}
	return nil, fmt.Errorf("unsupported output destination: %s", cfg.OutputDestination)
}

func newParquetFromConfig(ctx context.Context, cfg *models.Config) (*ParquetOutput, error) {
	switch strings.ToLower(cfg.CloudStorage.Provider) {
	case "", "local":
		return NewParquetOutput(ctx, cfg.OutputPath, cfg.OutputFolder), nil
	case "s3":
		factory, err := cloudwriter.NewS3WriterFactory(ctx, cfg.CloudStorage.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		return NewCloudParquetOutput(ctx, factory, cfg.CloudStorage.BucketName, cfg.OutputFolder), nil
	}
	return nil, fmt.Errorf("unsupported cloud storage provider: %s", cfg.CloudStorage.Provider)
}
