package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const EnvPrefix = "ORDERLENS"

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
}

type Config struct {
	AppName   string `mapstructure:"app_name"`
	AppEnv    string `mapstructure:"app_env"`
	LogLevel  string `mapstructure:"log_level"`
	LogPretty bool   `mapstructure:"log_pretty"`

	// upstream API
	OrdersURL      string        `mapstructure:"orders_url"`
	ProfileURL     string        `mapstructure:"profile_url"`
	Cookie         string        `mapstructure:"cookie"` // raw Cookie header for the upstream domain
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	PageCap        int           `mapstructure:"page_cap"`
	MinPageSize    int           `mapstructure:"min_page_size"` // a page at least this big suggests more data
	PageDelay      time.Duration `mapstructure:"page_delay"`

	// fallback data
	SampleCount int   `mapstructure:"sample_count"`
	SampleSeed  int64 `mapstructure:"sample_seed"` // 0 seeds from the clock

	// aggregation
	Timezone string `mapstructure:"timezone"`

	// envelope hand-off
	OutputDestination string             `mapstructure:"output_destination"` // console, json, kafka, parquet, none
	OutputPath        string             `mapstructure:"output_path"`
	OutputFolder      string             `mapstructure:"output_folder"`
	KafkaBrokerList   string             `mapstructure:"kafka_broker_list"`
	KafkaTopicPrefix  string             `mapstructure:"kafka_topic_prefix"`
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`

	// dashboard API
	ServerAddr string `mapstructure:"server_addr"`
}

// SetDefaults registers a default for every key so env overrides work
// without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "orderlens")
	v.SetDefault("app_env", "local")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", true)

	v.SetDefault("orders_url", "https://www.swiggy.com/dapi/order/all")
	v.SetDefault("profile_url", "https://www.swiggy.com/dapi/restaurants/list/v5?lat=12.9715987&lng=77.5945627")
	v.SetDefault("cookie", "")
	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("max_retries", 2)
	v.SetDefault("retry_delay", 250*time.Millisecond)
	v.SetDefault("page_cap", 20)
	v.SetDefault("min_page_size", 5)
	v.SetDefault("page_delay", 500*time.Millisecond)

	v.SetDefault("sample_count", 30)
	v.SetDefault("sample_seed", 0)

	v.SetDefault("timezone", "UTC")

	v.SetDefault("output_destination", "console")
	v.SetDefault("output_path", ".")
	v.SetDefault("output_folder", "extractions")
	v.SetDefault("kafka_broker_list", "localhost:9092")
	v.SetDefault("kafka_topic_prefix", "")
	v.SetDefault("cloud_storage.provider", "")
	v.SetDefault("cloud_storage.bucket_name", "")
	v.SetDefault("cloud_storage.region", "")

	v.SetDefault("server_addr", ":8080")
}

// LoadConfig initializes and reads the configuration using the global Viper
// instance, which is where the cobra flags are bound.
func LoadConfig(cfgFile string) (*Config, error) {
	return LoadConfigFrom(viper.GetViper(), cfgFile)
}

// LoadConfigFrom reads cfgFile (or ./orderlens.yaml when empty) into v and
// decodes the result. A missing default config file is not an error.
func LoadConfigFrom(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("orderlens")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the extractor cannot run with.
func (cfg *Config) Validate() error {
	if cfg.OrdersURL == "" {
		return errors.New("orders_url must be set")
	}
	if cfg.PageCap <= 0 {
		return fmt.Errorf("page_cap must be positive, got %d", cfg.PageCap)
	}
	if cfg.MinPageSize <= 0 {
		return fmt.Errorf("min_page_size must be positive, got %d", cfg.MinPageSize)
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", cfg.MaxRetries)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	return nil
}

// Location returns the configured time zone; Validate has already checked it.
func (cfg *Config) Location() *time.Location {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
