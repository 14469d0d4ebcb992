package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {

	cfg, err := LoadConfigFrom(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.PageCap)
	assert.Equal(t, 5, cfg.MinPageSize)
	assert.Equal(t, 500*time.Millisecond, cfg.PageDelay)
	assert.Equal(t, 30, cfg.SampleCount)
	assert.Equal(t, "console", cfg.OutputDestination)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orderlens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
page_cap: 7
page_delay: 1s
timezone: Asia/Kolkata
cloud_storage:
  provider: s3
  bucket_name: lake
`), 0o644))
	t.Setenv("ORDERLENS_PAGE_CAP", "9")
	t.Setenv("ORDERLENS_COOKIE", "a=1")

	cfg, err := LoadConfigFrom(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.PageCap)
	assert.Equal(t, time.Second, cfg.PageDelay)
	assert.Equal(t, "a=1", cfg.Cookie)
	assert.Equal(t, "lake", cfg.CloudStorage.BucketName)
	assert.Equal(t, "s3", cfg.CloudStorage.Provider)
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	_, err := LoadConfigFrom(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("ORDERLENS_TIMEZONE", "Mars/Olympus")
	_, err = LoadConfigFrom(viper.New(), "")
	assert.Error(t, err)
}

func TestParseServiceFilter(t *testing.T) {
	assert.Equal(t, ServiceGenie, ParseServiceFilter(" Genie "))
	assert.Equal(t, ServiceAll, ParseServiceFilter(""))
	assert.Equal(t, ServiceAll, ParseServiceFilter("pickup"))
	assert.Equal(t, ServiceFood, ServiceTypeOf(""))
	assert.Equal(t, ServiceFood, ServiceTypeOf("Delivery"))
	assert.Equal(t, ServiceType("pickup"), ServiceTypeOf("PICKUP"))
}
