package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/chrisdamba/orderlens/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "envelope.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadEnvelope(t *testing.T) {
	cfg := &models.Config{SampleCount: 3, SampleSeed: 9}
	res := offlineExtractor(cfg).Fallback(errSampleRequested)
	body, err := json.Marshal(res)
	require.NoError(t, err)

	loaded, err := loadEnvelope(writeFile(t, string(body)+"\n"))
	require.NoError(t, err)
	assert.Equal(t, res.RunID, loaded.RunID)
	assert.Len(t, loaded.Data.Orders, 3)
	assert.Equal(t, models.OutcomeFallback, loaded.Outcome)
}

func TestLoadEnvelopeReadsNewestRun(t *testing.T) {
	older := offlineExtractor(&models.Config{SampleCount: 2, SampleSeed: 1}).Fallback(errSampleRequested)
	newer := offlineExtractor(&models.Config{SampleCount: 5, SampleSeed: 2}).Fallback(errSampleRequested)
	var lines []byte
	for _, res := range []models.ExtractionResult{older, newer} {
		body, err := json.Marshal(res)
		require.NoError(t, err)
		lines = append(append(lines, body...), '\n')
	}

	loaded, err := loadEnvelope(writeFile(t, string(lines)))
	require.NoError(t, err)
	assert.Equal(t, newer.RunID, loaded.RunID)
	assert.Len(t, loaded.Data.Orders, 5)
}

func TestLoadEnvelopeErrors(t *testing.T) {
	_, err := loadEnvelope("")
	assert.Error(t, err)

	_, err = loadEnvelope(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = loadEnvelope(writeFile(t, "{not json"))
	assert.Error(t, err)

	_, err = loadEnvelope(writeFile(t, "\n"))
	assert.Error(t, err)

	_, err = loadEnvelope(writeFile(t, `{"success":true,"data":{"orders":[],"source":"api"}}`))
	assert.Error(t, err)
}

func TestSampleFactorySeed(t *testing.T) {
	cfg := &models.Config{SampleSeed: 5}
	a := newSampleFactory(cfg).CreateOrders(4)
	b := newSampleFactory(cfg).CreateOrders(4)
	for i := range a {
		assert.Equal(t, a[i].Restaurant, b[i].Restaurant)
		assert.Equal(t, a[i].Amount, b[i].Amount)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}
