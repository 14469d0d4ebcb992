package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/chrisdamba/orderlens/internal/extractor"
	"github.com/chrisdamba/orderlens/internal/factories"
	"github.com/chrisdamba/orderlens/internal/models"
	"github.com/chrisdamba/orderlens/internal/normalize"
)

func newSampleFactory(cfg *models.Config) *factories.OrderFactory {
	var src rand.Source
	if cfg.SampleSeed != 0 {
		src = rand.NewSource(cfg.SampleSeed)
	}
	return factories.NewOrderFactory(src, nil)
}

// newExtractor wires the HTTP client, normalizer and sample generator from
// the loaded config.
func newExtractor(cfg *models.Config, onPage func(page, collected int)) (*extractor.Extractor, error) {
	client, err := extractor.NewClient(extractor.ClientConfigFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	norm := normalize.New()
	norm.Location = cfg.Location()

	opts := extractor.OptionsFromConfig(cfg)
	opts.OnPage = onPage
	return extractor.New(client, norm, newSampleFactory(cfg), opts), nil
}

// offlineExtractor only builds fallback envelopes.
func offlineExtractor(cfg *models.Config) *extractor.Extractor {
	return extractor.New(nil, nil, newSampleFactory(cfg), extractor.OptionsFromConfig(cfg))
}

// loadEnvelope reads an envelope written by `extract --output json` or the
// dashboard API. An envelope without orders is an error.
func loadEnvelope(path string) (models.ExtractionResult, error) {
	var res models.ExtractionResult
	if path == "" {
		return res, errors.New("no envelope file given")
	}
	f, err := os.Open(path)
	if err != nil {
		return res, err
	}
	defer f.Close()

	// json output appends one envelope per run; the last one is the newest
	dec := json.NewDecoder(f)
	found := false
	for {
		var next models.ExtractionResult
		err := dec.Decode(&next)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("decoding envelope %s: %w", path, err)
		}
		res, found = next, true
	}
	if !found {
		return res, fmt.Errorf("envelope %s is empty", path)
	}
	if len(res.Data.Orders) == 0 {
		return res, fmt.Errorf("envelope %s has no orders", path)
	}
	if res.IsFallback() {
		res.Outcome = models.OutcomeFallback
	}
	return res, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
