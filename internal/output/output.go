// Package output hands extraction envelopes and canonical orders to
// downstream consumers: stdout, partitioned JSON lines, Kafka or Parquet.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type OutputDestination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

// KeyedDestination is implemented by sinks that can carry a message key.
type KeyedDestination interface {
	WriteKeyedMessage(topic, key string, msg []byte) error
}

type ConsoleOutput struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleOutput(out io.Writer) *ConsoleOutput {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleOutput{out: out}
}

func (c *ConsoleOutput) WriteMessage(topic string, msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.out, "[%s] %s\n", topic, msg); err != nil {
		return fmt.Errorf("failed to write to console: %w", err)
	}
	return nil
}

func (c *ConsoleOutput) Close() error { return nil }

// JSONOutput appends messages as JSON lines under
// <basePath>/<folder>/<topic>/year=YYYY/month=MM/day=DD/data.jsonl.
type JSONOutput struct {
	basePath string
	folder   string
	mu       sync.Mutex
	files    map[string]*os.File
}

func NewJSONOutput(basePath, folder string) *JSONOutput {
	return &JSONOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*os.File),
	}
}

func (j *JSONOutput) WriteMessage(topic string, msg []byte) error {
	if !json.Valid(msg) {
		return fmt.Errorf("message for %s is not valid JSON", topic)
	}
	partition, err := partitionOf(msg)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(j.basePath, j.folder, topic, partition)

	j.mu.Lock()
	defer j.mu.Unlock()

	fileKey := topic + "/" + partition
	file, ok := j.files[fileKey]
	if !ok {
		if err := os.MkdirAll(fullPath, 0o755); err != nil {
			return err
		}
		file, err = os.OpenFile(filepath.Join(fullPath, "data.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		j.files[fileKey] = file
	}

	if _, err := file.Write(msg); err != nil {
		return err
	}
	_, err = file.WriteString("\n")
	return err
}

func (j *JSONOutput) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	var lastErr error
	for key, file := range j.files {
		if err := file.Close(); err != nil {
			lastErr = err
		}
		delete(j.files, key)
	}
	return lastErr
}

// stamp picks the time a message belongs to: an order's date or an
// envelope's extraction time.
type stamp struct {
	Date        *time.Time `json:"date"`
	ExtractedAt *time.Time `json:"extractedAt"`
	Data        *struct {
		ExtractedAt *time.Time `json:"extractedAt"`
	} `json:"data"`
}

func (s stamp) time() (time.Time, bool) {
	switch {
	case s.Date != nil:
		return *s.Date, true
	case s.ExtractedAt != nil:
		return *s.ExtractedAt, true
	case s.Data != nil && s.Data.ExtractedAt != nil:
		return *s.Data.ExtractedAt, true
	}
	return time.Time{}, false
}

func partitionOf(msg []byte) (string, error) {
	var s stamp
	if err := json.Unmarshal(msg, &s); err != nil {
		return "", fmt.Errorf("decoding message time: %w", err)
	}
	t, ok := s.time()
	if !ok {
		return "", fmt.Errorf("message carries no date or extractedAt")
	}
	t = t.UTC()
	return fmt.Sprintf("year=%d/month=%02d/day=%02d", t.Year(), t.Month(), t.Day()), nil
}
