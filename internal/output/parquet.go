package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chrisdamba/orderlens/internal/cloudwriter"
	"github.com/chrisdamba/orderlens/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// OrderRow is the flat Parquet layout of a canonical order.
type OrderRow struct {
	ID             string  `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Date           int64   `parquet:"name=date, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Restaurant     string  `parquet:"name=restaurant, type=BYTE_ARRAY, convertedtype=UTF8"`
	RestaurantCity string  `parquet:"name=restaurant_city, type=BYTE_ARRAY, convertedtype=UTF8"`
	Cuisine        string  `parquet:"name=cuisine, type=BYTE_ARRAY, convertedtype=UTF8"`
	Amount         float64 `parquet:"name=amount, type=DOUBLE"`
	ItemTotal      float64 `parquet:"name=item_total, type=DOUBLE"`
	DeliveryFee    float64 `parquet:"name=delivery_fee, type=DOUBLE"`
	Discount       float64 `parquet:"name=discount, type=DOUBLE"`
	Taxes          float64 `parquet:"name=taxes, type=DOUBLE"`
	Tip            float64 `parquet:"name=tip, type=DOUBLE"`
	CouponApplied  bool    `parquet:"name=coupon_applied, type=BOOLEAN"`
	ItemCount      int32   `parquet:"name=item_count, type=INT32"`
	Status         string  `parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8"`
	PaymentMethod  string  `parquet:"name=payment_method, type=BYTE_ARRAY, convertedtype=UTF8"`
	IsPaid         bool    `parquet:"name=is_paid, type=BOOLEAN"`
	Service        string  `parquet:"name=service, type=BYTE_ARRAY, convertedtype=UTF8"`
	Platform       string  `parquet:"name=platform, type=BYTE_ARRAY, convertedtype=UTF8"`
	RainMode       bool    `parquet:"name=rain_mode, type=BOOLEAN"`
}

// ExtractionRow summarizes one envelope.
type ExtractionRow struct {
	RunID       string `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Source      string `parquet:"name=source, type=BYTE_ARRAY, convertedtype=UTF8"`
	TotalOrders int32  `parquet:"name=total_orders, type=INT32"`
	ExtractedAt int64  `parquet:"name=extracted_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Error       string `parquet:"name=error, type=BYTE_ARRAY, convertedtype=UTF8"`
	Diagnostics int32  `parquet:"name=diagnostics, type=INT32"`
}

func newOrderRow(o models.CanonicalOrder) OrderRow {
	return OrderRow{
		ID:             o.ID,
		Date:           o.Date.UnixMilli(),
		Restaurant:     o.Restaurant,
		RestaurantCity: o.RestaurantCity,
		Cuisine:        o.Cuisine,
		Amount:         o.Amount,
		ItemTotal:      o.ItemTotal,
		DeliveryFee:    o.DeliveryFee,
		Discount:       o.Discount,
		Taxes:          o.Taxes,
		Tip:            o.Tip,
		CouponApplied:  o.CouponApplied,
		ItemCount:      int32(len(o.Items)),
		Status:         o.Status,
		PaymentMethod:  o.PaymentMethod,
		IsPaid:         o.IsPaid,
		Service:        string(o.ServiceTag()),
		Platform:       o.Platform,
		RainMode:       o.RainMode,
	}
}

func newExtractionRow(r models.ExtractionResult) ExtractionRow {
	return ExtractionRow{
		RunID:       r.RunID,
		Source:      r.Data.Source,
		TotalOrders: int32(r.Data.TotalOrders),
		ExtractedAt: r.Data.ExtractedAt.UnixMilli(),
		Error:       r.Data.Error,
		Diagnostics: int32(len(r.Diagnostics)),
	}
}

// rowFor decodes msg into the row type for topic. Topics may carry a prefix.
func rowFor(topic string, msg []byte) (schema interface{}, row interface{}, err error) {
	switch {
	case strings.HasSuffix(topic, TopicCanonicalOrders):
		var o models.CanonicalOrder
		if err := json.Unmarshal(msg, &o); err != nil {
			return nil, nil, err
		}
		return new(OrderRow), newOrderRow(o), nil
	case strings.HasSuffix(topic, TopicExtractions):
		var r models.ExtractionResult
		if err := json.Unmarshal(msg, &r); err != nil {
			return nil, nil, err
		}
		return new(ExtractionRow), newExtractionRow(r), nil
	}
	return nil, nil, fmt.Errorf("no parquet schema for topic %s", topic)
}

// ParquetOutput writes one file per topic and day partition, locally or
// through a cloud writer. Files are only complete after Close.
type ParquetOutput struct {
	ctx                context.Context
	basePath           string
	folder             string
	mu                 sync.Mutex
	writers            map[string]*writer.ParquetWriter
	files              map[string]source.ParquetFile
	cloudWriterFactory cloudwriter.CloudWriterFactory
	cloudBucketName    string
}

func NewParquetOutput(ctx context.Context, basePath, folder string) *ParquetOutput {
	return &ParquetOutput{
		ctx:      ctx,
		basePath: basePath,
		folder:   folder,
		writers:  make(map[string]*writer.ParquetWriter),
		files:    make(map[string]source.ParquetFile),
	}
}

// NewCloudParquetOutput uploads each file to bucket under folder.
func NewCloudParquetOutput(ctx context.Context, factory cloudwriter.CloudWriterFactory, bucket, folder string) *ParquetOutput {
	p := NewParquetOutput(ctx, "", folder)
	p.cloudWriterFactory = factory
	p.cloudBucketName = bucket
	return p
}

func (p *ParquetOutput) WriteMessage(topic string, msg []byte) error {
	schema, row, err := rowFor(topic, msg)
	if err != nil {
		return fmt.Errorf("parquet %s: %w", topic, err)
	}
	partition, err := partitionOf(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	writerKey := topic + "/" + partition
	pw, ok := p.writers[writerKey]
	if !ok {
		pw, err = p.createNewWriter(writerKey, topic, partition, schema)
		if err != nil {
			return fmt.Errorf("failed to create new writer: %w", err)
		}
	}
	if err := pw.Write(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	return nil
}

func (p *ParquetOutput) createNewWriter(writerKey, topic, partition string, schema interface{}) (*writer.ParquetWriter, error) {
	var fw source.ParquetFile
	if p.cloudWriterFactory != nil {
		objectPath := path.Join(p.folder, topic, partition, "data.parquet")
		cw, err := p.cloudWriterFactory.NewWriter(p.ctx, p.cloudBucketName, objectPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		fw = NewCloudParquetFile(cw)
	} else {
		fullPath := filepath.Join(p.basePath, p.folder, topic, partition)
		if err := os.MkdirAll(fullPath, 0o755); err != nil {
			return nil, err
		}
		var err error
		fw, err = local.NewLocalFileWriter(filepath.Join(fullPath, "data.parquet"))
		if err != nil {
			return nil, fmt.Errorf("failed to create local file writer: %w", err)
		}
	}

	pw, err := writer.NewParquetWriter(fw, schema, 4)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	p.writers[writerKey] = pw
	p.files[writerKey] = fw
	return pw, nil
}

func (p *ParquetOutput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for key, pw := range p.writers {
		if err := pw.WriteStop(); err != nil {
			lastErr = err
			log.Error().Err(err).Msgf("error closing parquet writer for %s", key)
		}
		if err := p.files[key].Close(); err != nil {
			lastErr = err
			log.Error().Err(err).Msgf("error closing parquet file for %s", key)
		}
		delete(p.writers, key)
		delete(p.files, key)
	}
	return lastErr
}

// CloudParquetFile adapts a CloudWriter to the write-only subset of
// source.ParquetFile used by the parquet writer.
type CloudParquetFile struct {
	cloudWriter cloudwriter.CloudWriter
	offset      int64
}

func NewCloudParquetFile(cw cloudwriter.CloudWriter) *CloudParquetFile {
	return &CloudParquetFile{cloudWriter: cw}
}

func (c *CloudParquetFile) Open(string) (source.ParquetFile, error)   { return c, nil }
func (c *CloudParquetFile) Create(string) (source.ParquetFile, error) { return c, nil }

func (c *CloudParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		c.offset = offset
	case io.SeekCurrent:
		c.offset += offset
	default:
		return 0, fmt.Errorf("seek whence %d not supported for cloud storage", whence)
	}
	return c.offset, nil
}

func (c *CloudParquetFile) Read([]byte) (int, error) {
	return 0, fmt.Errorf("read not supported for cloud storage")
}

func (c *CloudParquetFile) Write(b []byte) (int, error) {
	n, err := c.cloudWriter.Write(b)
	c.offset += int64(n)
	return n, err
}

func (c *CloudParquetFile) Close() error {
	return c.cloudWriter.Close()
}
