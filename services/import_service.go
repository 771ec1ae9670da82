package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"storefront-service/importer"
	"storefront-service/models"
	awspkg "storefront-service/pkg/aws"

	"go.uber.org/zap"
)

// Archiver keeps a copy of a staged upload somewhere durable.
type Archiver interface {
	Archive(ctx context.Context, name, localPath string) (string, error)
}

type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordValue(ctx context.Context, metricName string, value float64, dimensions map[string]string) error
}

// CacheInvalidator drops cached listings of an entity after new documents
// were stored.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, entity string) error
}

// ImportEntity binds an entity's import schema to the store it lands in.
type ImportEntity struct {
	Schema importer.Schema
	Target importer.Target
	Plural string
}

type ImportOption func(*ImportService)

func WithArchiver(a Archiver) ImportOption {
	return func(s *ImportService) { s.archiver = a }
}

func WithMetrics(m MetricsRecorder) ImportOption {
	return func(s *ImportService) { s.metrics = m }
}

func WithCacheInvalidator(c CacheInvalidator) ImportOption {
	return func(s *ImportService) { s.cache = c }
}

// ImportService runs staged uploads through the import pipeline.
type ImportService struct {
	staging  *importer.Staging
	entities map[string]ImportEntity
	archiver Archiver
	metrics  MetricsRecorder
	cache    CacheInvalidator
}

func NewImportService(staging *importer.Staging, entities map[string]ImportEntity, opts ...ImportOption) *ImportService {
	s := &ImportService{staging: staging, entities: entities}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stage writes src to the staging directory. The caller owns the returned
// upload until it is handed to Import.
func (s *ImportService) Stage(src io.Reader, filename string) (*importer.Upload, error) {
	return s.staging.Save(src, filename)
}

// Import runs up through the pipeline of entity and removes the staged file
// before returning, whatever the outcome. The returned error is only set
// when the batch could not be started; pipeline failures are reported in the
// summary.
func (s *ImportService) Import(ctx context.Context, entity string, format importer.Format, up *importer.Upload, opts importer.Options) (importer.Summary, error) {
	defer func() {
		if err := up.Release(); err != nil {
			zap.L().Warn("Failed to remove staged upload", zap.String("path", up.Path), zap.Error(err))
		}
	}()

	ent, ok := s.entities[entity]
	if !ok {
		return importer.Summary{}, fmt.Errorf("unknown import entity %q", entity)
	}

	f, err := up.Open()
	if err != nil {
		return importer.Summary{}, fmt.Errorf("failed to open staged upload: %w", err)
	}
	defer f.Close()

	if !opts.DryRun {
		s.archive(ctx, entity, up)
	}

	start := time.Now()
	sum := importer.New(ent.Schema, ent.Target, opts).Run(ctx, importer.Parse(f, format))

	fields := []zap.Field{
		zap.String("entity", entity),
		zap.String("format", string(format)),
		zap.Bool("dry_run", opts.DryRun),
		zap.String("state", sum.State.String()),
		zap.Int("processed", sum.Processed),
		zap.Int("inserted", sum.Inserted),
		zap.Int("skipped", sum.Skipped),
		zap.Duration("duration", time.Since(start)),
	}
	if sum.OK() {
		zap.L().Info("Import finished", fields...)
	} else {
		zap.L().Warn("Import aborted", append(fields, zap.Int("row", sum.Line), zap.Error(sum.Err))...)
	}

	if !opts.DryRun {
		if sum.Inserted > 0 && s.cache != nil {
			if err := s.cache.Invalidate(ctx, entity); err != nil {
				zap.L().Warn("Failed to invalidate listing cache", zap.String("entity", entity), zap.Error(err))
			}
		}
		s.record(entity, sum)
	}
	return sum, nil
}

func (s *ImportService) archive(ctx context.Context, entity string, up *importer.Upload) {
	if s.archiver == nil {
		return
	}
	name := fmt.Sprintf("%s/%s-%s", entity, time.Now().UTC().Format("20060102T150405Z"), filepath.Base(up.Path))
	key, err := s.archiver.Archive(ctx, name, up.Path)
	if err != nil {
		zap.L().Warn("Failed to archive import file", zap.String("entity", entity), zap.Error(err))
		return
	}
	zap.L().Debug("Archived import file", zap.String("key", key))
}

func (s *ImportService) record(entity string, sum importer.Summary) {
	if s.metrics == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		dims := map[string]string{"Entity": entity}
		outcome := awspkg.MetricImportsCompleted
		if !sum.OK() {
			outcome = awspkg.MetricImportsAborted
		}
		errs := []error{
			s.metrics.RecordCount(ctx, outcome, dims),
			s.metrics.RecordValue(ctx, awspkg.MetricImportRowsAdded, float64(sum.Inserted), dims),
			s.metrics.RecordValue(ctx, awspkg.MetricImportRowsSkip, float64(sum.Skipped), dims),
		}
		if err := errors.Join(errs...); err != nil {
			zap.L().Debug("Failed to record import metrics", zap.String("entity", entity), zap.Error(err))
		}
	}()
}

// Result renders sum as the client facing report.
func (s *ImportService) Result(entity string, format importer.Format, sum importer.Summary, dryRun bool) models.ImportResult {
	res := models.ImportResult{
		ProcessedCount: sum.Processed,
		InsertedCount:  sum.Inserted,
		SkippedCount:   sum.Skipped,
	}
	plural := entity
	if ent, ok := s.entities[entity]; ok && ent.Plural != "" {
		plural = ent.Plural
	}

	if sum.OK() {
		if dryRun {
			res.Message = fmt.Sprintf("%s file is valid: %d new %s, %d already present", format.Label(), sum.Inserted, plural, sum.Skipped)
		} else {
			res.Message = fmt.Sprintf("%s data uploaded and %s created successfully", format.Label(), plural)
		}
		return res
	}

	res.Row = sum.Line
	var (
		ve *importer.ValidationError
		fe *importer.FormatError
	)
	switch {
	case errors.As(sum.Err, &ve):
		res.MissingFields = ve.Missing
		res.Message = missingFieldsMessage(format, s.requiredOf(entity))
	case errors.Is(sum.Err, importer.ErrNotArray):
		res.Message = "Invalid JSON format. Expected an array of objects."
	case errors.As(sum.Err, &fe):
		if format == importer.FormatJSON {
			res.Message = "Invalid JSON file"
		} else {
			res.Message = "Error parsing the CSV file"
		}
		res.Error = fe.Err.Error()
	default:
		res.Message = fmt.Sprintf("Error processing the %s file", format.Label())
		res.Error = sum.Err.Error()
	}
	return res
}

// IsClientError reports whether an aborted batch failed because of its
// input rather than the store.
func IsClientError(err error) bool {
	var (
		ve *importer.ValidationError
		fe *importer.FormatError
	)
	return errors.As(err, &ve) || errors.As(err, &fe)
}

func (s *ImportService) requiredOf(entity string) []string {
	if ent, ok := s.entities[entity]; ok {
		return ent.Schema.Required
	}
	return nil
}

func missingFieldsMessage(format importer.Format, required []string) string {
	quoted := make([]string, len(required))
	for i, f := range required {
		quoted[i] = "'" + f + "'"
	}
	var list string
	switch n := len(quoted); n {
	case 0:
	case 1:
		list = quoted[0]
	default:
		list = strings.Join(quoted[:n-1], ", ") + " and " + quoted[n-1]
	}

	if format == importer.FormatJSON {
		return fmt.Sprintf("JSON must contain %s for each item.", list)
	}
	return fmt.Sprintf("CSV must contain %s", list)
}
