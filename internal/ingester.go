package internal

import (
	"context"
	"errors"
	"time"

	"github.com/astro-otter/otter"
	"go.uber.org/zap"
)

// TransientIngester validates, builds and stores transient documents one record at a time.
type TransientIngester struct {
	repo      otter.TransientRepository
	validator *SchemaValidator
	cfg       otter.IngestConfig
}

var _ otter.Ingester = (*TransientIngester)(nil)

// NewIngester returns an ingester writing to repo. validator may be nil, in
// which case schema validation is skipped regardless of cfg.ValidateSchema.
func NewIngester(repo otter.TransientRepository, validator *SchemaValidator, cfg otter.IngestConfig) *TransientIngester {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = otter.DefaultConfig().Ingest.BatchSize
	}
	return &TransientIngester{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

// Ingest processes every record. A failing record is reported in the result and
// does not stop the batch; only context cancellation does.
func (i *TransientIngester) Ingest(ctx context.Context, records []otter.Record) (*otter.IngestResult, error) {
	start := time.Now()
	result := &otter.IngestResult{
		Successful: make([]*otter.TransientDocument, 0, len(records)),
		Partial:    make([]otter.RecordError, 0),
		Failed:     make([]otter.RecordError, 0),
		TotalCount: len(records),
	}

	for batchStart := 0; batchStart < len(records); batchStart += i.cfg.BatchSize {
		batchEnd := min(batchStart+i.cfg.BatchSize, len(records))

		for idx := batchStart; idx < batchEnd; idx++ {
			if err := ctx.Err(); err != nil {
				result.Duration = time.Since(start)
				return result, err
			}
			i.ingestOne(ctx, idx, records[idx], result)
		}

		zap.S().Debugw("ingest batch processed",
			"from", batchStart,
			"to", batchEnd,
			"successful", len(result.Successful),
			"failed", len(result.Failed))
	}

	result.Duration = time.Since(start)
	zap.S().Infow("ingest finished",
		"total", result.TotalCount,
		"successful", len(result.Successful),
		"partial", len(result.Partial),
		"failed", len(result.Failed),
		"dryRun", i.cfg.DryRun,
		"duration", result.Duration)
	return result, nil
}

func (i *TransientIngester) ingestOne(ctx context.Context, idx int, record otter.Record, result *otter.IngestResult) {
	name := recordName(record)

	if i.cfg.ValidateSchema && i.validator != nil {
		if err := i.validator.Validate(record); err != nil {
			result.Failed = append(result.Failed, toRecordError(idx, name, err))
			return
		}
	}

	transient, err := otter.BuildTransient(record)
	if err != nil {
		var attrErrs *otter.AttributeErrors
		if transient == nil || !errors.As(err, &attrErrs) {
			result.Failed = append(result.Failed, toRecordError(idx, name, err))
			return
		}
		if i.cfg.RejectPartial {
			result.Failed = append(result.Failed, toRecordError(idx, name, err))
			return
		}
		zap.S().Warnw("transient ingested with attribute errors", "index", idx, "name", name, "errors", len(attrErrs.Errors))
		result.Partial = append(result.Partial, toRecordError(idx, name, err))
	}

	name = transient.Name.Name
	body := transient.ToDocument()

	if i.cfg.DryRun {
		result.Successful = append(result.Successful, &otter.TransientDocument{Name: name, Body: body})
		return
	}

	doc, err := i.repo.Upsert(ctx, name, body)
	if err != nil {
		zap.S().Errorw("failed to store transient", "index", idx, "name", name, "error", err)
		result.Failed = append(result.Failed, toRecordError(idx, name, err))
		return
	}
	result.Successful = append(result.Successful, doc)
}

// recordName extracts the transient name for error reports, if there is one.
func recordName(record otter.Record) string {
	switch v := record[otter.KeyName].(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["default_name"].(string); ok {
			return s
		}
	}
	return ""
}

func toRecordError(idx int, name string, err error) otter.RecordError {
	re := otter.RecordError{
		Index: idx,
		Name:  name,
		Error: err.Error(),
		Code:  otter.ErrCodeInternalError,
	}

	var attrErrs *otter.AttributeErrors
	if errors.As(err, &attrErrs) {
		re.Code = otter.ErrCodePartialTransient
		attrs := make([]map[string]any, 0, len(attrErrs.Errors))
		for _, ae := range attrErrs.Errors {
			attrs = append(attrs, map[string]any{
				"attribute": ae.Attribute,
				"index":     ae.Index,
				"error":     ae.Err.Error(),
			})
		}
		re.Details = map[string]any{"attributes": attrs}
		return re
	}

	var oe *otter.OtterError
	if errors.As(err, &oe) {
		re.Code = oe.Code
		if len(oe.Details) > 0 {
			re.Details = oe.Details
		}
	}
	return re
}
