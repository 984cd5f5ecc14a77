package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks document and billing activity. All recording
// methods are safe to call on a nil receiver so callers never need to
// guard for disabled telemetry.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	documentCreatedTotal    *Counter
	documentTransitionTotal *Counter
	documentAmountTotal     *Histogram
	settlementVolumeTotal   *Histogram
	governanceBlockedTotal  *Counter
	persistenceRetryTotal   *Counter
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(meter metric.Meter, logger *zap.Logger) (*BusinessMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{meter: meter, logger: logger}

	var err error
	if bm.documentCreatedTotal, err = NewCounter(meter,
		"tradelane_document_created_total",
		"Total number of commercial documents created",
		"{documents}"); err != nil {
		return nil, err
	}
	if bm.documentTransitionTotal, err = NewCounter(meter,
		"tradelane_document_transition_total",
		"Total number of document status transitions",
		"{transitions}"); err != nil {
		return nil, err
	}
	if bm.documentAmountTotal, err = NewHistogram(meter,
		"tradelane_document_amount",
		"Distribution of document total amounts",
		"{currency_units}"); err != nil {
		return nil, err
	}
	if bm.settlementVolumeTotal, err = NewHistogram(meter,
		"tradelane_settlement_volume",
		"Distribution of settled transaction volume attributed to billing",
		"{currency_units}"); err != nil {
		return nil, err
	}
	if bm.governanceBlockedTotal, err = NewCounter(meter,
		"tradelane_governance_blocked_total",
		"Total number of transactions blocked by governance rules",
		"{transactions}"); err != nil {
		return nil, err
	}
	if bm.persistenceRetryTotal, err = NewCounter(meter,
		"tradelane_persistence_retry_total",
		"Total number of retried document persistence attempts",
		"{retries}"); err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordDocumentCreated records a created document with its type
func (bm *BusinessMetrics) RecordDocumentCreated(ctx context.Context, docType string, amount decimal.Decimal) {
	if bm == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("document_type", docType)}
	bm.documentCreatedTotal.Inc(ctx, attrs...)
	bm.documentAmountTotal.Record(ctx, amount.InexactFloat64(), attrs...)
}

// RecordTransition records a status transition
func (bm *BusinessMetrics) RecordTransition(ctx context.Context, docType, from, to string) {
	if bm == nil {
		return
	}
	bm.documentTransitionTotal.Inc(ctx,
		attribute.String("document_type", docType),
		attribute.String("from", from),
		attribute.String("to", to),
	)
}

// RecordSettlementVolume records volume attributed to a billing quarter
func (bm *BusinessMetrics) RecordSettlementVolume(ctx context.Context, lane string, amount decimal.Decimal) {
	if bm == nil {
		return
	}
	bm.settlementVolumeTotal.Record(ctx, amount.InexactFloat64(),
		attribute.String("trade_lane", lane))
}

// RecordGovernanceBlocked records a transaction blocked by rules
func (bm *BusinessMetrics) RecordGovernanceBlocked(ctx context.Context, violationCount int) {
	if bm == nil {
		return
	}
	bm.governanceBlockedTotal.Inc(ctx,
		attribute.Int("violations", violationCount))
}

// RecordPersistenceRetry records one retried save attempt
func (bm *BusinessMetrics) RecordPersistenceRetry(ctx context.Context, operation string) {
	if bm == nil {
		return
	}
	bm.persistenceRetryTotal.Inc(ctx,
		attribute.String("operation", operation))
}
