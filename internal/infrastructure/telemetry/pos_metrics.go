package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// POSMetrics holds the business instruments of the transaction core. All
// Record methods are safe on a nil receiver so services can run without
// metrics.
type POSMetrics struct {
	logger *zap.Logger

	salesTotal          *Counter
	saleAmount          *Histogram
	saleLines           *Histogram
	refundsTotal        *Counter
	refundAmount        *Histogram
	paymentsTotal       *Counter
	allocationsTotal    *Counter
	retriesTotal        *Counter
	rateLookupsTotal    *Counter
	rateUnavailable     *Counter
	transactionDuration *Histogram
}

// POSMetricsConfig configures POSMetrics.
type POSMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewPOSMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// NewPOSMetrics registers every POS instrument on the meter.
func NewPOSMetrics(cfg POSMetricsConfig) (*POSMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &POSMetrics{logger: logger}
	counters := []struct {
		target **Counter
		name   string
		desc   string
		unit   string
	}{
		{&m.salesTotal, "pos_sales_total", "Total number of committed sales", "{sales}"},
		{&m.refundsTotal, "pos_refunds_total", "Total number of committed refunds", "{refunds}"},
		{&m.paymentsTotal, "pos_payments_total", "Total number of payments applied to sales", "{payments}"},
		{&m.allocationsTotal, "pos_sequence_allocations_total", "Sequence numbers issued", "{numbers}"},
		{&m.retriesTotal, "pos_sequence_retries_total", "Sequence allocations retried after lock contention", "{retries}"},
		{&m.rateLookupsTotal, "pos_rate_lookups_total", "Exchange rate lookups by resolution source", "{lookups}"},
		{&m.rateUnavailable, "pos_rate_unavailable_total", "Exchange rate lookups that found no rate", "{lookups}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	histograms := []struct {
		target **Histogram
		opts   HistogramOpts
	}{
		{&m.saleAmount, HistogramOpts{Name: "pos_sale_amount", Description: "Sale totals in the reporting currency", Unit: "{amount}", Boundaries: AmountBuckets}},
		{&m.refundAmount, HistogramOpts{Name: "pos_refund_amount", Description: "Refund totals in the reporting currency", Unit: "{amount}", Boundaries: AmountBuckets}},
		{&m.saleLines, HistogramOpts{Name: "pos_sale_lines", Description: "Line items per sale", Unit: "{lines}", Boundaries: []float64{1, 2, 5, 10, 20, 50}}},
		{&m.transactionDuration, HistogramOpts{Name: "pos_transaction_duration_seconds", Description: "Duration of sale and refund transactions", Unit: "s", Boundaries: DBDurationBuckets}},
	}
	for _, h := range histograms {
		hist, err := NewHistogram(cfg.Meter, h.opts)
		if err != nil {
			return nil, err
		}
		*h.target = hist
	}

	return m, nil
}

// RecordSale records a committed sale.
func (m *POSMetrics) RecordSale(ctx context.Context, tenantID uuid.UUID, currency string, reportingTotal decimal.Decimal, lineCount int) {
	if m == nil {
		return
	}
	tenant := AttrTenantID.String(tenantID.String())
	m.salesTotal.Inc(ctx, tenant, AttrCurrency.String(currency))
	m.saleAmount.Record(ctx, reportingTotal.InexactFloat64(), tenant)
	m.saleLines.Record(ctx, float64(lineCount), tenant)
}

// RecordPayment records one payment applied to a sale.
func (m *POSMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, method string) {
	if m == nil {
		return
	}
	m.paymentsTotal.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrPaymentMethod.String(method))
}

// RecordRefund records a committed refund.
func (m *POSMetrics) RecordRefund(ctx context.Context, tenantID uuid.UUID, currency string, reportingTotal decimal.Decimal) {
	if m == nil {
		return
	}
	tenant := AttrTenantID.String(tenantID.String())
	m.refundsTotal.Inc(ctx, tenant, AttrCurrency.String(currency))
	m.refundAmount.Record(ctx, reportingTotal.InexactFloat64(), tenant)
}

// RecordTransaction records how long a sale or refund transaction took.
func (m *POSMetrics) RecordTransaction(ctx context.Context, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "committed"
	if err != nil {
		outcome = "rolled_back"
	}
	m.transactionDuration.RecordDuration(ctx, d, AttrDBOperation.String(operation), AttrOutcome.String(outcome))
}

// RecordAllocation records one issued sequence number.
func (m *POSMetrics) RecordAllocation(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.allocationsTotal.Inc(ctx, AttrEntityKind.String(kind))
}

// RecordAllocationRetry records one retried allocation attempt.
func (m *POSMetrics) RecordAllocationRetry(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.retriesTotal.Inc(ctx, AttrEntityKind.String(kind))
}

// RecordRateLookup records which resolution step answered a rate lookup.
func (m *POSMetrics) RecordRateLookup(ctx context.Context, pair, source string) {
	if m == nil {
		return
	}
	m.rateLookupsTotal.Inc(ctx, AttrCurrencyPair.String(pair), AttrRateSource.String(source))
}

// RecordRateUnavailable records a lookup that exhausted every step.
func (m *POSMetrics) RecordRateUnavailable(ctx context.Context, pair string) {
	if m == nil {
		return
	}
	m.rateUnavailable.Inc(ctx, AttrCurrencyPair.String(pair))
	m.logger.Warn("Exchange rate unavailable", zap.String("pair", pair))
}
