package telemetry

import (
	"context"
	"time"

	"github.com/ispbill/backend/internal/domain/shared/valueobject"
	"go.opentelemetry.io/otel/metric"
)

// BillingMetrics records invoice generation, payments, archiving and summary
// recomputes.
type BillingMetrics struct {
	invoicesGenerated *Counter
	paymentsTotal     *Counter
	paymentAmount     *Counter
	archivedInvoices  *Counter
	archivedPayments  *Counter
	summaryRuns       *Counter
	summaryDuration   *Histogram
	summaryExcluded   *Gauge
}

// NewBillingMetrics creates the billing instruments on meter.
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var err error
	m := &BillingMetrics{}
	if m.invoicesGenerated, err = NewCounter(meter, "billing_invoices_generated_total", "Invoices created by generation runs", "{invoice}"); err != nil {
		return nil, err
	}
	if m.paymentsTotal, err = NewCounter(meter, "billing_payments_total", "Payments recorded", "{payment}"); err != nil {
		return nil, err
	}
	if m.paymentAmount, err = NewCounter(meter, "billing_payment_amount_total", "Payment amounts recorded in whole currency units", "{currency}"); err != nil {
		return nil, err
	}
	if m.archivedInvoices, err = NewCounter(meter, "billing_archived_invoices_total", "Invoices moved to the archive", "{invoice}"); err != nil {
		return nil, err
	}
	if m.archivedPayments, err = NewCounter(meter, "billing_archived_payments_total", "Payments moved to the archive", "{payment}"); err != nil {
		return nil, err
	}
	if m.summaryRuns, err = NewCounter(meter, "report_summary_runs_total", "Summary recomputes by outcome", "{run}"); err != nil {
		return nil, err
	}
	if m.summaryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "report_summary_duration_seconds",
		Description: "Summary recompute latency in seconds",
		Unit:        "s",
		Boundaries:  JobDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.summaryExcluded, err = NewGauge(meter, "report_summary_excluded_records", "Records left out of the last summary", "{record}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordInvoicesGenerated records the invoices created for a period.
func (m *BillingMetrics) RecordInvoicesGenerated(ctx context.Context, period string, created int) {
	m.invoicesGenerated.Add(ctx, int64(created), AttrPeriod.String(period))
}

// RecordPayment records one payment.
func (m *BillingMetrics) RecordPayment(ctx context.Context, method string, amount valueobject.Money) {
	m.paymentsTotal.Inc(ctx, AttrPaymentMethod.String(method))
	if amount.IsPositive() {
		m.paymentAmount.Add(ctx, amount.Int64(), AttrPaymentMethod.String(method))
	}
}

// RecordArchive records one archive run.
func (m *BillingMetrics) RecordArchive(ctx context.Context, invoices, payments int) {
	m.archivedInvoices.Add(ctx, int64(invoices))
	m.archivedPayments.Add(ctx, int64(payments))
}

// RecordSummaryRun records one summary recompute.
func (m *BillingMetrics) RecordSummaryRun(ctx context.Context, duration time.Duration, excluded int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.summaryRuns.Inc(ctx, AttrOutcome.String(outcome))
	m.summaryDuration.RecordDuration(ctx, duration, AttrOutcome.String(outcome))
	if err == nil {
		m.summaryExcluded.Record(ctx, int64(excluded))
	}
}
