package billing

import (
	"context"
	"time"

	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
)

// DefaultArchiveRetentionMonths is how many months of invoices stay online
// when no retention is configured.
const DefaultArchiveRetentionMonths = 24

// Settings holds the billing rules shared by the services in this package.
type Settings struct {
	// Location is the business time zone. Billing periods and due dates are
	// computed in it.
	Location *time.Location
	// CountAdjustments makes discounts and applied credit close invoices
	// during allocation.
	CountAdjustments bool
	// ArchiveRetentionMonths is the number of full months kept before the
	// current one when archiving.
	ArchiveRetentionMonths int
	// Now returns the current time. Tests replace it.
	Now func() time.Time
}

// DefaultSettings returns settings for Asia/Jakarta with adjustments counted.
func DefaultSettings() Settings {
	return Settings{
		Location:               DefaultLocation(),
		CountAdjustments:       true,
		ArchiveRetentionMonths: DefaultArchiveRetentionMonths,
		Now:                    time.Now,
	}
}

// DefaultLocation returns Asia/Jakarta, or a fixed UTC+7 zone when the
// tz database is not available.
func DefaultLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

func (s Settings) withDefaults() Settings {
	if s.Location == nil {
		s.Location = DefaultLocation()
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.ArchiveRetentionMonths <= 0 {
		s.ArchiveRetentionMonths = DefaultArchiveRetentionMonths
	}
	return s
}

func (s Settings) now() time.Time {
	return s.Now().In(s.Location)
}

// AllocateOptions returns the allocation options matching these settings.
func (s Settings) AllocateOptions() []billing.AllocateOption {
	return []billing.AllocateOption{billing.WithAdjustments(s.CountAdjustments)}
}

// CacheInvalidator drops derived data, such as the cached summary, after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ObjectStore receives archive exports.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
}

// Metrics records billing activity.
type Metrics interface {
	RecordInvoicesGenerated(ctx context.Context, period string, created int)
	RecordPayment(ctx context.Context, method string, amount valueobject.Money)
	RecordArchive(ctx context.Context, invoices, payments int)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context) error { return nil }

type noopMetrics struct{}

func (noopMetrics) RecordInvoicesGenerated(context.Context, string, int)     {}
func (noopMetrics) RecordPayment(context.Context, string, valueobject.Money) {}
func (noopMetrics) RecordArchive(context.Context, int, int)                  {}

type noopLocker struct{}

func (noopLocker) TryLock(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

var _ shared.Locker = noopLocker{}

// Option configures the services in this package.
type Option func(*options)

type options struct {
	settings    Settings
	locker      shared.Locker
	invalidator CacheInvalidator
	metrics     Metrics
}

func newOptions(opts []Option) options {
	o := options{
		settings:    DefaultSettings(),
		locker:      noopLocker{},
		invalidator: noopInvalidator{},
		metrics:     noopMetrics{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.settings = o.settings.withDefaults()
	return o
}

// WithSettings sets the billing rules.
func WithSettings(s Settings) Option {
	return func(o *options) {
		o.settings = s
	}
}

// WithLocker sets the lock provider used for billing runs and payment recording.
func WithLocker(l shared.Locker) Option {
	return func(o *options) {
		if l != nil {
			o.locker = l
		}
	}
}

// WithCacheInvalidator sets what gets invalidated after billing writes.
func WithCacheInvalidator(c CacheInvalidator) Option {
	return func(o *options) {
		if c != nil {
			o.invalidator = c
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}
