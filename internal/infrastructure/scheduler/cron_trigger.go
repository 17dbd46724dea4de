package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CronTriggerConfig holds configuration for the billing cron trigger
type CronTriggerConfig struct {
	// SummaryRefreshInterval is how often the financial summary is recomputed
	SummaryRefreshInterval time.Duration

	// InvoiceDay, InvoiceHour and InvoiceMinute give the monthly invoice run.
	// A day past the end of a short month runs on its last day.
	InvoiceDay    int
	InvoiceHour   int
	InvoiceMinute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration

	// Location is the time zone the schedule is read in
	Location *time.Location
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		SummaryRefreshInterval: time.Hour,
		InvoiceDay:             1,
		InvoiceHour:            1, // 1am on the first
		InvoiceMinute:          0,
		CheckInterval:          time.Minute,
		Location:               time.Local,
	}
}

// ParseMonthlySchedule reads "minute hour day-of-month" from a cron-style
// expression such as "0 1 1 * *". Missing or "*" fields keep the defaults.
func ParseMonthlySchedule(cronExpr string) (day, hour, minute int, err error) {
	day, hour, minute = 1, 1, 0
	if strings.TrimSpace(cronExpr) == "" {
		return day, hour, minute, nil
	}

	parts := strings.Fields(cronExpr)
	fields := []*int{&minute, &hour, &day}
	for i, target := range fields {
		if i >= len(parts) || parts[i] == "*" {
			continue
		}
		v, convErr := strconv.Atoi(parts[i])
		if convErr != nil {
			return 1, 1, 0, fmt.Errorf("%w: field %q", ErrInvalidSchedule, parts[i])
		}
		*target = v
	}

	switch {
	case minute < 0 || minute > 59:
		return 1, 1, 0, fmt.Errorf("%w: minute must be 0-59, got %d", ErrInvalidSchedule, minute)
	case hour < 0 || hour > 23:
		return 1, 1, 0, fmt.Errorf("%w: hour must be 0-23, got %d", ErrInvalidSchedule, hour)
	case day < 1 || day > 31:
		return 1, 1, 0, fmt.Errorf("%w: day must be 1-31, got %d", ErrInvalidSchedule, day)
	}
	return day, hour, minute, nil
}

// CronTrigger submits periodic billing jobs to the scheduler
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger
	now       func() time.Time

	cancel            context.CancelFunc
	wg                sync.WaitGroup
	mu                sync.Mutex
	isRunning         bool
	lastRefreshAt     time.Time
	lastInvoicePeriod string // Track which month we last generated for
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
	}
}

// Start starts the cron trigger. A summary refresh is submitted right away.
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.Duration("summary_refresh_interval", c.config.SummaryRefreshInterval),
		zap.Int("invoice_day", c.config.InvoiceDay),
		zap.Int("invoice_hour", c.config.InvoiceHour),
		zap.Int("invoice_minute", c.config.InvoiceMinute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)

	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop checks periodically if it's time to run scheduled jobs
func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	c.checkAndTrigger(c.now())

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(c.now())
		}
	}
}

// checkAndTrigger submits whatever is due at now
func (c *CronTrigger) checkAndTrigger(now time.Time) {
	now = now.In(c.config.Location)

	if c.summaryDue(now) {
		if _, err := c.scheduler.Schedule(JobTypeSummaryRefresh, now, ""); err != nil {
			c.logger.Error("Failed to schedule summary refresh", zap.Error(err))
		} else {
			c.mu.Lock()
			c.lastRefreshAt = now
			c.mu.Unlock()
		}
	}

	if period, due := c.invoicesDue(now); due {
		c.logger.Info("Triggering monthly invoice generation", zap.String("period", period))
		if _, err := c.scheduler.Schedule(JobTypeInvoiceGeneration, now, period); err != nil {
			c.logger.Error("Failed to schedule invoice generation", zap.Error(err))
			return
		}
		c.mu.Lock()
		c.lastInvoicePeriod = period
		c.mu.Unlock()
	}
}

func (c *CronTrigger) summaryDue(now time.Time) bool {
	if c.config.SummaryRefreshInterval <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRefreshAt.IsZero() || now.Sub(c.lastRefreshAt) >= c.config.SummaryRefreshInterval
}

// invoicesDue reports whether this month's run time has passed and the month
// has not been generated by this trigger yet. Generation itself skips
// customers that already have an invoice, so a restart running it again is
// harmless.
func (c *CronTrigger) invoicesDue(now time.Time) (string, bool) {
	period := now.Format("2006-01")

	c.mu.Lock()
	done := c.lastInvoicePeriod == period
	c.mu.Unlock()
	if done {
		return period, false
	}
	return period, !now.Before(c.scheduledInvoiceTime(now))
}

// scheduledInvoiceTime returns the invoice run time in now's month
func (c *CronTrigger) scheduledInvoiceTime(now time.Time) time.Time {
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	day := c.config.InvoiceDay
	if day > lastDay {
		day = lastDay
	}
	if day < 1 {
		day = 1
	}
	return time.Date(now.Year(), now.Month(), day, c.config.InvoiceHour, c.config.InvoiceMinute, 0, 0, now.Location())
}

// TriggerManualRun submits a job outside the schedule. An empty period
// means the current month.
func (c *CronTrigger) TriggerManualRun(jobType JobType, period string) (*Job, error) {
	now := c.now().In(c.config.Location)
	if period == "" && jobType == JobTypeInvoiceGeneration {
		period = now.Format("2006-01")
	}
	return c.scheduler.Schedule(jobType, now, period)
}
