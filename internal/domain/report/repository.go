package report

import "context"

// SummaryRepository persists the most recent summary so it survives restarts
type SummaryRepository interface {
	// Save replaces the stored summary
	Save(ctx context.Context, summary *SummaryReport) error

	// Latest returns the stored summary, or shared.ErrNotFound when none exists
	Latest(ctx context.Context) (*SummaryReport, error)
}
