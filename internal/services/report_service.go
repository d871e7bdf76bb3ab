// Package services holds the read-side use cases built on top of
// storage: daily and ranged summaries and the per-code breakdowns the
// reports are printed from.
package services

import (
	"context"
	"fmt"

	"dailyregister/internal/core"
)

// TransactionReader is the slice of the storage layer reports need.
type TransactionReader interface {
	GetByDate(ctx context.Context, d core.Date) ([]core.Transaction, error)
	GetByDateRange(ctx context.Context, from, to core.Date) ([]core.Transaction, error)
}

type ReportService struct {
	reader TransactionReader
}

func NewReportService(reader TransactionReader) *ReportService {
	return &ReportService{reader: reader}
}

// DailySummary folds one day's transactions into aggregate totals. A day
// with no transactions yields the zero summary, not an error.
func (s *ReportService) DailySummary(ctx context.Context, d core.Date) (core.Summary, error) {
	txs, err := s.reader.GetByDate(ctx, d)
	if err != nil {
		return core.Summary{}, fmt.Errorf("daily summary %s: %w", d, err)
	}
	return core.Summarize(txs), nil
}

// RangeSummary folds every transaction between from and to inclusive.
// A reversed range is treated as its normalized form.
func (s *ReportService) RangeSummary(ctx context.Context, from, to core.Date) (core.Summary, error) {
	from, to = orient(from, to)
	txs, err := s.reader.GetByDateRange(ctx, from, to)
	if err != nil {
		return core.Summary{}, fmt.Errorf("range summary %s..%s: %w", from, to, err)
	}
	return core.Summarize(txs), nil
}

// DailyBreakdown groups one day's sold lines by item code, split into
// billable and non-billable sections.
func (s *ReportService) DailyBreakdown(ctx context.Context, d core.Date) (core.Breakdown, error) {
	txs, err := s.reader.GetByDate(ctx, d)
	if err != nil {
		return core.Breakdown{}, fmt.Errorf("daily breakdown %s: %w", d, err)
	}
	return core.BreakdownByCode(txs), nil
}

// RangeBreakdown groups all sold lines in the range by item code.
func (s *ReportService) RangeBreakdown(ctx context.Context, from, to core.Date) (core.Breakdown, error) {
	from, to = orient(from, to)
	txs, err := s.reader.GetByDateRange(ctx, from, to)
	if err != nil {
		return core.Breakdown{}, fmt.Errorf("range breakdown %s..%s: %w", from, to, err)
	}
	return core.BreakdownByCode(txs), nil
}

func orient(from, to core.Date) (core.Date, core.Date) {
	if from.After(to.Time) {
		return to, from
	}
	return from, to
}
