package services

import (
	"context"
	"time"

	"homeledger/internal/store"

	"github.com/sirupsen/logrus"
)

type ReportStore interface {
	PeriodTotals(ctx context.Context, userID string, from, to time.Time) ([]store.PeriodTotalRow, error)
}

// ReportLine is one account's turnover for the period, both in the
// account's own currency and converted to the reporting currency.
type ReportLine struct {
	AccountID      string
	AccountName    string
	CurrencyID     string
	AmountMinor    int64
	ConvertedMinor int64
}

// StatisticsReport is the period turnover report. TotalMinor is the sum
// of the converted lines in reporting-currency minor units.
type StatisticsReport struct {
	From       time.Time
	To         time.Time
	Lines      []ReportLine
	TotalMinor int64
}

// ReportService builds period turnover reports grouped per account,
// with all totals converted to the reporting currency.
type ReportService struct {
	transactions ReportStore
	converter    Converter
	logger       *logrus.Logger
	timeout      time.Duration
}

func NewReportService(transactions ReportStore, converter Converter, logger *logrus.Logger, timeout time.Duration) *ReportService {
	return &ReportService{
		transactions: transactions,
		converter:    converter,
		logger:       logger,
		timeout:      timeout,
	}
}

// PeriodStatistics reports per-account turnover for transactions dated
// inside [from, to]. The caller guarantees from does not follow to.
func (s *ReportService) PeriodStatistics(ctx context.Context, userID string, from, to time.Time) (StatisticsReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.converter.Refresh(ctx); err != nil {
		// A stale cache still converts; an empty one fails below.
		s.logger.WithError(err).Warn("rate refresh failed before report")
	}

	rows, err := s.transactions.PeriodTotals(ctx, userID, from, to)
	if err != nil {
		return StatisticsReport{}, err
	}

	report := StatisticsReport{From: from, To: to, Lines: make([]ReportLine, 0, len(rows))}
	for _, row := range rows {
		converted, err := s.converter.Convert(ctx, row.Total, row.CurrencyID)
		if err != nil {
			return StatisticsReport{}, err
		}
		report.Lines = append(report.Lines, ReportLine{
			AccountID:      row.AccountID,
			AccountName:    row.Name,
			CurrencyID:     row.CurrencyID,
			AmountMinor:    row.Total,
			ConvertedMinor: converted,
		})
		report.TotalMinor += converted
	}
	return report, nil
}
