package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TrialBalanceRow aggregates one account's posted activity.
type TrialBalanceRow struct {
	AccountID   int64       `json:"account_id"`
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Type        AccountType `json:"type"`
	TotalDebit  float64     `json:"total_debit"`
	TotalCredit float64     `json:"total_credit"`
	Balance     float64     `json:"balance"`
}

// TrialBalance is the full report snapshot.
type TrialBalance struct {
	AsOf        time.Time         `json:"as_of"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  float64           `json:"total_debit"`
	TotalCredit float64           `json:"total_credit"`
}

// ReportPort supplies aggregated rows for reporting.
type ReportPort interface {
	TrialBalanceRows(ctx context.Context) ([]TrialBalanceRow, error)
}

const trialBalanceCacheKey = "ledger:report:trial_balance"

// ReportService builds the trial balance, caching snapshots in Redis and
// collapsing concurrent rebuilds through singleflight.
type ReportService struct {
	rows  ReportPort
	cache *redis.Client
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time
}

// NewReportService constructs the report service. cache may be nil, in
// which case every call rebuilds.
func NewReportService(rows ReportPort, cache *redis.Client, ttl time.Duration) *ReportService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ReportService{rows: rows, cache: cache, ttl: ttl, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *ReportService) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// TrialBalance returns the current trial balance snapshot.
func (s *ReportService) TrialBalance(ctx context.Context) (TrialBalance, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, trialBalanceCacheKey).Bytes()
		if err == nil {
			var cached TrialBalance
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}
	result, err, _ := s.group.Do(trialBalanceCacheKey, func() (any, error) {
		return s.build(ctx)
	})
	if err != nil {
		return TrialBalance{}, err
	}
	report := result.(TrialBalance)
	if s.cache != nil {
		if raw, err := json.Marshal(report); err == nil {
			_ = s.cache.Set(ctx, trialBalanceCacheKey, raw, s.ttl).Err()
		}
	}
	return report, nil
}

// Invalidate drops the cached snapshot, typically after a posting.
func (s *ReportService) Invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, trialBalanceCacheKey).Err()
	}
}

func (s *ReportService) build(ctx context.Context) (TrialBalance, error) {
	rows, err := s.rows.TrialBalanceRows(ctx)
	if err != nil {
		return TrialBalance{}, err
	}
	report := TrialBalance{AsOf: s.now(), Rows: rows}
	for _, row := range rows {
		report.TotalDebit += row.TotalDebit
		report.TotalCredit += row.TotalCredit
	}
	return report, nil
}

// AmountFormatter renders amounts for the configured display locale.
type AmountFormatter struct {
	printer *message.Printer
}

// NewAmountFormatter builds a formatter for a BCP 47 locale tag. Unknown
// tags fall back to Arabic, the suite's default locale.
func NewAmountFormatter(locale string) *AmountFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Arabic
	}
	return &AmountFormatter{printer: message.NewPrinter(tag)}
}

// Format renders an amount with locale digit grouping.
func (f *AmountFormatter) Format(amount float64) string {
	return f.printer.Sprintf("%.2f", amount)
}

// FormatWithCurrency appends the currency code to a formatted amount.
func (f *AmountFormatter) FormatWithCurrency(amount float64, currency string) string {
	return fmt.Sprintf("%s %s", f.Format(amount), currency)
}
