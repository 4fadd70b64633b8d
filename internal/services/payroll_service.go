package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"example.com/maison/services/payroll/config"
	"example.com/maison/services/payroll/internal/cache"
	"example.com/maison/services/payroll/internal/repositories"
)

// TailorSummary is one tailor's aggregated payable work plus the computed
// weekly bonus.
type TailorSummary struct {
	TailorID        uuid.UUID       `json:"tailorId"`
	TailorName      string          `json:"tailorName"`
	AssignmentCount int64           `json:"assignmentCount"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	BonusAmount     decimal.Decimal `json:"bonusAmount"`
}

// PayrollService builds per-tailor payroll summaries from the frozen
// assignment amounts. Aggregation covers QC_PASSED and PAID assignments only;
// reversed and unfinished work never contributes.
type PayrollService struct {
	assignments repositories.AssignmentRepository
	masterData  repositories.MasterDataRepository
	cache       *cache.RedisCache
	cfg         config.PayrollConfig
}

// NewPayrollService creates a new payroll service
func NewPayrollService(
	assignments repositories.AssignmentRepository,
	masterData repositories.MasterDataRepository,
	redisCache *cache.RedisCache,
	cfg config.PayrollConfig,
) *PayrollService {
	return &PayrollService{
		assignments: assignments,
		masterData:  masterData,
		cache:       redisCache,
		cfg:         cfg,
	}
}

// Summarize aggregates payable work per tailor over the optional [start, end)
// window. With fullRoster, active tailors without payable work appear as zero
// rows so a weekly run covers the whole workshop.
func (s *PayrollService) Summarize(ctx context.Context, orgID uuid.UUID, start, end *time.Time, fullRoster bool) ([]TailorSummary, error) {
	cacheKey := cache.PayrollSummaryCacheKey(orgID, periodKey(start, end, fullRoster))
	var cached []TailorSummary
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return cached, nil
	}

	rows, err := s.assignments.PayrollRows(ctx, orgID, start, end)
	if err != nil {
		return nil, WrapError(err, KindUnavailable, "Could not aggregate payroll")
	}

	summaries := make([]TailorSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, TailorSummary{
			TailorID:        row.TailorID,
			TailorName:      row.TailorName,
			AssignmentCount: row.AssignmentCount,
			TotalAmount:     row.TotalAmount,
			BonusAmount:     row.TotalAmount.Mul(row.WeeklyBonusPct).Round(2),
		})
	}

	if fullRoster {
		tailors, err := s.masterData.ListTailors(ctx, orgID, false)
		if err != nil {
			return nil, WrapError(err, KindUnavailable, "Could not load the tailor roster")
		}
		present := make(map[uuid.UUID]struct{}, len(summaries))
		for _, sum := range summaries {
			present[sum.TailorID] = struct{}{}
		}
		for _, t := range tailors {
			if _, ok := present[t.ID]; ok {
				continue
			}
			summaries = append(summaries, TailorSummary{
				TailorID:    t.ID,
				TailorName:  t.Name,
				TotalAmount: decimal.Zero,
				BonusAmount: decimal.Zero,
			})
		}
	}

	SortSummaries(summaries)

	if err := s.cache.Set(ctx, cacheKey, summaries, s.cfg.SummaryCacheTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to cache payroll summary")
	}

	return summaries, nil
}

// SortSummaries orders summaries by total amount descending, then tailor name
// ascending so equal totals render deterministically.
func SortSummaries(summaries []TailorSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		cmp := summaries[i].TotalAmount.Cmp(summaries[j].TotalAmount)
		if cmp != 0 {
			return cmp > 0
		}
		return summaries[i].TailorName < summaries[j].TailorName
	})
}

// RunWeeklySnapshot recomputes and caches the full-roster summary for every
// organization. Scheduled from the worker; each run warms the cache the
// Monday payout screens read.
func (s *PayrollService) RunWeeklySnapshot(ctx context.Context) error {
	orgs, err := s.masterData.ListOrganizations(ctx)
	if err != nil {
		return WrapError(err, KindUnavailable, "Could not list organizations for the weekly snapshot")
	}

	start := startOfWeek(time.Now())
	for _, org := range orgs {
		summaries, err := s.Summarize(ctx, org.ID, &start, nil, true)
		if err != nil {
			log.Error().Err(err).Str("organization_id", org.ID.String()).Msg("Weekly payroll snapshot failed")
			continue
		}
		log.Info().
			Str("organization_id", org.ID.String()).
			Int("tailors", len(summaries)).
			Msg("Weekly payroll snapshot computed")
	}
	return nil
}

// periodKey builds a stable cache key component for a summary window.
func periodKey(start, end *time.Time, fullRoster bool) string {
	from, to := "open", "open"
	if start != nil {
		from = start.UTC().Format("2006-01-02")
	}
	if end != nil {
		to = end.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("%s:%s:%t", from, to, fullRoster)
}

// startOfWeek returns midnight UTC of the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}
