package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/maison/services/payroll/config"
	"example.com/maison/services/payroll/internal/cache"
	"example.com/maison/services/payroll/internal/models"
	"example.com/maison/services/payroll/internal/repositories"
)

func newPayrollService(assignments *MockAssignmentRepository, masterData *MockMasterDataRepository) *PayrollService {
	disabledCache, _ := cache.NewRedisCache(config.RedisConfig{Enabled: false})
	return &PayrollService{
		assignments: assignments,
		masterData:  masterData,
		cache:       disabledCache,
		cfg:         config.PayrollConfig{SummaryCacheTTL: time.Minute},
	}
}

func payrollRow(name string, count int64, total, bonusPct string) repositories.PayrollRow {
	return repositories.PayrollRow{
		TailorID:        uuid.New(),
		TailorName:      name,
		AssignmentCount: count,
		TotalAmount:     decimal.RequireFromString(total),
		WeeklyBonusPct:  decimal.RequireFromString(bonusPct),
	}
}

func TestSummarizeComputesBonus(t *testing.T) {
	mockAssignments := new(MockAssignmentRepository)
	orgID := uuid.New()

	mockAssignments.On("PayrollRows", mock.Anything, orgID, (*time.Time)(nil), (*time.Time)(nil)).
		Return([]repositories.PayrollRow{payrollRow("Amara", 4, "2000.00", "0.05")}, nil)

	service := newPayrollService(mockAssignments, new(MockMasterDataRepository))
	summaries, err := service.Summarize(context.Background(), orgID, nil, nil, false)

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, int64(4), summaries[0].AssignmentCount)
	require.Equal(t, "2000", summaries[0].TotalAmount.String())
	require.Equal(t, "100", summaries[0].BonusAmount.String())
}

func TestSummarizeOrdersByTotalThenName(t *testing.T) {
	mockAssignments := new(MockAssignmentRepository)
	orgID := uuid.New()

	mockAssignments.On("PayrollRows", mock.Anything, orgID, (*time.Time)(nil), (*time.Time)(nil)).
		Return([]repositories.PayrollRow{
			payrollRow("Zainab", 1, "800.00", "0"),
			payrollRow("Chidi", 2, "1500.00", "0"),
			payrollRow("Amara", 1, "800.00", "0"),
		}, nil)

	service := newPayrollService(mockAssignments, new(MockMasterDataRepository))
	summaries, err := service.Summarize(context.Background(), orgID, nil, nil, false)

	require.NoError(t, err)
	require.Equal(t, "Chidi", summaries[0].TailorName)
	// Equal totals break ties alphabetically so repeated runs render the
	// same order.
	require.Equal(t, "Amara", summaries[1].TailorName)
	require.Equal(t, "Zainab", summaries[2].TailorName)
}

func TestSummarizeFullRosterIncludesIdleTailors(t *testing.T) {
	mockAssignments := new(MockAssignmentRepository)
	mockMasterData := new(MockMasterDataRepository)
	orgID := uuid.New()

	busy := payrollRow("Amara", 3, "900.00", "0")
	idle := models.Tailor{ID: uuid.New(), OrganizationID: orgID, Name: "Chidi", Active: true}

	mockAssignments.On("PayrollRows", mock.Anything, orgID, (*time.Time)(nil), (*time.Time)(nil)).
		Return([]repositories.PayrollRow{busy}, nil)
	mockMasterData.On("ListTailors", mock.Anything, orgID, false).
		Return([]models.Tailor{{ID: busy.TailorID, Name: "Amara", Active: true}, idle}, nil)

	service := newPayrollService(mockAssignments, mockMasterData)
	summaries, err := service.Summarize(context.Background(), orgID, nil, nil, true)

	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, "Amara", summaries[0].TailorName)
	require.Equal(t, "Chidi", summaries[1].TailorName)
	require.True(t, summaries[1].TotalAmount.IsZero())
	require.Zero(t, summaries[1].AssignmentCount)
}

func TestSummarizePassesWindowThrough(t *testing.T) {
	mockAssignments := new(MockAssignmentRepository)
	orgID := uuid.New()
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	mockAssignments.On("PayrollRows", mock.Anything, orgID, &start, &end).
		Return([]repositories.PayrollRow{}, nil)

	service := newPayrollService(mockAssignments, new(MockMasterDataRepository))
	summaries, err := service.Summarize(context.Background(), orgID, &start, &end, false)

	require.NoError(t, err)
	require.Empty(t, summaries)
	mockAssignments.AssertExpectations(t)
}

func TestSortSummariesStable(t *testing.T) {
	summaries := []TailorSummary{
		{TailorName: "B", TotalAmount: decimal.RequireFromString("100")},
		{TailorName: "A", TotalAmount: decimal.RequireFromString("100")},
		{TailorName: "C", TotalAmount: decimal.RequireFromString("250")},
	}

	SortSummaries(summaries)

	require.Equal(t, "C", summaries[0].TailorName)
	require.Equal(t, "A", summaries[1].TailorName)
	require.Equal(t, "B", summaries[2].TailorName)
}

func TestStartOfWeekIsMonday(t *testing.T) {
	// A Thursday
	thursday := time.Date(2026, 9, 3, 15, 4, 5, 0, time.UTC)
	require.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), startOfWeek(thursday))

	// Monday maps to itself
	monday := time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), startOfWeek(monday))

	// Sunday belongs to the week started the previous Monday
	sunday := time.Date(2026, 9, 6, 1, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), startOfWeek(sunday))
}
