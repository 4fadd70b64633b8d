package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/maison/services/payroll/internal/metrics"
	"example.com/maison/services/payroll/internal/models"
	"example.com/maison/services/payroll/internal/rates"
	"example.com/maison/services/payroll/internal/repositories"
)

func newAssignmentService(items *MockItemRepository, assignments *MockAssignmentRepository, resolver *MockResolver) *AssignmentService {
	return &AssignmentService{
		items:       items,
		assignments: assignments,
		resolver:    resolver,
		metrics:     metrics.NewMetrics(),
	}
}

func inProgressItem(orgID uuid.UUID) *models.Item {
	return &models.Item{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ProductTypeID:  uuid.New(),
		ItemKey:        "T-1001-Suit-1",
		Status:         models.ItemInProgress,
	}
}

func TestCreateAssignmentFreezesResolvedFee(t *testing.T) {
	mockItems := new(MockItemRepository)
	mockAssignments := new(MockAssignmentRepository)
	mockResolver := new(MockResolver)

	orgID := uuid.New()
	item := inProgressItem(orgID)
	taskTypeID := uuid.New()
	tailorID := uuid.New()

	mockItems.On("GetByID", mock.Anything, orgID, item.ID).Return(item, nil)
	mockResolver.On("ResolveFee", mock.Anything, orgID, item.ProductTypeID, taskTypeID, tailorID).
		Return(&rates.Resolution{Amount: decimal.RequireFromString("650.00"), Snapshot: "B"}, nil)
	mockAssignments.On("Create", mock.Anything, mock.AnythingOfType("*models.WorkAssignment")).Return(nil)

	service := newAssignmentService(mockItems, mockAssignments, mockResolver)
	assignment, err := service.CreateAssignment(context.Background(), orgID, item.ID, taskTypeID, tailorID)

	require.NoError(t, err)
	require.Equal(t, models.AssignmentCreated, assignment.Status)
	require.Equal(t, "650", assignment.PayAmount.String())
	require.Equal(t, "B", assignment.PaySnapshot)
	require.Equal(t, tailorID, assignment.TailorID)
	mockItems.AssertExpectations(t)
	mockAssignments.AssertExpectations(t)
	mockResolver.AssertExpectations(t)
}

func TestCreateAssignmentClearsAttentionFlag(t *testing.T) {
	mockItems := new(MockItemRepository)
	mockAssignments := new(MockAssignmentRepository)
	mockResolver := new(MockResolver)

	orgID := uuid.New()
	item := inProgressItem(orgID)
	item.NeedsQCAttention = true

	mockItems.On("GetByID", mock.Anything, orgID, item.ID).Return(item, nil)
	mockResolver.On("ResolveFee", mock.Anything, orgID, item.ProductTypeID, mock.Anything, mock.Anything).
		Return(&rates.Resolution{Amount: decimal.RequireFromString("500.00"), Snapshot: "A"}, nil)
	mockAssignments.On("Create", mock.Anything, mock.Anything).Return(nil)
	mockItems.On("ClearQCAttention", mock.Anything, orgID, item.ID).Return(nil)

	service := newAssignmentService(mockItems, mockAssignments, mockResolver)
	_, err := service.CreateAssignment(context.Background(), orgID, item.ID, uuid.New(), uuid.New())

	require.NoError(t, err)
	mockItems.AssertExpectations(t)
}

func TestCreateAssignmentRejectsClosedItem(t *testing.T) {
	mockItems := new(MockItemRepository)
	mockAssignments := new(MockAssignmentRepository)
	mockResolver := new(MockResolver)

	orgID := uuid.New()
	item := inProgressItem(orgID)
	item.Status = models.ItemCompleted

	mockItems.On("GetByID", mock.Anything, orgID, item.ID).Return(item, nil)

	service := newAssignmentService(mockItems, mockAssignments, mockResolver)
	_, err := service.CreateAssignment(context.Background(), orgID, item.ID, uuid.New(), uuid.New())

	require.Error(t, err)
	require.Equal(t, KindInvalidTransition, KindOf(err))
	mockResolver.AssertNotCalled(t, "ResolveFee", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateAssignmentLosesRaceToItemClosure(t *testing.T) {
	mockItems := new(MockItemRepository)
	mockAssignments := new(MockAssignmentRepository)
	mockResolver := new(MockResolver)

	orgID := uuid.New()
	item := inProgressItem(orgID)

	// The item read sees IN_PROGRESS, but the guarded insert finds the item
	// already closed by a concurrent completion.
	mockItems.On("GetByID", mock.Anything, orgID, item.ID).Return(item, nil)
	mockResolver.On("ResolveFee", mock.Anything, orgID, item.ProductTypeID, mock.Anything, mock.Anything).
		Return(&rates.Resolution{Amount: decimal.RequireFromString("500.00"), Snapshot: "A"}, nil)
	mockAssignments.On("Create", mock.Anything, mock.Anything).Return(repositories.ErrStaleState)

	service := newAssignmentService(mockItems, mockAssignments, mockResolver)
	_, err := service.CreateAssignment(context.Background(), orgID, item.ID, uuid.New(), uuid.New())

	require.Error(t, err)
	require.Equal(t, KindInvalidTransition, KindOf(err))
	require.Contains(t, err.Error(), item.ItemKey)
}

func TestCreateAssignmentResolutionFailures(t *testing.T) {
	cases := []struct {
		name       string
		resolveErr error
		wantKind   Kind
	}{
		{"missing rate card", rates.ErrRateNotConfigured, KindRateNotConfigured},
		{"pending special pay", rates.ErrSpecialPayPending, KindRateNotConfigured},
		{"inactive tailor", rates.ErrTailorInactive, KindTailorInactive},
		{"unknown tailor", repositories.ErrNotFound, KindNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockItems := new(MockItemRepository)
			mockAssignments := new(MockAssignmentRepository)
			mockResolver := new(MockResolver)

			orgID := uuid.New()
			item := inProgressItem(orgID)

			mockItems.On("GetByID", mock.Anything, orgID, item.ID).Return(item, nil)
			mockResolver.On("ResolveFee", mock.Anything, orgID, item.ProductTypeID, mock.Anything, mock.Anything).
				Return(nil, tc.resolveErr)

			service := newAssignmentService(mockItems, mockAssignments, mockResolver)
			_, err := service.CreateAssignment(context.Background(), orgID, item.ID, uuid.New(), uuid.New())

			require.Error(t, err)
			require.Equal(t, tc.wantKind, KindOf(err))
			mockAssignments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestQCPassAllowsCreatedAndFailedSources(t *testing.T) {
	mockAssignments := new(MockAssignmentRepository)

	orgID := uuid.New()
	assignmentID := uuid.New()

	mockAssignments.On("Transition", mock.Anything, orgID, assignmentID,
		[]models.AssignmentStatus{models.AssignmentCreated, models.AssignmentQCFailed},
		models.AssignmentQCPassed, mock.Anything).Return(nil)

	service := newAssignmentService(new(MockItemRepository), mockAssignments, new(MockResolver))
	err := service.QCPass(context.Background(), orgID, assignmentID)

	require.NoError(t, err)
	mockAssignments.AssertExpectations(t)
}

func TestQCPassOnPaidAssignmentReportsActualState(t *testing.T) {
	mockAssignments := new(MockAssignmentRepository)

	orgID := uuid.New()
	assignmentID := uuid.New()

	mockAssignments.On("Transition", mock.Anything, orgID, assignmentID, mock.Anything,
		models.AssignmentQCPassed, mock.Anything).Return(repositories.ErrStaleState)
	mockAssignments.On("GetByID", mock.Anything, orgID, assignmentID).
		Return(&models.WorkAssignment{ID: assignmentID, Status: models.AssignmentPaid}, nil)

	service := newAssignmentService(new(MockItemRepository), mockAssignments, new(MockResolver))
	err := service.QCPass(context.Background(), orgID, assignmentID)

	require.Error(t, err)
	require.Equal(t, KindInvalidTransition, KindOf(err))
	require.Contains(t, err.Error(), "PAID")
}

func TestQCFailRequiresNotes(t *testing.T) {
	mockAssignments := new(MockAssignmentRepository)

	service := newAssignmentService(new(MockItemRepository), mockAssignments, new(MockResolver))
	err := service.QCFail(context.Background(), uuid.New(), uuid.New(), "   ")

	require.Error(t, err)
	require.Equal(t, KindValidation, KindOf(err))
	mockAssignments.AssertNotCalled(t, "Transition",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQCFailOnlyFromCreated(t *testing.T) {
	mockAssignments := new(MockAssignmentRepository)

	orgID := uuid.New()
	assignmentID := uuid.New()

	mockAssignments.On("Transition", mock.Anything, orgID, assignmentID,
		[]models.AssignmentStatus{models.AssignmentCreated},
		models.AssignmentQCFailed, mock.Anything).Return(nil)

	service := newAssignmentService(new(MockItemRepository), mockAssignments, new(MockResolver))
	err := service.QCFail(context.Background(), orgID, assignmentID, "seam puckering on left sleeve")

	require.NoError(t, err)
	mockAssignments.AssertExpectations(t)
}

func TestQCPassNotFound(t *testing.T) {
	mockAssignments := new(MockAssignmentRepository)

	orgID := uuid.New()
	assignmentID := uuid.New()

	mockAssignments.On("Transition", mock.Anything, orgID, assignmentID, mock.Anything,
		models.AssignmentQCPassed, mock.Anything).Return(repositories.ErrNotFound)

	service := newAssignmentService(new(MockItemRepository), mockAssignments, new(MockResolver))
	err := service.QCPass(context.Background(), orgID, assignmentID)

	require.Error(t, err)
	require.Equal(t, KindNotFound, KindOf(err))
}
