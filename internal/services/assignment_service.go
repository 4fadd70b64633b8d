package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/maison/services/payroll/internal/metrics"
	"example.com/maison/services/payroll/internal/models"
	"example.com/maison/services/payroll/internal/rates"
	"example.com/maison/services/payroll/internal/repositories"
)

// AssignmentService owns the work assignment lifecycle: creation with the
// frozen fee snapshot, and the QC transitions. Every transition is a
// conditional update so concurrent callers observe a definitive win or lose,
// never a lost update.
type AssignmentService struct {
	items       repositories.ItemRepository
	assignments repositories.AssignmentRepository
	resolver    rates.Resolver
	metrics     *metrics.Metrics
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(
	items repositories.ItemRepository,
	assignments repositories.AssignmentRepository,
	resolver rates.Resolver,
	collector *metrics.Metrics,
) *AssignmentService {
	return &AssignmentService{
		items:       items,
		assignments: assignments,
		resolver:    resolver,
		metrics:     collector,
	}
}

// qcPassSources are the states a passing QC verdict may come from. A re-pass
// after a failure is allowed; re-passing an already-passed assignment is not,
// so a double-submitting UI surfaces instead of silently no-opping.
var qcPassSources = []models.AssignmentStatus{models.AssignmentCreated, models.AssignmentQCFailed}

// CreateAssignment creates a work assignment in CREATED state. The fee is
// resolved once, here, and frozen onto the row; later rate card or tailor
// edits never change it.
func (s *AssignmentService) CreateAssignment(ctx context.Context, orgID, itemID, taskTypeID, tailorID uuid.UUID) (*models.WorkAssignment, error) {
	item, err := s.items.GetByID(ctx, orgID, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewError(KindNotFound, "Item not found")
		}
		return nil, WrapError(err, KindUnavailable, "Could not load item")
	}
	if item.Status != models.ItemInProgress {
		return nil, NewError(KindInvalidTransition,
			"Item %s is %s; work can only be assigned while it is in progress", item.ItemKey, item.Status)
	}

	resolution, err := s.resolver.ResolveFee(ctx, orgID, item.ProductTypeID, taskTypeID, tailorID)
	if err != nil {
		s.metrics.IncrementCounter(metrics.MetricRateLookupFailures)
		switch {
		case errors.Is(err, rates.ErrRateNotConfigured):
			return nil, WrapError(err, KindRateNotConfigured,
				"No rate card is configured for this task and product combination; configure rate cards first")
		case errors.Is(err, rates.ErrSpecialPayPending):
			return nil, WrapError(err, KindRateNotConfigured,
				"A special pay rule for this tailor and task is pending an uplift percentage; complete it first")
		case errors.Is(err, rates.ErrTailorInactive):
			return nil, WrapError(err, KindTailorInactive, "This tailor is inactive and cannot receive new work")
		case errors.Is(err, repositories.ErrNotFound):
			return nil, WrapError(err, KindNotFound, "Tailor not found")
		default:
			return nil, WrapError(err, KindUnavailable, "Could not resolve the fee for this assignment")
		}
	}

	assignment := &models.WorkAssignment{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ItemID:         itemID,
		TaskTypeID:     taskTypeID,
		TailorID:       tailorID,
		Status:         models.AssignmentCreated,
		PayAmount:      resolution.Amount,
		PaySnapshot:    resolution.Snapshot,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, NewError(KindNotFound, "Item not found")
		case errors.Is(err, repositories.ErrStaleState):
			return nil, NewError(KindInvalidTransition,
				"Item %s is no longer in progress; work can only be assigned while it is", item.ItemKey)
		default:
			return nil, WrapError(err, KindUnavailable, "Could not save the assignment")
		}
	}

	// An item flagged as received-without-work now has work.
	if item.NeedsQCAttention {
		if err := s.items.ClearQCAttention(ctx, orgID, itemID); err != nil {
			log.Warn().Err(err).Str("item_id", itemID.String()).Msg("Failed to clear QC attention flag")
		}
	}

	s.metrics.IncrementCounter(metrics.MetricAssignmentsCreated)
	log.Info().
		Str("assignment_id", assignment.ID.String()).
		Str("item_key", item.ItemKey).
		Str("pay_amount", assignment.PayAmount.String()).
		Str("pay_snapshot", assignment.PaySnapshot).
		Msg("Work assignment created")

	return assignment, nil
}

// QCPass records a passing QC verdict. Valid from CREATED or QC_FAILED only.
func (s *AssignmentService) QCPass(ctx context.Context, orgID, assignmentID uuid.UUID) error {
	now := time.Now()
	err := s.assignments.Transition(ctx, orgID, assignmentID, qcPassSources, models.AssignmentQCPassed,
		map[string]interface{}{"qc_at": &now})
	if err != nil {
		return s.transitionError(ctx, orgID, assignmentID, err, qcPassSources)
	}

	s.metrics.IncrementCounter(metrics.MetricQCPassed)
	log.Info().Str("assignment_id", assignmentID.String()).Msg("Assignment passed QC")
	return nil
}

// QCFail records a failing QC verdict with the inspector's notes. Valid from
// CREATED only; notes are mandatory.
func (s *AssignmentService) QCFail(ctx context.Context, orgID, assignmentID uuid.UUID, notes string) error {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return NewError(KindValidation, "QC failure notes are required")
	}

	now := time.Now()
	from := []models.AssignmentStatus{models.AssignmentCreated}
	err := s.assignments.Transition(ctx, orgID, assignmentID, from, models.AssignmentQCFailed,
		map[string]interface{}{"qc_notes": &notes, "qc_at": &now})
	if err != nil {
		return s.transitionError(ctx, orgID, assignmentID, err, from)
	}

	s.metrics.IncrementCounter(metrics.MetricQCFailed)
	log.Info().Str("assignment_id", assignmentID.String()).Msg("Assignment failed QC")
	return nil
}

// GetAssignment returns one assignment with its related rows.
func (s *AssignmentService) GetAssignment(ctx context.Context, orgID, assignmentID uuid.UUID) (*models.WorkAssignment, error) {
	assignment, err := s.assignments.GetByID(ctx, orgID, assignmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewError(KindNotFound, "Assignment not found")
		}
		return nil, WrapError(err, KindUnavailable, "Could not load assignment")
	}
	return assignment, nil
}

// ListByStatus returns assignments in the given states, newest first. Used by
// the QC queue (CREATED) and the accounts screens (QC_PASSED, PAID).
func (s *AssignmentService) ListByStatus(ctx context.Context, orgID uuid.UUID, statuses []models.AssignmentStatus, limit int) ([]models.WorkAssignment, error) {
	assignments, err := s.assignments.ListByStatus(ctx, orgID, statuses, limit)
	if err != nil {
		return nil, WrapError(err, KindUnavailable, "Could not list assignments")
	}
	return assignments, nil
}

// ListByItem returns all assignments on an item in creation order.
func (s *AssignmentService) ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]models.WorkAssignment, error) {
	assignments, err := s.assignments.ListByItem(ctx, orgID, itemID)
	if err != nil {
		return nil, WrapError(err, KindUnavailable, "Could not list item assignments")
	}
	return assignments, nil
}

// transitionError converts repository transition failures into business
// errors carrying the expected and actual states.
func (s *AssignmentService) transitionError(ctx context.Context, orgID, assignmentID uuid.UUID, err error, expected []models.AssignmentStatus) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return NewError(KindNotFound, "Assignment not found")
	case errors.Is(err, repositories.ErrStaleState):
		actual := "unknown"
		if a, lookupErr := s.assignments.GetByID(ctx, orgID, assignmentID); lookupErr == nil {
			actual = string(a.Status)
		}
		return NewError(KindInvalidTransition,
			"Assignment %s is %s; expected one of %s", assignmentID, actual, statusNames(expected))
	default:
		return WrapError(err, KindUnavailable, "Could not update assignment")
	}
}

func statusNames(statuses []models.AssignmentStatus) string {
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}
