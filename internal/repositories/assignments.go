package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"example.com/maison/services/payroll/internal/database"
	"example.com/maison/services/payroll/internal/models"
)

// PayrollRow is one tailor's aggregated payable work over a period.
type PayrollRow struct {
	TailorID        uuid.UUID       `json:"tailor_id"`
	TailorName      string          `json:"tailor_name"`
	WeeklyBonusPct  decimal.Decimal `json:"weekly_bonus_pct"`
	AssignmentCount int64           `json:"assignment_count"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
}

// AssignmentRepository provides access to work assignments. Transition is the
// single write path for status changes: a conditional update whose WHERE
// clause names the states the row may currently be in.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.WorkAssignment) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.WorkAssignment, error)
	ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]models.WorkAssignment, error)
	ListByStatus(ctx context.Context, orgID uuid.UUID, statuses []models.AssignmentStatus, limit int) ([]models.WorkAssignment, error)
	Transition(ctx context.Context, orgID, id uuid.UUID, from []models.AssignmentStatus, to models.AssignmentStatus, updates map[string]interface{}) error
	PayrollRows(ctx context.Context, orgID uuid.UUID, start, end *time.Time) ([]PayrollRow, error)
}

// assignmentRepository implements AssignmentRepository
type assignmentRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *gorm.DB, readOnlyDB *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db, readOnlyDB: readOnlyDB}
}

// Create inserts the assignment only while its item is still IN_PROGRESS.
// The guarded update takes the item's row lock inside the same transaction,
// so a concurrent completion or cancellation cannot slip in between the
// status check and the insert.
func (r *assignmentRepository) Create(ctx context.Context, assignment *models.WorkAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Item{}).
			Where("organization_id = ? AND id = ? AND status = ?",
				assignment.OrganizationID, assignment.ItemID, models.ItemInProgress).
			Update("updated_at", time.Now())
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to guard item for assignment")
		}
		if result.RowsAffected == 0 {
			var count int64
			err := tx.Model(&models.Item{}).
				Where("organization_id = ? AND id = ?", assignment.OrganizationID, assignment.ItemID).
				Count(&count).Error
			if err != nil {
				return errors.Wrap(err, "failed to check item existence")
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrStaleState
		}

		return errors.Wrap(tx.Create(assignment).Error, "failed to create work assignment")
	})
}

func (r *assignmentRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.WorkAssignment, error) {
	var assignment models.WorkAssignment
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Item").
		Preload("TaskType").
		Preload("Tailor").
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&assignment).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get work assignment")
	}
	return &assignment, nil
}

func (r *assignmentRepository) ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]models.WorkAssignment, error) {
	var assignments []models.WorkAssignment
	err := r.readOnlyDB.WithContext(ctx).
		Preload("TaskType").
		Preload("Tailor").
		Where("organization_id = ? AND item_id = ?", orgID, itemID).
		Order("created_at").
		Find(&assignments).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list assignments by item")
	}
	return assignments, nil
}

func (r *assignmentRepository) ListByStatus(ctx context.Context, orgID uuid.UUID, statuses []models.AssignmentStatus, limit int) ([]models.WorkAssignment, error) {
	var assignments []models.WorkAssignment
	q := r.readOnlyDB.WithContext(ctx).
		Preload("Item").
		Preload("TaskType").
		Preload("Tailor").
		Where("organization_id = ?", orgID).
		Order("created_at DESC")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&assignments).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list assignments by status")
	}
	return assignments, nil
}

// Transition moves the assignment to the target status only if it currently
// sits in one of the from states. ErrStaleState means the row exists but was
// not in any of them; ErrNotFound means there is no such row at all.
func (r *assignmentRepository) Transition(ctx context.Context, orgID, id uuid.UUID, from []models.AssignmentStatus, to models.AssignmentStatus, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to

	result := r.db.WithContext(ctx).
		Model(&models.WorkAssignment{}).
		Where("organization_id = ? AND id = ? AND status IN ?", orgID, id, from).
		Updates(updates)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to transition assignment")
	}
	if result.RowsAffected == 0 {
		var count int64
		err := r.db.WithContext(ctx).
			Model(&models.WorkAssignment{}).
			Where("organization_id = ? AND id = ?", orgID, id).
			Count(&count).Error
		if err != nil {
			return errors.Wrap(err, "failed to check assignment existence")
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrStaleState
	}
	return nil
}

// PayrollRows aggregates frozen pay amounts per tailor over the optional
// created_at window, counting only QC_PASSED and PAID assignments.
func (r *assignmentRepository) PayrollRows(ctx context.Context, orgID uuid.UUID, start, end *time.Time) ([]PayrollRow, error) {
	var rows []PayrollRow
	q := r.readOnlyDB.WithContext(ctx).
		Model(&models.WorkAssignment{}).
		Select("work_assignments.tailor_id, tailors.name AS tailor_name, tailors.weekly_bonus_pct, COUNT(*) AS assignment_count, SUM(work_assignments.pay_amount) AS total_amount").
		Joins("JOIN tailors ON tailors.id = work_assignments.tailor_id").
		Where("work_assignments.organization_id = ?", orgID).
		Where("work_assignments.status IN ?", models.PayableStatuses).
		Group("work_assignments.tailor_id, tailors.name, tailors.weekly_bonus_pct")

	if start != nil {
		q = q.Where("work_assignments.created_at >= ?", *start)
	}
	if end != nil {
		q = q.Where("work_assignments.created_at < ?", *end)
	}

	if err := q.Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to aggregate payroll rows")
	}
	return rows, nil
}
