package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/maison/services/payroll/internal/database"
	"example.com/maison/services/payroll/internal/models"
)

// PaymentRepository owns the money-moving transactions: batch payment and
// reversal. Both are all-or-nothing database transactions built on the same
// conditional-update rule as single-assignment transitions.
type PaymentRepository interface {
	PayBatch(ctx context.Context, orgID uuid.UUID, assignmentIDs []uuid.UUID, batchRef string, paidAt time.Time) ([]models.WorkAssignment, error)
	Reverse(ctx context.Context, orgID, assignmentID uuid.UUID, reason string) (*models.PaymentRecord, error)
	ListByAssignment(ctx context.Context, orgID, assignmentID uuid.UUID) ([]models.PaymentRecord, error)
	ListBatch(ctx context.Context, orgID uuid.UUID, batchRef string) ([]models.PaymentRecord, error)
}

// paymentRepository implements PaymentRepository
type paymentRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB, readOnlyDB *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db, readOnlyDB: readOnlyDB}
}

// PayBatch transitions every assignment in the set from QC_PASSED to PAID and
// writes one PAY record per assignment under the shared batch reference. Any
// member not currently QC_PASSED aborts the whole transaction: either every
// assignment is paid or none is. The offending member is reported through a
// BatchMemberError.
func (r *paymentRepository) PayBatch(ctx context.Context, orgID uuid.UUID, assignmentIDs []uuid.UUID, batchRef string, paidAt time.Time) ([]models.WorkAssignment, error) {
	var paid []models.WorkAssignment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range assignmentIDs {
			var assignment models.WorkAssignment
			// Associations ride along so the post-commit search index gets
			// item key and names without a second round trip.
			err := tx.Preload("Item").Preload("Tailor").Preload("TaskType").
				Where("organization_id = ? AND id = ?", orgID, id).First(&assignment).Error
			if err != nil {
				if database.IsRecordNotFoundError(err) {
					return errors.Wrapf(ErrNotFound, "assignment %s", id)
				}
				return errors.Wrap(err, "failed to load batch member")
			}

			result := tx.Model(&models.WorkAssignment{}).
				Where("organization_id = ? AND id = ? AND status = ?", orgID, id, models.AssignmentQCPassed).
				Update("status", models.AssignmentPaid)
			if result.Error != nil {
				return errors.Wrap(result.Error, "failed to mark assignment paid")
			}
			if result.RowsAffected == 0 {
				return &BatchMemberError{AssignmentID: id, Status: assignment.Status}
			}

			record := models.PaymentRecord{
				ID:             uuid.New(),
				OrganizationID: orgID,
				AssignmentID:   id,
				Type:           models.PaymentPay,
				Amount:         assignment.PayAmount,
				BatchRef:       batchRef,
				PaidAt:         paidAt,
			}
			if err := tx.Create(&record).Error; err != nil {
				return errors.Wrap(err, "failed to create payment record")
			}

			assignment.Status = models.AssignmentPaid
			paid = append(paid, assignment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// Reverse transitions a PAID assignment to REVERSED and writes the
// compensating record with the negated snapshot amount.
func (r *paymentRepository) Reverse(ctx context.Context, orgID, assignmentID uuid.UUID, reason string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assignment models.WorkAssignment
		err := tx.Where("organization_id = ? AND id = ?", orgID, assignmentID).First(&assignment).Error
		if err != nil {
			if database.IsRecordNotFoundError(err) {
				return ErrNotFound
			}
			return errors.Wrap(err, "failed to load assignment")
		}

		result := tx.Model(&models.WorkAssignment{}).
			Where("organization_id = ? AND id = ? AND status = ?", orgID, assignmentID, models.AssignmentPaid).
			Update("status", models.AssignmentReversed)
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to mark assignment reversed")
		}
		if result.RowsAffected == 0 {
			return ErrStaleState
		}

		record = models.PaymentRecord{
			ID:             uuid.New(),
			OrganizationID: orgID,
			AssignmentID:   assignmentID,
			Type:           models.PaymentReversal,
			Amount:         assignment.PayAmount.Neg(),
			PaidAt:         time.Now(),
			Reason:         &reason,
		}
		return errors.Wrap(tx.Create(&record).Error, "failed to create reversal record")
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *paymentRepository) ListByAssignment(ctx context.Context, orgID, assignmentID uuid.UUID) ([]models.PaymentRecord, error) {
	var records []models.PaymentRecord
	err := r.readOnlyDB.WithContext(ctx).
		Where("organization_id = ? AND assignment_id = ?", orgID, assignmentID).
		Order("created_at").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list payment records")
	}
	return records, nil
}

func (r *paymentRepository) ListBatch(ctx context.Context, orgID uuid.UUID, batchRef string) ([]models.PaymentRecord, error) {
	var records []models.PaymentRecord
	err := r.readOnlyDB.WithContext(ctx).
		Where("organization_id = ? AND batch_ref = ?", orgID, batchRef).
		Order("created_at").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list batch records")
	}
	return records, nil
}
