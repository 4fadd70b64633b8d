package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/maison/services/payroll/internal/database"
	"example.com/maison/services/payroll/internal/models"
)

// ItemRepository provides access to production items. Status transitions are
// conditional updates: the WHERE clause carries the expected current status
// and RowsAffected decides success, so two concurrent transitions on the same
// row cannot both win.
type ItemRepository interface {
	CreateBatch(ctx context.Context, ticket *models.Ticket, productType *models.ProductType, quantity int, notes *string) ([]models.Item, error)
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Item, error)
	List(ctx context.Context, orgID uuid.UUID, status *models.ItemStatus, limit int) ([]models.Item, error)
	MarkReceived(ctx context.Context, orgID, id uuid.UUID) (*models.Item, error)
	ClearQCAttention(ctx context.Context, orgID, id uuid.UUID) error
	Complete(ctx context.Context, orgID, id uuid.UUID) error
	Cancel(ctx context.Context, orgID, id uuid.UUID) error
	CancelForTicket(ctx context.Context, orgID, ticketID uuid.UUID) (int, error)
}

// itemRepository implements ItemRepository
type itemRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *gorm.DB, readOnlyDB *gorm.DB) ItemRepository {
	return &itemRepository{db: db, readOnlyDB: readOnlyDB}
}

// CreateBatch creates quantity items under the ticket, numbering each from
// the highest item_no ever used for the (ticket, product type) pair. The max
// is taken over soft-deleted rows too so an item key is never reissued.
func (r *itemRepository) CreateBatch(ctx context.Context, ticket *models.Ticket, productType *models.ProductType, quantity int, notes *string) ([]models.Item, error) {
	var items []models.Item

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxNo int
		err := tx.Model(&models.Item{}).
			Unscoped().
			Where("ticket_id = ? AND product_type_id = ?", ticket.ID, productType.ID).
			Select("COALESCE(MAX(item_no), 0)").
			Scan(&maxNo).Error
		if err != nil {
			return errors.Wrap(err, "failed to determine next item number")
		}

		for i := 1; i <= quantity; i++ {
			itemNo := maxNo + i
			item := models.Item{
				ID:             uuid.New(),
				OrganizationID: ticket.OrganizationID,
				TicketID:       ticket.ID,
				ProductTypeID:  productType.ID,
				ItemNo:         itemNo,
				ItemKey:        fmt.Sprintf("%s-%s-%d", ticket.TicketNumber, productType.Name, itemNo),
				Status:         models.ItemInProgress,
				Notes:          notes,
			}
			if err := tx.Create(&item).Error; err != nil {
				return errors.Wrap(err, "failed to create item")
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Ticket").
		Preload("ProductType").
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&item).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get item")
	}
	return &item, nil
}

func (r *itemRepository) List(ctx context.Context, orgID uuid.UUID, status *models.ItemStatus, limit int) ([]models.Item, error) {
	var items []models.Item
	q := r.readOnlyDB.WithContext(ctx).
		Preload("Ticket").
		Preload("ProductType").
		Where("organization_id = ?", orgID).
		Order("created_at DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list items")
	}
	return items, nil
}

// MarkReceived records physical receipt of an in-progress item. An item
// received with no assignments yet is flagged for QC attention.
func (r *itemRepository) MarkReceived(ctx context.Context, orgID, id uuid.UUID) (*models.Item, error) {
	var item models.Item

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.WorkAssignment{}).
			Where("organization_id = ? AND item_id = ?", orgID, id).
			Count(&count).Error
		if err != nil {
			return errors.Wrap(err, "failed to count item assignments")
		}

		now := time.Now()
		result := tx.Model(&models.Item{}).
			Where("organization_id = ? AND id = ? AND status = ?", orgID, id, models.ItemInProgress).
			Updates(map[string]interface{}{
				"received_at":        &now,
				"needs_qc_attention": count == 0,
			})
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to mark item received")
		}
		if result.RowsAffected == 0 {
			return ErrStaleState
		}

		return tx.Where("organization_id = ? AND id = ?", orgID, id).First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) ClearQCAttention(ctx context.Context, orgID, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("organization_id = ? AND id = ? AND needs_qc_attention = ?", orgID, id, true).
		Update("needs_qc_attention", false).Error
	return errors.Wrap(err, "failed to clear QC attention flag")
}

// Complete flips an in-progress item to COMPLETED, but only while every one
// of its assignments is QC_PASSED or PAID (no assignments also qualifies).
// The status flip runs first so the eligibility count holds the item's row
// lock; a concurrent assignment insert, which guards on the same row, cannot
// land between the count and the commit.
func (r *itemRepository) Complete(ctx context.Context, orgID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Item{}).
			Where("organization_id = ? AND id = ? AND status = ?", orgID, id, models.ItemInProgress).
			Update("status", models.ItemCompleted)
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to complete item")
		}
		if result.RowsAffected == 0 {
			return ErrStaleState
		}

		var blocking int64
		err := tx.Model(&models.WorkAssignment{}).
			Where("organization_id = ? AND item_id = ?", orgID, id).
			Where("status NOT IN ?", models.PayableStatuses).
			Count(&blocking).Error
		if err != nil {
			return errors.Wrap(err, "failed to check completion eligibility")
		}
		if blocking > 0 {
			return ErrUnfinishedWork
		}
		return nil
	})
}

// Cancel flips an in-progress item to CANCELLED. Blocked when any assignment
// on the item is already PAID; other assignments stay behind as history.
func (r *itemRepository) Cancel(ctx context.Context, orgID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return cancelItemTx(tx, orgID, id)
	})
}

// CancelForTicket cancels every in-progress item under the ticket, with the
// same PAID-assignment guard per item. Returns how many items were cancelled.
func (r *itemRepository) CancelForTicket(ctx context.Context, orgID, ticketID uuid.UUID) (int, error) {
	cancelled := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		err := tx.Model(&models.Item{}).
			Where("organization_id = ? AND ticket_id = ? AND status = ?", orgID, ticketID, models.ItemInProgress).
			Pluck("id", &ids).Error
		if err != nil {
			return errors.Wrap(err, "failed to list ticket items")
		}

		for _, itemID := range ids {
			if err := cancelItemTx(tx, orgID, itemID); err != nil {
				return err
			}
			cancelled++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cancelled, nil
}

// cancelItemTx flips the item first for the same lock-ordering reason as
// Complete, then counts paid work under that lock; ErrPaidWork rolls the flip
// back.
func cancelItemTx(tx *gorm.DB, orgID, id uuid.UUID) error {
	result := tx.Model(&models.Item{}).
		Where("organization_id = ? AND id = ? AND status = ?", orgID, id, models.ItemInProgress).
		Update("status", models.ItemCancelled)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to cancel item")
	}
	if result.RowsAffected == 0 {
		return ErrStaleState
	}

	var paid int64
	err := tx.Model(&models.WorkAssignment{}).
		Where("organization_id = ? AND item_id = ? AND status = ?", orgID, id, models.AssignmentPaid).
		Count(&paid).Error
	if err != nil {
		return errors.Wrap(err, "failed to count paid assignments")
	}
	if paid > 0 {
		return ErrPaidWork
	}
	return nil
}
