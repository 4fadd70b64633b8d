package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/maison/services/payroll/internal/database"
	"example.com/maison/services/payroll/internal/models"
)

// TicketRepository provides access to tickets and their items.
type TicketRepository interface {
	Upsert(ctx context.Context, orgID uuid.UUID, ticketNumber, customerName string) (*models.Ticket, error)
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Ticket, error)
	GetByNumber(ctx context.Context, orgID uuid.UUID, ticketNumber string) (*models.Ticket, error)
}

// ticketRepository implements TicketRepository
type ticketRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *gorm.DB, readOnlyDB *gorm.DB) TicketRepository {
	return &ticketRepository{db: db, readOnlyDB: readOnlyDB}
}

// Upsert creates the ticket for (organization, ticketNumber) if it does not
// exist yet. Repeated calls with the same natural key return the same row.
func (r *ticketRepository) Upsert(ctx context.Context, orgID uuid.UUID, ticketNumber, customerName string) (*models.Ticket, error) {
	ticket := models.Ticket{
		OrganizationID: orgID,
		TicketNumber:   ticketNumber,
	}
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND ticket_number = ?", orgID, ticketNumber).
		Attrs(models.Ticket{ID: uuid.New(), CustomerName: customerName}).
		FirstOrCreate(&ticket).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert ticket")
	}
	return &ticket, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.readOnlyDB.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&ticket).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get ticket")
	}
	return &ticket, nil
}

func (r *ticketRepository) GetByNumber(ctx context.Context, orgID uuid.UUID, ticketNumber string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.readOnlyDB.WithContext(ctx).
		Where("organization_id = ? AND ticket_number = ?", orgID, ticketNumber).
		First(&ticket).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, fmt.Errorf("ticket %s: %w", ticketNumber, ErrNotFound)
		}
		return nil, errors.Wrap(err, "failed to get ticket by number")
	}
	return &ticket, nil
}
