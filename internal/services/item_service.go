package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/maison/services/payroll/internal/metrics"
	"example.com/maison/services/payroll/internal/models"
	"example.com/maison/services/payroll/internal/repositories"
)

// maxIntakeQuantity caps one intake request. Larger orders arrive as several
// requests against the same ticket number.
const maxIntakeQuantity = 100

// ItemService handles ticket intake and the item lifecycle from registration
// through receiving to completion or cancellation.
type ItemService struct {
	tickets    repositories.TicketRepository
	items      repositories.ItemRepository
	masterData repositories.MasterDataRepository
	metrics    *metrics.Metrics
}

// NewItemService creates a new item service
func NewItemService(
	tickets repositories.TicketRepository,
	items repositories.ItemRepository,
	masterData repositories.MasterDataRepository,
	collector *metrics.Metrics,
) *ItemService {
	return &ItemService{
		tickets:    tickets,
		items:      items,
		masterData: masterData,
		metrics:    collector,
	}
}

// IntakeItems registers quantity items of a product type against a ticket,
// creating the ticket on first use of its number. Item keys continue from the
// highest item number ever issued for the pair, so keys are never reused even
// after cancellations.
func (s *ItemService) IntakeItems(ctx context.Context, orgID uuid.UUID, ticketNumber, customerName string, productTypeID uuid.UUID, quantity int, notes *string) ([]models.Item, error) {
	ticketNumber = strings.TrimSpace(ticketNumber)
	if ticketNumber == "" {
		return nil, NewError(KindValidation, "A ticket number is required")
	}
	if quantity < 1 || quantity > maxIntakeQuantity {
		return nil, NewError(KindValidation, "Quantity must be between 1 and %d", maxIntakeQuantity)
	}

	productType, err := s.masterData.GetProductType(ctx, orgID, productTypeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewError(KindNotFound, "Product type not found")
		}
		return nil, WrapError(err, KindUnavailable, "Could not load product type")
	}
	if !productType.Active {
		return nil, NewError(KindValidation, "Product type %s is inactive and cannot take new items", productType.Name)
	}

	ticket, err := s.tickets.Upsert(ctx, orgID, ticketNumber, strings.TrimSpace(customerName))
	if err != nil {
		return nil, WrapError(err, KindUnavailable, "Could not register the ticket")
	}

	items, err := s.items.CreateBatch(ctx, ticket, productType, quantity, notes)
	if err != nil {
		return nil, WrapError(err, KindUnavailable, "Could not register the items")
	}

	log.Info().
		Str("ticket_number", ticket.TicketNumber).
		Str("product_type", productType.Name).
		Int("quantity", quantity).
		Msg("Items registered")

	return items, nil
}

// GetItem returns one item with its related rows.
func (s *ItemService) GetItem(ctx context.Context, orgID, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.items.GetByID(ctx, orgID, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewError(KindNotFound, "Item not found")
		}
		return nil, WrapError(err, KindUnavailable, "Could not load item")
	}
	return item, nil
}

// ListItems returns items, optionally filtered to one status, newest first.
func (s *ItemService) ListItems(ctx context.Context, orgID uuid.UUID, status *models.ItemStatus, limit int) ([]models.Item, error) {
	items, err := s.items.List(ctx, orgID, status, limit)
	if err != nil {
		return nil, WrapError(err, KindUnavailable, "Could not list items")
	}
	return items, nil
}

// ReceiveItem records physical receipt of a finished item. An item received
// before any work was assigned is flagged for QC attention so the anomaly is
// visible on the inspection queue.
func (s *ItemService) ReceiveItem(ctx context.Context, orgID, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.items.MarkReceived(ctx, orgID, itemID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, NewError(KindNotFound, "Item not found")
		case errors.Is(err, repositories.ErrStaleState):
			return nil, NewError(KindInvalidTransition, "Only in-progress items can be received")
		default:
			return nil, WrapError(err, KindUnavailable, "Could not receive the item")
		}
	}

	if item.NeedsQCAttention {
		log.Warn().Str("item_key", item.ItemKey).Msg("Item received without any work assignments")
	}
	return item, nil
}

// CompleteItem closes an item. Every assignment on it must already be
// QC_PASSED or PAID.
func (s *ItemService) CompleteItem(ctx context.Context, orgID, itemID uuid.UUID) error {
	if err := s.items.Complete(ctx, orgID, itemID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return NewError(KindNotFound, "Item not found")
		case errors.Is(err, repositories.ErrUnfinishedWork):
			return NewError(KindInvalidTransition,
				"Item has assignments still awaiting QC or in a failed state; resolve them before completing")
		case errors.Is(err, repositories.ErrStaleState):
			return NewError(KindInvalidTransition, "Only in-progress items can be completed")
		default:
			return WrapError(err, KindUnavailable, "Could not complete the item")
		}
	}

	s.metrics.IncrementCounter(metrics.MetricItemsCompleted)
	log.Info().Str("item_id", itemID.String()).Msg("Item completed")
	return nil
}

// CancelItem cancels an in-progress item. Items with paid assignments cannot
// be cancelled; reverse the payments first.
func (s *ItemService) CancelItem(ctx context.Context, orgID, itemID uuid.UUID) error {
	if err := s.items.Cancel(ctx, orgID, itemID); err != nil {
		return s.cancelError(err)
	}

	s.metrics.IncrementCounter(metrics.MetricItemsCancelled)
	log.Info().Str("item_id", itemID.String()).Msg("Item cancelled")
	return nil
}

// CancelTicket cancels every in-progress item on a ticket. Fails as a whole
// if any item carries paid work.
func (s *ItemService) CancelTicket(ctx context.Context, orgID, ticketID uuid.UUID) (int, error) {
	if _, err := s.tickets.GetByID(ctx, orgID, ticketID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, NewError(KindNotFound, "Ticket not found")
		}
		return 0, WrapError(err, KindUnavailable, "Could not load ticket")
	}

	cancelled, err := s.items.CancelForTicket(ctx, orgID, ticketID)
	if err != nil {
		return 0, s.cancelError(err)
	}

	s.metrics.IncrementCounterBy(metrics.MetricItemsCancelled, int64(cancelled))
	log.Info().Str("ticket_id", ticketID.String()).Int("items", cancelled).Msg("Ticket cancelled")
	return cancelled, nil
}

// GetTicket returns a ticket by its business number.
func (s *ItemService) GetTicket(ctx context.Context, orgID uuid.UUID, ticketNumber string) (*models.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, orgID, ticketNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewError(KindNotFound, "Ticket not found")
		}
		return nil, WrapError(err, KindUnavailable, "Could not load ticket")
	}
	return ticket, nil
}

func (s *ItemService) cancelError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return NewError(KindNotFound, "Item not found")
	case errors.Is(err, repositories.ErrPaidWork):
		return NewError(KindInvalidTransition,
			"Paid work exists on this item; reverse the payments before cancelling")
	case errors.Is(err, repositories.ErrStaleState):
		return NewError(KindInvalidTransition, "Only in-progress items can be cancelled")
	default:
		return WrapError(err, KindUnavailable, "Could not cancel")
	}
}
