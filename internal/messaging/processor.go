package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"example.com/maison/services/payroll/internal/services"
)

// Intake event types published by the front-desk system
const (
	EventRegisterItems = "RegisterItems"
	EventReceiveItem   = "ReceiveItem"
	EventCancelTicket  = "CancelTicket"
)

// IntakeMessage is the common intake message envelope
type IntakeMessage struct {
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

// RegisterItemsEvent registers items against a ticket
type RegisterItemsEvent struct {
	OrganizationID uuid.UUID `json:"organizationId"`
	TicketNumber   string    `json:"ticketNumber"`
	CustomerName   string    `json:"customerName"`
	ProductTypeID  uuid.UUID `json:"productTypeId"`
	Quantity       int       `json:"quantity"`
	Notes          *string   `json:"notes,omitempty"`
}

// ReceiveItemEvent records physical receipt of an item
type ReceiveItemEvent struct {
	OrganizationID uuid.UUID `json:"organizationId"`
	ItemID         uuid.UUID `json:"itemId"`
}

// CancelTicketEvent cancels every open item on a ticket
type CancelTicketEvent struct {
	OrganizationID uuid.UUID `json:"organizationId"`
	TicketID       uuid.UUID `json:"ticketId"`
}

type MessageProcessor interface {
	ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error
}

// Processor dispatches intake messages to the item service.
type Processor struct {
	items *services.ItemService
}

func NewProcessor(items *services.ItemService) *Processor {
	return &Processor{items: items}
}

func (p *Processor) ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error {
	var msg IntakeMessage
	if err := json.Unmarshal(message.Body, &msg); err != nil {
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	log.Info().Str("eventType", msg.EventType).Msg("Processing intake message")

	switch msg.EventType {
	case EventRegisterItems:
		var event RegisterItemsEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return err
		}
		_, err := p.items.IntakeItems(ctx, event.OrganizationID, event.TicketNumber,
			event.CustomerName, event.ProductTypeID, event.Quantity, event.Notes)
		return err

	case EventReceiveItem:
		var event ReceiveItemEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return err
		}
		_, err := p.items.ReceiveItem(ctx, event.OrganizationID, event.ItemID)
		return err

	case EventCancelTicket:
		var event CancelTicketEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return err
		}
		_, err := p.items.CancelTicket(ctx, event.OrganizationID, event.TicketID)
		return err

	default:
		return fmt.Errorf("unsupported event type: %s", msg.EventType)
	}
}
