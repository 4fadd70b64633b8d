package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/maison/services/payroll/internal/metrics"
	"example.com/maison/services/payroll/internal/models"
	"example.com/maison/services/payroll/internal/repositories"
)

func newItemService(tickets *MockTicketRepository, items *MockItemRepository, masterData *MockMasterDataRepository) *ItemService {
	return &ItemService{
		tickets:    tickets,
		items:      items,
		masterData: masterData,
		metrics:    metrics.NewMetrics(),
	}
}

func TestIntakeItemsCreatesTicketAndItems(t *testing.T) {
	mockTickets := new(MockTicketRepository)
	mockItems := new(MockItemRepository)
	mockMasterData := new(MockMasterDataRepository)

	orgID := uuid.New()
	productType := &models.ProductType{ID: uuid.New(), OrganizationID: orgID, Name: "Agbada", Active: true}
	ticket := &models.Ticket{ID: uuid.New(), OrganizationID: orgID, TicketNumber: "TK-1042"}

	mockMasterData.On("GetProductType", mock.Anything, orgID, productType.ID).Return(productType, nil)
	mockTickets.On("Upsert", mock.Anything, orgID, "TK-1042", "Mrs. Adeyemi").Return(ticket, nil)
	mockItems.On("CreateBatch", mock.Anything, ticket, productType, 3, (*string)(nil)).
		Return([]models.Item{{ItemKey: "TK-1042-AGB-1"}, {ItemKey: "TK-1042-AGB-2"}, {ItemKey: "TK-1042-AGB-3"}}, nil)

	service := newItemService(mockTickets, mockItems, mockMasterData)
	items, err := service.IntakeItems(context.Background(), orgID, " TK-1042 ", "Mrs. Adeyemi", productType.ID, 3, nil)

	require.NoError(t, err)
	require.Len(t, items, 3)
	mockTickets.AssertExpectations(t)
	mockItems.AssertExpectations(t)
}

func TestIntakeItemsValidation(t *testing.T) {
	orgID := uuid.New()
	productTypeID := uuid.New()

	cases := []struct {
		name         string
		ticketNumber string
		quantity     int
	}{
		{"blank ticket number", "   ", 1},
		{"zero quantity", "TK-1", 0},
		{"quantity over cap", "TK-1", 101},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockTickets := new(MockTicketRepository)
			mockItems := new(MockItemRepository)
			mockMasterData := new(MockMasterDataRepository)

			service := newItemService(mockTickets, mockItems, mockMasterData)
			_, err := service.IntakeItems(context.Background(), orgID, tc.ticketNumber, "", productTypeID, tc.quantity, nil)

			require.Error(t, err)
			require.Equal(t, KindValidation, KindOf(err))
			mockTickets.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestIntakeItemsRejectsInactiveProductType(t *testing.T) {
	mockTickets := new(MockTicketRepository)
	mockItems := new(MockItemRepository)
	mockMasterData := new(MockMasterDataRepository)

	orgID := uuid.New()
	productType := &models.ProductType{ID: uuid.New(), OrganizationID: orgID, Name: "Kaftan", Active: false}
	mockMasterData.On("GetProductType", mock.Anything, orgID, productType.ID).Return(productType, nil)

	service := newItemService(mockTickets, mockItems, mockMasterData)
	_, err := service.IntakeItems(context.Background(), orgID, "TK-2", "", productType.ID, 1, nil)

	require.Error(t, err)
	require.Equal(t, KindValidation, KindOf(err))
	require.Contains(t, err.Error(), "Kaftan")
	mockTickets.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteItemBlockedByUnfinishedWork(t *testing.T) {
	mockItems := new(MockItemRepository)
	orgID := uuid.New()
	itemID := uuid.New()

	mockItems.On("Complete", mock.Anything, orgID, itemID).Return(repositories.ErrUnfinishedWork)

	service := newItemService(new(MockTicketRepository), mockItems, new(MockMasterDataRepository))
	err := service.CompleteItem(context.Background(), orgID, itemID)

	require.Error(t, err)
	require.Equal(t, KindInvalidTransition, KindOf(err))
	require.Contains(t, err.Error(), "awaiting QC")
}

func TestCancelItemBlockedByPaidWork(t *testing.T) {
	mockItems := new(MockItemRepository)
	orgID := uuid.New()
	itemID := uuid.New()

	mockItems.On("Cancel", mock.Anything, orgID, itemID).Return(repositories.ErrPaidWork)

	service := newItemService(new(MockTicketRepository), mockItems, new(MockMasterDataRepository))
	err := service.CancelItem(context.Background(), orgID, itemID)

	require.Error(t, err)
	require.Equal(t, KindInvalidTransition, KindOf(err))
	require.Contains(t, err.Error(), "reverse the payments")
}

func TestCancelTicketCancelsEveryItem(t *testing.T) {
	mockTickets := new(MockTicketRepository)
	mockItems := new(MockItemRepository)
	orgID := uuid.New()
	ticketID := uuid.New()

	mockTickets.On("GetByID", mock.Anything, orgID, ticketID).
		Return(&models.Ticket{ID: ticketID, OrganizationID: orgID}, nil)
	mockItems.On("CancelForTicket", mock.Anything, orgID, ticketID).Return(4, nil)

	service := newItemService(mockTickets, mockItems, new(MockMasterDataRepository))
	cancelled, err := service.CancelTicket(context.Background(), orgID, ticketID)

	require.NoError(t, err)
	require.Equal(t, 4, cancelled)
}

func TestCancelTicketNotFound(t *testing.T) {
	mockTickets := new(MockTicketRepository)
	mockItems := new(MockItemRepository)
	orgID := uuid.New()
	ticketID := uuid.New()

	mockTickets.On("GetByID", mock.Anything, orgID, ticketID).Return(nil, repositories.ErrNotFound)

	service := newItemService(mockTickets, mockItems, new(MockMasterDataRepository))
	_, err := service.CancelTicket(context.Background(), orgID, ticketID)

	require.Error(t, err)
	require.Equal(t, KindNotFound, KindOf(err))
	mockItems.AssertNotCalled(t, "CancelForTicket", mock.Anything, mock.Anything, mock.Anything)
}

func TestReceiveItemOnlyFromInProgress(t *testing.T) {
	mockItems := new(MockItemRepository)
	orgID := uuid.New()
	itemID := uuid.New()

	mockItems.On("MarkReceived", mock.Anything, orgID, itemID).Return(nil, repositories.ErrStaleState)

	service := newItemService(new(MockTicketRepository), mockItems, new(MockMasterDataRepository))
	_, err := service.ReceiveItem(context.Background(), orgID, itemID)

	require.Error(t, err)
	require.Equal(t, KindInvalidTransition, KindOf(err))
}
