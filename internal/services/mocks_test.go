package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"example.com/maison/services/payroll/internal/models"
	"example.com/maison/services/payroll/internal/rates"
	"example.com/maison/services/payroll/internal/repositories"
)

// Mock repositories for testing

type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) CreateBatch(ctx context.Context, ticket *models.Ticket, productType *models.ProductType, quantity int, notes *string) ([]models.Item, error) {
	args := m.Called(ctx, ticket, productType, quantity, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Item), args.Error(1)
}

func (m *MockItemRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Item, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockItemRepository) List(ctx context.Context, orgID uuid.UUID, status *models.ItemStatus, limit int) ([]models.Item, error) {
	args := m.Called(ctx, orgID, status, limit)
	return args.Get(0).([]models.Item), args.Error(1)
}

func (m *MockItemRepository) MarkReceived(ctx context.Context, orgID, id uuid.UUID) (*models.Item, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockItemRepository) ClearQCAttention(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

func (m *MockItemRepository) Complete(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

func (m *MockItemRepository) Cancel(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

func (m *MockItemRepository) CancelForTicket(ctx context.Context, orgID, ticketID uuid.UUID) (int, error) {
	args := m.Called(ctx, orgID, ticketID)
	return args.Int(0), args.Error(1)
}

type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) Create(ctx context.Context, assignment *models.WorkAssignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.WorkAssignment, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]models.WorkAssignment, error) {
	args := m.Called(ctx, orgID, itemID)
	return args.Get(0).([]models.WorkAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) ListByStatus(ctx context.Context, orgID uuid.UUID, statuses []models.AssignmentStatus, limit int) ([]models.WorkAssignment, error) {
	args := m.Called(ctx, orgID, statuses, limit)
	return args.Get(0).([]models.WorkAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) Transition(ctx context.Context, orgID, id uuid.UUID, from []models.AssignmentStatus, to models.AssignmentStatus, updates map[string]interface{}) error {
	args := m.Called(ctx, orgID, id, from, to, updates)
	return args.Error(0)
}

func (m *MockAssignmentRepository) PayrollRows(ctx context.Context, orgID uuid.UUID, start, end *time.Time) ([]repositories.PayrollRow, error) {
	args := m.Called(ctx, orgID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repositories.PayrollRow), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) PayBatch(ctx context.Context, orgID uuid.UUID, assignmentIDs []uuid.UUID, batchRef string, paidAt time.Time) ([]models.WorkAssignment, error) {
	args := m.Called(ctx, orgID, assignmentIDs, batchRef, paidAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkAssignment), args.Error(1)
}

func (m *MockPaymentRepository) Reverse(ctx context.Context, orgID, assignmentID uuid.UUID, reason string) (*models.PaymentRecord, error) {
	args := m.Called(ctx, orgID, assignmentID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) ListByAssignment(ctx context.Context, orgID, assignmentID uuid.UUID) ([]models.PaymentRecord, error) {
	args := m.Called(ctx, orgID, assignmentID)
	return args.Get(0).([]models.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) ListBatch(ctx context.Context, orgID uuid.UUID, batchRef string) ([]models.PaymentRecord, error) {
	args := m.Called(ctx, orgID, batchRef)
	return args.Get(0).([]models.PaymentRecord), args.Error(1)
}

type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Upsert(ctx context.Context, orgID uuid.UUID, ticketNumber, customerName string) (*models.Ticket, error) {
	args := m.Called(ctx, orgID, ticketNumber, customerName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Ticket, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByNumber(ctx context.Context, orgID uuid.UUID, ticketNumber string) (*models.Ticket, error) {
	args := m.Called(ctx, orgID, ticketNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

type MockMasterDataRepository struct {
	mock.Mock
}

func (m *MockMasterDataRepository) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockMasterDataRepository) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Organization), args.Error(1)
}

func (m *MockMasterDataRepository) ListProductTypes(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]models.ProductType, error) {
	args := m.Called(ctx, orgID, includeInactive)
	return args.Get(0).([]models.ProductType), args.Error(1)
}

func (m *MockMasterDataRepository) GetProductType(ctx context.Context, orgID, id uuid.UUID) (*models.ProductType, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductType), args.Error(1)
}

func (m *MockMasterDataRepository) SaveProductType(ctx context.Context, pt *models.ProductType) error {
	args := m.Called(ctx, pt)
	return args.Error(0)
}

func (m *MockMasterDataRepository) ListCategories(ctx context.Context, orgID uuid.UUID) ([]models.Category, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockMasterDataRepository) SaveCategory(ctx context.Context, c *models.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockMasterDataRepository) ListTaskTypes(ctx context.Context, orgID uuid.UUID) ([]models.TaskType, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).([]models.TaskType), args.Error(1)
}

func (m *MockMasterDataRepository) GetTaskType(ctx context.Context, orgID, id uuid.UUID) (*models.TaskType, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskType), args.Error(1)
}

func (m *MockMasterDataRepository) SaveTaskType(ctx context.Context, tt *models.TaskType) error {
	args := m.Called(ctx, tt)
	return args.Error(0)
}

func (m *MockMasterDataRepository) ListTailors(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]models.Tailor, error) {
	args := m.Called(ctx, orgID, includeInactive)
	return args.Get(0).([]models.Tailor), args.Error(1)
}

func (m *MockMasterDataRepository) GetTailor(ctx context.Context, orgID, id uuid.UUID) (*models.Tailor, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tailor), args.Error(1)
}

func (m *MockMasterDataRepository) SaveTailor(ctx context.Context, t *models.Tailor) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockMasterDataRepository) ListRateCards(ctx context.Context, orgID uuid.UUID) ([]models.RateCard, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).([]models.RateCard), args.Error(1)
}

func (m *MockMasterDataRepository) GetRateCard(ctx context.Context, orgID, taskTypeID, productTypeID uuid.UUID) (*models.RateCard, error) {
	args := m.Called(ctx, orgID, taskTypeID, productTypeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RateCard), args.Error(1)
}

func (m *MockMasterDataRepository) SaveRateCard(ctx context.Context, rc *models.RateCard) error {
	args := m.Called(ctx, rc)
	return args.Error(0)
}

func (m *MockMasterDataRepository) ListSpecialPay(ctx context.Context, orgID uuid.UUID) ([]models.SpecialPay, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).([]models.SpecialPay), args.Error(1)
}

func (m *MockMasterDataRepository) GetSpecialPay(ctx context.Context, orgID, tailorID, taskTypeID uuid.UUID) (*models.SpecialPay, error) {
	args := m.Called(ctx, orgID, tailorID, taskTypeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SpecialPay), args.Error(1)
}

func (m *MockMasterDataRepository) SaveSpecialPay(ctx context.Context, sp *models.SpecialPay) error {
	args := m.Called(ctx, sp)
	return args.Error(0)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveFee(ctx context.Context, orgID, productTypeID, taskTypeID, tailorID uuid.UUID) (*rates.Resolution, error) {
	args := m.Called(ctx, orgID, productTypeID, taskTypeID, tailorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rates.Resolution), args.Error(1)
}
