package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"example.com/maison/services/payroll/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.SetupModels(db))
	return db
}

type fixture struct {
	orgID  uuid.UUID
	item   models.Item
	tailor models.Tailor
	task   models.TaskType
}

func seedItem(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	orgID := uuid.New()

	productType := models.ProductType{ID: uuid.New(), OrganizationID: orgID, Name: "Agbada", Active: true}
	require.NoError(t, db.Create(&productType).Error)

	ticket := models.Ticket{ID: uuid.New(), OrganizationID: orgID, TicketNumber: "TK-1"}
	require.NoError(t, db.Create(&ticket).Error)

	task := models.TaskType{ID: uuid.New(), OrganizationID: orgID, Name: "Sewing", Active: true}
	require.NoError(t, db.Create(&task).Error)

	tailor := models.Tailor{ID: uuid.New(), OrganizationID: orgID, Name: "Amara", Band: models.BandA, Active: true}
	require.NoError(t, db.Create(&tailor).Error)

	item := models.Item{
		ID:             uuid.New(),
		OrganizationID: orgID,
		TicketID:       ticket.ID,
		ProductTypeID:  productType.ID,
		ItemNo:         1,
		ItemKey:        "TK-1-Agbada-1",
		Status:         models.ItemInProgress,
	}
	require.NoError(t, db.Create(&item).Error)

	return fixture{orgID: orgID, item: item, tailor: tailor, task: task}
}

func seedAssignment(t *testing.T, db *gorm.DB, f fixture, status models.AssignmentStatus, amount string) models.WorkAssignment {
	t.Helper()
	assignment := models.WorkAssignment{
		ID:             uuid.New(),
		OrganizationID: f.orgID,
		ItemID:         f.item.ID,
		TaskTypeID:     f.task.ID,
		TailorID:       f.tailor.ID,
		Status:         status,
		PayAmount:      decimal.RequireFromString(amount),
		PaySnapshot:    "A",
	}
	require.NoError(t, db.Create(&assignment).Error)
	return assignment
}

func reloadAssignment(t *testing.T, db *gorm.DB, id uuid.UUID) models.WorkAssignment {
	t.Helper()
	var assignment models.WorkAssignment
	require.NoError(t, db.Where("id = ?", id).First(&assignment).Error)
	return assignment
}

func TestPayBatchRollsBackWholeBatch(t *testing.T) {
	db := newTestDB(t)
	f := seedItem(t, db)
	repo := NewPaymentRepository(db, db)

	good := seedAssignment(t, db, f, models.AssignmentQCPassed, "500.00")
	bad := seedAssignment(t, db, f, models.AssignmentQCFailed, "300.00")
	alsoGood := seedAssignment(t, db, f, models.AssignmentQCPassed, "200.00")

	_, err := repo.PayBatch(context.Background(), f.orgID,
		[]uuid.UUID{good.ID, bad.ID, alsoGood.ID}, "WK-36", time.Now())

	var member *BatchMemberError
	require.ErrorAs(t, err, &member)
	require.Equal(t, bad.ID, member.AssignmentID)
	require.Equal(t, models.AssignmentQCFailed, member.Status)

	// Every member keeps its pre-call state, including the one processed
	// before the offender.
	require.Equal(t, models.AssignmentQCPassed, reloadAssignment(t, db, good.ID).Status)
	require.Equal(t, models.AssignmentQCFailed, reloadAssignment(t, db, bad.ID).Status)
	require.Equal(t, models.AssignmentQCPassed, reloadAssignment(t, db, alsoGood.ID).Status)

	var ledger int64
	require.NoError(t, db.Model(&models.PaymentRecord{}).Count(&ledger).Error)
	require.Zero(t, ledger)
}

func TestPayBatchPaysEveryMemberAndWritesLedger(t *testing.T) {
	db := newTestDB(t)
	f := seedItem(t, db)
	repo := NewPaymentRepository(db, db)

	first := seedAssignment(t, db, f, models.AssignmentQCPassed, "500.00")
	second := seedAssignment(t, db, f, models.AssignmentQCPassed, "300.50")
	paidAt := time.Now()

	paid, err := repo.PayBatch(context.Background(), f.orgID,
		[]uuid.UUID{first.ID, second.ID}, "WK-36", paidAt)

	require.NoError(t, err)
	require.Len(t, paid, 2)
	require.Equal(t, models.AssignmentPaid, reloadAssignment(t, db, first.ID).Status)
	require.Equal(t, models.AssignmentPaid, reloadAssignment(t, db, second.ID).Status)

	// Members come back with their associations loaded for the search index.
	require.NotNil(t, paid[0].Item)
	require.Equal(t, f.item.ItemKey, paid[0].Item.ItemKey)
	require.NotNil(t, paid[0].Tailor)
	require.Equal(t, f.tailor.Name, paid[0].Tailor.Name)
	require.NotNil(t, paid[0].TaskType)

	var records []models.PaymentRecord
	require.NoError(t, db.Where("batch_ref = ?", "WK-36").Find(&records).Error)
	require.Len(t, records, 2)
	for _, record := range records {
		require.Equal(t, models.PaymentPay, record.Type)
	}
}

func TestPayBatchMissingMemberRollsBack(t *testing.T) {
	db := newTestDB(t)
	f := seedItem(t, db)
	repo := NewPaymentRepository(db, db)

	good := seedAssignment(t, db, f, models.AssignmentQCPassed, "500.00")

	_, err := repo.PayBatch(context.Background(), f.orgID,
		[]uuid.UUID{good.ID, uuid.New()}, "WK-37", time.Now())

	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, models.AssignmentQCPassed, reloadAssignment(t, db, good.ID).Status)

	var ledger int64
	require.NoError(t, db.Model(&models.PaymentRecord{}).Count(&ledger).Error)
	require.Zero(t, ledger)
}

func TestTransitionDistinguishesMissingFromStale(t *testing.T) {
	db := newTestDB(t)
	f := seedItem(t, db)
	repo := NewAssignmentRepository(db, db)
	from := []models.AssignmentStatus{models.AssignmentCreated}

	err := repo.Transition(context.Background(), f.orgID, uuid.New(),
		from, models.AssignmentQCPassed, nil)
	require.ErrorIs(t, err, ErrNotFound)

	paid := seedAssignment(t, db, f, models.AssignmentPaid, "500.00")
	err = repo.Transition(context.Background(), f.orgID, paid.ID,
		from, models.AssignmentQCPassed, nil)
	require.ErrorIs(t, err, ErrStaleState)
	require.Equal(t, models.AssignmentPaid, reloadAssignment(t, db, paid.ID).Status)

	created := seedAssignment(t, db, f, models.AssignmentCreated, "500.00")
	err = repo.Transition(context.Background(), f.orgID, created.ID,
		from, models.AssignmentQCPassed, nil)
	require.NoError(t, err)
	require.Equal(t, models.AssignmentQCPassed, reloadAssignment(t, db, created.ID).Status)
}

func TestCreateAssignmentGuardsItemState(t *testing.T) {
	db := newTestDB(t)
	f := seedItem(t, db)
	repo := NewAssignmentRepository(db, db)

	newAssignment := func(itemID uuid.UUID) *models.WorkAssignment {
		return &models.WorkAssignment{
			ID:             uuid.New(),
			OrganizationID: f.orgID,
			ItemID:         itemID,
			TaskTypeID:     f.task.ID,
			TailorID:       f.tailor.ID,
			Status:         models.AssignmentCreated,
			PayAmount:      decimal.RequireFromString("500.00"),
			PaySnapshot:    "A",
		}
	}

	require.NoError(t, repo.Create(context.Background(), newAssignment(f.item.ID)))

	err := repo.Create(context.Background(), newAssignment(uuid.New()))
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Model(&models.Item{}).
		Where("id = ?", f.item.ID).
		Update("status", models.ItemCompleted).Error)

	err = repo.Create(context.Background(), newAssignment(f.item.ID))
	require.ErrorIs(t, err, ErrStaleState)

	// The completed item keeps exactly the one assignment created while it
	// was in progress.
	var count int64
	require.NoError(t, db.Model(&models.WorkAssignment{}).
		Where("item_id = ?", f.item.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestCompleteItemRollsBackOnUnfinishedWork(t *testing.T) {
	db := newTestDB(t)
	f := seedItem(t, db)
	repo := NewItemRepository(db, db)

	seedAssignment(t, db, f, models.AssignmentCreated, "500.00")

	err := repo.Complete(context.Background(), f.orgID, f.item.ID)
	require.ErrorIs(t, err, ErrUnfinishedWork)

	var item models.Item
	require.NoError(t, db.Where("id = ?", f.item.ID).First(&item).Error)
	require.Equal(t, models.ItemInProgress, item.Status)
}

func TestCancelItemRollsBackOnPaidWork(t *testing.T) {
	db := newTestDB(t)
	f := seedItem(t, db)
	repo := NewItemRepository(db, db)

	seedAssignment(t, db, f, models.AssignmentPaid, "500.00")

	err := repo.Cancel(context.Background(), f.orgID, f.item.ID)
	require.ErrorIs(t, err, ErrPaidWork)

	var item models.Item
	require.NoError(t, db.Where("id = ?", f.item.ID).First(&item).Error)
	require.Equal(t, models.ItemInProgress, item.Status)
}
