package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RatePolicy selects how an organization prices task work.
type RatePolicy string

const (
	// BandRatePolicy pays a flat per-task fee chosen by the tailor's band.
	BandRatePolicy RatePolicy = "band"
	// PercentageRatePolicy pays a percentage of the rate card's base fee,
	// with optional per-tailor special-pay overrides.
	PercentageRatePolicy RatePolicy = "percentage"
)

// PayBand is a tailor pay tier under the band rate policy.
type PayBand string

const (
	BandA PayBand = "A" // Standard
	BandB PayBand = "B" // Senior
)

// ItemStatus tracks a garment item through production.
type ItemStatus string

const (
	ItemInProgress ItemStatus = "IN_PROGRESS"
	ItemCompleted  ItemStatus = "COMPLETED"
	ItemCancelled  ItemStatus = "CANCELLED"
)

// AssignmentStatus tracks a work assignment through QC and payment.
type AssignmentStatus string

const (
	AssignmentCreated  AssignmentStatus = "CREATED"
	AssignmentQCPassed AssignmentStatus = "QC_PASSED"
	AssignmentQCFailed AssignmentStatus = "QC_FAILED"
	AssignmentPaid     AssignmentStatus = "PAID"
	AssignmentReversed AssignmentStatus = "REVERSED"
)

// PayableStatuses are the assignment states that count toward payroll and
// toward item completion eligibility.
var PayableStatuses = []AssignmentStatus{AssignmentQCPassed, AssignmentPaid}

// PaymentType distinguishes payouts from compensating reversals.
type PaymentType string

const (
	PaymentPay      PaymentType = "PAY"
	PaymentReversal PaymentType = "REVERSAL"
)

// Organization is the tenant boundary. Every operational row carries its ID
// and every query filters by it.
type Organization struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Name       string         `gorm:"not null" json:"name"`
	RatePolicy RatePolicy     `gorm:"not null;default:'band'" json:"rate_policy"`
}

// ProductType is a garment category (Suit, Cape, ...). Immutable once
// referenced by items.
type ProductType struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string         `gorm:"not null" json:"name"`
	Active         bool           `gorm:"not null;default:true" json:"active"`
}

// Category groups task types (Sewing, Cutting, Finishing, ...).
type Category struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string         `gorm:"not null" json:"name"`
	Active         bool           `gorm:"not null;default:true" json:"active"`
}

// TaskType is a unit of billable work performable on an item.
type TaskType struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	CategoryID     *uuid.UUID     `gorm:"type:uuid" json:"category_id"`
	ProductTypeID  *uuid.UUID     `gorm:"type:uuid" json:"product_type_id"`
	Name           string         `gorm:"not null" json:"name"`
	Active         bool           `gorm:"not null;default:true" json:"active"`
	Category       *Category      `gorm:"foreignKey:CategoryID" json:"-"`
	ProductType    *ProductType   `gorm:"foreignKey:ProductTypeID" json:"-"`
}

// Tailor is a worker. Band drives the band rate policy; BasePct and
// WeeklyBonusPct drive the percentage policy. Inactive tailors must not
// receive new assignments but keep their history.
type Tailor struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string          `gorm:"not null" json:"name"`
	Department     string          `json:"department"`
	Band           PayBand         `gorm:"not null;default:'A'" json:"band"`
	BasePct        decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0" json:"base_pct"`
	WeeklyBonusPct decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0" json:"weekly_bonus_pct"`
	Active         bool            `gorm:"not null;default:true" json:"active"`
}

// RateCard is the configured fee for a (task type, product type) pair.
// Exactly one row per pair; the resolver treats zero or duplicate rows as a
// configuration error.
type RateCard struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;index:idx_rate_cards_combo,unique" json:"organization_id"`
	TaskTypeID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_rate_cards_combo,unique" json:"task_type_id"`
	ProductTypeID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_rate_cards_combo,unique" json:"product_type_id"`
	BandAFee       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"band_a_fee"`
	BandBFee       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"band_b_fee"`
	BaseFee        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"base_fee"`
	TaskType       *TaskType       `gorm:"foreignKey:TaskTypeID" json:"-"`
	ProductType    *ProductType    `gorm:"foreignKey:ProductTypeID" json:"-"`
}

// SpecialPay is a per-tailor, per-task-type percentage uplift that supersedes
// the tailor's base percentage. A row with nil UpliftPct is a pending
// configuration: it must surface as an error, never be coerced to zero.
type SpecialPay struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"-"`
	OrganizationID uuid.UUID        `gorm:"type:uuid;not null;index:idx_special_pay_combo,unique" json:"organization_id"`
	TailorID       uuid.UUID        `gorm:"type:uuid;not null;index:idx_special_pay_combo,unique" json:"tailor_id"`
	TaskTypeID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_special_pay_combo,unique" json:"task_type_id"`
	UpliftPct      *decimal.Decimal `gorm:"type:decimal(6,4)" json:"uplift_pct"`
	Tailor         *Tailor          `gorm:"foreignKey:TailorID" json:"-"`
	TaskType       *TaskType        `gorm:"foreignKey:TaskTypeID" json:"-"`
}

// Ticket is a customer order grouping items. Upserted by (organization,
// ticket number) so repeated intake messages are idempotent.
type Ticket struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index:idx_tickets_number,unique" json:"organization_id"`
	TicketNumber   string         `gorm:"not null;index:idx_tickets_number,unique" json:"ticket_number"`
	CustomerName   string         `json:"customer_name"`
	Items          []Item         `gorm:"foreignKey:TicketID" json:"-"`
}

// Item is a single physical garment unit tracked through production.
// ItemKey is "{ticketNumber}-{productTypeName}-{itemNo}"; ItemNo continues
// past deleted rows so keys are never reused.
type Item struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`
	OrganizationID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"organization_id"`
	TicketID         uuid.UUID        `gorm:"type:uuid;not null;index" json:"ticket_id"`
	ProductTypeID    uuid.UUID        `gorm:"type:uuid;not null" json:"product_type_id"`
	ItemNo           int              `gorm:"not null" json:"item_no"`
	ItemKey          string           `gorm:"not null;uniqueIndex" json:"item_key"`
	Status           ItemStatus       `gorm:"not null;default:'IN_PROGRESS'" json:"status"`
	NeedsQCAttention bool             `gorm:"not null;default:false" json:"needs_qc_attention"`
	Notes            *string          `json:"notes"`
	ReceivedAt       *time.Time       `json:"received_at"`
	Ticket           *Ticket          `gorm:"foreignKey:TicketID" json:"-"`
	ProductType      *ProductType     `gorm:"foreignKey:ProductTypeID" json:"-"`
	Assignments      []WorkAssignment `gorm:"foreignKey:ItemID" json:"-"`
}

// WorkAssignment is one task for one tailor on one item. PayAmount and
// PaySnapshot are computed once at creation and frozen; later rate card or
// tailor edits never touch existing rows.
type WorkAssignment struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"-"`
	OrganizationID uuid.UUID        `gorm:"type:uuid;not null;index" json:"organization_id"`
	ItemID         uuid.UUID        `gorm:"type:uuid;not null;index" json:"item_id"`
	TaskTypeID     uuid.UUID        `gorm:"type:uuid;not null" json:"task_type_id"`
	TailorID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"tailor_id"`
	Status         AssignmentStatus `gorm:"not null;default:'CREATED';index" json:"status"`
	PayAmount      decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"pay_amount"`
	PaySnapshot    string           `gorm:"not null" json:"pay_snapshot"`
	QCNotes        *string          `json:"qc_notes"`
	QCAt           *time.Time       `json:"qc_at"`
	Item           *Item            `gorm:"foreignKey:ItemID" json:"-"`
	TaskType       *TaskType        `gorm:"foreignKey:TaskTypeID" json:"-"`
	Tailor         *Tailor          `gorm:"foreignKey:TailorID" json:"-"`
	Payments       []PaymentRecord  `gorm:"foreignKey:AssignmentID" json:"-"`
}

// PaymentRecord is the audit trail of money movements. A batch payment writes
// one PAY row per assignment sharing BatchRef and PaidAt; a reversal writes a
// REVERSAL row with the negated amount.
type PaymentRecord struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"organization_id"`
	AssignmentID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"assignment_id"`
	Type           PaymentType     `gorm:"not null" json:"type"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	BatchRef       string          `gorm:"index" json:"batch_ref"`
	PaidAt         time.Time       `gorm:"not null" json:"paid_at"`
	Reason         *string         `json:"reason"`
	Assignment     *WorkAssignment `gorm:"foreignKey:AssignmentID" json:"-"`
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	// Apply all migrations
	err := db.AutoMigrate(
		&Organization{},
		&ProductType{},
		&Category{},
		&TaskType{},
		&Tailor{},
		&RateCard{},
		&SpecialPay{},
		&Ticket{},
		&Item{},
		&WorkAssignment{},
		&PaymentRecord{},
	)

	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
