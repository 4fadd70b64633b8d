package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"example.com/maison/services/payroll/internal/cache"
	"example.com/maison/services/payroll/internal/metrics"
	"example.com/maison/services/payroll/internal/models"
	"example.com/maison/services/payroll/internal/repositories"
	"example.com/maison/services/payroll/internal/search"
	"example.com/maison/services/payroll/internal/tracing"
)

// Publisher sends committed batch events downstream.
type Publisher interface {
	SendMessage(ctx context.Context, body interface{}) error
}

// PaymentService executes payment batches and reversals. A batch is all or
// nothing: one ineligible member rolls back every row in it.
type PaymentService struct {
	payments    repositories.PaymentRepository
	assignments repositories.AssignmentRepository
	cache       *cache.RedisCache
	elastic     *search.ElasticClient
	erpQueue    Publisher
	metrics     *metrics.Metrics
	tracer      tracing.Tracer
}

// NewPaymentService creates a new payment service. elastic and erpQueue may
// be nil when search indexing or ERP publication is disabled.
func NewPaymentService(
	payments repositories.PaymentRepository,
	assignments repositories.AssignmentRepository,
	redisCache *cache.RedisCache,
	elastic *search.ElasticClient,
	erpQueue Publisher,
	collector *metrics.Metrics,
	tracer tracing.Tracer,
) *PaymentService {
	return &PaymentService{
		payments:    payments,
		assignments: assignments,
		cache:       redisCache,
		elastic:     elastic,
		erpQueue:    erpQueue,
		metrics:     collector,
		tracer:      tracer,
	}
}

// BatchResult summarizes an executed payment batch.
type BatchResult struct {
	BatchRef    string        `json:"batchRef"`
	PaidAt      time.Time     `json:"paidAt"`
	Count       int           `json:"count"`
	TotalAmount string        `json:"totalAmount"`
	Payments    []PaymentLine `json:"payments"`
}

// PaymentLine is one assignment paid within a batch.
type PaymentLine struct {
	AssignmentID uuid.UUID `json:"assignmentId"`
	TailorID     uuid.UUID `json:"tailorId"`
	Amount       string    `json:"amount"`
}

// erpBatchEvent is the message published to the ERP queue after a batch
// commits.
type erpBatchEvent struct {
	EventType string      `json:"eventType"`
	Data      BatchResult `json:"data"`
}

// PayBatch pays a set of QC_PASSED assignments atomically under one batch
// reference. If any member is missing or not QC_PASSED the whole batch is
// rejected and nothing is paid.
func (s *PaymentService) PayBatch(ctx context.Context, orgID uuid.UUID, assignmentIDs []uuid.UUID, batchRef string) (*BatchResult, error) {
	txn := s.tracer.StartTransaction("pay-batch")
	defer s.tracer.EndTransaction(txn)

	batchRef = strings.TrimSpace(batchRef)
	if batchRef == "" {
		return nil, NewError(KindValidation, "A batch reference is required")
	}
	if len(assignmentIDs) == 0 {
		return nil, NewError(KindValidation, "A payment batch must contain at least one assignment")
	}

	seen := make(map[uuid.UUID]struct{}, len(assignmentIDs))
	ids := make([]uuid.UUID, 0, len(assignmentIDs))
	for _, id := range assignmentIDs {
		if _, dup := seen[id]; dup {
			return nil, NewError(KindValidation, "Assignment %s appears more than once in the batch", id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	paidAt := time.Now()
	paid, err := s.payments.PayBatch(ctx, orgID, ids, batchRef, paidAt)
	if err != nil {
		s.tracer.RecordError(txn, err)
		var member *repositories.BatchMemberError
		switch {
		case errors.As(err, &member):
			return nil, WrapError(err, KindInvalidBatchMember,
				"Batch %s rejected: assignment %s is %s, expected QC_PASSED; nothing was paid",
				batchRef, member.AssignmentID, member.Status)
		case errors.Is(err, repositories.ErrNotFound):
			return nil, WrapError(err, KindInvalidBatchMember,
				"Batch %s rejected: one of the assignments does not exist; nothing was paid", batchRef)
		default:
			return nil, WrapError(err, KindUnavailable, "Could not execute the payment batch")
		}
	}

	result := &BatchResult{
		BatchRef: batchRef,
		PaidAt:   paidAt,
		Count:    len(paid),
		Payments: make([]PaymentLine, 0, len(paid)),
	}
	total := decimal.Zero
	for i := range paid {
		total = total.Add(paid[i].PayAmount)
		result.Payments = append(result.Payments, PaymentLine{
			AssignmentID: paid[i].ID,
			TailorID:     paid[i].TailorID,
			Amount:       paid[i].PayAmount.String(),
		})
	}
	result.TotalAmount = total.String()

	s.metrics.IncrementCounter(metrics.MetricPaymentBatches)
	log.Info().
		Str("batch_ref", batchRef).
		Int("count", result.Count).
		Str("total_amount", result.TotalAmount).
		Msg("Payment batch executed")

	// Search indexing, ERP publication and cache invalidation happen after
	// the commit; failures are logged, never rolled back into the batch.
	s.afterBatch(orgID, paid, batchRef, result)

	return result, nil
}

func (s *PaymentService) afterBatch(orgID uuid.UUID, paid []models.WorkAssignment, batchRef string, result *BatchResult) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if s.elastic != nil {
			for i := range paid {
				if err := s.elastic.IndexAssignment(ctx, &paid[i], batchRef); err != nil {
					log.Warn().Err(err).
						Str("assignment_id", paid[i].ID.String()).
						Msg("Failed to index paid assignment")
				}
			}
		}

		if s.erpQueue != nil {
			event := erpBatchEvent{EventType: "PayrollBatchPaid", Data: *result}
			if err := s.erpQueue.SendMessage(ctx, event); err != nil {
				log.Error().Err(err).Str("batch_ref", batchRef).Msg("Failed to publish batch to ERP queue")
			}
		}

		if err := s.cache.DeletePattern(ctx, cache.PayrollSummaryCacheKey(orgID, "*")); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate payroll summary cache")
		}
	}()
}

// ReversePayment reverses a paid assignment. The original PAY record is kept
// and a negative REVERSAL record is written beside it, so the ledger stays
// append-only.
func (s *PaymentService) ReversePayment(ctx context.Context, orgID, assignmentID uuid.UUID, reason string) (*models.PaymentRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, NewError(KindValidation, "A reversal reason is required")
	}

	record, err := s.payments.Reverse(ctx, orgID, assignmentID, reason)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, NewError(KindNotFound, "Assignment not found")
		case errors.Is(err, repositories.ErrStaleState):
			actual := "unknown"
			if a, lookupErr := s.assignments.GetByID(ctx, orgID, assignmentID); lookupErr == nil {
				actual = string(a.Status)
			}
			return nil, NewError(KindInvalidTransition,
				"Assignment %s is %s; only PAID assignments can be reversed", assignmentID, actual)
		default:
			return nil, WrapError(err, KindUnavailable, "Could not reverse the payment")
		}
	}

	s.metrics.IncrementCounter(metrics.MetricPaymentsReversed)
	log.Info().
		Str("assignment_id", assignmentID.String()).
		Str("amount", record.Amount.String()).
		Str("reason", reason).
		Msg("Payment reversed")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.cache.DeletePattern(ctx, cache.PayrollSummaryCacheKey(orgID, "*")); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate payroll summary cache")
		}
	}()

	return record, nil
}

// ListBatch returns the payment records written under a batch reference.
func (s *PaymentService) ListBatch(ctx context.Context, orgID uuid.UUID, batchRef string) ([]models.PaymentRecord, error) {
	records, err := s.payments.ListBatch(ctx, orgID, batchRef)
	if err != nil {
		return nil, WrapError(err, KindUnavailable, "Could not list batch payments")
	}
	return records, nil
}

// ListAssignmentPayments returns the payment history of one assignment.
func (s *PaymentService) ListAssignmentPayments(ctx context.Context, orgID, assignmentID uuid.UUID) ([]models.PaymentRecord, error) {
	records, err := s.payments.ListByAssignment(ctx, orgID, assignmentID)
	if err != nil {
		return nil, WrapError(err, KindUnavailable, "Could not list assignment payments")
	}
	return records, nil
}
