package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"example.com/maison/services/payroll/internal/api/middleware"
	"example.com/maison/services/payroll/internal/services"
	"example.com/maison/services/payroll/internal/tracing"
)

// PaymentHandler handles payment batch and reversal HTTP requests
type PaymentHandler struct {
	payments *services.PaymentService
	tracer   tracing.Tracer
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments *services.PaymentService, tracer tracing.Tracer) *PaymentHandler {
	return &PaymentHandler{payments: payments, tracer: tracer}
}

// PayBatchRequest pays a set of QC-passed assignments under one reference
type PayBatchRequest struct {
	AssignmentIDs []uuid.UUID `json:"assignmentIds" binding:"required"`
	BatchRef      string      `json:"batchRef" binding:"required"`
}

// ReversePaymentRequest reverses a paid assignment
type ReversePaymentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// HandlePayBatch executes an atomic payment batch
func (h *PaymentHandler) HandlePayBatch(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-pay-batch")
	defer h.tracer.EndTransaction(txn)

	var req PayBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.tracer.AddAttribute(txn, "batch_ref", req.BatchRef)
	h.tracer.AddAttribute(txn, "batch_size", len(req.AssignmentIDs))

	result, err := h.payments.PayBatch(c, middleware.OrgID(c), req.AssignmentIDs, req.BatchRef)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// HandleReversePayment reverses a paid assignment with an audit reason
func (h *PaymentHandler) HandleReversePayment(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-reverse-payment")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	var req ReversePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.payments.ReversePayment(c, middleware.OrgID(c), id, req.Reason)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// HandleGetBatch returns the payment records of a batch
func (h *PaymentHandler) HandleGetBatch(c *gin.Context) {
	batchRef := c.Param("batchRef")

	records, err := h.payments.ListBatch(c, middleware.OrgID(c), batchRef)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"batchRef": batchRef, "payments": records, "count": len(records)})
}

// HandleGetAssignmentPayments returns one assignment's payment history
func (h *PaymentHandler) HandleGetAssignmentPayments(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	records, err := h.payments.ListAssignmentPayments(c, middleware.OrgID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": records, "count": len(records)})
}

// RegisterRoutes registers the handler's routes
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/payments", middleware.RequireRole(middleware.RoleAccounts))
	{
		payments.POST("/batch", h.HandlePayBatch)
		payments.GET("/batch/:batchRef", h.HandleGetBatch)
		payments.POST("/assignments/:id/reverse", h.HandleReversePayment)
		payments.GET("/assignments/:id", h.HandleGetAssignmentPayments)
	}
}
