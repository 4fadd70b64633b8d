package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"example.com/maison/services/payroll/internal/api/middleware"
	"example.com/maison/services/payroll/internal/models"
	"example.com/maison/services/payroll/internal/services"
	"example.com/maison/services/payroll/internal/tracing"
)

// AssignmentHandler handles work assignment HTTP requests
type AssignmentHandler struct {
	assignments *services.AssignmentService
	tracer      tracing.Tracer
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(assignments *services.AssignmentService, tracer tracing.Tracer) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, tracer: tracer}
}

// CreateAssignmentRequest assigns a task on an item to a tailor
type CreateAssignmentRequest struct {
	ItemID     uuid.UUID `json:"itemId" binding:"required"`
	TaskTypeID uuid.UUID `json:"taskTypeId" binding:"required"`
	TailorID   uuid.UUID `json:"tailorId" binding:"required"`
}

// QCFailRequest carries the inspector's notes for a failing verdict
type QCFailRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// HandleCreateAssignment creates a work assignment with its frozen fee
func (h *AssignmentHandler) HandleCreateAssignment(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-assignment")
	defer h.tracer.EndTransaction(txn)

	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.tracer.AddAttribute(txn, "item_id", req.ItemID.String())
	h.tracer.AddAttribute(txn, "tailor_id", req.TailorID.String())

	assignment, err := h.assignments.CreateAssignment(c, middleware.OrgID(c), req.ItemID, req.TaskTypeID, req.TailorID)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

// HandleGetAssignment returns one assignment
func (h *AssignmentHandler) HandleGetAssignment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	assignment, err := h.assignments.GetAssignment(c, middleware.OrgID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// HandleListAssignments lists assignments filtered by status. Defaults to the
// QC queue (CREATED) when no status is given.
func (h *AssignmentHandler) HandleListAssignments(c *gin.Context) {
	statuses := []models.AssignmentStatus{models.AssignmentCreated}
	if raw := c.Query("status"); raw != "" {
		statuses = statuses[:0]
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, models.AssignmentStatus(strings.TrimSpace(s)))
		}
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	assignments, err := h.assignments.ListByStatus(c, middleware.OrgID(c), statuses, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assignments": assignments, "count": len(assignments)})
}

// HandleQCPass records a passing QC verdict
func (h *AssignmentHandler) HandleQCPass(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-qc-pass")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	if err := h.assignments.QCPass(c, middleware.OrgID(c), id); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": models.AssignmentQCPassed})
}

// HandleQCFail records a failing QC verdict with notes
func (h *AssignmentHandler) HandleQCFail(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-qc-fail")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	var req QCFailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.assignments.QCFail(c, middleware.OrgID(c), id, req.Notes); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": models.AssignmentQCFailed})
}

// RegisterRoutes registers the handler's routes
func (h *AssignmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	assignments := router.Group("/assignments")
	{
		assignments.POST("", middleware.RequireRole(middleware.RoleDesk, middleware.RoleQC), h.HandleCreateAssignment)
		assignments.GET("", h.HandleListAssignments)
		assignments.GET("/:id", h.HandleGetAssignment)
		assignments.POST("/:id/qc-pass", middleware.RequireRole(middleware.RoleQC), h.HandleQCPass)
		assignments.POST("/:id/qc-fail", middleware.RequireRole(middleware.RoleQC), h.HandleQCFail)
	}
}
