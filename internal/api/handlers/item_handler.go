package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"example.com/maison/services/payroll/internal/api/middleware"
	"example.com/maison/services/payroll/internal/models"
	"example.com/maison/services/payroll/internal/services"
)

// ItemHandler handles ticket and item HTTP requests
type ItemHandler struct {
	items *services.ItemService
}

// NewItemHandler creates a new item handler
func NewItemHandler(items *services.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// IntakeRequest registers items of one product type against a ticket
type IntakeRequest struct {
	TicketNumber  string    `json:"ticketNumber" binding:"required"`
	CustomerName  string    `json:"customerName"`
	ProductTypeID uuid.UUID `json:"productTypeId" binding:"required"`
	Quantity      int       `json:"quantity" binding:"required"`
	Notes         *string   `json:"notes"`
}

// HandleIntake registers items against a ticket, creating the ticket if its
// number is new
func (h *ItemHandler) HandleIntake(c *gin.Context) {
	var req IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.items.IntakeItems(c, middleware.OrgID(c), req.TicketNumber, req.CustomerName,
		req.ProductTypeID, req.Quantity, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"items": items, "count": len(items)})
}

// HandleGetItem returns one item with its assignments
func (h *ItemHandler) HandleGetItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	item, err := h.items.GetItem(c, middleware.OrgID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// HandleListItems lists items, optionally filtered by status
func (h *ItemHandler) HandleListItems(c *gin.Context) {
	var status *models.ItemStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ItemStatus(raw)
		status = &s
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

	items, err := h.items.ListItems(c, middleware.OrgID(c), status, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// HandleReceiveItem records physical receipt of a finished item
func (h *ItemHandler) HandleReceiveItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	item, err := h.items.ReceiveItem(c, middleware.OrgID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// HandleCompleteItem closes a fully QC-passed or paid item
func (h *ItemHandler) HandleCompleteItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	if err := h.items.CompleteItem(c, middleware.OrgID(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": models.ItemCompleted})
}

// HandleCancelItem cancels an in-progress item without paid work
func (h *ItemHandler) HandleCancelItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	if err := h.items.CancelItem(c, middleware.OrgID(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": models.ItemCancelled})
}

// HandleGetTicket returns a ticket by its business number
func (h *ItemHandler) HandleGetTicket(c *gin.Context) {
	ticket, err := h.items.GetTicket(c, middleware.OrgID(c), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// HandleCancelTicket cancels every open item on a ticket
func (h *ItemHandler) HandleCancelTicket(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket ID"})
		return
	}

	cancelled, err := h.items.CancelTicket(c, middleware.OrgID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "cancelled": cancelled})
}

// RegisterRoutes registers the handler's routes
func (h *ItemHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/items")
	{
		items.POST("", middleware.RequireRole(middleware.RoleDesk), h.HandleIntake)
		items.GET("", h.HandleListItems)
		items.GET("/:id", h.HandleGetItem)
		items.POST("/:id/receive", middleware.RequireRole(middleware.RoleDesk, middleware.RoleQC), h.HandleReceiveItem)
		items.POST("/:id/complete", middleware.RequireRole(middleware.RoleDesk, middleware.RoleQC), h.HandleCompleteItem)
		items.POST("/:id/cancel", middleware.RequireRole(middleware.RoleDesk), h.HandleCancelItem)
	}

	tickets := router.Group("/tickets")
	{
		tickets.GET("/:number", h.HandleGetTicket)
		tickets.POST("/:id/cancel", middleware.RequireRole(middleware.RoleDesk), h.HandleCancelTicket)
	}
}
