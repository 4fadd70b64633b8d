package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"example.com/maison/services/payroll/internal/api/middleware"
	"example.com/maison/services/payroll/internal/models"
	"example.com/maison/services/payroll/internal/services"
)

// MasterDataHandler handles catalog administration HTTP requests
type MasterDataHandler struct {
	masterData *services.MasterDataService
}

// NewMasterDataHandler creates a new master data handler
func NewMasterDataHandler(masterData *services.MasterDataService) *MasterDataHandler {
	return &MasterDataHandler{masterData: masterData}
}

// SaveProductTypeRequest creates or updates a product type
type SaveProductTypeRequest struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name" binding:"required"`
	Active *bool     `json:"active"`
}

// SaveTailorRequest creates or updates a tailor
type SaveTailorRequest struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name" binding:"required"`
	Band           models.PayBand  `json:"band" binding:"required"`
	BasePct        decimal.Decimal `json:"basePct"`
	WeeklyBonusPct decimal.Decimal `json:"weeklyBonusPct"`
	Active         *bool           `json:"active"`
}

// SaveRateCardRequest creates or updates the rate card for a task and
// product pair
type SaveRateCardRequest struct {
	ID            uuid.UUID       `json:"id"`
	TaskTypeID    uuid.UUID       `json:"taskTypeId" binding:"required"`
	ProductTypeID uuid.UUID       `json:"productTypeId" binding:"required"`
	BandAFee      decimal.Decimal `json:"bandAFee"`
	BandBFee      decimal.Decimal `json:"bandBFee"`
	BaseFee       decimal.Decimal `json:"baseFee"`
}

// SaveSpecialPayRequest creates or updates a special pay rule; a nil uplift
// leaves the rule pending
type SaveSpecialPayRequest struct {
	ID         uuid.UUID        `json:"id"`
	TailorID   uuid.UUID        `json:"tailorId" binding:"required"`
	TaskTypeID uuid.UUID        `json:"taskTypeId" binding:"required"`
	UpliftPct  *decimal.Decimal `json:"upliftPct"`
}

func (h *MasterDataHandler) HandleGetOrganization(c *gin.Context) {
	org, err := h.masterData.GetOrganization(c, middleware.OrgID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (h *MasterDataHandler) HandleListProductTypes(c *gin.Context) {
	pts, err := h.masterData.ListProductTypes(c, middleware.OrgID(c), c.Query("includeInactive") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"productTypes": pts, "count": len(pts)})
}

func (h *MasterDataHandler) HandleSaveProductType(c *gin.Context) {
	var req SaveProductTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	pt := &models.ProductType{
		ID:             req.ID,
		OrganizationID: middleware.OrgID(c),
		Name:           req.Name,
		Active:         active,
	}
	if err := h.masterData.SaveProductType(c, pt); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pt)
}

func (h *MasterDataHandler) HandleListTaskTypes(c *gin.Context) {
	tts, err := h.masterData.ListTaskTypes(c, middleware.OrgID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"taskTypes": tts, "count": len(tts)})
}

func (h *MasterDataHandler) HandleSaveTaskType(c *gin.Context) {
	var req struct {
		ID            uuid.UUID  `json:"id"`
		Name          string     `json:"name" binding:"required"`
		CategoryID    *uuid.UUID `json:"categoryId"`
		ProductTypeID *uuid.UUID `json:"productTypeId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tt := &models.TaskType{
		ID:             req.ID,
		OrganizationID: middleware.OrgID(c),
		Name:           req.Name,
		CategoryID:     req.CategoryID,
		ProductTypeID:  req.ProductTypeID,
		Active:         true,
	}
	if err := h.masterData.SaveTaskType(c, tt); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tt)
}

func (h *MasterDataHandler) HandleListCategories(c *gin.Context) {
	categories, err := h.masterData.ListCategories(c, middleware.OrgID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories, "count": len(categories)})
}

func (h *MasterDataHandler) HandleSaveCategory(c *gin.Context) {
	var req struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := &models.Category{ID: req.ID, OrganizationID: middleware.OrgID(c), Name: req.Name}
	if err := h.masterData.SaveCategory(c, category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *MasterDataHandler) HandleListTailors(c *gin.Context) {
	tailors, err := h.masterData.ListTailors(c, middleware.OrgID(c), c.Query("includeInactive") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tailors": tailors, "count": len(tailors)})
}

func (h *MasterDataHandler) HandleSaveTailor(c *gin.Context) {
	var req SaveTailorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	tailor := &models.Tailor{
		ID:             req.ID,
		OrganizationID: middleware.OrgID(c),
		Name:           req.Name,
		Band:           req.Band,
		BasePct:        req.BasePct,
		WeeklyBonusPct: req.WeeklyBonusPct,
		Active:         active,
	}
	if err := h.masterData.SaveTailor(c, tailor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tailor)
}

func (h *MasterDataHandler) HandleListRateCards(c *gin.Context) {
	cards, err := h.masterData.ListRateCards(c, middleware.OrgID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rateCards": cards, "count": len(cards)})
}

func (h *MasterDataHandler) HandleSaveRateCard(c *gin.Context) {
	var req SaveRateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	card := &models.RateCard{
		ID:             req.ID,
		OrganizationID: middleware.OrgID(c),
		TaskTypeID:     req.TaskTypeID,
		ProductTypeID:  req.ProductTypeID,
		BandAFee:       req.BandAFee,
		BandBFee:       req.BandBFee,
		BaseFee:        req.BaseFee,
	}
	if err := h.masterData.SaveRateCard(c, card); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *MasterDataHandler) HandleListSpecialPay(c *gin.Context) {
	rules, err := h.masterData.ListSpecialPay(c, middleware.OrgID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"specialPay": rules, "count": len(rules)})
}

func (h *MasterDataHandler) HandleSaveSpecialPay(c *gin.Context) {
	var req SaveSpecialPayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule := &models.SpecialPay{
		ID:             req.ID,
		OrganizationID: middleware.OrgID(c),
		TailorID:       req.TailorID,
		TaskTypeID:     req.TaskTypeID,
		UpliftPct:      req.UpliftPct,
	}
	if err := h.masterData.SaveSpecialPay(c, rule); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// RegisterRoutes registers the handler's routes
func (h *MasterDataHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/masterdata")
	{
		admin.GET("/organization", h.HandleGetOrganization)
		admin.GET("/product-types", h.HandleListProductTypes)
		admin.POST("/product-types", middleware.RequireRole(), h.HandleSaveProductType)
		admin.GET("/categories", h.HandleListCategories)
		admin.POST("/categories", middleware.RequireRole(), h.HandleSaveCategory)
		admin.GET("/task-types", h.HandleListTaskTypes)
		admin.POST("/task-types", middleware.RequireRole(), h.HandleSaveTaskType)
		admin.GET("/tailors", h.HandleListTailors)
		admin.POST("/tailors", middleware.RequireRole(), h.HandleSaveTailor)
		admin.GET("/rate-cards", h.HandleListRateCards)
		admin.POST("/rate-cards", middleware.RequireRole(), h.HandleSaveRateCard)
		admin.GET("/special-pay", h.HandleListSpecialPay)
		admin.POST("/special-pay", middleware.RequireRole(), h.HandleSaveSpecialPay)
	}
}
