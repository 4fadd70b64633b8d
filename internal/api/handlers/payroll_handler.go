package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"example.com/maison/services/payroll/internal/api/middleware"
	"example.com/maison/services/payroll/internal/search"
	"example.com/maison/services/payroll/internal/services"
	"example.com/maison/services/payroll/internal/tracing"
)

// PayrollHandler handles payroll summary and search HTTP requests
type PayrollHandler struct {
	payroll *services.PayrollService
	elastic *search.ElasticClient
	tracer  tracing.Tracer
}

// NewPayrollHandler creates a new payroll handler. elastic may be nil when
// search is disabled.
func NewPayrollHandler(payroll *services.PayrollService, elastic *search.ElasticClient, tracer tracing.Tracer) *PayrollHandler {
	return &PayrollHandler{payroll: payroll, elastic: elastic, tracer: tracer}
}

// HandleGetSummary returns per-tailor payroll totals over an optional window
func (h *PayrollHandler) HandleGetSummary(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-payroll-summary")
	defer h.tracer.EndTransaction(txn)

	var start, end *time.Time
	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
			return
		}
		start = &parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
			return
		}
		end = &parsed
	}
	if start != nil && end != nil && !start.Before(*end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be before end"})
		return
	}

	fullRoster := c.Query("fullRoster") == "true"

	summaries, err := h.payroll.Summarize(c, middleware.OrgID(c), start, end, fullRoster)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summaries": summaries, "count": len(summaries)})
}

// HandleSearch queries the assignment search index by tailor, batch or status
func (h *PayrollHandler) HandleSearch(c *gin.Context) {
	if h.elastic == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search is not enabled"})
		return
	}

	must := []map[string]interface{}{
		{"term": map[string]interface{}{"organization_id": middleware.OrgID(c).String()}},
	}
	if tailorID := c.Query("tailorId"); tailorID != "" {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"tailor_id": tailorID}})
	}
	if batchRef := c.Query("batchRef"); batchRef != "" {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"batch_ref": batchRef}})
	}
	if status := c.Query("status"); status != "" {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"status": status}})
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
		"size": 100,
	}

	docs, err := h.elastic.SearchAssignments(c, query)
	if err != nil {
		respondError(c, services.WrapError(err, services.KindUnavailable, "Search failed"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": docs, "count": len(docs)})
}

// RegisterRoutes registers the handler's routes
func (h *PayrollHandler) RegisterRoutes(router *gin.RouterGroup) {
	payroll := router.Group("/payroll", middleware.RequireRole(middleware.RoleAccounts))
	{
		payroll.GET("/summary", h.HandleGetSummary)
		payroll.GET("/search", h.HandleSearch)
	}
}
