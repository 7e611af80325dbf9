package handlers

import (
	"net/http"
	"time"

	"go-pos-ventas/internal/models"
	"go-pos-ventas/internal/report"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/reports?from=YYYY-MM-DD&to=YYYY-MM-DD ---
// Revenue and sale count for a range of days; today when omitted.
func (h *Handler) GetSalesReport(c *gin.Context) {
	today := h.now()
	from, to := today, today

	var err error
	if s := c.Query("from"); s != "" {
		if from, err = time.ParseInLocation("2006-01-02", s, time.Local); err != nil {
			h.fail(c, http.StatusBadRequest, "from must be YYYY-MM-DD", err)
			return
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = time.ParseInLocation("2006-01-02", s, time.Local); err != nil {
			h.fail(c, http.StatusBadRequest, "to must be YYYY-MM-DD", err)
			return
		}
	}
	if to.Before(from) {
		h.fail(c, http.StatusBadRequest, "to is before from", nil)
		return
	}

	summary, err := h.Query.RangeReport(c.Request.Context(), from, to)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to calculate revenue", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// --- GET: /api/reports/valuation ---
// GetStockValuation calculates the total monetary value of all physical inventory
func (h *Handler) GetStockValuation(c *gin.Context) {
	var products []models.Product
	if err := h.DB.WithContext(c.Request.Context()).Find(&products).Error; err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to fetch inventory", err)
		return
	}
	c.JSON(http.StatusOK, report.StockValuation(products))
}
