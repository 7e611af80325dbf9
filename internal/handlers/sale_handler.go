package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-pos-ventas/internal/middleware"
	"go-pos-ventas/internal/realtime"
	"go-pos-ventas/internal/report"
	"go-pos-ventas/internal/sales"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// saleError maps sale errors onto status codes.
func (h *Handler) saleError(c *gin.Context, err error, fallback string) {
	switch {
	case sales.IsValidation(err):
		h.fail(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, sales.ErrProductNotFound), errors.Is(err, sales.ErrSaleNotFound):
		h.fail(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, sales.ErrInsufficientStock):
		h.fail(c, http.StatusBadRequest, err.Error(), nil)
	default:
		h.fail(c, http.StatusInternalServerError, fallback, err)
	}
}

// dayFilter reads ?day=&month=&year=, falling back to today when orToday is set.
func (h *Handler) dayFilter(c *gin.Context, orToday bool) (*sales.DayFilter, bool) {
	filter, err := sales.ParseDayFilter(c.Query("day"), c.Query("month"), c.Query("year"))
	if err != nil {
		h.saleError(c, err, "")
		return nil, false
	}
	if filter == nil && orToday {
		today := sales.FilterFor(h.now())
		filter = &today
	}
	return filter, true
}

// --- POST: /api/venta ---
func (h *Handler) RecordSale(c *gin.Context) {
	var req sales.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.CreatedBy = middleware.UserID(c)

	sale, err := h.Recorder.Record(c.Request.Context(), req)
	if err != nil {
		h.saleError(c, err, "could not record sale")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Sale recorded",
		"invoice_code": sale.InvoiceCode,
		"sale":         sales.NewSaleView(*sale, middleware.Role(c)),
	})
}

// --- GET: /api/venta ---
func (h *Handler) ListSales(c *gin.Context) {
	filter, ok := h.dayFilter(c, false)
	if !ok {
		return
	}
	page, limit := pageParams(c)

	result, err := h.Query.List(c.Request.Context(), page, limit, filter)
	if err != nil {
		h.saleError(c, err, "could not list sales")
		return
	}
	c.JSON(http.StatusOK, sales.NewPageView(result, middleware.Role(c)))
}

// --- GET: /api/venta/all ---
func (h *Handler) AllSales(c *gin.Context) {
	filter, ok := h.dayFilter(c, false)
	if !ok {
		return
	}
	if filter == nil {
		h.fail(c, http.StatusBadRequest, "day, month and year are required", nil)
		return
	}

	list, err := h.Query.AllForDay(c.Request.Context(), *filter)
	if err != nil {
		h.saleError(c, err, "could not list sales")
		return
	}
	c.JSON(http.StatusOK, sales.NewSaleViews(list, middleware.Role(c)))
}

// --- GET: /api/venta/ultimo-codigo-factura ---
func (h *Handler) NextInvoiceCode(c *gin.Context) {
	code, err := h.Counter.Peek(c.Request.Context())
	if err != nil {
		h.saleError(c, err, "could not read the invoice counter")
		return
	}
	c.JSON(http.StatusOK, gin.H{"next_invoice_code": code})
}

// --- GET: /api/venta/events ---
// Server-Sent Events: the current next code on connect, then one
// actualizarCodigoFactura per committed sale. Advisory only.
func (h *Handler) SaleEvents(c *gin.Context) {
	id, events := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(id)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if code, err := h.Counter.Peek(c.Request.Context()); err == nil {
		first := realtime.NextInvoiceEvent(code)
		c.SSEvent(first.Name, first.Payload)
		c.Writer.Flush()
	}

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Payload)
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", "")
			return true
		}
	})
}

// --- GET: /api/venta/estadisticas ---
func (h *Handler) DailyStatistics(c *gin.Context) {
	filter, ok := h.dayFilter(c, true)
	if !ok {
		return
	}
	st, err := h.Query.DailyStatistics(c.Request.Context(), *filter)
	if err != nil {
		h.saleError(c, err, "could not compute statistics")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"day":        filter.Key(),
		"statistics": sales.NewStatisticsView(st, middleware.Role(c)),
	})
}

// --- GET: /api/venta/productos-hoy ---
func (h *Handler) ProductsSold(c *gin.Context) {
	filter, ok := h.dayFilter(c, true)
	if !ok {
		return
	}
	sold, err := h.Query.ProductsSold(c.Request.Context(), *filter)
	if err != nil {
		h.saleError(c, err, "could not list products sold")
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": filter.Key(), "products": sold})
}

// --- DELETE: /api/venta/:id ---
// Removes the record only. Stock is not restored.
func (h *Handler) DeleteSale(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.fail(c, http.StatusBadRequest, "Invalid sale ID", nil)
		return
	}
	if err := h.Query.Delete(c.Request.Context(), id); err != nil {
		h.saleError(c, err, "could not delete sale")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sale deleted"})
}

func (h *Handler) month(c *gin.Context) (int, int, bool) {
	year, month, err := sales.ParseMonth(c.Query("month"), c.Query("year"), h.now())
	if err != nil {
		h.saleError(c, err, "")
		return 0, 0, false
	}
	return year, month, true
}

// --- GET: /api/venta/mes ---
func (h *Handler) SalesByDay(c *gin.Context) {
	year, month, ok := h.month(c)
	if !ok {
		return
	}
	totals, err := h.Query.DailyTotals(c.Request.Context(), year, month)
	if err != nil {
		h.saleError(c, err, "could not compute monthly sales")
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "days": totals})
}

// --- GET: /api/venta/ano ---
func (h *Handler) SalesByMonth(c *gin.Context) {
	year := h.now().Year()
	if s := strings.TrimSpace(c.Query("year")); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1 || y > 9999 {
			h.fail(c, http.StatusBadRequest, "invalid year", err)
			return
		}
		year = y
	}
	totals, err := h.Query.MonthlyTotals(c.Request.Context(), year)
	if err != nil {
		h.saleError(c, err, "could not compute yearly sales")
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "months": totals})
}

// --- GET: /api/venta/gestor ---
func (h *Handler) SalesByManager(c *gin.Context) {
	year, month, ok := h.month(c)
	if !ok {
		return
	}
	totals, err := h.Query.ManagerTotals(c.Request.Context(), year, month)
	if err != nil {
		h.saleError(c, err, "could not compute manager sales")
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "managers": totals})
}

// --- GET: /api/venta/mas-vendido-diario ---
func (h *Handler) DailyBestSellers(c *gin.Context) {
	year, month, ok := h.month(c)
	if !ok {
		return
	}
	best, err := h.Query.DailyBestSellers(c.Request.Context(), year, month)
	if err != nil {
		h.saleError(c, err, "could not compute best sellers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "days": best})
}

// --- GET: /api/venta/export ---
func (h *Handler) ExportSales(c *gin.Context) {
	filter, ok := h.dayFilter(c, true)
	if !ok {
		return
	}
	list, err := h.Query.AllForDay(c.Request.Context(), *filter)
	if err != nil {
		h.saleError(c, err, "could not export sales")
		return
	}

	role := middleware.Role(c)
	stats := sales.NewStatisticsView(sales.ComputeDailyStatistics(list), role)

	var buf bytes.Buffer
	if err := report.WriteSalesWorkbook(&buf, filter.Key(), sales.NewSaleViews(list, role), stats); err != nil {
		h.fail(c, http.StatusInternalServerError, "could not build the workbook", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="ventas-%s.xlsx"`, filter.Key()))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
