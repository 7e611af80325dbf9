package ai

import (
	"context"
	"fmt"
	"time"

	"go-pos-ventas/internal/models"
	"go-pos-ventas/internal/sales"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tool names as declared to the model.
const (
	ToolInventory       = "check_inventory"
	ToolDailyStatistics = "get_daily_statistics"
	ToolSalesReport     = "get_sales_report"
	ToolNextInvoice     = "next_invoice_code"
)

type InventoryItem struct {
	ID        uint            `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Stock     int             `json:"stock"`
	Price     decimal.Decimal `json:"price"`
	CostPrice decimal.Decimal `json:"cost_price"`
}

// Toolbox is what the assistant may read.
type Toolbox interface {
	Inventory(ctx context.Context) ([]InventoryItem, error)
	DailyStatistics(ctx context.Context, day sales.DayFilter) (sales.Statistics, error)
	SalesReport(ctx context.Context, from, to time.Time) (sales.RangeSummary, error)
	NextInvoiceCode(ctx context.Context) (string, error)
}

// StoreToolbox answers tool calls from the database.
type StoreToolbox struct {
	db      *gorm.DB
	query   *sales.Query
	counter *sales.Counter
}

func NewStoreToolbox(db *gorm.DB, query *sales.Query, counter *sales.Counter) *StoreToolbox {
	return &StoreToolbox{db: db, query: query, counter: counter}
}

func (s *StoreToolbox) Inventory(ctx context.Context) ([]InventoryItem, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("name").Find(&products).Error; err != nil {
		return nil, err
	}
	items := make([]InventoryItem, 0, len(products))
	for _, p := range products {
		items = append(items, InventoryItem{
			ID: p.ID, Code: p.Code, Name: p.Name, Category: p.Category,
			Stock: p.StockQuantity, Price: p.SalePrice, CostPrice: p.CostPrice,
		})
	}
	return items, nil
}

func (s *StoreToolbox) DailyStatistics(ctx context.Context, day sales.DayFilter) (sales.Statistics, error) {
	return s.query.DailyStatistics(ctx, day)
}

func (s *StoreToolbox) SalesReport(ctx context.Context, from, to time.Time) (sales.RangeSummary, error) {
	return s.query.RangeReport(ctx, from, to)
}

func (s *StoreToolbox) NextInvoiceCode(ctx context.Context) (string, error) {
	return s.counter.Peek(ctx)
}

// dispatch runs one tool call. Failures go back to the model as an "error"
// field so it can tell the user.
func (a *Agent) dispatch(ctx context.Context, call genai.FunctionCall) map[string]any {
	fail := func(err error) map[string]any { return map[string]any{"error": err.Error()} }

	switch call.Name {
	case ToolInventory:
		items, err := a.tools.Inventory(ctx)
		if err != nil {
			return fail(err)
		}
		return map[string]any{"inventory": items}

	case ToolDailyStatistics:
		day := a.now()
		if s, _ := call.Args["date"].(string); s != "" {
			parsed, err := time.ParseInLocation("2006-01-02", s, time.Local)
			if err != nil {
				return fail(fmt.Errorf("date must be YYYY-MM-DD"))
			}
			day = parsed
		}
		st, err := a.tools.DailyStatistics(ctx, sales.FilterFor(day))
		if err != nil {
			return fail(err)
		}
		return map[string]any{
			"date":         sales.DayKey(day),
			"sales":        st.Sales,
			"revenue":      st.TotalRevenue.String(),
			"gross_profit": st.TotalGrossProfit.String(),
			"commission":   st.CommissionDeducted.String(),
			"net_profit":   st.NetProfitAfterCommission.String(),
			"best_selling": st.BestSelling.Summary,
		}

	case ToolSalesReport:
		startStr, _ := call.Args["start_date"].(string)
		endStr, _ := call.Args["end_date"].(string)
		start, err1 := time.ParseInLocation("2006-01-02", startStr, time.Local)
		end, err2 := time.ParseInLocation("2006-01-02", endStr, time.Local)
		if err1 != nil || err2 != nil {
			return fail(fmt.Errorf("dates must be in YYYY-MM-DD format"))
		}
		if end.Before(start) {
			start, end = end, start
		}
		report, err := a.tools.SalesReport(ctx, start, end)
		if err != nil {
			return fail(err)
		}
		return map[string]any{"revenue": report.Revenue.String(), "sales_count": report.Sales, "from": report.From, "to": report.To}

	case ToolNextInvoice:
		code, err := a.tools.NextInvoiceCode(ctx)
		if err != nil {
			return fail(err)
		}
		return map[string]any{"next_invoice_code": code}
	}
	return fail(fmt.Errorf("unknown tool %q", call.Name))
}
