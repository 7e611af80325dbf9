package sales

import (
	"time"

	"go-pos-ventas/internal/models"

	"github.com/shopspring/decimal"
)

// LineView is a sale line as shown to a caller. Cost and commission are
// only filled in for admins.
type LineView struct {
	ProductID         uint             `json:"product_id"`
	Code              string           `json:"code"`
	Name              string           `json:"name"`
	SalePrice         decimal.Decimal  `json:"sale_price"`
	Quantity          int              `json:"quantity"`
	Subtotal          decimal.Decimal  `json:"subtotal"`
	CostPrice         *decimal.Decimal `json:"cost_price,omitempty"`
	ManagerCommission *decimal.Decimal `json:"manager_commission,omitempty"`
}

type SaleView struct {
	ID            uint            `json:"id"`
	Day           string          `json:"day"`
	InvoiceCode   string          `json:"invoice_code"`
	SoldAt        time.Time       `json:"sold_at"`
	Customer      models.Customer `json:"customer"`
	Manager       string          `json:"manager"`
	TotalQuantity int             `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Lines         []LineView      `json:"lines"`
}

func isAdmin(role string) bool { return role == models.RoleAdmin }

func NewSaleView(s models.Sale, role string) SaleView {
	v := SaleView{
		ID:            s.ID,
		Day:           s.Day,
		InvoiceCode:   s.InvoiceCode,
		SoldAt:        s.SoldAt,
		Customer:      s.Customer,
		Manager:       s.Manager,
		TotalQuantity: s.TotalQuantity,
		TotalAmount:   s.TotalAmount,
		Lines:         make([]LineView, 0, len(s.Lines)),
	}
	for _, l := range s.Lines {
		lv := LineView{
			ProductID: l.ProductID,
			Code:      l.Code,
			Name:      l.Name,
			SalePrice: l.SalePrice,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		}
		if isAdmin(role) {
			cost, commission := l.CostPrice, l.ManagerCommission
			lv.CostPrice = &cost
			lv.ManagerCommission = &commission
		}
		v.Lines = append(v.Lines, lv)
	}
	return v
}

func NewSaleViews(sales []models.Sale, role string) []SaleView {
	out := make([]SaleView, 0, len(sales))
	for _, s := range sales {
		out = append(out, NewSaleView(s, role))
	}
	return out
}

// StatisticsView hides every profit and commission figure from non-admins.
type StatisticsView struct {
	Sales                    int                 `json:"sales"`
	TotalRevenue             decimal.Decimal     `json:"total_revenue"`
	BestSelling              BestSeller          `json:"best_selling"`
	TotalGrossProfit         *decimal.Decimal    `json:"total_gross_profit,omitempty"`
	CommissionDeducted       *decimal.Decimal    `json:"commission_deducted,omitempty"`
	NetProfitAfterCommission *decimal.Decimal    `json:"net_profit_after_commission,omitempty"`
	ManagerCommissions       []ManagerCommission `json:"manager_commissions,omitempty"`
}

func NewStatisticsView(st Statistics, role string) StatisticsView {
	v := StatisticsView{
		Sales:        st.Sales,
		TotalRevenue: st.TotalRevenue,
		BestSelling:  st.BestSelling,
	}
	if isAdmin(role) {
		gross, commission, net := st.TotalGrossProfit, st.CommissionDeducted, st.NetProfitAfterCommission
		v.TotalGrossProfit = &gross
		v.CommissionDeducted = &commission
		v.NetProfitAfterCommission = &net
		v.ManagerCommissions = st.ManagerCommissions
	}
	return v
}

// PageView is a Page with its items shaped for role.
type PageView struct {
	Items      []SaleView `json:"items"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"total_pages"`
}

func NewPageView(p Page, role string) PageView {
	return PageView{
		Items:      NewSaleViews(p.Items, role),
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	}
}
