// Package report builds the back-office reports: stock valuation and the
// spreadsheet export of a day's sales.
package report

import (
	"sort"

	"go-pos-ventas/internal/models"

	"github.com/shopspring/decimal"
)

const uncategorized = "Uncategorized"

// ValuationItem represents a single row in the valuation table
type ValuationItem struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// CategoryGroup represents one entire table (e.g., "DRINKS")
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// Valuation is the monetary value of all stock on hand, at cost.
type Valuation struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// StockValuation groups products by category and values stock * cost.
// Categories and items come back sorted by name.
func StockValuation(products []models.Product) Valuation {
	grouped := make(map[string]*CategoryGroup)
	grandTotal := decimal.Zero

	for _, p := range products {
		catName := p.Category
		if catName == "" {
			catName = uncategorized
		}

		group, ok := grouped[catName]
		if !ok {
			group = &CategoryGroup{CategoryName: catName, Items: []ValuationItem{}, Subtotal: decimal.Zero}
			grouped[catName] = group
		}

		itemTotal := p.CostPrice.Mul(decimal.NewFromInt(int64(p.StockQuantity)))
		group.Items = append(group.Items, ValuationItem{
			Code:      p.Code,
			Name:      p.Name,
			Quantity:  p.StockQuantity,
			CostPrice: p.CostPrice,
			TotalCost: itemTotal,
		})
		group.Subtotal = group.Subtotal.Add(itemTotal)
		grandTotal = grandTotal.Add(itemTotal)
	}

	out := Valuation{Categories: make([]CategoryGroup, 0, len(grouped)), GrandTotal: grandTotal}
	for _, group := range grouped {
		sort.Slice(group.Items, func(i, j int) bool { return group.Items[i].Name < group.Items[j].Name })
		out.Categories = append(out.Categories, *group)
	}
	sort.Slice(out.Categories, func(i, j int) bool { return out.Categories[i].CategoryName < out.Categories[j].CategoryName })
	return out
}
