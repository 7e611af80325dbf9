package sales

import (
	"fmt"
	"sort"
	"strings"

	"go-pos-ventas/internal/models"

	"github.com/shopspring/decimal"
)

// NoSalesSummary is the best-seller summary for a day without sales.
const NoSalesSummary = "no sales"

// BestSeller names the product(s) with the most units sold.
type BestSeller struct {
	Products []string `json:"products"`
	Quantity int      `json:"quantity"`
	Tied     bool     `json:"tied"`
	Summary  string   `json:"summary"`
}

// ManagerCommission is what one manager earned over a set of sales.
type ManagerCommission struct {
	Manager    string          `json:"manager"`
	Commission decimal.Decimal `json:"commission"`
}

// Statistics summarizes a set of sales (normally one day).
type Statistics struct {
	Sales                    int                 `json:"sales"`
	TotalRevenue             decimal.Decimal     `json:"total_revenue"`
	TotalGrossProfit         decimal.Decimal     `json:"total_gross_profit"`
	CommissionDeducted       decimal.Decimal     `json:"commission_deducted"`
	NetProfitAfterCommission decimal.Decimal     `json:"net_profit_after_commission"`
	BestSelling              BestSeller          `json:"best_selling"`
	ManagerCommissions       []ManagerCommission `json:"manager_commissions"`
}

// ComputeDailyStatistics is a pure fold over sales.
//
// Revenue is the sum of sale totals; gross profit is (sale - cost) * qty
// over every line; commission only counts on sales credited to a manager.
func ComputeDailyStatistics(sales []models.Sale) Statistics {
	st := Statistics{
		Sales:              len(sales),
		TotalRevenue:       decimal.Zero,
		TotalGrossProfit:   decimal.Zero,
		CommissionDeducted: decimal.Zero,
		ManagerCommissions: []ManagerCommission{},
	}

	byManager := map[string]decimal.Decimal{}
	for _, sale := range sales {
		st.TotalRevenue = st.TotalRevenue.Add(sale.TotalAmount)

		commission := decimal.Zero
		for _, line := range sale.Lines {
			st.TotalGrossProfit = st.TotalGrossProfit.Add(line.GrossProfit())
			commission = commission.Add(line.Commission())
		}

		if sale.HasManager() {
			st.CommissionDeducted = st.CommissionDeducted.Add(commission)
			byManager[sale.Manager] = byManager[sale.Manager].Add(commission)
		}
	}
	st.NetProfitAfterCommission = st.TotalGrossProfit.Sub(st.CommissionDeducted)
	st.BestSelling = bestSeller(productQuantities(sales))

	for name, amount := range byManager {
		st.ManagerCommissions = append(st.ManagerCommissions, ManagerCommission{Manager: name, Commission: amount})
	}
	sort.Slice(st.ManagerCommissions, func(i, j int) bool {
		return st.ManagerCommissions[i].Manager < st.ManagerCommissions[j].Manager
	})
	return st
}

// productQuantities totals units per product name.
func productQuantities(sales []models.Sale) map[string]int {
	qty := map[string]int{}
	for _, sale := range sales {
		for _, line := range sale.Lines {
			qty[line.Name] += line.Quantity
		}
	}
	return qty
}

func bestSeller(qty map[string]int) BestSeller {
	best := BestSeller{Products: []string{}}
	for name, n := range qty {
		switch {
		case n > best.Quantity:
			best.Quantity = n
			best.Products = []string{name}
		case n == best.Quantity && n > 0:
			best.Products = append(best.Products, name)
		}
	}

	if len(best.Products) == 0 {
		best.Summary = NoSalesSummary
		return best
	}

	sort.Strings(best.Products)
	best.Tied = len(best.Products) > 1
	if best.Tied {
		best.Summary = fmt.Sprintf("tied: %s with %d units each", strings.Join(best.Products, " and "), best.Quantity)
	} else {
		best.Summary = fmt.Sprintf("%s with %d units", best.Products[0], best.Quantity)
	}
	return best
}
