package sales

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DayTotal is revenue on one day of a month.
type DayTotal struct {
	Day   int             `json:"day"`
	Total decimal.Decimal `json:"total"`
	Sales int             `json:"sales"`
}

// MonthTotal is revenue in one month of a year.
type MonthTotal struct {
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
	Sales int             `json:"sales"`
}

// ManagerTotal is revenue credited to one manager.
type ManagerTotal struct {
	Manager string          `json:"manager"`
	Total   decimal.Decimal `json:"total"`
	Sales   int             `json:"sales"`
}

// DailyBestSeller is the best seller of one day of a month.
type DailyBestSeller struct {
	Day        int        `json:"day"`
	BestSeller BestSeller `json:"best_seller"`
}

// ProductQuantity is units sold of one product.
type ProductQuantity struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// RangeSummary is the headline figure for a date range.
type RangeSummary struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Sales   int             `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"`
}

// DailyTotals returns revenue per day of month. Days without sales are omitted.
func (q *Query) DailyTotals(ctx context.Context, year, month int) ([]DayTotal, error) {
	from, to := monthBounds(year, month)
	sales, err := q.between(ctx, from, to)
	if err != nil {
		return nil, err
	}

	index := map[int]int{}
	out := []DayTotal{}
	for _, s := range sales {
		d := dayOfKey(s.Day)
		i, ok := index[d]
		if !ok {
			i = len(out)
			index[d] = i
			out = append(out, DayTotal{Day: d, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(s.TotalAmount)
		out[i].Sales++
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// MonthlyTotals returns revenue per month of year. Months without sales are omitted.
func (q *Query) MonthlyTotals(ctx context.Context, year int) ([]MonthTotal, error) {
	from, to := yearBounds(year)
	sales, err := q.between(ctx, from, to)
	if err != nil {
		return nil, err
	}

	index := map[int]int{}
	out := []MonthTotal{}
	for _, s := range sales {
		m := monthOfKey(s.Day)
		i, ok := index[m]
		if !ok {
			i = len(out)
			index[m] = i
			out = append(out, MonthTotal{Month: m, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(s.TotalAmount)
		out[i].Sales++
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

// ManagerTotals returns revenue per manager over a month, largest first.
// Sales without a manager are left out.
func (q *Query) ManagerTotals(ctx context.Context, year, month int) ([]ManagerTotal, error) {
	from, to := monthBounds(year, month)
	sales, err := q.between(ctx, from, to)
	if err != nil {
		return nil, err
	}

	index := map[string]int{}
	out := []ManagerTotal{}
	for _, s := range sales {
		if !s.HasManager() {
			continue
		}
		i, ok := index[s.Manager]
		if !ok {
			i = len(out)
			index[s.Manager] = i
			out = append(out, ManagerTotal{Manager: s.Manager, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(s.TotalAmount)
		out[i].Sales++
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Manager < out[j].Manager
	})
	return out, nil
}

// DailyBestSellers returns the best seller for every day of month that had sales.
func (q *Query) DailyBestSellers(ctx context.Context, year, month int) ([]DailyBestSeller, error) {
	from, to := monthBounds(year, month)
	sales, err := q.between(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byDay := map[int][]int{}
	for i, s := range sales {
		d := dayOfKey(s.Day)
		byDay[d] = append(byDay[d], i)
	}

	out := make([]DailyBestSeller, 0, len(byDay))
	for d, idx := range byDay {
		qty := map[string]int{}
		for _, i := range idx {
			for _, line := range sales[i].Lines {
				qty[line.Name] += line.Quantity
			}
		}
		out = append(out, DailyBestSeller{Day: d, BestSeller: bestSeller(qty)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// ProductsSold lists units per product for one day, most sold first.
func (q *Query) ProductsSold(ctx context.Context, filter DayFilter) ([]ProductQuantity, error) {
	sales, err := q.AllForDay(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := []ProductQuantity{}
	for name, n := range productQuantities(sales) {
		out = append(out, ProductQuantity{Name: name, Quantity: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// DailyStatistics loads one day and folds it with ComputeDailyStatistics.
func (q *Query) DailyStatistics(ctx context.Context, filter DayFilter) (Statistics, error) {
	sales, err := q.AllForDay(ctx, filter)
	if err != nil {
		return Statistics{}, err
	}
	return ComputeDailyStatistics(sales), nil
}

// RangeReport totals sales between two instants, both days inclusive.
func (q *Query) RangeReport(ctx context.Context, from, to time.Time) (RangeSummary, error) {
	fromKey, toKey := DayKey(from), DayKey(to)
	sales, err := q.between(ctx, fromKey, DayKey(to.AddDate(0, 0, 1)))
	if err != nil {
		return RangeSummary{}, err
	}

	summary := RangeSummary{From: fromKey, To: toKey, Sales: len(sales), Revenue: decimal.Zero}
	for _, s := range sales {
		summary.Revenue = summary.Revenue.Add(s.TotalAmount)
	}
	return summary, nil
}
