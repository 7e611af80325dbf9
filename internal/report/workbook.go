package report

import (
	"fmt"
	"io"

	"go-pos-ventas/internal/sales"

	"github.com/xuri/excelize/v2"
)

const (
	SalesSheet = "Sales"
	LinesSheet = "Lines"
	StatsSheet = "Summary"
)

// WriteSalesWorkbook writes one day's sales as an xlsx workbook: a header
// row per sale, one row per line, and the day's statistics. Views are
// already shaped for the caller's role; hidden columns stay empty.
func WriteSalesWorkbook(w io.Writer, day string, views []sales.SaleView, stats sales.StatisticsView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SalesSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(LinesSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(StatsSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	salesHeader := []interface{}{"Invoice", "Day", "Sold at", "Customer", "ID number", "Address", "Manager", "Units", "Total"}
	if err := writeRow(f, SalesSheet, 1, salesHeader, bold); err != nil {
		return err
	}
	linesHeader := []interface{}{"Invoice", "Code", "Product", "Unit price", "Quantity", "Subtotal", "Cost price", "Commission"}
	if err := writeRow(f, LinesSheet, 1, linesHeader, bold); err != nil {
		return err
	}

	lineRow := 2
	for i, v := range views {
		row := []interface{}{
			v.InvoiceCode, v.Day, v.SoldAt.Format("15:04:05"),
			v.Customer.Name, v.Customer.IDNumber, v.Customer.Address,
			v.Manager, v.TotalQuantity, v.TotalAmount.InexactFloat64(),
		}
		if err := writeRow(f, SalesSheet, i+2, row, 0); err != nil {
			return err
		}

		for _, l := range v.Lines {
			row := []interface{}{v.InvoiceCode, l.Code, l.Name, l.SalePrice.InexactFloat64(), l.Quantity, l.Subtotal.InexactFloat64(), nil, nil}
			if l.CostPrice != nil {
				row[6] = l.CostPrice.InexactFloat64()
			}
			if l.ManagerCommission != nil {
				row[7] = l.ManagerCommission.InexactFloat64()
			}
			if err := writeRow(f, LinesSheet, lineRow, row, 0); err != nil {
				return err
			}
			lineRow++
		}
	}

	summary := [][]interface{}{
		{"Day", day},
		{"Sales", stats.Sales},
		{"Revenue", stats.TotalRevenue.InexactFloat64()},
		{"Best seller", stats.BestSelling.Summary},
	}
	if stats.TotalGrossProfit != nil {
		summary = append(summary,
			[]interface{}{"Gross profit", stats.TotalGrossProfit.InexactFloat64()},
			[]interface{}{"Commission", stats.CommissionDeducted.InexactFloat64()},
			[]interface{}{"Net profit", stats.NetProfitAfterCommission.InexactFloat64()},
		)
	}
	for i, row := range summary {
		if err := writeRow(f, StatsSheet, i+1, row, 0); err != nil {
			return err
		}
		if err := f.SetCellStyle(StatsSheet, cell(1, i+1), cell(1, i+1), bold); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SalesSheet, "D", "F", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(LinesSheet, "C", "C", 30); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}, style int) error {
	for col, v := range values {
		if v == nil {
			continue
		}
		if err := f.SetCellValue(sheet, cell(col+1, row), v); err != nil {
			return err
		}
	}
	if style != 0 {
		return f.SetCellStyle(sheet, cell(1, row), cell(len(values), row), style)
	}
	return nil
}

func cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(fmt.Sprintf("report: bad cell %d,%d", col, row))
	}
	return name
}
