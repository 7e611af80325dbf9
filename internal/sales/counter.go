package sales

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-pos-ventas/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Counter hands out the per-day invoice sequence: "0001", "0002", ...
// starting over every calendar day.
type Counter struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCounter(db *gorm.DB) *Counter {
	return &Counter{db: db, now: time.Now}
}

// FormatInvoiceCode zero-pads n to four digits.
func FormatInvoiceCode(n int) string {
	if n < 1 {
		n = 1
	}
	return fmt.Sprintf("%04d", n)
}

// NextInvoiceCode is code + 1, zero-padded. Unparseable codes restart at 0001.
func NextInvoiceCode(code string) string {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return FormatInvoiceCode(1)
	}
	return FormatInvoiceCode(n + 1)
}

// Peek returns the number the next sale recorded today would get. It does
// not reserve anything; Record always asks the counter again.
func (c *Counter) Peek(ctx context.Context) (string, error) {
	day := DayKey(c.now())
	db := c.db.WithContext(ctx)

	highest, err := maxInvoiceNumber(db, day)
	if err != nil {
		return "", err
	}

	var row models.InvoiceCounter
	if err := db.Where("day = ?", day).Limit(1).Find(&row).Error; err != nil {
		return "", fmt.Errorf("read invoice counter: %w", err)
	}
	return FormatInvoiceCode(max(row.Last, highest) + 1), nil
}

// Next reserves the next number for day. tx must be the transaction that
// inserts the sale so the reservation commits or rolls back with it.
func (c *Counter) Next(tx *gorm.DB, day string) (string, error) {
	highest, err := maxInvoiceNumber(tx, day)
	if err != nil {
		return "", err
	}

	// first sale of the day creates the row, seeded from sales already on file
	seed := models.InvoiceCounter{Day: day, Last: highest}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return "", fmt.Errorf("create invoice counter: %w", err)
	}

	var row models.InvoiceCounter
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("day = ?", day).First(&row).Error; err != nil {
		return "", fmt.Errorf("lock invoice counter: %w", err)
	}

	next := max(row.Last, highest) + 1
	if err := tx.Model(&models.InvoiceCounter{}).Where("day = ?", day).Update("last", next).Error; err != nil {
		return "", fmt.Errorf("advance invoice counter: %w", err)
	}
	return FormatInvoiceCode(next), nil
}

// maxInvoiceNumber is the highest invoice number recorded on day, compared
// numerically; 0 when the day has no sales.
func maxInvoiceNumber(db *gorm.DB, day string) (int, error) {
	var codes []string
	if err := db.Model(&models.Sale{}).Where("day = ?", day).Pluck("invoice_code", &codes).Error; err != nil {
		return 0, fmt.Errorf("scan invoice codes: %w", err)
	}

	highest := 0
	for _, code := range codes {
		n, err := strconv.Atoi(strings.TrimSpace(code))
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest, nil
}
