package sales

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go-pos-ventas/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LineRequest is one product on the ticket. The product is looked up by ID,
// or by code when no ID is given.
type LineRequest struct {
	ProductID uint   `json:"product_id"`
	Code      string `json:"code"`
	Quantity  int    `json:"quantity"`
}

func (l LineRequest) ref() string {
	if l.ProductID != 0 {
		return fmt.Sprintf("#%d", l.ProductID)
	}
	return l.Code
}

// SaleRequest is what the till submits.
type SaleRequest struct {
	Lines     []LineRequest   `json:"lines"`
	Customer  models.Customer `json:"customer"`
	Manager   string          `json:"manager"`
	CreatedBy uint            `json:"-"`
}

// Validate checks the request shape. Nothing is read or written.
func (r SaleRequest) Validate() error {
	if len(r.Lines) == 0 {
		return ErrMissingProducts
	}
	c := r.Customer
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.IDNumber) == "" || strings.TrimSpace(c.Address) == "" {
		return ErrIncompleteCustomer
	}
	for i, l := range r.Lines {
		if l.ProductID == 0 && strings.TrimSpace(l.Code) == "" {
			return fmt.Errorf("%w (line %d)", ErrInvalidLine, i+1)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("%w (line %d)", ErrInvalidLine, i+1)
		}
	}
	return nil
}

// NormalizeManager maps blank input to the no-manager sentinel.
func NormalizeManager(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.NoManager
	}
	return name
}

// Notifier is told the next invoice code after each committed sale.
type Notifier interface {
	NotifyNextInvoice(ctx context.Context, code string) error
}

// Recorder writes sales.
type Recorder struct {
	db       *gorm.DB
	counter  *Counter
	notifier Notifier
	now      func() time.Time
}

// NewRecorder wires a recorder; notifier may be nil.
func NewRecorder(db *gorm.DB, counter *Counter, notifier Notifier) *Recorder {
	return &Recorder{db: db, counter: counter, notifier: notifier, now: time.Now}
}

// Record validates req, then in one transaction snapshots every product,
// reserves an invoice number, inserts the sale and takes the stock. Any
// failure leaves the database untouched.
func (r *Recorder) Record(ctx context.Context, req SaleRequest) (*models.Sale, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	soldAt := r.now()
	sale := models.Sale{
		Day:    DayKey(soldAt),
		SoldAt: soldAt,
		Customer: models.Customer{
			Name:     strings.TrimSpace(req.Customer.Name),
			IDNumber: strings.TrimSpace(req.Customer.IDNumber),
			Address:  strings.TrimSpace(req.Customer.Address),
		},
		Manager:     NormalizeManager(req.Manager),
		CreatedBy:   req.CreatedBy,
		TotalAmount: decimal.Zero,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Snapshot every product, holding its row until commit
		lines := make([]models.SaleLine, 0, len(req.Lines))
		for i, item := range req.Lines {
			product, err := lockProduct(tx, item)
			if err != nil {
				return err
			}
			if product.StockQuantity < item.Quantity {
				return fmt.Errorf("%w for %s: have %d, want %d", ErrInsufficientStock, product.Name, product.StockQuantity, item.Quantity)
			}

			line := models.SaleLine{
				Position:          i + 1,
				ProductID:         product.ID,
				Code:              product.Code,
				Name:              product.Name,
				CostPrice:         product.CostPrice,
				SalePrice:         product.SalePrice,
				ManagerCommission: product.ManagerCommission,
				Quantity:          item.Quantity,
			}
			sale.TotalQuantity += line.Quantity
			sale.TotalAmount = sale.TotalAmount.Add(line.Subtotal())
			lines = append(lines, line)
		}

		// 2. Reserve the invoice number
		code, err := r.counter.Next(tx, sale.Day)
		if err != nil {
			return err
		}
		sale.InvoiceCode = code
		sale.Lines = lines

		// 3. Insert header and lines
		if err := tx.Create(&sale).Error; err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		// 4. Take the stock
		for _, line := range lines {
			if err := decrementStock(tx, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if r.notifier != nil {
		if err := r.notifier.NotifyNextInvoice(ctx, NextInvoiceCode(sale.InvoiceCode)); err != nil {
			log.Printf("⚠️ next invoice broadcast failed: %v", err)
		}
	}
	return &sale, nil
}

func lockProduct(tx *gorm.DB, item LineRequest) (*models.Product, error) {
	var product models.Product
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"})

	var err error
	if item.ProductID != 0 {
		err = q.First(&product, item.ProductID).Error
	} else {
		err = q.Where("code = ?", strings.TrimSpace(item.Code)).First(&product).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, item.ref())
	}
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", item.ref(), err)
	}
	return &product, nil
}

// decrementStock only succeeds while enough stock is left, so the same
// product appearing on two lines cannot go negative.
func decrementStock(tx *gorm.DB, line models.SaleLine) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", line.ProductID, line.Quantity).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", line.Quantity))
	if res.Error != nil {
		return fmt.Errorf("update stock for %s: %w", line.Name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w for %s", ErrInsufficientStock, line.Name)
	}
	return nil
}
