package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Roles
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// NoManager is stored on a sale when no manager took part in it.
const NoManager = "None"

// User - The person operating the till or the back office
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"` // Never return this in JSON
	DisplayName  string    `gorm:"size:100" json:"display_name"`
	Role         string    `gorm:"size:20;not null" json:"role"` // 'admin', 'employee'
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Product - The Inventory
type Product struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Code              string          `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Name              string          `gorm:"index;size:150;not null" json:"name"`
	Description       string          `gorm:"type:text" json:"description"`
	Category          string          `gorm:"size:80" json:"category"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost_price"`
	SalePrice         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"sale_price"`
	ManagerCommission decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"manager_commission"` // flat amount per unit sold
	TaxRate           decimal.Decimal `gorm:"type:decimal(5,4);not null;default:0" json:"tax_rate"`
	StockQuantity     int             `gorm:"not null;default:0" json:"stock_quantity"`
	ImageURL          string          `gorm:"size:255" json:"image_url"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Manager - A sales agent credited (and paid commission) on sales
type Manager struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Customer is embedded in the sale row; it is not a separate entity.
type Customer struct {
	Name     string `gorm:"size:150" json:"name"`
	IDNumber string `gorm:"size:50" json:"id_number"`
	Address  string `gorm:"size:255" json:"address"`
}

// Sale - The Invoice Header
type Sale struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Day           string          `gorm:"size:10;not null;uniqueIndex:idx_sales_day_invoice,priority:1" json:"day"` // YYYY-MM-DD, local time
	InvoiceCode   string          `gorm:"size:10;not null;uniqueIndex:idx_sales_day_invoice,priority:2" json:"invoice_code"`
	TotalQuantity int             `gorm:"not null" json:"total_quantity"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	SoldAt        time.Time       `gorm:"index;not null" json:"sold_at"`
	Customer      Customer        `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	Manager       string          `gorm:"size:100;not null;default:'None'" json:"manager"` // name snapshot, not a reference
	CreatedBy     uint            `json:"created_by"`
	Lines         []SaleLine      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"lines"`
}

// SaleLine - A snapshot of the product as it was sold
type SaleLine struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	SaleID            uint            `gorm:"index;not null" json:"sale_id"`
	Position          int             `gorm:"not null;default:0" json:"position"`
	ProductID         uint            `gorm:"index" json:"product_id"`
	Code              string          `gorm:"size:64" json:"code"`
	Name              string          `gorm:"size:150" json:"name"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost_price"`
	SalePrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sale_price"`
	ManagerCommission decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"manager_commission"`
	Quantity          int             `gorm:"not null" json:"quantity"`
}

// Subtotal is quantity * sale price.
func (l SaleLine) Subtotal() decimal.Decimal {
	return l.SalePrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// GrossProfit is (sale price - cost price) * quantity.
func (l SaleLine) GrossProfit() decimal.Decimal {
	return l.SalePrice.Sub(l.CostPrice).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Commission is the manager's flat per-unit commission times quantity.
func (l SaleLine) Commission() decimal.Decimal {
	return l.ManagerCommission.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// HasManager reports whether a manager is credited on the sale.
func (s Sale) HasManager() bool {
	return s.Manager != "" && s.Manager != NoManager
}

// InvoiceCounter holds the last invoice number handed out for one calendar day.
type InvoiceCounter struct {
	Day       string `gorm:"primaryKey;size:10"`
	Last      int    `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Product{},
		&Manager{},
		&Sale{},
		&SaleLine{},
		&InvoiceCounter{},
	}
}
