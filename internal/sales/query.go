package sales

import (
	"context"
	"fmt"

	"go-pos-ventas/internal/models"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is one slice of the sales history, newest first.
type Page struct {
	Items      []models.Sale `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}

// NormalizePage clamps paging input to sane values.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// Query reads sales back.
type Query struct {
	db *gorm.DB
}

func NewQuery(db *gorm.DB) *Query {
	return &Query{db: db}
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

func onDay(filter *DayFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter == nil {
			return db
		}
		return db.Where("day = ?", filter.Key())
	}
}

// List pages through sales, optionally restricted to one calendar day.
func (q *Query) List(ctx context.Context, page, limit int, filter *DayFilter) (Page, error) {
	page, limit = NormalizePage(page, limit)
	db := q.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Sale{}).Scopes(onDay(filter)).Count(&total).Error; err != nil {
		return Page{}, fmt.Errorf("count sales: %w", err)
	}

	items := make([]models.Sale, 0, limit)
	err := db.Scopes(onDay(filter)).
		Preload("Lines", orderedLines).
		Order("sold_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return Page{}, fmt.Errorf("list sales: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Page{Items: items, Total: total, Page: page, Limit: limit, TotalPages: totalPages}, nil
}

// AllForDay returns every sale of one day, oldest first.
func (q *Query) AllForDay(ctx context.Context, filter DayFilter) ([]models.Sale, error) {
	return q.between(ctx, filter.Key(), DayKey(dayAfter(filter)))
}

// Get loads one sale with its lines.
func (q *Query) Get(ctx context.Context, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := q.db.WithContext(ctx).Preload("Lines", orderedLines).Limit(1).Find(&sale, id).Error
	if err != nil {
		return nil, fmt.Errorf("load sale: %w", err)
	}
	if sale.ID == 0 {
		return nil, ErrSaleNotFound
	}
	return &sale, nil
}

// Delete removes a sale and its lines. Stock is not given back and the
// day's invoice counter keeps its position.
func (q *Query) Delete(ctx context.Context, id uint) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// lines first: sale_lines.sale_id references sales
		if err := tx.Where("sale_id = ?", id).Delete(&models.SaleLine{}).Error; err != nil {
			return fmt.Errorf("delete sale lines: %w", err)
		}
		res := tx.Delete(&models.Sale{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete sale: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrSaleNotFound
		}
		return nil
	})
}

// between loads sales with from <= day < to, oldest first.
func (q *Query) between(ctx context.Context, from, to string) ([]models.Sale, error) {
	sales := []models.Sale{}
	err := q.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Where("day >= ? AND day < ?", from, to).
		Order("sold_at ASC, id ASC").
		Find(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("load sales %s..%s: %w", from, to, err)
	}
	return sales, nil
}
