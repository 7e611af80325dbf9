package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"go-pos-ventas/internal/database"
	"go-pos-ventas/internal/middleware"
	"go-pos-ventas/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductInput is the body of create and partial update; nil fields are left alone.
type ProductInput struct {
	Code              *string          `json:"code"`
	Name              *string          `json:"name"`
	Description       *string          `json:"description"`
	Category          *string          `json:"category"`
	CostPrice         *decimal.Decimal `json:"cost_price"`
	SalePrice         *decimal.Decimal `json:"sale_price"`
	ManagerCommission *decimal.Decimal `json:"manager_commission"`
	TaxRate           *decimal.Decimal `json:"tax_rate"`
	StockQuantity     *int             `json:"stock_quantity"`
	ImageURL          *string          `json:"image_url"`
}

var errProductCodeTaken = errors.New("a product with that code already exists")

// apply copies the set fields onto p and checks the result.
func (in ProductInput) apply(p *models.Product) error {
	if in.Code != nil {
		p.Code = strings.TrimSpace(*in.Code)
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.CostPrice != nil {
		p.CostPrice = *in.CostPrice
	}
	if in.SalePrice != nil {
		p.SalePrice = *in.SalePrice
	}
	if in.ManagerCommission != nil {
		p.ManagerCommission = *in.ManagerCommission
	}
	if in.TaxRate != nil {
		p.TaxRate = *in.TaxRate
	}
	if in.StockQuantity != nil {
		p.StockQuantity = *in.StockQuantity
	}
	if in.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*in.ImageURL)
	}

	switch {
	case p.Code == "" || p.Name == "":
		return errors.New("code and name are required")
	case p.CostPrice.IsNegative() || p.SalePrice.IsNegative() || p.ManagerCommission.IsNegative():
		return errors.New("prices cannot be negative")
	case p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(decimal.NewFromInt(1)):
		return errors.New("tax rate must be between 0 and 1")
	case p.StockQuantity < 0:
		return errors.New("stock cannot be negative")
	}
	return nil
}

// columns lists the product columns the input sets.
func (in ProductInput) columns() []string {
	var cols []string
	add := func(set bool, col string) {
		if set {
			cols = append(cols, col)
		}
	}
	add(in.Code != nil, "code")
	add(in.Name != nil, "name")
	add(in.Description != nil, "description")
	add(in.Category != nil, "category")
	add(in.CostPrice != nil, "cost_price")
	add(in.SalePrice != nil, "sale_price")
	add(in.ManagerCommission != nil, "manager_commission")
	add(in.TaxRate != nil, "tax_rate")
	add(in.StockQuantity != nil, "stock_quantity")
	add(in.ImageURL != nil, "image_url")
	return cols
}

// publicProduct is what non-admins see: no cost, no commission.
type publicProduct struct {
	ID            uint            `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	StockQuantity int             `json:"stock_quantity"`
	ImageURL      string          `json:"image_url"`
}

func productView(p models.Product, role string) interface{} {
	if role == models.RoleAdmin {
		return p
	}
	return publicProduct{
		ID: p.ID, Code: p.Code, Name: p.Name, Description: p.Description, Category: p.Category,
		SalePrice: p.SalePrice, TaxRate: p.TaxRate, StockQuantity: p.StockQuantity, ImageURL: p.ImageURL,
	}
}

func productViews(products []models.Product, role string) []interface{} {
	out := make([]interface{}, 0, len(products))
	for _, p := range products {
		out = append(out, productView(p, role))
	}
	return out
}

// --- GET: /api/productos ---
func (h *Handler) GetProducts(c *gin.Context) {
	page, limit := pageParams(c)
	search := searchScope(c.Query("search"), "name", "code")
	db := h.DB.WithContext(c.Request.Context())

	var total int64
	if err := db.Model(&models.Product{}).Scopes(search).Count(&total).Error; err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to fetch products", err)
		return
	}
	var products []models.Product
	if err := db.Scopes(search).Order("name").Offset((page - 1) * limit).Limit(limit).Find(&products).Error; err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to fetch products", err)
		return
	}

	c.JSON(http.StatusOK, newPage(productViews(products, middleware.Role(c)), total, page, limit))
}

// --- GET: /api/productos/:id ---
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.fail(c, http.StatusBadRequest, "Invalid Product ID", nil)
		return
	}
	var product models.Product
	if err := h.DB.WithContext(c.Request.Context()).First(&product, id).Error; err != nil {
		h.productLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, productView(product, middleware.Role(c)))
}

// --- GET: /api/productos/scan/:code ---
// The till's barcode reader lands here.
func (h *Handler) ScanProduct(c *gin.Context) {
	var product models.Product
	if err := h.DB.WithContext(c.Request.Context()).Where("code = ?", strings.TrimSpace(c.Param("code"))).First(&product).Error; err != nil {
		h.productLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, productView(product, middleware.Role(c)))
}

func (h *Handler) productLookupError(c *gin.Context, err error) {
	if database.IsNotFound(err) {
		h.fail(c, http.StatusNotFound, "Product not found", nil)
		return
	}
	h.fail(c, http.StatusInternalServerError, "Failed to fetch product", err)
}

// --- POST: /api/productos ---
func (h *Handler) AddProduct(c *gin.Context) {
	var in ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	var product models.Product
	if err := in.apply(&product); err != nil {
		h.fail(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.DB.WithContext(c.Request.Context()).Create(&product).Error; err != nil {
		h.saveProductError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// --- PUT: /api/productos/:id ---
// Partial update: only the fields sent are changed. Past sales keep their snapshot.
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.fail(c, http.StatusBadRequest, "Invalid Product ID", nil)
		return
	}

	var in ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	// The row is locked while it is edited and only the columns sent are
	// written, so a sale committing meanwhile keeps its stock decrement.
	var product models.Product
	var invalid error
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error; err != nil {
			return err
		}
		if invalid = in.apply(&product); invalid != nil {
			return invalid
		}
		cols := in.columns()
		if len(cols) == 0 {
			return nil
		}
		return tx.Model(&product).Select(append(cols, "updated_at")).Updates(&product).Error
	})
	switch {
	case invalid != nil:
		h.fail(c, http.StatusBadRequest, invalid.Error(), nil)
		return
	case database.IsNotFound(err):
		h.productLookupError(c, err)
		return
	case err != nil:
		h.saveProductError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

func (h *Handler) saveProductError(c *gin.Context, err error) {
	if database.IsDuplicateKey(err) {
		h.fail(c, http.StatusBadRequest, errProductCodeTaken.Error(), err)
		return
	}
	h.fail(c, http.StatusInternalServerError, "Failed to save product", err)
}

// --- DELETE: /api/productos/:id ---
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.fail(c, http.StatusBadRequest, "Invalid Product ID", nil)
		return
	}

	res := h.DB.WithContext(c.Request.Context()).Delete(&models.Product{}, id)
	if res.Error != nil {
		h.fail(c, http.StatusInternalServerError, "Could not delete product", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		h.fail(c, http.StatusNotFound, "Product not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// --- UPLOAD: /api/upload ---
func (h *Handler) UploadImage(c *gin.Context) {
	// 1. Get the file from the request
	file, err := c.FormFile("file")
	if err != nil {
		h.fail(c, http.StatusBadRequest, "No file uploaded", err)
		return
	}

	// 2. Only allow images
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !imageExtensions[ext] {
		h.fail(c, http.StatusBadRequest, "Only jpg, png, webp or gif images are allowed", nil)
		return
	}

	// 3. Generate a safe unique filename; the client's name is never used on disk
	filename := fmt.Sprintf("%d_%s%s", h.now().Unix(), uuid.NewString(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(h.Config.UploadDir, filename)); err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to save file", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"url":     h.Config.BaseURL + "/uploads/" + filename,
	})
}
