package handlers

import (
	"net/http"
	"strings"

	"go-pos-ventas/internal/database"
	"go-pos-ventas/internal/models"

	"github.com/gin-gonic/gin"
)

type managerInput struct {
	Name string `json:"name" binding:"required"`
}

// --- GET: /api/gestor ---
func (h *Handler) ListManagers(c *gin.Context) {
	page, limit := pageParams(c)
	search := searchScope(c.Query("search"), "name")
	db := h.DB.WithContext(c.Request.Context())

	var total int64
	if err := db.Model(&models.Manager{}).Scopes(search).Count(&total).Error; err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to fetch managers", err)
		return
	}
	var managers []models.Manager
	if err := db.Scopes(search).Order("name").Offset((page - 1) * limit).Limit(limit).Find(&managers).Error; err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to fetch managers", err)
		return
	}
	c.JSON(http.StatusOK, newPage(managers, total, page, limit))
}

// --- GET: /api/gestor/:id ---
func (h *Handler) GetManager(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.fail(c, http.StatusBadRequest, "Invalid manager ID", nil)
		return
	}
	var manager models.Manager
	if err := h.DB.WithContext(c.Request.Context()).First(&manager, id).Error; err != nil {
		h.managerError(c, err)
		return
	}
	c.JSON(http.StatusOK, manager)
}

// --- POST: /api/gestor ---
func (h *Handler) CreateManager(c *gin.Context) {
	name, ok := h.bindManagerName(c)
	if !ok {
		return
	}

	manager := models.Manager{Name: name}
	if err := h.DB.WithContext(c.Request.Context()).Create(&manager).Error; err != nil {
		h.managerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, manager)
}

// --- PUT: /api/gestor/:id ---
// Renaming does not touch past sales; they keep the name they were sold under.
func (h *Handler) UpdateManager(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.fail(c, http.StatusBadRequest, "Invalid manager ID", nil)
		return
	}
	name, ok := h.bindManagerName(c)
	if !ok {
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	var manager models.Manager
	if err := db.First(&manager, id).Error; err != nil {
		h.managerError(c, err)
		return
	}
	if err := db.Model(&manager).Update("name", name).Error; err != nil {
		h.managerError(c, err)
		return
	}
	c.JSON(http.StatusOK, manager)
}

// --- DELETE: /api/gestor/:id ---
func (h *Handler) DeleteManager(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.fail(c, http.StatusBadRequest, "Invalid manager ID", nil)
		return
	}
	res := h.DB.WithContext(c.Request.Context()).Delete(&models.Manager{}, id)
	if res.Error != nil {
		h.managerError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		h.fail(c, http.StatusNotFound, "Manager not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Manager deleted successfully"})
}

func (h *Handler) bindManagerName(c *gin.Context) (string, bool) {
	var in managerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, http.StatusBadRequest, "Name is required", err)
		return "", false
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.EqualFold(name, models.NoManager) {
		h.fail(c, http.StatusBadRequest, "Invalid manager name", nil)
		return "", false
	}
	return name, true
}

func (h *Handler) managerError(c *gin.Context, err error) {
	switch {
	case database.IsNotFound(err):
		h.fail(c, http.StatusNotFound, "Manager not found", nil)
	case database.IsDuplicateKey(err):
		h.fail(c, http.StatusBadRequest, "A manager with that name already exists", err)
	default:
		h.fail(c, http.StatusInternalServerError, "Failed to save manager", err)
	}
}
