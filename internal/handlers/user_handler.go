package handlers

import (
	"net/http"
	"strings"

	"go-pos-ventas/internal/auth"
	"go-pos-ventas/internal/database"
	"go-pos-ventas/internal/middleware"
	"go-pos-ventas/internal/models"

	"github.com/gin-gonic/gin"
)

type userInput struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type userUpdate struct {
	DisplayName *string `json:"display_name"`
	Role        *string `json:"role"`
	Password    *string `json:"password"`
}

// --- GET: /api/usuarios ---
func (h *Handler) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)
	search := searchScope(c.Query("search"), "username", "display_name")
	db := h.DB.WithContext(c.Request.Context())

	var total int64
	if err := db.Model(&models.User{}).Scopes(search).Count(&total).Error; err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to fetch users", err)
		return
	}
	var users []models.User
	if err := db.Scopes(search).Order("username").Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to fetch users", err)
		return
	}
	c.JSON(http.StatusOK, newPage(users, total, page, limit))
}

// --- POST: /api/usuarios ---
func (h *Handler) CreateUser(c *gin.Context) {
	var in userInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid input", err)
		return
	}
	user, err := h.createUser(c, in)
	if err != nil {
		h.userError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// --- PUT: /api/usuarios/:id ---
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.fail(c, http.StatusBadRequest, "Invalid user ID", nil)
		return
	}
	var in userUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if database.IsNotFound(err) {
			h.userError(c, errUserNotFound)
			return
		}
		h.fail(c, http.StatusInternalServerError, "Failed to load user", err)
		return
	}

	updates := map[string]interface{}{}
	if in.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*in.DisplayName)
	}
	if in.Role != nil && *in.Role != user.Role {
		if user.Role == models.RoleAdmin {
			h.userError(c, errAdminDowngrade)
			return
		}
		if *in.Role != models.RoleAdmin && *in.Role != models.RoleEmployee {
			h.userError(c, errUnknownRole)
			return
		}
		updates["role"] = *in.Role
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			h.userError(c, err)
			return
		}
		updates["password_hash"] = hash
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			h.userError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "user": user})
}

// --- DELETE: /api/usuarios/:id ---
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.fail(c, http.StatusBadRequest, "Invalid user ID", nil)
		return
	}
	if id == middleware.UserID(c) {
		h.userError(c, errDeleteSelf)
		return
	}

	res := h.DB.WithContext(c.Request.Context()).Delete(&models.User{}, id)
	if res.Error != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to delete user", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		h.userError(c, errUserNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
