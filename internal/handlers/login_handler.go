package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go-pos-ventas/internal/auth"
	"go-pos-ventas/internal/database"
	"go-pos-ventas/internal/models"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	// 2. Find User in DB
	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).Where("username = ?", strings.TrimSpace(input.Username)).First(&user).Error; err != nil {
		h.fail(c, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	// 3. Verify Password (Bcrypt)
	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		h.fail(c, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	// 4. Generate JWT Token
	token, err := h.Tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"role":         user.Role,
		"username":     user.Username,
		"display_name": user.DisplayName,
	})
}

// Register bootstraps an administrator. Only routed when ALLOW_REGISTRATION is on.
func (h *Handler) Register(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	user, err := h.createUser(c, userInput{Username: input.Username, Password: input.Password, Role: models.RoleAdmin})
	if err != nil {
		h.userError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!", "user": user})
}

var (
	errUsernameRequired = errors.New("username is required")
	errUnknownRole      = errors.New("role must be admin or employee")
	errUsernameTaken    = errors.New("username already exists")
	errAdminDowngrade   = errors.New("an administrator's role cannot be changed")
	errDeleteSelf       = errors.New("you cannot delete your own account")
	errUserNotFound     = errors.New("user not found")
)

func (h *Handler) createUser(c *gin.Context, in userInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, errUsernameRequired
	}
	role := in.Role
	if role == "" {
		role = models.RoleEmployee
	}
	if role != models.RoleAdmin && role != models.RoleEmployee {
		return nil, errUnknownRole
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Role:         role,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return nil, errUsernameTaken
		}
		return nil, err
	}
	return &user, nil
}

func (h *Handler) userError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errUserNotFound):
		h.fail(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, errUsernameRequired), errors.Is(err, errUnknownRole), errors.Is(err, errUsernameTaken),
		errors.Is(err, errAdminDowngrade), errors.Is(err, errDeleteSelf), errors.Is(err, auth.ErrWeakPassword):
		h.fail(c, http.StatusBadRequest, err.Error(), nil)
	default:
		h.fail(c, http.StatusInternalServerError, "Failed to save user", err)
	}
}
