package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-pos-ventas/internal/ai"
	"go-pos-ventas/internal/auth"
	"go-pos-ventas/internal/config"
	"go-pos-ventas/internal/realtime"
	"go-pos-ventas/internal/sales"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps is everything the handlers need; built once in main.
type Deps struct {
	Config   config.Config
	DB       *gorm.DB
	Tokens   *auth.TokenManager
	Counter  *sales.Counter
	Recorder *sales.Recorder
	Query    *sales.Query
	Hub      *realtime.Hub
	Agent    *ai.Agent
	// RealtimeMode is "local" or "redis", reported by the status endpoint.
	RealtimeMode string
}

type Handler struct {
	Deps
	now       func() time.Time
	keepAlive time.Duration
	startedAt time.Time
}

func New(d Deps) *Handler {
	if d.RealtimeMode == "" {
		d.RealtimeMode = "local"
	}
	return &Handler{Deps: d, now: time.Now, keepAlive: 25 * time.Second, startedAt: time.Now()}
}

// fail writes {"message": ...}; with DEBUG on the raw error rides along.
func (h *Handler) fail(c *gin.Context, status int, message string, err error) {
	body := gin.H{"message": message}
	if h.Config.Debug && err != nil {
		body["error"] = err.Error()
	}
	c.JSON(status, body)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// pageParams reads ?page=&limit=; junk falls back to the defaults.
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return sales.NormalizePage(page, limit)
}

type pageResponse[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

func newPage[T any](items []T, total int64, page, limit int) pageResponse[T] {
	if items == nil {
		items = []T{}
	}
	return pageResponse[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "online"})
}

// searchScope matches term case-insensitively against any of columns.
func searchScope(term string, columns ...string) func(*gorm.DB) *gorm.DB {
	term = strings.ToLower(strings.TrimSpace(term))
	return func(db *gorm.DB) *gorm.DB {
		if term == "" || len(columns) == 0 {
			return db
		}
		like := "%" + term + "%"
		conds := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			conds[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = like
		}
		return db.Where(strings.Join(conds, " OR "), args...)
	}
}
