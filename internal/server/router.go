// Package server wires the sale core, the handlers and the gin router.
package server

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"go-pos-ventas/internal/ai"
	"go-pos-ventas/internal/auth"
	"go-pos-ventas/internal/config"
	"go-pos-ventas/internal/handlers"
	"go-pos-ventas/internal/middleware"
	"go-pos-ventas/internal/models"
	"go-pos-ventas/internal/realtime"
	"go-pos-ventas/internal/sales"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NewHandler builds the sale services over db. Sales notify through
// notifier (the hub itself when nil); mode is reported by /api/system/status.
func NewHandler(cfg config.Config, db *gorm.DB, hub *realtime.Hub, notifier sales.Notifier, mode string) *handlers.Handler {
	if notifier == nil {
		notifier = hub
	}
	counter := sales.NewCounter(db)
	query := sales.NewQuery(db)

	return handlers.New(handlers.Deps{
		Config:       cfg,
		DB:           db,
		Tokens:       auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		Counter:      counter,
		Recorder:     sales.NewRecorder(db, counter, notifier),
		Query:        query,
		Hub:          hub,
		Agent:        ai.NewAgent(cfg.GeminiAPIKey, cfg.GeminiModel, ai.NewStoreToolbox(db, query, counter)),
		RealtimeMode: mode,
	})
}

func NewRouter(cfg config.Config, h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", h.Health)
	r.POST("/login", h.Login)
	r.Static("/uploads", cfg.UploadDir)

	// --- FEATURE FLAG: Admin Registration ---
	if cfg.AllowRegistration {
		r.POST("/register", h.Register)
		log.Println("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	}

	api := r.Group("/api", middleware.AuthMiddleware(h.Tokens))
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	venta := api.Group("/venta")
	{
		venta.POST("", h.RecordSale)
		venta.GET("", h.ListSales)
		venta.GET("/all", h.AllSales)
		venta.GET("/ultimo-codigo-factura", h.NextInvoiceCode)
		venta.GET("/events", h.SaleEvents)
		venta.GET("/estadisticas", h.DailyStatistics)
		venta.GET("/productos-hoy", h.ProductsSold)

		venta.DELETE("/:id", adminOnly, h.DeleteSale)
		venta.GET("/mes", adminOnly, h.SalesByDay)
		venta.GET("/ano", adminOnly, h.SalesByMonth)
		venta.GET("/gestor", adminOnly, h.SalesByManager)
		venta.GET("/mas-vendido-diario", adminOnly, h.DailyBestSellers)
		venta.GET("/export", adminOnly, h.ExportSales)
	}

	productos := api.Group("/productos")
	{
		productos.GET("", h.GetProducts)
		productos.GET("/scan/:code", h.ScanProduct)
		productos.GET("/:id", h.GetProduct)
		productos.POST("", adminOnly, h.AddProduct)
		productos.PUT("/:id", adminOnly, h.UpdateProduct)
		productos.DELETE("/:id", adminOnly, h.DeleteProduct)
	}

	gestor := api.Group("/gestor")
	{
		// the till needs the list to pick a manager for the sale
		gestor.GET("", h.ListManagers)
		gestor.GET("/:id", h.GetManager)
		gestor.POST("", adminOnly, h.CreateManager)
		gestor.PUT("/:id", adminOnly, h.UpdateManager)
		gestor.DELETE("/:id", adminOnly, h.DeleteManager)
	}

	admin := api.Group("", adminOnly)
	{
		admin.GET("/usuarios", h.ListUsers)
		admin.POST("/usuarios", h.CreateUser)
		admin.PUT("/usuarios/:id", h.UpdateUser)
		admin.DELETE("/usuarios/:id", h.DeleteUser)

		admin.POST("/upload", h.UploadImage)
		admin.GET("/reports", h.GetSalesReport)
		admin.GET("/reports/valuation", h.GetStockValuation)
		admin.POST("/ask", h.AskAI)
		admin.GET("/system/status", h.GetSystemStatus)
	}

	serveFrontend(r, "web")
	return r
}

// serveFrontend serves the built SPA when it is present next to the binary.
func serveFrontend(r *gin.Engine, dir string) {
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return
	}
	r.Static("/assets", filepath.Join(dir, "assets"))
	// SPA catch-all: refreshing on a client route must still load the app
	r.NoRoute(func(c *gin.Context) {
		c.File(index)
	})
}
