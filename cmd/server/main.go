package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-pos-ventas/internal/config"
	"go-pos-ventas/internal/database"
	"go-pos-ventas/internal/realtime"
	"go-pos-ventas/internal/sales"
	"go-pos-ventas/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	// money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database unavailable: %v", err)
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("upload dir %s: %v", cfg.UploadDir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub()
	var notifier sales.Notifier = hub
	mode := "local"
	closers := make([]func() error, 0, 2)

	if cfg.RedisAddr != "" {
		bridge := realtime.NewRedisBridge(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisChannel, hub)
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		err := bridge.Ping(pingCtx)
		pingCancel()
		if err != nil {
			log.Printf("⚠️ redis unavailable (%v), invoice events stay on this instance", err)
			_ = bridge.Close()
		} else {
			go func() {
				if err := bridge.Run(ctx); err != nil {
					log.Printf("realtime relay stopped: %v", err)
				}
			}()
			notifier, mode = bridge, "redis"
			closers = append(closers, bridge.Close)
			log.Printf("📡 Invoice events shared over redis channel %q", cfg.RedisChannel)
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		closers = append(closers, sqlDB.Close)
	}

	h := server.NewHandler(cfg, db, hub, notifier, mode)
	router := server.NewRouter(cfg, h)
	if !cfg.AllowRegistration {
		log.Println("🔒 Registration route is safely DISABLED.")
	}

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Println("🚀 Server starting on " + cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	// event streams only end when their context does
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}
	log.Println("server stopped")
}
