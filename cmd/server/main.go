// Package main is the entry point for the posada API server.
// Multi-property architecture: Database-per-Tenant.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"posada/internal/core/tenant"
	"posada/internal/domain/auth"
	v1 "posada/internal/infrastructure/http/v1"
	"posada/internal/infrastructure/storage/postgres"
	"posada/pkg/logger"
)

var version = "dev"

// tenantEntry is one property in the TENANTS_FILE JSON array.
type tenantEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	DSN      string `json:"dsn"`
}

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Infow("starting posada server", "version", version)

	// --- Tenant databases ---
	configs, err := loadTenantConfigs()
	if err != nil {
		log.Fatalw("failed to load tenant configuration", "error", err)
	}

	poolCfg := postgres.DefaultPoolConfig()
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	tenantManager, err := tenant.NewManager(ctx, configs, postgres.PoolFactory(poolCfg))
	if err != nil {
		log.Fatalw("failed to connect tenant databases", "error", err)
	}
	defer tenantManager.Close()
	log.Infow("tenant databases connected", "tenants", len(configs))

	// --- JWT Service ---
	jwtSecret := mustEnv("JWT_SECRET")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Audit store ---
	auditStore, err := postgres.NewAuditStore()
	if err != nil {
		log.Fatalw("failed to initialize audit store", "error", err)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		TenantManager: tenantManager,
		JWTService:    jwtService,
		AuditStore:    auditStore,
		Logger:        log,
		Version:       version,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// loadTenantConfigs reads the property list from TENANTS_FILE (a JSON
// array) or from the TENANTS env var containing the same JSON inline.
func loadTenantConfigs() ([]tenant.Config, error) {
	raw := []byte(os.Getenv("TENANTS"))
	if len(raw) == 0 {
		path := getEnv("TENANTS_FILE", "tenants.json")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		raw = data
	}

	var entries []tenantEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse tenant configuration: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no tenants configured")
	}

	configs := make([]tenant.Config, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" || e.DSN == "" {
			return nil, fmt.Errorf("tenant entry missing id or dsn")
		}
		currency := e.Currency
		if currency == "" {
			currency = "ARS"
		}
		configs = append(configs, tenant.Config{
			Tenant: tenant.Tenant{
				ID:       e.ID,
				Name:     e.Name,
				Currency: currency,
			},
			DSN: e.DSN,
		})
	}
	return configs, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
