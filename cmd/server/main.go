package main

import (
	"errors"
	"net/http"
	"os"

	"kyc-review-api/internal/auth"
	"kyc-review-api/internal/config"
	"kyc-review-api/internal/database"
	"kyc-review-api/internal/logging"
	"kyc-review-api/internal/routes"
)

func main() {
	cfg := config.Load()

	logging.Init(logging.Options{
		SystemName: "kyc-review-api",
		File:       cfg.LogFile,
		Level:      cfg.LogLevel,
	})
	auth.Configure(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		logging.Logger.Fatalf("failed to create upload dir: %v", err)
	}

	// Init database
	database.InitDB(cfg.DatabasePath)

	// Setup the routes (public and protected routes)
	ginRoutes := routes.SetupRoutes(cfg.UploadDir)

	logging.Logger.Infof("Server starting on port %s", cfg.Port)
	logging.Logger.Info("API endpoints:")
	for _, r := range routes.List(ginRoutes) {
		logging.Logger.Infof("  %-6s %s", r.Method, r.Path)
	}

	// No write timeout: /api/ws connections are long-lived
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           ginRoutes,
		ReadHeaderTimeout: cfg.RequestTimeout,
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Logger.Fatalf("Failed to start server: %v", err)
	}
}
