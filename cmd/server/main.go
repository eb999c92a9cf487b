package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kissangram/engagement/internal/router"
	"github.com/kissangram/engagement/pkg/config"
	"github.com/kissangram/engagement/pkg/firebase"
	"github.com/kissangram/engagement/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg := config.Load()

	ctx := context.Background()

	// Initialize metrics
	provider, err := telemetry.Start(ctx, telemetry.ConfigFromEnv(), "kissangram-engagement")
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	// Initialize Firebase
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseProjectID)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}
	defer firebaseApp.Close()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, cfg, firebaseApp.Firestore, firebaseApp.Messaging)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
