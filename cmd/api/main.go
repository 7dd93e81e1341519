package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/notifylight/server/internal/application/delivery"
	"github.com/notifylight/server/internal/config"
	apnsinfra "github.com/notifylight/server/internal/infrastructure/apns"
	"github.com/notifylight/server/internal/infrastructure/dynamo"
	fcminfra "github.com/notifylight/server/internal/infrastructure/fcm"
	transporthttp "github.com/notifylight/server/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("dynamo client: %v", err)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	// Push channels are optional: an incomplete credential set disables the
	// channel, and with both disabled the engine runs in log-only mode.
	var apnsCh, fcmCh delivery.Channel
	if cfg.APNs.Configured() {
		ch, err := apnsinfra.NewChannel(cfg.APNs)
		if err != nil {
			log.Fatalf("APNs channel: %v", err)
		}
		apnsCh = ch
		slog.Info("APNs channel enabled", "bundle", cfg.APNs.BundleID, "production", cfg.APNs.Production)
	}
	if cfg.FCM.Configured() {
		ch, err := fcminfra.NewChannel(ctx, cfg.FCM)
		if err != nil {
			log.Fatalf("FCM channel: %v", err)
		}
		fcmCh = ch
		slog.Info("FCM channel enabled", "project", cfg.FCM.ProjectID)
	}

	engine := delivery.NewEngine(apnsCh, fcmCh, delivery.WithConcurrency(cfg.DeliveryConcurrency))
	if engine.LogOnly() {
		slog.Warn("no push channel configured, running in log-only mode")
	}

	deps := &transporthttp.Deps{
		DeviceRepo:      dynamo.NewDeviceRepo(dynamoClient, cfg.DynamoTables.Devices),
		MessageRepo:     dynamo.NewMessageRepo(dynamoClient, cfg.DynamoTables.InAppMessages),
		DeliveryLogRepo: dynamo.NewDeliveryLogRepo(dynamoClient, cfg.DynamoTables.DeliveryLogs),
		Engine:          engine,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // push batches with retries can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	engine.Shutdown()
	log.Println("Server stopped")
}
