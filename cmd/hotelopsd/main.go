package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"

	"hotel-ops-backend/config"
	"hotel-ops-backend/internal/api"
	"hotel-ops-backend/internal/attendance"
	"hotel-ops-backend/internal/booking"
	"hotel-ops-backend/internal/clock"
	"hotel-ops-backend/internal/db"
	"hotel-ops-backend/internal/identity"
	"hotel-ops-backend/internal/notification"
	"hotel-ops-backend/internal/planning"
	"hotel-ops-backend/internal/roomfsm"
	"hotel-ops-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "hotelopsd ", log.LstdFlags)

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("could not read .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret must be configured")
	}

	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Println("VAPID keys are not configured; housekeeping push notifications are disabled")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	var notifier roomfsm.Notifier
	if webpushOptions != nil {
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, webpushOptions)
		pool.Start(ctx)
		notifier = pool
	}

	var shifts planning.ShiftSource = planning.None{}
	if cfg.Planning.Enabled {
		shifts = planning.NewHTTPClient(cfg.Planning)
		logger.Printf("shift planning lookups enabled against %s", cfg.Planning.URL)
	}

	realClock := clock.Real()
	rooms := roomfsm.NewService(appStore, notifier)
	engine := booking.NewEngine(appStore, rooms,
		identity.NewLocalProvisioner(cfg.Identity.GuestEmailDomain, cfg.Identity.PasswordLength), realClock)
	att := attendance.NewService(appStore, shifts, realClock, attendance.Options{
		CodeWindow:            cfg.Attendance.CodeWindow,
		CodeLength:            cfg.Attendance.CodeLength,
		RequireCodeOnCheckout: *cfg.Attendance.RequireCodeOnCheckout,
		LateGrace:             cfg.Attendance.LateGrace,
		Location:              cfg.Attendance.Location,
	})

	handler := api.NewHandler(appStore, rooms, engine, att, webpushOptions)
	router := api.NewRouter(handler, cfg.Server, cfg.Auth)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}
	cancel()

	logger.Println("Server gracefully stopped")
}
