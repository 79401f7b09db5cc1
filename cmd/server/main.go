package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"parkit/internal/api"
	"parkit/internal/auth"
	"parkit/internal/config"
	"parkit/internal/db"
	"parkit/internal/logging"
	"parkit/internal/metrics"
	"parkit/internal/repository"
	"parkit/internal/service"
	"parkit/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := logging.New("info", "json")
		logger.Fatal().Err(err).Msg("config error")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open DB")
	}
	defer sqlDB.Close()
	if err := sqlDB.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to DB")
	}
	if err := migrations.Up(sqlDB); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	metrics.Register()

	store := repository.NewPostgresStore(sqlDB)
	notifier := service.NewNotifyService(store, cfg, logger)
	stripeSvc := service.NewStripeService(cfg)
	billing := service.NewBillingService(store, stripeSvc, cfg.HourlyRate, logger)
	reservations := service.NewReservationService(store, notifier, cfg.ReservePastGrace, logger)
	lifecycle := service.NewLifecycleService(store, billing, notifier, cfg.CheckInGraceBefore, logger)
	adminSvc := service.NewAdminService(store)
	authSvc := service.NewAuthService(store, cfg.JWTSecret, cfg.TokenTTL)
	jobs := service.NewJobService(lifecycle, logger)

	authHandler := api.NewAuthHandler(authSvc)
	userHandler := api.NewUserReservationHandler(reservations, lifecycle)
	adminHandler := api.NewAdminHandler(adminSvc, reservations)

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	// Public endpoints
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/staff/login", authHandler.StaffLogin).Methods("POST")
	r.HandleFunc("/api/feedback", adminHandler.SubmitFeedback).Methods("POST")

	// Driver endpoints
	user := r.PathPrefix("/api").Subrouter()
	user.Use(auth.Middleware(cfg.JWTSecret))
	user.HandleFunc("/reservations", userHandler.CreateReservation).Methods("POST")
	user.HandleFunc("/reservations", userHandler.ListReservations).Methods("GET")
	user.HandleFunc("/reservations/{code}", userHandler.GetReservation).Methods("GET")
	user.HandleFunc("/reservations/{code}", userHandler.CancelReservation).Methods("DELETE")
	user.HandleFunc("/reservations/{code}/checkin", userHandler.CheckIn).Methods("POST")
	user.HandleFunc("/reservations/{code}/checkout", userHandler.CheckOut).Methods("POST")

	// Security gate endpoints
	gate := r.PathPrefix("/security").Subrouter()
	gate.Use(auth.Middleware(cfg.JWTSecret), auth.RequireRole(db.RoleSecurity, db.RoleAdmin))
	gate.HandleFunc("/reservations/{code}/checkin", userHandler.CheckIn).Methods("POST")
	gate.HandleFunc("/reservations/{code}/checkout", userHandler.CheckOut).Methods("POST")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.Middleware(cfg.JWTSecret), auth.RequireRole(db.RoleAdmin))
	admin.HandleFunc("/slots", adminHandler.CreateSlot).Methods("POST")
	admin.HandleFunc("/slots", adminHandler.ListSlots).Methods("GET")
	admin.HandleFunc("/reservations", adminHandler.ListReservations).Methods("GET")
	admin.HandleFunc("/stats", adminHandler.Stats).Methods("GET")
	admin.HandleFunc("/feedback", adminHandler.ListFeedback).Methods("GET")
	admin.HandleFunc("/staff", authHandler.CreateStaff).Methods("POST")

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ExpireSpec, jobs.ExpireStaleReservations); err != nil {
		logger.Fatal().Err(err).Str("spec", cfg.ExpireSpec).Msg("invalid expire cron spec")
	}
	scheduler.Start()
	defer scheduler.Stop()

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
	}()

	logger.Info().Str("port", cfg.Port).Msg("server running")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
}
