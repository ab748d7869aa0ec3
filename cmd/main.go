// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/vacinajp/vacinajp/internal/config"
	"github.com/vacinajp/vacinajp/internal/database"
	"github.com/vacinajp/vacinajp/internal/events"
	"github.com/vacinajp/vacinajp/internal/handler"
	"github.com/vacinajp/vacinajp/internal/memstore"
	"github.com/vacinajp/vacinajp/internal/repository"
	"github.com/vacinajp/vacinajp/internal/service"
	"github.com/vacinajp/vacinajp/internal/sitecache"
	"github.com/vacinajp/vacinajp/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ── 1. Storage backend ───────────────────────────────────────────────
	var st store.Store
	switch cfg.Store {
	case "memory":
		// Development mode: everything lives in process memory.
		st = memstore.NewStore()
		log.Println("✓ Using in-memory store (development mode)")
	default:
		pool, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer pool.Close()
		pg := repository.NewStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		st = pg
		log.Println("✓ Connected to PostgreSQL")
	}

	// ── 2. Optional collaborators ────────────────────────────────────────
	sites := st.Sites()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ttl := time.Duration(cfg.SiteCacheTTLMins) * time.Minute
		sites = sitecache.New(client, sites, ttl)
		log.Println("✓ Site directory cache enabled:", cfg.RedisAddr)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("events: %v", err)
		}
		defer amqpPub.Close()
		publisher = amqpPub
		log.Println("✓ Event publishing enabled:", cfg.AMQPExchange)
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	bookingSvc := service.NewBookingService(st, sites, publisher)
	attendanceSvc := service.NewAttendanceService(st, sites, publisher)
	adminSvc := service.NewAdminService(st, sites)
	h := handler.New(bookingSvc, attendanceSvc, adminSvc)

	// ── 4. Build the router ──────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger)          // structured access log
	r.Use(handler.CORS)            // permissive CORS for demo

	// Health and metrics
	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Post("/schedules", h.Reserve)
	r.Post("/vaccines", h.RecordDose)
	r.Get("/users/{userID}/schedules", h.ListReservations)
	r.Get("/users/{userID}/vaccines", h.ListDoses)
	r.Get("/calendar/{date}", h.ListAvailableSlots)
	r.Get("/calendar/{siteID}/{date}", h.GetSlot)
	r.Get("/sites/{siteID}", h.GetSite)
	r.Route("/admin", func(r chi.Router) {
		r.Post("/sites", h.CreateSite)
		r.Post("/calendar", h.CreateSlot)
		r.Patch("/calendar/{siteID}/{date}", h.AdjustCapacity)
	})

	// ── 5. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	go func() {
		log.Printf("✓ Server listening on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	log.Println("server stopped")
}
