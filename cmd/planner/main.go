package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"floorplan/internal/common/config"
	"floorplan/internal/common/middleware"
	"floorplan/internal/plan/editor"
	"floorplan/internal/plan/handlers"
	"floorplan/internal/plan/importer"
	"floorplan/internal/plan/live"
	"floorplan/internal/plan/repository"
	"floorplan/internal/plan/service"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Planner Service
// ============================================================

func main() {
	cfg := config.Load()

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		log.Fatalf("init db: %v", err)
	}

	policy := editor.DefaultPolicy()
	plans := service.NewPlans(
		repo,
		service.NewFileStorage(cfg.SourceDir),
		importer.New(cfg.PxPerFoot, policy),
		policy,
	)
	hub := live.NewHub(plans)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Planner Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.CORSOrigins))

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", handlers.LivenessProbe)
	app.Get("/health/ready", handlers.ReadinessProbe(db))
	app.Get("/docs/openapi.yaml", handlers.SwaggerSpec)

	// ============================================================
	// Plan Routes
	// ============================================================

	handlers.NewPlanHandler(plans, hub).Mount(app)

	// ============================================================
	// Live Server
	// ============================================================

	liveAddr := fmt.Sprintf(":%s", cfg.LivePort)
	liveServer := &http.Server{
		Addr:              liveAddr,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: time.Duration(cfg.ReadTimeout) * time.Second,
	}
	go func() {
		log.Printf("Starting live server on %s", liveAddr)
		if err := liveServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start live server: %v", err)
		}
	}()

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Planner Service on %s (env: %s)", addr, cfg.Environment)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
