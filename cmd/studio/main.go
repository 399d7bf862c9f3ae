package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"floorplan-studio/internal/common/config"
	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/common/middleware"
	"floorplan-studio/internal/server/handlers"
	"floorplan-studio/internal/server/repository"
	"floorplan-studio/internal/server/storage"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Floorplan Studio Service
// ============================================================

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		zlog.Fatal("open db", "error", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background(), cfg.MigrationsPath); err != nil {
		zlog.Fatal("init db", "error", err)
	}
	if err := seedDemoDesign(repo); err != nil {
		zlog.Fatal("seed demo design", "error", err)
	}

	assetStorage := storage.New(cfg.StorageRoot)

	stateHandler := handlers.NewStateHandler(repo, zlog)
	roomsHandler := handlers.NewRoomsHandler(repo, zlog)
	iconsHandler := handlers.NewIconsHandler(repo, assetStorage, zlog)
	exportHandler := handlers.NewExportHandler(repo, assetStorage, zlog)
	assetsHandler := handlers.NewAssetsHandler(assetStorage)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Floorplan Studio",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// ============================================================
	// Design Routes
	// ============================================================

	app.Get("/api/designs/:design/state", stateHandler.GetState)
	app.Put("/api/designs/:design/key-entries", stateHandler.SyncKeyEntries)
	app.Put("/api/designs/:design/highlights", stateHandler.SyncHighlights)
	app.Put("/api/designs/:design/icons", stateHandler.SyncIcons)
	app.Get("/api/designs/:design/export.png", exportHandler.ExportPNG)

	app.Get("/api/floorplans/:floorplan/rooms", roomsHandler.ListRooms)
	app.Put("/api/floorplans/:floorplan/rooms", roomsHandler.SyncRooms)

	app.Get("/api/icons", iconsHandler.Catalog)
	app.Post("/api/icons", iconsHandler.Upload)
	app.Delete("/api/icons/:icon", iconsHandler.Delete)

	app.Get("/assets/*", assetsHandler.Serve)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	zlog.Info("starting floorplan studio", "addr", addr, "env", cfg.Environment)

	if err := app.Listen(addr); err != nil {
		zlog.Fatal("server stopped", "error", err)
	}
}

// seedDemoDesign makes sure a design with one floorplan exists so a
// fresh install has something to open.
func seedDemoDesign(repo *repository.Repository) error {
	ctx := context.Background()
	exists, err := repo.DesignExists(ctx, 1)
	if err != nil || exists {
		return err
	}
	designID, err := repo.CreateDesign(ctx, "Demo Design")
	if err != nil {
		return err
	}
	floorplanID, err := repo.CreateFloorplan(ctx, "Ground Floor", "", 0, 0)
	if err != nil {
		return err
	}
	return repo.AttachFloorplan(ctx, designID, floorplanID, 0)
}
