package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/oernster/trainer-sub004/internal/api"
	"github.com/oernster/trainer-sub004/internal/cache"
	"github.com/oernster/trainer-sub004/internal/config"
	"github.com/oernster/trainer-sub004/internal/engine"
	"github.com/oernster/trainer-sub004/internal/middleware"
)

func main() {
	log.Println("Starting RailRouter API server...")

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	eng, err := engine.New(cfg.Data.Dir, cfg.Data.CacheDir, cfg.Preferences)
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}
	defer eng.Close()

	// The Redis route cache is optional; the planner is fully offline
	// without it.
	var routeCache *cache.RouteCache
	if cfg.Redis.Enabled {
		routeCache, err = cache.NewRouteCache(cache.RouteCacheConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
			MutexTTL: cfg.Redis.MutexTTL,
		})
		if err != nil {
			log.Printf("Warning: route cache unavailable, continuing without it: %v", err)
			routeCache = nil
		} else {
			defer routeCache.Close()
			log.Println("Route cache connected")
		}
	}

	var analytics *middleware.AnalyticsStore
	if cfg.Analytics.Enabled {
		analytics, err = middleware.NewAnalyticsStore(cfg.Analytics.Path)
		if err != nil {
			log.Printf("Warning: analytics store unavailable: %v", err)
			analytics = nil
		} else {
			defer analytics.Close()
			log.Printf("Analytics store open at %s", cfg.Analytics.Path)
		}
	}

	handlers := api.NewHandlers(eng, routeCache)

	app := fiber.New(fiber.Config{
		AppName:      "RailRouter API",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.AnalyticsMiddleware(analytics))

	app.Get("/health", handlers.Health)
	app.Get("/v1/route-search", handlers.RouteSearch)
	app.Get("/v1/stations/suggest", handlers.StationSuggest)
	app.Get("/v1/stations/:code", handlers.StationByCode)
	app.Get("/v1/stations/:code/departures", handlers.StationDepartures)
	app.Get("/v1/lines/list", handlers.LinesList)
	app.Get("/v1/via-stations", handlers.ViaSuggest)
	app.Post("/v1/cache/clear", handlers.CacheClear)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "endpoint not found",
		})
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("Server listening on http://localhost%s", addr)
	log.Printf("Route search: http://localhost%s/v1/route-search?from=Fleet&to=London%%20Waterloo", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error: %v", err)

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
