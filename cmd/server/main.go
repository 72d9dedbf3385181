package main // Entry point package

import (
	"context" // Deadlines for startup tasks
	"log"     // Logging library
	"time"

	"github.com/joho/godotenv"    // Load .env into the process environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"    // Availability checker and lifecycle service
	"github.com/iliyamo/restaurant-table-reservation/internal/config"     // Internal config loader
	"github.com/iliyamo/restaurant-table-reservation/internal/database"   // MySQL pool and migrations
	"github.com/iliyamo/restaurant-table-reservation/internal/handler"    // HTTP handlers
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware" // Rate limiting and response cache
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"      // Reservation event consumer
	"github.com/iliyamo/restaurant-table-reservation/internal/repository" // Database repositories
	"github.com/iliyamo/restaurant-table-reservation/internal/router"     // Route registration
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// One-time backfill: reservations written before end times became
	// mandatory get start_time plus the old default duration.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.BackfillEndTimes(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	tables := repository.NewTableRepo(db)
	reservations := repository.NewReservationRepo(db)

	checker := booking.NewChecker(tables, reservations)
	svc := booking.NewService(db, reservations, checker)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	tableH := handler.NewTableHandler(tables, checker)
	reservationH := handler.NewReservationHandler(svc, reservations, tables)
	userH := handler.NewUserHandler(&cfg, users)

	e := echo.New() // Create Echo instance

	// A Redis-backed token bucket sits in front of every route.  The
	// response cache is scoped to the table catalogue and registered
	// inside the route group, behind authentication, so a cache hit can
	// never answer for a request that would have been rejected.  Both
	// middlewares fail open when Redis is unreachable.
	rdb := config.NewRedisClient()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	tableCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e) // Health check
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterTables(e, tableH, cfg.JWTSecret, tableCache)
	router.RegisterReservations(e, reservationH, cfg.JWTSecret)
	router.RegisterAdminUsers(e, userH, cfg.JWTSecret)

	// Consume reservation.confirmed events in the background.  The
	// consumer reconnects on its own; a missing broker only disables
	// notifications, it never stops the API.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
