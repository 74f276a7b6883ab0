package main // Entry point package

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/avros/inventory-reservation/internal/config"
	"github.com/avros/inventory-reservation/internal/database"
	"github.com/avros/inventory-reservation/internal/handler"
	"github.com/avros/inventory-reservation/internal/inventory"
	"github.com/avros/inventory-reservation/internal/middleware"
	"github.com/avros/inventory-reservation/internal/queue"
	"github.com/avros/inventory-reservation/internal/reservation"
	"github.com/avros/inventory-reservation/internal/router"
)

func main() {
	// Load .env when present; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Redis is optional; middleware degrades to pass-through when nil.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	stock := inventory.NewStockRepo(db)
	store := reservation.NewMySQLStore(db)
	engine := reservation.NewEngine(store, stock, reservation.WithHoldTTL(cfg.HoldTTL))

	// The sweep is owned here: started after wiring, stopped at shutdown.
	sweeper := reservation.NewSweeper(engine, cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	// Background consumer appends lifecycle events to the audit log.  It
	// runs its own reconnect loop for the life of the process.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterReservations(e, handler.NewReservationHandler(engine, stock), rateLimit)
	router.RegisterStock(e, handler.NewStockHandler(stock), rateLimit, cache)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	// Block until interrupted, then let the deferred cleanup stop the
	// sweeper and close the database.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")
}
