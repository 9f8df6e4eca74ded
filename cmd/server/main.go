package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/skiplinehq/skipline/internal/config"   // Internal config loader
	"github.com/skiplinehq/skipline/internal/database" // Postgres connection pool
	"github.com/skiplinehq/skipline/internal/handler"
	"github.com/skiplinehq/skipline/internal/queue" // Notification consumer
	"github.com/skiplinehq/skipline/internal/repository"
	"github.com/skiplinehq/skipline/internal/router" // Internal router setup
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs rate limiting and the public response cache.  A nil client
	// simply disables both, so a missing Redis never blocks startup.
	rdb := config.NewRedisClient()

	// Repositories share the single pool.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	businesses := repository.NewBusinessRepo(db)
	queues := repository.NewQueueRepo(db)
	reviews := repository.NewReviewRepo(db)
	subs := repository.NewSubscriptionRepo(db)

	// The consumer tails the broker and writes turn notifications.  It
	// reconnects on its own, so a broker outage never takes the API down.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance

	router.RegisterRoutes(e) // Health check
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, &handler.PublicHandler{
		BusinessRepo: businesses,
		ReviewRepo:   reviews,
		QueueRepo:    queues,
	}, rdb)
	router.RegisterCustomer(e,
		handler.NewCustomerQueueHandler(queues, businesses),
		handler.NewReviewHandler(reviews),
		handler.NewSubscriptionHandler(subs, businesses),
		cfg.JWTSecret,
	)
	router.RegisterOwner(e,
		handler.NewOwnerBusinessHandler(businesses, queues),
		handler.NewOwnerQueueHandler(queues, businesses, users),
		cfg.JWTSecret,
	)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
