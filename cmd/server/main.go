package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-rsvp/internal/config"
	"github.com/iliyamo/event-rsvp/internal/database"
	"github.com/iliyamo/event-rsvp/internal/handler"
	"github.com/iliyamo/event-rsvp/internal/middleware"
	"github.com/iliyamo/event-rsvp/internal/queue"
	"github.com/iliyamo/event-rsvp/internal/repository"
	"github.com/iliyamo/event-rsvp/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	eventRepo := repository.NewEventRepo(db)
	rsvpRepo := repository.NewRsvpRepo(db)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	eventHandler := handler.NewEventHandler(eventRepo)
	rsvpHandler := handler.NewRsvpHandler(rsvpRepo, eventRepo)

	e := echo.New()

	// Distributed rate limiting; degrades to a pass-through when Redis is
	// not reachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e, eventHandler)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterEvents(e, eventHandler, cfg.JWTSecret)
	router.RegisterRsvps(e, rsvpHandler, cfg.JWTSecret)

	// Background consumer appends confirmed/cancelled RSVPs to logs/rsvp.log.
	go func() {
		if err := queue.StartRsvpConsumer(); err != nil {
			log.Printf("rsvp consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
