package main // Entry point package

import (
	"log"  // Logging library
	"time" // Presence TTL

	"github.com/joho/godotenv"    // Load .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/seatsmith/wedding-seating/internal/collab"     // Room hub for live collaboration
	"github.com/seatsmith/wedding-seating/internal/config"     // Internal config loader
	"github.com/seatsmith/wedding-seating/internal/database"   // MySQL connection pool
	"github.com/seatsmith/wedding-seating/internal/handler"    // HTTP and WebSocket handlers
	"github.com/seatsmith/wedding-seating/internal/queue"      // Hygiene event consumer
	"github.com/seatsmith/wedding-seating/internal/repository" // Data access layer
	"github.com/seatsmith/wedding-seating/internal/router"     // Internal router setup
)

func main() {
	_ = godotenv.Load() // Load .env when present; real env wins

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis backs presence TTLs and the rate limiter.  Both degrade
	// gracefully, so a nil client just disables them.
	rdb := config.NewRedisClient()
	var presence collab.Presence
	if rdb != nil {
		presence = collab.NewRedisPresence(rdb, time.Minute)
	}

	layouts := repository.NewLayoutRepo(db)
	assignments := repository.NewAssignmentRepo(db)
	preferences := repository.NewPreferenceRepo(db)
	guests := repository.NewGuestRepo(db)

	store := &collab.RepoStore{
		Layouts:     layouts,
		Assignments: assignments,
		Preferences: preferences,
		Guests:      guests,
	}
	hub := collab.NewHub(store, presence, cfg.GridUnit)

	h := &handler.SeatingHandler{
		Layouts:     layouts,
		Assignments: assignments,
		Preferences: preferences,
		Guests:      guests,
		Hub:         hub,
		JWTSecret:   cfg.JWTSecret,
	}

	// The hygiene consumer tails the seating.hygiene queue and appends to
	// logs/seating.log.  It reconnects on broker failure and never takes
	// the API down with it.
	go func() {
		if err := queue.StartHygieneConsumer(); err != nil {
			log.Printf("hygiene consumer stopped: %v", err)
		}
	}()

	e := echo.New()          // Create Echo instance
	router.RegisterRoutes(e) // Health check
	router.RegisterSeating(e, h, cfg.JWTSecret, rdb, config.LoadRateLimitConfig())

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err)
	}
}
