package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/library-seat-reservation/internal/auth"
	"github.com/iliyamo/library-seat-reservation/internal/config"
	"github.com/iliyamo/library-seat-reservation/internal/database"
	"github.com/iliyamo/library-seat-reservation/internal/handler"
	"github.com/iliyamo/library-seat-reservation/internal/middleware"
	"github.com/iliyamo/library-seat-reservation/internal/queue"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
	"github.com/iliyamo/library-seat-reservation/internal/router"
	queuepublisher "github.com/iliyamo/library-seat-reservation/internal/service"
	"github.com/iliyamo/library-seat-reservation/internal/watch"
)

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load() // .env is optional; real deployments set the environment

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("open database failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable: change streams degrade to snapshots, rate limiting disabled")
	}
	bus := watch.NewBus(rdb, log)

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	seats := repository.NewSeatRepo(db)
	bookings := repository.NewBookingRepo(db)

	authSvc := auth.NewService(cfg, users, sessions, bus, log)

	authHandler := handler.NewAuthHandler(authSvc, log)
	seatHandler := handler.NewSeatHandler(seats, bus, log)
	bookingHandler := handler.NewBookingHandler(bookings, seats, bus, queuepublisher.PublishBookingEvent, log)
	adminHandler := handler.NewAdminSeatHandler(seats, bus, log)

	// Background consumer appending booking events to logs/booking.log.
	go func() {
		if err := queue.StartBookingConsumer(log); err != nil {
			log.Error().Err(err).Msg("booking consumer stopped")
		}
	}()

	e := echo.New()
	e.HideBanner = true

	limiter := middleware.NewAuthRateLimiter(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret, limiter)
	router.RegisterSeats(e, seatHandler, cfg.JWTSecret)
	router.RegisterBookings(e, bookingHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")

	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
