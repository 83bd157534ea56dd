package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/smarthotel/booking/internal/config"
	"github.com/smarthotel/booking/internal/database"
	"github.com/smarthotel/booking/internal/handler"
	"github.com/smarthotel/booking/internal/middleware"
	"github.com/smarthotel/booking/internal/queue"
	"github.com/smarthotel/booking/internal/repository"
	"github.com/smarthotel/booking/internal/router"
	"github.com/smarthotel/booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	hotels := repository.NewHotelRepo(db)
	rooms := repository.NewRoomRepo(db)
	bookings := repository.NewBookingRepo(db)
	payments := repository.NewPaymentRepo(db)
	loyalty := repository.NewLoyaltyRepo(db)
	redemptions := repository.NewRedemptionRepo(db)
	reviews := repository.NewReviewRepo(db)

	var publisher *service.EventPublisher
	if cfg.AMQPURL != "" {
		publisher = service.NewEventPublisher(cfg.AMQPURL)
		go func() {
			if err := queue.StartBookingConsumer(cfg.AMQPURL); err != nil {
				log.Printf("booking consumer stopped: %v", err)
			}
		}()
	} else {
		log.Println("RABBITMQ_URL not set; booking events disabled")
	}

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	hotelH := handler.NewHotelHandler(hotels)
	roomH := handler.NewRoomHandler(rooms, hotels, bookings)
	bookingH := handler.NewBookingHandler(bookings, rooms, hotels, payments, loyalty, publisher)
	loyaltyH := handler.NewLoyaltyHandler(loyalty, redemptions, bookings, payments)
	reviewH := handler.NewReviewHandler(reviews, hotels, bookings)

	e := echo.New()
	e.HideBanner = true

	// The limiter runs before JWTAuth; user-keyed strategies would see
	// every request as anonymous here, hence the ip_route default.
	if rlCfg := config.LoadRateLimitConfig(); rlCfg.Enabled && rdb != nil {
		e.Use(middleware.NewTokenBucket(rlCfg, rdb))
	}
	var cacheMW echo.MiddlewareFunc
	if cacheCfg := config.LoadCacheConfig(); cacheCfg.Enabled && rdb != nil {
		cacheMW = middleware.NewRedisCache(cacheCfg, rdb)
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, hotelH, roomH, reviewH, cacheMW)
	router.RegisterCustomer(e, bookingH, loyaltyH, reviewH, cfg.JWTSecret)
	router.RegisterManager(e, hotelH, roomH, bookingH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
