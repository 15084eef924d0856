package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/editlance/marketplace/internal/config"
	"github.com/editlance/marketplace/internal/es"
	"github.com/editlance/marketplace/internal/handlers"
	"github.com/editlance/marketplace/internal/logging"
	"github.com/editlance/marketplace/internal/middleware/auth"
	"github.com/editlance/marketplace/internal/mykafka"
	"github.com/editlance/marketplace/internal/ratelimit"
	"github.com/editlance/marketplace/internal/service"
	"github.com/editlance/marketplace/internal/service/token"
	httpserver "github.com/editlance/marketplace/internal/transport/http"
)

const contactWindow = 5 * time.Minute

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	prod, err := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	var limiter ratelimit.Limiter
	if configuration.REDIS_ADDR != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     configuration.REDIS_ADDR,
			Password: configuration.REDIS_PASSWORD,
		})
		limiter = ratelimit.NewRedisLimiter(rdb, "contact", contactWindow)
	} else {
		limiter = ratelimit.NewMemoryLimiter(contactWindow)
	}

	tokens := &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.IntoContext(c.Request().Context(), logger.With("request_id", reqID))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		Auth:           auth.New(db, jwtSecret),
		AuthHandler:    &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: prod},
		UserHandler:    &handlers.UserHandler{DB: db},
		ProductHandler: &handlers.ProductHandler{DB: db, Producer: prod, ES: esClient, Index: "product"},
		CartHandler:    &handlers.CartHandler{Svc: &service.CartService{DB: db}, Producer: prod},
		OrderHandler:   &handlers.OrderHandler{Svc: &service.OrderService{DB: db}, Producer: prod},
		ProjectHandler: &handlers.ProjectHandler{DB: db, Producer: prod},
		BidHandler:     &handlers.BidHandler{Svc: &service.BidService{DB: db}, Producer: prod},
		MessageHandler: &handlers.MessageHandler{Svc: &service.MessageService{DB: db}, Producer: prod},
		ContactHandler: &handlers.ContactHandler{DB: db, Limiter: limiter},
		CouponHandler:  &handlers.CouponHandler{DB: db},
		SearchHandler:  handlers.NewSearchHandler(esClient, "product"),
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
