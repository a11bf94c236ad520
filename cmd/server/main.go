package main // HTTP API and audit consumer

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/coworking-reservation/internal/config"
	"github.com/iliyamo/coworking-reservation/internal/database"
	"github.com/iliyamo/coworking-reservation/internal/handler"
	"github.com/iliyamo/coworking-reservation/internal/logger"
	"github.com/iliyamo/coworking-reservation/internal/middleware"
	"github.com/iliyamo/coworking-reservation/internal/policy"
	"github.com/iliyamo/coworking-reservation/internal/queue"
	"github.com/iliyamo/coworking-reservation/internal/repository"
	"github.com/iliyamo/coworking-reservation/internal/router"
	"github.com/iliyamo/coworking-reservation/internal/service"
)

func main() {
	cfg, err := config.LoadWithFile(".env") // Load environment config
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	pol, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		log.Fatalf("policy: %v", err)
	}
	lg := logger.New()

	db, dialect, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	store := repository.NewStore(db, dialect)

	var publisher service.EventPublisher
	var pub *queue.Publisher
	if cfg.EventsEnabled {
		pub = queue.NewPublisher(cfg.AMQPURL, lg)
		publisher = pub
	}
	engine := service.New(store, pol, policy.RealClock{}, publisher, lg)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			lg.Info("request",
				logger.F("METHOD", v.Method),
				logger.F("URI", v.URI),
				logger.Status(http.StatusText(v.Status)),
				logger.F("CODE", v.Status),
				logger.Duration(v.Latency),
				logger.F("REQUEST_ID", v.RequestID),
			)
			return nil
		},
	}))

	var mws []echo.MiddlewareFunc
	if rdb := config.NewRedisClient(); rdb != nil { // Redis is optional
		defer rdb.Close()
		mws = append(mws,
			middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, lg),
			middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		)
	} else {
		log.Printf("redis unavailable: running without rate limit and cache")
	}

	router.RegisterRoutes(e, db)
	router.RegisterAPI(e, handler.New(engine, lg), mws...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.EventsEnabled {
		consumer := queue.NewConsumer(cfg.AMQPURL, queue.NewAuditLog(cfg.AuditLogPath), lg)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("audit consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s, driver=%s)", addr, cfg.Env, dialect)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if pub != nil {
		if err := pub.Close(); err != nil {
			log.Printf("close publisher: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		log.Printf("close store: %v", err)
	}
}
