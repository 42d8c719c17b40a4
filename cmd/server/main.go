package main // Entry point package

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"    // loads .env files in development
    "github.com/labstack/echo/v4" // Echo web framework
    "github.com/rs/zerolog"       // structured logging

    "github.com/iliyamo/hospital-bed-management/internal/config"
    "github.com/iliyamo/hospital-bed-management/internal/database"
    "github.com/iliyamo/hospital-bed-management/internal/engine"
    "github.com/iliyamo/hospital-bed-management/internal/handler"
    "github.com/iliyamo/hospital-bed-management/internal/middleware"
    "github.com/iliyamo/hospital-bed-management/internal/queue"
    "github.com/iliyamo/hospital-bed-management/internal/repository"
    "github.com/iliyamo/hospital-bed-management/internal/router"
    queuepub "github.com/iliyamo/hospital-bed-management/internal/service"
)

func main() {
    _ = godotenv.Load() // .env is optional; real deployments set the environment directly

    logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "bed-management").Logger()
    if os.Getenv("APP_ENV") == "dev" {
        logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
    }

    cfg := config.Load() // fatal on missing required variables

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        logger.Fatal().Err(err).Msg("database connection failed")
    }
    defer db.Close()

    // Redis backs the rate limiter and the report response cache.
    // Both middlewares degrade to pass-through when disabled.
    rdb := config.NewRedisClient()

    // repositories
    beds := repository.NewBedRepo(db)
    rooms := repository.NewRoomRepo(db)
    admissions := repository.NewAdmissionRepo(db)
    assignments := repository.NewAssignmentRepo(db)
    logs := repository.NewStatusLogRepo(db)
    reports := repository.NewReportRepo(db)

    // the notifier fans bed events out to RabbitMQ; failures there
    // never fail the request that produced the event
    brokerURL := queuepub.BrokerURL()
    notifier := queuepub.New(brokerURL, logger)

    // the ward log consumer tails the event queues into a local audit
    // file; it reconnects with backoff for as long as the server runs
    go func() {
        if err := queue.StartWardLogConsumer(brokerURL, logger); err != nil {
            logger.Error().Err(err).Msg("ward log consumer stopped")
        }
    }()

    machine := engine.NewStateMachine(db, beds, logs, notifier, logger)
    assigner := engine.NewAssignmentEngine(db, beds, admissions, assignments, logs, notifier, logger)

    api := &router.API{
        Beds:        handler.NewBedHandler(machine, beds, logs),
        Assignments: handler.NewAssignmentHandler(assigner, assignments),
        Reports:     handler.NewReportHandler(reports),
        Provision:   handler.NewProvisionHandler(rooms, beds),
    }

    e := echo.New()
    e.HideBanner = true
    e.Use(middleware.RequestLogger(logger))
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    reportCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    router.RegisterRoutes(e)
    router.RegisterAPI(e, api, cfg.JWTSecret, reportCache)

    addr := ":" + cfg.Port
    go func() {
        logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
        if err := e.Start(addr); err != nil {
            logger.Info().Err(err).Msg("server stopped")
        }
    }()

    // block until SIGINT/SIGTERM, then drain in-flight requests
    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()

    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        logger.Error().Err(err).Msg("shutdown failed")
    }
}
