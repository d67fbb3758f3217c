package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/calendar"
	"github.com/gdbetancourt/outreach-engine/internal/config"
	"github.com/gdbetancourt/outreach-engine/internal/crm"
	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/gdbetancourt/outreach-engine/internal/events"
	"github.com/gdbetancourt/outreach-engine/internal/handler"
	"github.com/gdbetancourt/outreach-engine/internal/infra/postgresql"
	"github.com/gdbetancourt/outreach-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/gdbetancourt/outreach-engine/internal/infra/redis"
	"github.com/gdbetancourt/outreach-engine/internal/observability"
	"github.com/gdbetancourt/outreach-engine/internal/provider"
	"github.com/gdbetancourt/outreach-engine/internal/render"
	"github.com/gdbetancourt/outreach-engine/internal/repository"
	"github.com/gdbetancourt/outreach-engine/internal/service"
	"github.com/gdbetancourt/outreach-engine/internal/transport"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	broker, err := events.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	publisher := events.NewRabbitMQPublisher(broker)
	defer publisher.Close()

	metrics := observability.NewMetrics()

	ruleRepo := repository.NewGormRuleRepo(db)
	queueRepo := repository.NewGormQueueRepo(db)
	cadenceRepo := repository.NewGormCadenceRepo(db)
	jobRepo := repository.NewGormJobRepo(db)
	auditRepo := repository.NewGormAuditRepo(db)

	crmStore := crm.NewGormStore(db)
	calendarClient, err := calendar.NewClient(cfg.CalendarBaseURL, cfg.CalendarToken)
	if err != nil {
		logger.Fatal("calendar client initialization failed", zap.Error(err))
	}

	emailTransport, err := provider.NewEmailRelayTransport(cfg.EmailRelayURL)
	if err != nil {
		logger.Fatal("email transport initialization failed", zap.Error(err))
	}
	transports := map[domain.Channel]provider.Transport{
		domain.ChannelEmail:    emailTransport,
		domain.ChannelWhatsApp: provider.NewWhatsAppLinkTransport(),
	}

	limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.DispatchRatePerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	ruleService, err := service.NewRuleService(ruleRepo, logger)
	if err != nil {
		logger.Fatal("rule service initialization failed", zap.Error(err))
	}

	evaluator, err := service.NewEvaluator(
		crmStore, crmStore, crmStore, crmStore, calendarClient,
		cadenceRepo, cfg.CandidateCeiling, logger,
	)
	if err != nil {
		logger.Fatal("evaluator initialization failed", zap.Error(err))
	}

	sweeper, err := service.NewSweeperService(queueRepo, crmStore, evaluator, metrics, logger)
	if err != nil {
		logger.Fatal("sweeper initialization failed", zap.Error(err))
	}

	generation, err := service.NewGenerationService(jobRepo, queueRepo, ruleService, evaluator, sweeper, metrics, logger)
	if err != nil {
		logger.Fatal("generation service initialization failed", zap.Error(err))
	}

	grouping, err := service.NewGroupingService(ruleRepo, queueRepo, crmStore, logger)
	if err != nil {
		logger.Fatal("grouping service initialization failed", zap.Error(err))
	}

	dispatch, err := service.NewDispatchService(
		ruleRepo, queueRepo, cadenceRepo, auditRepo, crmStore,
		transports, render.NewPlaceholderRenderer(), limiter, publisher, metrics, logger,
	)
	if err != nil {
		logger.Fatal("dispatch service initialization failed", zap.Error(err))
	}

	snooze, err := service.NewSnoozeService(queueRepo, cadenceRepo, ruleRepo, logger)
	if err != nil {
		logger.Fatal("snooze service initialization failed", zap.Error(err))
	}

	audit, err := service.NewAuditService(auditRepo)
	if err != nil {
		logger.Fatal("audit service initialization failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      "outreach-engine",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	if err := handler.RegisterRuleRoutes(app, ruleService); err != nil {
		logger.Fatal("failed to register rule routes", zap.Error(err))
	}
	if err := handler.RegisterGenerationRoutes(app, generation); err != nil {
		logger.Fatal("failed to register generation routes", zap.Error(err))
	}
	if err := handler.RegisterQueueRoutes(app, grouping, dispatch, snooze, sweeper, ruleService); err != nil {
		logger.Fatal("failed to register queue routes", zap.Error(err))
	}
	if err := handler.RegisterAuditRoutes(app, audit); err != nil {
		logger.Fatal("failed to register audit routes", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("outreach-engine api started", zap.Int("port", cfg.APIPort))
		return app.Listen(listenAddr(cfg.APIPort))
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}
}

func listenAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}
