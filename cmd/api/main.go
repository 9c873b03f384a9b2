package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"notionpdf/internal/config"
	"notionpdf/internal/converter"
	"notionpdf/internal/database"
	"notionpdf/internal/database/migration"
	handlers "notionpdf/internal/http/handler"
	"notionpdf/internal/http/middleware"
	"notionpdf/internal/interpreter"
	"notionpdf/internal/logging"
	tracing "notionpdf/internal/otel"
	"notionpdf/internal/process"
	"notionpdf/internal/repository"
	"notionpdf/internal/repository/postgres"
	"notionpdf/internal/service"
	"notionpdf/internal/workspace"
)

const shutdownTimeout = 90 * time.Second

// @title Notion PDF Export API
// @version 1.0
// @description Exports Notion pages to PDF through an external conversion program.
// @BasePath /
func main() {
	configPath := pflag.StringP("config", "c", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	port := pflag.StringP("port", "p", "", "listen port (overrides PORT)")
	pflag.Parse()

	// Configuration: defaults, then the optional YAML file, then the environment (.env auto-loaded)
	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	if *port != "" {
		cfg.Port = *port
	}

	log := logging.New(os.Stdout, cfg.LogLevel, cfg.Location())

	if _, err := maxprocs.Set(maxprocs.Logger(log.Debugf)); err != nil {
		log.WithError(err).Warn("failed to set GOMAXPROCS")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.ServiceName, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracing")
	}

	// Export history is optional and needs PostgreSQL
	var (
		db   *sql.DB
		repo repository.ExportRepository
	)
	if cfg.Database.Enabled() {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to database")
		}
		defer db.Close()

		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			log.WithError(err).Fatal("failed to migrate database")
		}
		repo = postgres.NewExportPostgres(db)
	} else {
		log.Info("DB_HOST not set, export history disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.WithError(err).Fatal("failed to register http metrics")
	}
	exportMetrics, err := service.NewMetrics(reg)
	if err != nil {
		log.WithError(err).Fatal("failed to register export metrics")
	}

	runner := process.NewExecRunner()
	resolver := interpreter.NewResolver(runner, interpreter.Options{
		Override:     cfg.Export.InterpreterOverride,
		Fallbacks:    cfg.Export.InterpreterFallbacks,
		Default:      cfg.Export.DefaultInterpreter,
		ProbeTimeout: cfg.Export.ProbeTimeout(),
		Cache:        cfg.Export.CacheInterpreter,
	}, log)
	executor := converter.NewExecutor(runner, converter.Options{
		Script:    cfg.Export.ScriptPath,
		Timeout:   cfg.Export.Timeout(),
		MaxOutput: cfg.Export.MaxOutputBytes,
	}, log)
	workspaces := workspace.NewManager(cfg.Export.WorkspaceRoot, log)

	exportSvc := service.NewExportService(service.Deps{
		Workspaces: workspaces,
		Resolver:   resolver,
		Converter:  executor,
		Repo:       repo,
		Metrics:    exportMetrics,
		Log:        log,
	})

	log.WithFields(logrus.Fields{
		"interpreter":    resolver.Resolve(ctx),
		"script":         cfg.Export.ScriptPath,
		"workspace_root": workspaces.Root(),
		"timeout_sec":    cfg.Export.TimeoutSec,
	}).Info("export pipeline ready")

	app := fiber.New(fiber.Config{
		AppName:               cfg.ServiceName,
		ErrorHandler:          handlers.ErrorHandler(log),
		DisableStartupMessage: true,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics"
	})))
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// Structured request logs; renders chain errors so the logged status is final
	app.Use(middleware.Logger(log))
	app.Use(recover.New())
	app.Use(promMW.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, exportSvc)

	handlers.RegisterDocs(app)

	addr := ":" + cfg.Port
	go func() {
		log.WithField("addr", addr).Info("server listening")
		if err := app.Listen(addr); err != nil {
			log.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	// In-flight exports are allowed to finish within the conversion timeout
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.WithError(err).Error("tracing shutdown failed")
	}
}
