package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"depotapi/docs"
	"depotapi/internal/config"
	"depotapi/internal/contract"
	handlers "depotapi/internal/http/handler"
	"depotapi/internal/http/middleware"
	"depotapi/internal/logger"
	"depotapi/internal/otel"
	"depotapi/internal/service"
	"depotapi/internal/signature"
	"depotapi/internal/storage"
)

//	@title			Artwork Deposit API
//	@version		1.0
//	@description	Records artwork deposits, generates the deposit contract and collects the artist's signature.
//	@BasePath		/
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalw("invalid timezone", "timezone", cfg.Timezone, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	store, ledgerID, err := newGateway(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to initialize storage", "backend", cfg.StorageBackend, "error", err)
	}

	engine, err := newEngine(cfg.Gallery, log)
	if err != nil {
		log.Fatalw("failed to initialize contract layout", "error", err)
	}
	x, y, width := contract.ArtistSignatureZone()
	stamper := signature.New(signature.Position{X: x, Y: y, Width: width})

	opts := service.Options{
		PhotosFolderID:          cfg.Drive.PhotosFolderID,
		ContractsFolderID:       cfg.Drive.ContractsFolderID,
		SignedContractsFolderID: cfg.Drive.SignedContractsFolderID,
		LedgerID:                ledgerID,
		LedgerRange:             cfg.Sheets.Range,
		Location:                loc,
	}
	depositSvc := service.NewDepositService(store, engine, opts, log.With("component", "deposit"))
	signingSvc := service.NewSigningService(store, stamper, opts, log.With("component", "signing"))

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.MaxUploadBytes),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalw("failed to register metrics", "error", err)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(prom.Handler())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
	})))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Use("/swagger", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}
		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}
		return c.Next()
	})

	handlers.RegisterRoutes(app, handlers.Deps{
		Store:          store,
		Deposit:        depositSvc,
		Signing:        signingSvc,
		Gallery:        cfg.Gallery.Name,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		return c.Redirect("/swagger/index.html", fiber.StatusMovedPermanently)
	})

	go func() {
		<-ctx.Done()
		log.Infow("shutting down")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Errorw("server shutdown", "error", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Infow("listening", "addr", addr, "backend", cfg.StorageBackend, "timezone", loc.String())
	if err := app.Listen(addr); err != nil {
		log.Errorw("server stopped", "error", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Warnw("tracing shutdown", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Warnw("storage close", "error", err)
	}
}

// newGateway builds the configured storage backend and returns the ledger it appends to.
func newGateway(ctx context.Context, cfg *config.AppConfig) (storage.Gateway, string, error) {
	switch cfg.StorageBackend {
	case config.BackendGoogle:
		g, err := storage.NewGoogle(ctx, cfg.Google)
		return g, cfg.Sheets.SpreadsheetID, err
	case config.BackendMinIO:
		m, err := storage.NewMinIO(cfg.MinIO)
		return m, cfg.MinIO.LedgerKey, err
	default:
		return nil, "", errors.New("unknown STORAGE_BACKEND " + cfg.StorageBackend)
	}
}

// newEngine loads the gallery signature image. A missing file only leaves the gallery block unsigned.
func newEngine(g config.GalleryConfig, log *logger.Logger) (*contract.Engine, error) {
	sig, err := os.ReadFile(g.SignatureImagePath)
	if err != nil {
		log.Warnw("gallery signature image not loaded", "path", g.SignatureImagePath, "error", err)
		sig = nil
	}
	return contract.NewEngine(contract.Options{
		GalleryName:      g.Name,
		City:             g.City,
		GallerySignature: sig,
	})
}
