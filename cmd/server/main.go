package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cop-side-events/internal/clock"
	"github.com/iliyamo/cop-side-events/internal/config"
	"github.com/iliyamo/cop-side-events/internal/database"
	"github.com/iliyamo/cop-side-events/internal/handler"
	"github.com/iliyamo/cop-side-events/internal/jobs"
	"github.com/iliyamo/cop-side-events/internal/mail"
	"github.com/iliyamo/cop-side-events/internal/middleware"
	"github.com/iliyamo/cop-side-events/internal/queue"
	"github.com/iliyamo/cop-side-events/internal/repository"
	"github.com/iliyamo/cop-side-events/internal/router"
	"github.com/iliyamo/cop-side-events/internal/service"
)

func main() {
	config.LoadDotenv()
	cfg := config.Load() // Load environment config
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
	err = database.Migrate(migrateCtx, db)
	cancel()
	if err != nil {
		return err
	}

	// nil when Redis is down; the middlewares below then pass through.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	clk := clock.NewSystem()

	// ---- Repositories ----
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	tx := repository.NewTransactor(db)
	orgs := repository.NewOrganisationRepo(db)
	activists := repository.NewActivistRepo(db)
	participants := repository.NewParticipantRepo(db)
	apps := repository.NewApplicationRepo(db)
	invoices := repository.NewInvoiceRepo(db)
	reports := repository.NewReportRepo(db)
	announcements := repository.NewAnnouncementRepo(db)
	staff := repository.NewStaffRepo(db, users)
	stats := repository.NewStatsRepo(db, apps, reports)

	// ---- Mail ----
	var sender mail.Sender
	if cfg.ResendAPIKey != "" {
		sender = mail.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		logger.Warn("RESEND_API_KEY not set, mail is logged and dropped")
		sender = mail.NewNoopSender()
	}
	var publisher service.Publisher
	if cfg.RabbitMQURL != "" {
		publisher = service.NewQueuePublisher(cfg.RabbitMQURL)
		go func() {
			if err := queue.StartMailConsumer(ctx, cfg.RabbitMQURL, sender); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("mail consumer exited", "err", err)
			}
		}()
	}
	notifier := service.NewNotifier(mail.NewRenderer(cfg.BaseURL), publisher, sender, clk)

	// ---- Services ----
	activator := service.NewActivator(tokens, notifier, clk, cfg.ActivationTTL)
	accreditation := service.NewAccreditationService(tx, users, participants, activator, service.AccreditationConfig{
		DefaultPassword: cfg.DelegateDefaultPassword,
		AccreditedBy:    cfg.AccreditedByDefault,
		BcryptCost:      cfg.BcryptCost,
	})
	applications := service.NewApplicationService(apps)

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	sessions := middleware.NewSessionTracker(rdb, cfg.SessionIdleTimeout)
	idle := sessions.Middleware()
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	events := &handler.EventHandler{
		Apps:     apps,
		Writer:   applications,
		Orgs:     orgs,
		Invoices: invoices,
		Reports:  reports,
	}

	router.RegisterRoutes(e, db)
	router.RegisterPublic(e, &handler.PublicHandler{Apps: apps, Reports: reports, Stats: stats, Clock: clk}, cache)
	router.RegisterAuth(e, &handler.AuthHandler{
		Cfg:       cfg,
		Users:     users,
		Tokens:    tokens,
		Orgs:      orgs,
		Tx:        tx,
		Activator: activator,
		Mailer:    notifier,
		Sessions:  sessions,
		Clock:     clk,
	}, cfg.JWTSecret, idle)
	router.RegisterSuper(e, &handler.SuperHandler{Cfg: cfg, Staff: staff}, cfg.JWTSecret, idle)
	router.RegisterAdmin(e, &handler.AdminHandler{
		Cfg:           cfg,
		Users:         users,
		Recipients:    users,
		Orgs:          orgs,
		Activists:     activists,
		Participants:  participants,
		Accreditation: accreditation,
		Invoices:      invoices,
		Announcements: announcements,
		Mailer:        notifier,
		Stats:         stats,
		Clock:         clk,
	}, events, cfg.JWTSecret, idle)
	router.RegisterOrg(e, &handler.OrgHandler{Orgs: orgs, Stats: stats, Clock: clk}, events, cfg.JWTSecret, idle)
	router.RegisterActivist(e, &handler.ActivistHandler{Activists: activists, Orgs: orgs, Stats: stats, Clock: clk}, cfg.JWTSecret, idle)

	// ---- Background jobs ----
	if cfg.CronEnabled {
		sched, err := jobs.New(invoices, tokens, clk)
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	addr := ":" + cfg.Port // Address string with port
	logger.Info("listening", "addr", addr, "env", cfg.Env)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
