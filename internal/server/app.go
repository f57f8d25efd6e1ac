// Package server wires configuration, storage, services, the REST API and
// the alert scheduler into one runnable application.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/accountability/internal/logging"
	"github.com/dmitrijs2005/accountability/internal/server/alerts"
	"github.com/dmitrijs2005/accountability/internal/server/auth"
	"github.com/dmitrijs2005/accountability/internal/server/awsx"
	"github.com/dmitrijs2005/accountability/internal/server/config"
	"github.com/dmitrijs2005/accountability/internal/server/notify"
	"github.com/dmitrijs2005/accountability/internal/server/repositories/memory"
	"github.com/dmitrijs2005/accountability/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accountability/internal/server/rest"
	"github.com/dmitrijs2005/accountability/internal/server/services"
	"golang.org/x/sync/errgroup"
)

// Seams for tests.
var (
	openPostgres = func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
		return repomanager.OpenPostgres(ctx, dsn)
	}
	loadAWSConfig = awsx.Load
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	server      *rest.Server
	scheduler   *alerts.Scheduler
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	m, err := newRepositoryManager(ctx, c)
	if err != nil {
		return nil, err
	}

	dash := services.NewDashboardService(m)
	svc := rest.Services{
		Users:           services.NewUserService(m, auth.NewGoogleVerifier(c.GoogleClientID), c),
		Accomplishments: services.NewAccomplishmentService(m),
		Dashboard:       dash,
		Export:          services.NewExportService(dash, c),
	}

	app := &App{
		config:      c,
		logger:      logger,
		repomanager: m,
		server:      rest.NewServer(c.EndpointAddrHTTP, logger, svc, c.SecretKey, c.CORSOrigins),
	}

	if c.AlertsEnabled {
		if app.scheduler, err = newScheduler(ctx, c, m, logger); err != nil {
			_ = m.Close()
			return nil, err
		}
	}

	return app, nil
}

func newRepositoryManager(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	if c.Storage == config.StorageMemory {
		return repomanager.NewMemoryRepositoryManager(memory.NewStore()), nil
	}

	m, err := openPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}
	return m, nil
}

func newSender(ctx context.Context, c *config.Config, logger logging.Logger) (notify.Sender, error) {
	if c.NotifySender != config.SenderSNS {
		return notify.NewLogSender(logger), nil
	}
	awsCfg, err := loadAWSConfig(ctx, awsx.Options{
		Region:    c.AWSRegion,
		AccessKey: c.AWSAccessKey,
		SecretKey: c.AWSSecretKey,
		Endpoint:  c.AWSEndpoint,
	})
	if err != nil {
		return nil, err
	}
	return notify.NewSNSSender(awsCfg, logger), nil
}

func newScheduler(ctx context.Context, c *config.Config, m repomanager.RepositoryManager, logger logging.Logger) (*alerts.Scheduler, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	sender, err := newSender(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("notification sender: %w", err)
	}
	return alerts.NewScheduler(m.Users(), m.Accomplishments(), sender, logger, alerts.Config{
		Location:    loc,
		Message:     c.AlertMessage,
		Interval:    c.AlertInterval,
		TickTimeout: c.AlertTickTimeout,
		SendTimeout: c.NotifySendTimeout,
		Concurrency: c.AlertConcurrency,
	}), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the API and, when enabled, runs the alert scheduler until ctx is
// cancelled, a termination signal arrives or the HTTP server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage, "alerts", app.scheduler != nil)

	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.server.Run(ctx)
	})

	if app.scheduler != nil {
		if err := app.scheduler.Start(ctx); err != nil {
			app.logger.Error(ctx, "alert scheduler", "error", err)
		}
		g.Go(func() error {
			<-ctx.Done()
			app.scheduler.Stop()
			return nil
		})
	}

	err := g.Wait()
	if cerr := app.repomanager.Close(); cerr != nil {
		app.logger.Error(context.Background(), "closing storage", "error", cerr)
	}
	app.logger.Info(context.Background(), "App stopped")
	return err
}
