// Package app composes the console: credential store, session components,
// navigation, transport chain and backend client, in that order.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/josearnulfoborja/inventarioplus-console/internal/console/api"
	"github.com/josearnulfoborja/inventarioplus-console/internal/console/credstore"
	boltstore "github.com/josearnulfoborja/inventarioplus-console/internal/console/credstore/drivers/bolt"
	"github.com/josearnulfoborja/inventarioplus-console/internal/console/credstore/drivers/memory"
	sqlitestore "github.com/josearnulfoborja/inventarioplus-console/internal/console/credstore/drivers/sqlite"
	"github.com/josearnulfoborja/inventarioplus-console/internal/console/guard"
	"github.com/josearnulfoborja/inventarioplus-console/internal/console/historyguard"
	"github.com/josearnulfoborja/inventarioplus-console/internal/console/nav"
	"github.com/josearnulfoborja/inventarioplus-console/internal/console/session"
	"github.com/josearnulfoborja/inventarioplus-console/internal/console/transport"
	"github.com/josearnulfoborja/inventarioplus-console/pkg/slogx"
	"golang.org/x/time/rate"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the console with all its dependencies wired.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store      credstore.Store
	router     *nav.Router
	sessions   *session.Evaluator
	controller *session.Controller
	guard      *historyguard.Service
	client     *api.Client
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "inventarioplus-console",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}

	app.sessions = session.NewEvaluator(app.store)
	app.initNavigation()

	// The 401 reaction needs the controller, and the controller needs the
	// API client built on the chain. The closure breaks the cycle: by the
	// time any request completes, the controller is assigned.
	chain := transport.NewChain(nil, app.store, func() {
		app.controller.ForceClear()
	}, app.logger)

	app.client = api.NewClient(cfg.APIBaseURL, chain, cfg.RequestTimeout)

	app.controller = session.NewController(session.ControllerConfig{
		Store:      app.store,
		Auth:       app.client.Auth(),
		Nav:        app.router,
		Logger:     app.logger,
		LoginURL:   cfg.LoginURL,
		LoginRate:  rate.Every(cfg.LoginRatePeriod),
		LoginBurst: cfg.LoginBurst,
	})

	app.guard = &historyguard.Service{
		Sessions:       app.sessions,
		Nav:            app.router,
		Logger:         app.logger,
		LoginURL:       cfg.LoginURL,
		PublicPrefixes: cfg.PublicPrefixes,
	}

	return app, nil
}

// Run starts the history guard, lands on the root view and blocks until a
// shutdown signal arrives.
func (app *Application) Run() error {
	app.guard.Start()

	app.logger.Info("console starting", "api", app.cfg.APIBaseURL, "version", BuildVersion)

	if err := app.router.Navigate("/", nav.Options{}); err != nil {
		return fmt.Errorf("initial navigation failed: %w", err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	sig := <-shutdown
	app.logger.Info("shutdown signal received", "signal", sig)

	return app.Shutdown()
}

// Shutdown stops the history guard and releases the credential store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down console...")

	app.guard.Stop()

	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing credential store", "error", err)
		return err
	}

	app.logger.Info("console stopped")
	return nil
}

// Store exposes the credential store for commands.
func (app *Application) Store() credstore.Store { return app.store }

// Sessions exposes the session evaluator for commands.
func (app *Application) Sessions() *session.Evaluator { return app.sessions }

// Controller exposes the session controller for commands.
func (app *Application) Controller() *session.Controller { return app.controller }

// Router exposes the navigation layer for commands.
func (app *Application) Router() *nav.Router { return app.router }

// API exposes the backend client for commands.
func (app *Application) API() *api.Client { return app.client }

func (app *Application) initStore() error {
	switch app.cfg.StoreDriver {
	case "memory":
		app.store = memory.New()
	case "bolt":
		store, err := boltstore.NewStore(app.cfg.StorePath)
		if err != nil {
			return fmt.Errorf("failed to open credential store: %w", err)
		}
		app.store = store
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.StorePath)
		store, err := sqlitestore.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to open credential store: %w", err)
		}
		if err := store.ApplyMigrations(); err != nil {
			return fmt.Errorf("failed to migrate credential store: %w", err)
		}
		app.store = store
	default:
		return fmt.Errorf("unknown store driver %q", app.cfg.StoreDriver)
	}
	return nil
}

func (app *Application) initNavigation() {
	app.router = nav.NewRouter(app.logger)

	app.router.Register(
		nav.Route{Path: "/", Protected: true},
		nav.Route{Path: "/clientes", Protected: true},
		nav.Route{Path: "/equipos", Protected: true},
		nav.Route{Path: "/prestamos", Protected: true},
		nav.Route{Path: "/evaluaciones", Protected: true},
		nav.Route{Path: "/usuarios", Protected: true},
		nav.Route{Path: "/reportes", Protected: true},
		nav.Route{Path: "/perfil", Protected: true},
		nav.Route{Path: "/auth"},
		nav.Route{Path: "/notfound"},
		nav.Route{Path: "/landing"},
	)

	routeGuard := &guard.Guard{
		Sessions: app.sessions,
		LoginURL: app.cfg.LoginURL,
		Logger:   app.logger,
	}
	app.router.Guard(routeGuard.CanActivate)
}
