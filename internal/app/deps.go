package app

import (
	"fmt"
	"log/slog"

	"github.com/kickstart/client/internal/api"
	"github.com/kickstart/client/internal/auth"
	"github.com/kickstart/client/internal/config"
	"github.com/kickstart/client/internal/connectivity"
	"github.com/kickstart/client/internal/models"
	"github.com/kickstart/client/internal/notify"
	"github.com/kickstart/client/internal/store"
	"github.com/kickstart/client/internal/theme"
)

// Deps bundles the client engine for the command layer.
type Deps struct {
	Config config.Config
	Logger *slog.Logger
	Store  *store.Store
	Auth   *auth.Manager
	API    *api.Client
	Notify *notify.Store
	Theme  *theme.Store
}

// buildDeps assembles the engine and completes rehydration. Nothing may
// route on authentication state before this returns: commands only run
// against a fully rehydrated session.
func buildDeps(cfg config.Config, logger *slog.Logger) (*Deps, error) {
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	manager := auth.NewManager(st, logger)

	checker, err := connectivity.NewProbe(cfg.APIBaseURL)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("configure connectivity probe: %w", err)
	}

	client, err := api.New(api.Options{
		BaseURL:           cfg.APIBaseURL,
		Timeout:           cfg.RequestTimeout,
		Credentials:       manager,
		Checker:           checker,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.RequestBurst,
		Logger:            logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	themes := theme.NewStore(st)

	if err := manager.Rehydrate(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("rehydrate session: %w", err)
	}
	if err := themes.Rehydrate(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("rehydrate theme: %w", err)
	}

	return &Deps{
		Config: cfg,
		Logger: logger,
		Store:  st,
		Auth:   manager,
		API:    client,
		Notify: notify.NewStore(client, logger),
		Theme:  themes,
	}, nil
}

// Close releases the engine's resources.
func (d *Deps) Close() {
	if d == nil || d.Store == nil {
		return
	}
	_ = d.Store.Close()
}

// RequireSession returns the live session or a friendly instruction to log
// in first.
func (d *Deps) RequireSession() (models.Session, error) {
	session, err := d.Auth.Session()
	if err != nil {
		return models.Session{}, fmt.Errorf("not logged in; run `kickstart login` first")
	}
	return session, nil
}
