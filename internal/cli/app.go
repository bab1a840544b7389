// Package cli builds the nova command tree on top of the stores and flows.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"nova-client/internal/backend"
	"nova-client/internal/common/auth"
	"nova-client/internal/common/config"
	"nova-client/internal/common/database"
	commonhttp "nova-client/internal/common/http"
	"nova-client/internal/common/logger"
	"nova-client/internal/common/observability"
	"nova-client/internal/flows/financing"
	"nova-client/internal/flows/signing"
	"nova-client/internal/models"
	"nova-client/internal/stores/notifications"
	"nova-client/internal/stores/session"
)

// SessionExpiredMessage is printed when a token refresh fails mid-command.
const SessionExpiredMessage = "session expired, run 'nova login'"

// redisSessionTTL bounds how long a shared session survives without use.
const redisSessionTTL = 7 * 24 * time.Hour

// App holds everything a command needs. It is built once per invocation.
type App struct {
	Config *config.Config
	Log    logger.Logger
	Out    io.Writer
	Err    io.Writer
	JSON   bool

	Tokens        auth.TokenStore
	Client        *commonhttp.Client
	API           *backend.API
	Session       *session.Store
	Notifications *notifications.Store
	Financing     *financing.Coordinator
	Signing       *signing.Flow
	Obs           *observability.Observability
	Notifier      *Notifier

	closers []func() error
}

// Options lets callers (and tests) replace pieces of the wiring.
type Options struct {
	Config *config.Config
	Tokens auth.TokenStore
	Out    io.Writer
	Err    io.Writer
}

func newApp(ctx context.Context, cfg *config.Config, opts Options, profile string, jsonOut bool) (*App, error) {
	a := &App{
		Config: cfg,
		Out:    opts.Out,
		Err:    opts.Err,
		JSON:   jsonOut,
		Log:    logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output),
	}
	a.Notifier = NewNotifier(a.Out, a.Err)

	tokens, err := a.tokenStore(ctx, opts.Tokens, profile)
	if err != nil {
		return nil, err
	}
	a.Tokens = tokens

	a.Obs = observability.NewNoop()
	if cfg.Metrics.Enabled {
		obs, err := observability.New(cfg.App.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to initialise metrics: %w", err)
		}
		a.Obs = obs
		a.closers = append(a.closers, func() error { obs.Shutdown(); return nil })
	}

	timeout := cfg.API.Timeout()
	a.Client = commonhttp.NewClient(
		cfg.API.BaseURL,
		timeout,
		tokens,
		auth.NewRefresher(cfg.API.BaseURL, timeout),
		a.Log,
		commonhttp.WithSessionExpiredHandler(func() {
			fmt.Fprintln(a.Err, SessionExpiredMessage)
		}),
	)
	a.API = backend.New(a.Client)

	a.Session = session.NewStore(a.API, tokens, a.Log)
	a.Notifications = notifications.NewStore(a.API, a.Log)
	a.Financing = financing.NewCoordinator(a.API, cfg.Financing, cfg.App, a.Notifier, a.Log, a.Obs)
	a.Signing = signing.NewFlow(a.API, a.Notifier, a.Log, a.Obs)
	return a, nil
}

func (a *App) tokenStore(ctx context.Context, injected auth.TokenStore, profile string) (auth.TokenStore, error) {
	if injected != nil {
		return injected, nil
	}
	switch a.Config.Session.Store {
	case "memory":
		return auth.NewMemoryStore(models.TokenPair{}), nil
	case "redis":
		rdb, err := database.NewRedis(ctx, a.Config.Session.Redis)
		if err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		return auth.NewRedisStore(rdb.Client, a.Config.Session.KeyPrefix, profile, redisSessionTTL), nil
	}
	return auth.NewFileStore(a.Config.Session.FilePath), nil
}

// Close releases whatever the app opened.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn("cleanup failed", map[string]interface{}{"error": err})
		}
	}
}

// RequireUser loads the current user and fails when nobody is signed in.
func (a *App) RequireUser(ctx context.Context) (*session.State, error) {
	a.Session.FetchUser(ctx)
	st := a.Session.Snapshot()
	if !st.IsAuthenticated {
		return nil, reported(fmt.Errorf("not signed in, run 'nova login'"), a.Err)
	}
	return &st, nil
}
