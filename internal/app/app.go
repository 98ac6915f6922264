// Package app wires all stagecue subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject doubles via functional options (WithStore, WithHub,
// etc.). When an option is not provided, New creates real implementations
// from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stagecue/stagecue/internal/character"
	"github.com/stagecue/stagecue/internal/config"
	"github.com/stagecue/stagecue/internal/feed"
	"github.com/stagecue/stagecue/internal/gesture"
	"github.com/stagecue/stagecue/internal/health"
	"github.com/stagecue/stagecue/internal/observe"
	"github.com/stagecue/stagecue/internal/performer"
	"github.com/stagecue/stagecue/internal/resilience"
	"github.com/stagecue/stagecue/internal/scene"
	"github.com/stagecue/stagecue/internal/temperament"
	"github.com/stagecue/stagecue/pkg/provider/llm"
)

// Providers holds one interface value per provider slot. Populated by main.go
// via the config registry. Fallback may be nil.
type Providers struct {
	LLM      llm.Provider
	Fallback llm.Provider
}

// App owns all subsystem lifetimes and serves the stagecue HTTP surface.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems — initialised in New, torn down in Shutdown.
	store    character.Store
	gestures *gesture.Catalog
	temps    *temperament.Catalog
	perf     *performer.Performer
	stage    *scene.Scene
	hub      *feed.Hub
	httpSrv  *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a character store instead of creating one from config.
func WithStore(s character.Store) Option {
	return func(a *App) { a.store = s }
}

// WithHub injects a feed hub instead of creating one from config.
func WithHub(h *feed.Hub) Option {
	return func(a *App) { a.hub = h }
}

// WithGestures injects a gesture catalog. Default: [gesture.Builtin].
func WithGestures(c *gesture.Catalog) Option {
	return func(a *App) { a.gestures = c }
}

// WithTemperaments injects a temperament catalog. Default: [temperament.Builtin].
func WithTemperaments(c *temperament.Catalog) Option {
	return func(a *App) { a.temps = c }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry).
//
// New performs all initialisation synchronously: store connection, character
// pack import, performer construction, and scene bootstrap.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.LLM == nil {
		return nil, errors.New("app: an LLM provider is required")
	}

	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	if err := a.initCatalogs(); err != nil {
		return nil, fmt.Errorf("app: init catalogs: %w", err)
	}

	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	if err := a.importPacks(ctx); err != nil {
		return nil, fmt.Errorf("app: import packs: %w", err)
	}

	if a.hub == nil {
		a.hub = feed.NewHub(
			feed.WithWriteTimeout(time.Duration(cfg.Feed.WriteTimeoutSeconds) * time.Second),
		)
	}
	a.closers = append(a.closers, func() error {
		a.hub.Close()
		return nil
	})

	if err := a.initPerformer(); err != nil {
		return nil, fmt.Errorf("app: init performer: %w", err)
	}

	if err := a.initScene(ctx); err != nil {
		return nil, fmt.Errorf("app: init scene: %w", err)
	}

	a.httpSrv = &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: a.routes(),
	}

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initCatalogs resolves the gesture and temperament catalogs: injected ones
// win, then configured extension files, then the built-in tables.
func (a *App) initCatalogs() error {
	if a.gestures == nil {
		if path := a.cfg.Catalogs.Gestures; path != "" {
			c, err := gesture.LoadFile(path)
			if err != nil {
				return err
			}
			a.gestures = c
			slog.Info("loaded gesture catalog extension", "path", path, "gestures", c.Len())
		} else {
			a.gestures = gesture.Builtin()
		}
	}
	if a.temps == nil {
		if path := a.cfg.Catalogs.Temperaments; path != "" {
			c, err := temperament.LoadFile(path)
			if err != nil {
				return err
			}
			a.temps = c
			slog.Info("loaded temperament catalog extension", "path", path, "temperaments", len(c.IDs()))
		} else {
			a.temps = temperament.Builtin()
		}
	}
	return nil
}

// initStore connects the character store: PostgreSQL when a DSN is
// configured, otherwise an in-memory store populated from packs.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil // injected
	}

	dsn := a.cfg.Store.PostgresDSN
	if dsn == "" {
		a.store = character.NewMemStore()
		slog.Info("using in-memory character store")
		return nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	store := character.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("migrate character store: %w", err)
	}

	a.store = store
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})
	slog.Info("connected postgres character store")
	return nil
}

// importPacks loads every configured character pack into the store.
func (a *App) importPacks(ctx context.Context) error {
	for _, path := range a.cfg.Packs {
		pack, err := character.LoadPackFile(path)
		if err != nil {
			return fmt.Errorf("load pack %q: %w", path, err)
		}
		n, err := character.ImportPack(ctx, a.store, a.temps, pack)
		if err != nil {
			return fmt.Errorf("import pack %q: %w", path, err)
		}
		slog.Info("imported character pack", "path", path, "characters", n)
	}
	return nil
}

// initPerformer builds the turn pipeline, wrapping the primary provider in a
// fallback chain when a secondary is configured.
func (a *App) initPerformer() error {
	provider := a.providers.LLM
	providerName := a.cfg.Providers.LLM.Name
	if providerName == "" {
		providerName = "llm"
	}

	if a.providers.Fallback != nil {
		chain := resilience.NewLLMFallback(provider, providerName, llmFallbackConfig())
		chain.AddFallback(a.cfg.Providers.Fallback.Name, a.providers.Fallback)
		provider = chain
		slog.Info("llm fallback chain enabled",
			"primary", providerName, "fallback", a.cfg.Providers.Fallback.Name)
	}

	perf, err := performer.New(provider,
		performer.WithProviderName(providerName),
		performer.WithGestures(a.gestures),
		performer.WithTemperaments(a.temps),
	)
	if err != nil {
		return err
	}
	a.perf = perf
	return nil
}

// llmFallbackConfig builds the fallback-chain breaker config. Every breaker
// transition is logged: an opening breaker is the operational signal that a
// backend is failing turns.
func llmFallbackConfig() resilience.FallbackConfig {
	return resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			OnStateChange: func(name string, from, to resilience.State) {
				level := slog.LevelWarn
				if to == resilience.StateClosed {
					level = slog.LevelInfo
				}
				slog.Log(context.Background(), level, "llm backend breaker state changed",
					"backend", name, "from", from.String(), "to", to.String())
			},
		},
	}
}

// initScene creates the scene and seats every stored character in it, up to
// the configured member limit.
func (a *App) initScene(ctx context.Context) error {
	st, err := scene.New(a.perf,
		scene.WithMaxMembers(a.cfg.Scene.MaxMembers),
		scene.WithHistoryDepth(a.cfg.Scene.HistoryDepth),
		scene.WithSink(a.hub.Broadcast),
	)
	if err != nil {
		return err
	}
	a.stage = st
	a.closers = append(a.closers, func() error {
		st.Close()
		return nil
	})

	defs, err := a.store.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list characters: %w", err)
	}
	for i := range defs {
		def := &defs[i]
		if err := st.AddMember(def); err != nil {
			if errors.Is(err, scene.ErrSceneFull) {
				slog.Warn("scene full, remaining characters stay offstage",
					"seated", len(st.Members()), "total", len(defs))
				break
			}
			return fmt.Errorf("seat character %q: %w", def.ID, err)
		}
		slog.Info("seated character", "id", def.ID, "name", def.Name)
	}
	return nil
}

// Scene returns the running scene. Exposed for command handlers and tests.
func (a *App) Scene() *scene.Scene { return a.stage }

// ReloadPacks re-imports the given character packs into the store. Existing
// definitions are upserted. Characters already seated keep the definition
// they were seated with; reseat them to pick up changes.
func (a *App) ReloadPacks(ctx context.Context, packs []string) error {
	for _, path := range packs {
		pack, err := character.LoadPackFile(path)
		if err != nil {
			return fmt.Errorf("app: reload pack %q: %w", path, err)
		}
		n, err := character.ImportPack(ctx, a.store, a.temps, pack)
		if err != nil {
			return fmt.Errorf("app: reimport pack %q: %w", path, err)
		}
		slog.Info("reloaded character pack", "path", path, "characters", n)
	}
	return nil
}

// routes assembles the HTTP surface: health probes, Prometheus metrics, the
// renderer feed, and the speak/cue API. All routes pass through the request
// metrics middleware.
func (a *App) routes() http.Handler {
	mux := http.NewServeMux()

	h := health.New(
		health.StoreCheck(a.store),
		health.ProviderCheck("llm", a.providers.LLM),
	)
	h.Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /feed", a.hub)
	a.registerAPI(mux)

	return observe.Middleware(observe.DefaultMetrics())(mux)
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP until ctx is cancelled, then returns the context error.
// TLS is enabled when the server config carries certificate paths.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.httpSrv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.Info("app running",
		"listen_addr", a.cfg.Server.ListenAddr,
		"characters", len(a.stage.Members()),
	)

	select {
	case err := <-errCh:
		return fmt.Errorf("app: serve: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown stops the HTTP server and tears down all subsystems in order. It
// respects the context deadline: if ctx expires before all closers finish,
// remaining closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if a.httpSrv != nil {
			if err := a.httpSrv.Shutdown(ctx); err != nil {
				slog.Warn("http shutdown error", "err", err)
			}
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
