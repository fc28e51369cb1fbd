package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/courier/internal/bridge"
	"github.com/five82/courier/internal/config"
	"github.com/five82/courier/internal/history"
	"github.com/five82/courier/internal/httpapi"
	"github.com/five82/courier/internal/logging"
	"github.com/five82/courier/internal/order"
	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/remote"
	"github.com/five82/courier/internal/remote/dynamo"
	"github.com/five82/courier/internal/remote/postgres"
	"github.com/five82/courier/internal/remote/rtdb"
	"github.com/five82/courier/internal/state"
	"github.com/five82/courier/internal/tracker"
	"github.com/five82/courier/internal/ui"
)

// Options configure the courier application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/courier/prefs.toml

	// Headless runs without the terminal board: sync, the HTTP surface and
	// the expiry sweeper only.
	Headless bool
}

// Run boots courier until the board quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := logging.New(cfg.DataDir, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeLog()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Error("open remote store", zap.String("backend", cfg.Backend), zap.Error(err))
		return err
	}
	defer func() { _ = backend.Close() }()

	logger.Info("courier starting",
		zap.String("backend", cfg.Backend),
		zap.String("data_dir", cfg.DataDir),
		zap.String("http_bind", cfg.HTTPBind),
		zap.Bool("headless", opts.Headless),
	)

	store := &state.Store{}
	mirror := history.NewMirror(cfg.DataDir)
	if entries, err := mirror.Load(); err != nil {
		logger.Warn("load history mirror", zap.String("path", mirror.Path()), zap.Error(err))
	} else {
		store.SetHistory(entries)
		if err := restoreHistory(ctx, backend, entries); err != nil {
			logger.Warn("restore history into memory store", zap.Error(err))
		}
	}

	var tr *tracker.Tracker
	br := bridge.New(backend, func(err error) { tr.ApplyError(err) })
	tr = tracker.New(tracker.Options{
		Store:  store,
		Sync:   br,
		Mirror: mirror,
		Logger: logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return br.Subscribe(gctx, tr.ApplyOrders, tr.ApplyHistory)
	})

	if cfg.HTTPBind != "" {
		g.Go(func() error {
			router := httpapi.NewRouter(httpapi.Options{Source: tr, Logger: logger})
			return httpapi.Serve(gctx, cfg.HTTPBind, router, logger)
		})
	}

	g.Go(func() error {
		// The board or the sweeper owns the process lifetime.
		defer cancel()
		if opts.Headless {
			return RunSweeper(gctx, tr, defaultSweepInterval, logger)
		}
		userPrefs, _ := prefs.Load(opts.PrefsPath)
		return ui.Run(ui.Options{
			Context:   gctx,
			Tracker:   tr,
			Config:    &cfg,
			ThemeName: userPrefs.Theme,
			PrefsPath: opts.PrefsPath,
			Logger:    logger,
			Location:  userPrefs.Location(),
			Attach:    func(p ui.Presenter) { tr.SetPresenter(p) },
		})
	})

	err = g.Wait()
	if isShutdown(err) {
		logger.Info("courier stopped")
		return nil
	}
	logger.Error("courier stopped", zap.Error(err))
	return err
}

// restoreHistory seeds the in-process store with the mirrored history. The
// memory backend starts empty on every run, and its first history callback
// would otherwise overwrite the mirror with nothing.
func restoreHistory(ctx context.Context, backend remote.Backend, entries []order.HistoryEntry) error {
	mem, ok := backend.(*remote.Memory)
	if !ok || len(entries) == 0 {
		return nil
	}
	doc, err := history.Encode(entries)
	if err != nil {
		return err
	}
	return mem.Set(ctx, remote.CollectionHistory, doc)
}

// openBackend builds the remote store named by cfg.Backend.
func openBackend(ctx context.Context, cfg config.Config) (remote.Backend, error) {
	switch cfg.Backend {
	case config.BackendRTDB:
		return rtdb.NewClient(cfg.DatabaseURL, cfg.AuthToken)
	case config.BackendPostgres:
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return postgres.Open(openCtx, cfg.PostgresDSN)
	case config.BackendDynamoDB:
		return dynamo.Open(ctx, cfg.DynamoDBTable, cfg.AWSRegion, cfg.PollInterval)
	case config.BackendMemory, "":
		return remote.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func isShutdown(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, tea.ErrProgramKilled)
}
