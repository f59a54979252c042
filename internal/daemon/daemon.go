package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"reelsync/internal/config"
	"reelsync/internal/library"
	"reelsync/internal/logging"
	"reelsync/internal/sources/simkl"
	"reelsync/internal/syncer"
)

// Daemon coordinates the background sync service and the HTTP API, and
// enforces single-instance execution through a file lock.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *library.Store
	sync       *syncer.Service
	tokenStore simkl.TokenStore
	auth       *simkl.Authenticator

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	Syncing       bool
	LibraryDBPath string
	LockFilePath  string
	APIBind       string
}

// New constructs a daemon with initialized dependencies.
func New(
	cfg *config.Config,
	store *library.Store,
	sync *syncer.Service,
	tokenStore simkl.TokenStore,
	auth *simkl.Authenticator,
	logger *slog.Logger,
) (*Daemon, error) {
	if cfg == nil || store == nil || sync == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, sync service, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "reelsync.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      store,
		sync:       sync,
		tokenStore: tokenStore,
		auth:       auth,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock and launches the sync loop and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelsync daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.sync.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start sync service: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		d.sync.Stop()
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("reelsync daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.sync.Stop()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("reelsync daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound API address once the daemon is started.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:       d.running.Load(),
		Syncing:       d.sync.IsSyncing(),
		LibraryDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
		APIBind:       d.APIAddr(),
	}
}
