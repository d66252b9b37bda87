// Package daemon ties the pieces of the media server together: it enforces
// single-instance execution with a file lock, owns the store, and runs the
// HTTP API for its lifetime.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/config"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/ebook"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/ingest"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/library"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/logging"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/server"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/storage"
)

// Daemon coordinates the library services and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *library.Store
	api    *server.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon from configuration. Object storage is optional:
// when storage.base_url is unset, uploads are disabled but everything else
// works.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}

	store, err := library.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open library store: %w", err)
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		lockPath: filepath.Join(cfg.Paths.DataDir, "mstashd.lock"),
	}
	d.lock = flock.New(d.lockPath)

	objects, err := storage.NewClient(cfg)
	if err != nil {
		d.logger.Info("object storage disabled", logging.Error(err))
		objects = nil
	}

	api, err := server.New(cfg, server.Options{
		Store:   store,
		Ebooks:  ebook.NewService(cfg, store, logger),
		Ingest:  ingest.NewService(store, logger),
		Objects: objects,
		Status:  d,
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the instance lock and brings the API server up. The server
// shuts down when ctx is cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mstash daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("mstash daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.Addr()))
	return nil
}

// Stop shuts the API server down and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("mstash daemon stopped")
}

// Close stops the daemon and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the API server's bound address once started.
func (d *Daemon) Addr() string {
	return d.api.Addr()
}

// Status implements server.StatusProvider.
func (d *Daemon) Status(ctx context.Context) server.Status {
	return server.Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
