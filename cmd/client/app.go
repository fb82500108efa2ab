package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/WardrobeKeeper/internal/client/assistant"
	"github.com/atinyakov/WardrobeKeeper/internal/client/gateway"
	"github.com/atinyakov/WardrobeKeeper/internal/client/storage"
	"github.com/atinyakov/WardrobeKeeper/internal/client/wardrobe"
	"github.com/atinyakov/WardrobeKeeper/internal/db"
	"github.com/atinyakov/WardrobeKeeper/internal/logger"
	"github.com/atinyakov/WardrobeKeeper/internal/repository"
)

// Store drivers selectable with --store.
const (
	driverFile     = "file"
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

type options struct {
	store     string
	data      string
	gateway   string
	gatewayCA string
	model     string
	logLevel  string
}

// app carries everything a command needs. Fields set before open are kept,
// which is how tests inject a backend.
type app struct {
	getenv func(string) string
	opts   options

	log       *zap.Logger
	backend   storage.Backend
	files     *storage.FileBackend
	store     *storage.Store
	wardrobe  *wardrobe.Wardrobe
	gateway   *gateway.Client
	assistant *assistant.Assistant
}

func (a *app) env(key, fallback string) string {
	if a.getenv == nil {
		return fallback
	}
	return cmp.Or(a.getenv(key), fallback)
}

func (a *app) bindFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&a.opts.store, "store", a.env("WARDROBE_STORE", driverFile), "storage driver: file, sqlite, postgres or memory")
	f.StringVar(&a.opts.data, "data", a.env("WARDROBE_DATA", ""), "data directory, sqlite file or postgres DSN")
	f.StringVar(&a.opts.gateway, "gateway", a.env("WARDROBE_GATEWAY", gateway.DefaultBaseURL), "AI gateway proxy base URL")
	f.StringVar(&a.opts.gatewayCA, "gateway-ca", a.env("WARDROBE_GATEWAY_CA", ""), "PEM CA bundle for an HTTPS gateway")
	f.StringVar(&a.opts.model, "model", a.env("WARDROBE_MODEL", ""), "model to request from the gateway")
	f.StringVar(&a.opts.logLevel, "log-level", a.env("WARDROBE_LOG_LEVEL", "warn"), "log level")
}

// open builds the store, the wardrobe and the AI clients once per process.
func (a *app) open(ctx context.Context) error {
	if a.wardrobe != nil {
		return nil
	}
	if a.log == nil {
		l := logger.New()
		if err := l.Init(a.opts.logLevel); err != nil {
			return err
		}
		a.log = l.Log
	}

	if a.backend == nil {
		backend, err := a.openBackend()
		if err != nil {
			return err
		}
		a.backend = backend
	}
	a.store = storage.New(a.backend, a.log)
	a.wardrobe = wardrobe.New(a.store, a.log)
	if a.wardrobe.Migrate(ctx) {
		a.log.Info("migrated wardrobe data")
	}

	hc, err := gateway.NewHTTPClient(a.opts.gatewayCA)
	if err != nil {
		return err
	}
	a.gateway = gateway.New(a.opts.gateway,
		gateway.WithHTTPClient(hc),
		gateway.WithModel(a.opts.model),
		gateway.WithLogger(a.log),
	)
	a.assistant = assistant.New(a.wardrobe, a.gateway, a.gateway, a.log)
	return nil
}

func (a *app) openBackend() (storage.Backend, error) {
	switch a.opts.store {
	case driverFile:
		dir, err := a.dataPath("")
		if err != nil {
			return nil, err
		}
		fb, err := storage.NewFileBackend(dir)
		if err != nil {
			return nil, err
		}
		a.files = fb
		return fb, nil
	case driverSQLite:
		path, err := a.dataPath("wardrobe.db")
		if err != nil {
			return nil, err
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		conn, err := db.InitSQLite(path)
		if err != nil {
			return nil, err
		}
		return repository.NewKVRepository(conn, db.SQLite), nil
	case driverPostgres:
		if a.opts.data == "" {
			return nil, errors.New("--data must hold a postgres DSN")
		}
		conn, err := db.InitPostgres(a.opts.data)
		if err != nil {
			return nil, err
		}
		return repository.NewKVRepository(conn, db.Postgres), nil
	case driverMemory:
		return storage.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", a.opts.store)
	}
}

// dataPath resolves --data, defaulting to the user config directory. name
// is appended to the default directory when non-empty.
func (a *app) dataPath(name string) (string, error) {
	if a.opts.data != "" {
		return a.opts.data, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, "wardrobe", name), nil
}

// close releases the store and everything registered on it. It is safe to
// call more than once.
func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	if a.log != nil {
		_ = a.log.Sync()
	}
	return err
}

func out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
