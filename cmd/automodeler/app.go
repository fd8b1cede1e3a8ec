package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	automodeler "github.com/jdziat/automodeler-go"
	"github.com/jdziat/automodeler-go/internal/config"
	"github.com/jdziat/automodeler-go/internal/prompt"
	"github.com/jdziat/automodeler-go/pkg/carrier"
	"github.com/jdziat/automodeler-go/wizard"
)

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	store   carrier.Store
	client  *automodeler.Client
	session *wizard.Session
	ui      *prompt.Prompter
	out     io.Writer

	closers []func() error
}

// newApp builds the client, restores the saved session and opens the state
// store described by cfg.
func newApp(cfg *config.Config, in io.Reader, out io.Writer) (*app, error) {
	a := &app{cfg: cfg, out: out, ui: prompt.New(in, out)}

	log, sink, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	a.log = log
	a.closers = append(a.closers, func() error {
		_ = log.Sync()
		if sink != nil {
			return sink.Close()
		}
		return nil
	})

	store, closeStore, err := openStore(cfg.Store)
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = store
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	client, err := automodeler.New(cfg.BaseURL,
		automodeler.WithTimeout(cfg.Timeout),
		automodeler.WithStructuredLogger(automodeler.NewZapAdapter(log)),
		automodeler.WithUserAgent("automodeler-cli/"+version),
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	a.client = client
	a.closers = append(a.closers, func() error {
		client.Close()
		return nil
	})

	a.session = wizard.NewSession(client, store)
	if _, err := a.session.Restore(); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	log.Debug("cli ready",
		zap.String("base_url", cfg.BaseURL),
		zap.String("store", string(cfg.Store.Backend)),
		zap.String("config", cfg.Path),
	)
	return a, nil
}

// close releases resources in reverse order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

// requireLogin fails with a hint when no session was restored.
func (a *app) requireLogin() error {
	if !a.session.Authenticated() {
		return fmt.Errorf("not logged in; run `automodeler login` first")
	}
	return nil
}

// newLogger builds a zap logger writing JSON lines to a rotated file. An
// empty file name gives a no-op logger and a nil sink.
func newLogger(cfg config.LogConfig) (*zap.Logger, io.Closer, error) {
	if cfg.File == "" {
		return zap.NewNop(), nil, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	sink := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(sink), level)
	return zap.New(core).With(zap.String("component", "cli")), sink, nil
}

// openStore opens the configured state store. The returned close function
// is nil for stores that hold no resources.
func openStore(cfg config.StoreConfig) (carrier.Store, func() error, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return carrier.NewMemoryStore(), nil, nil
	case config.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create state directory: %w", err)
		}
		s, err := carrier.OpenSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreFile, "":
		s, err := carrier.NewFileStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
