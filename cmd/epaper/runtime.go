package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nhle/epaper/internal/app"
	"github.com/nhle/epaper/internal/archive"
	"github.com/nhle/epaper/internal/backend"
	"github.com/nhle/epaper/internal/catalog"
	"github.com/nhle/epaper/internal/credential"
	"github.com/nhle/epaper/internal/listing"
	"github.com/nhle/epaper/internal/mailer"
	"github.com/nhle/epaper/internal/model"
	"github.com/nhle/epaper/internal/preview"
	"github.com/nhle/epaper/internal/store"
	"github.com/nhle/epaper/internal/theme"
)

// staleHandleAge is how long a kept preview file survives before startup
// prunes it.
const staleHandleAge = 24 * time.Hour

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	baseURL    string
	logLevel   string
	logFile    string
}

func registerGlobalFlags(cmd *cobra.Command, opts *globalOptions) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", model.DefaultConfigPath(), "Path to the YAML configuration file")
	flags.StringVar(&opts.baseURL, "base-url", "", "Backend root URL (overrides backend.base_url)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Logging level: debug, info, warn, error")
	flags.StringVar(&opts.logFile, "log-file", "", "Log file path (overrides log.file)")
}

// runtime holds the services built from configuration.
type runtime struct {
	cfg     *model.AppConfig
	logger  *slog.Logger
	client  *backend.Client
	store   *store.SQLiteStore
	handles *preview.HandleStore

	cleanup []func() error
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(opts *globalOptions) (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.baseURL != "" {
		cfg.Backend.BaseURL = opts.baseURL
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFile != "" {
		cfg.Log.File = opts.logFile
	}
	return cfg, nil
}

// newRuntime builds the logger, backend client, history store, and handle
// store. The TUI logs only to the file; other commands also log to stderr.
func newRuntime(opts *globalOptions, tui bool) (*runtime, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	theme.Apply(cfg.Display.Theme)

	rt := &runtime{cfg: cfg}

	logger, closeLog, err := setupLogger(cfg.Log, tui)
	if err != nil {
		return nil, fmt.Errorf("setting up logger: %w", err)
	}
	rt.cleanup = append(rt.cleanup, closeLog)
	rt.logger = logger
	slog.SetDefault(logger)

	token, err := loadToken()
	if err != nil {
		logger.Warn("reading backend token", "err", err)
	}
	rt.client = backend.NewClient(
		cfg.Backend.BaseURL,
		token,
		time.Duration(cfg.Backend.TimeoutSec)*time.Second,
	)

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
		rt.Close()
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	s, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.store = s
	rt.cleanup = append(rt.cleanup, s.Close)

	rt.handles = preview.NewHandleStore(afero.NewOsFs(), cfg.Storage.DocumentDir)
	if n, err := rt.handles.PruneStale(staleHandleAge); err != nil {
		logger.Warn("pruning stale previews", "dir", cfg.Storage.DocumentDir, "err", err)
	} else if n > 0 {
		logger.Debug("pruned stale previews", "count", n)
	}

	return rt, nil
}

// loadToken reads the bearer token from the environment or keyring. A
// keyring that cannot be opened is not fatal as long as EPAPER_TOKEN is
// usable.
func loadToken() (string, error) {
	vault, openErr := credential.Open()
	tok, err := vault.Token()
	if err != nil {
		return "", err
	}
	if tok == "" && openErr != nil {
		return "", openErr
	}
	return tok, nil
}

func (rt *runtime) newDispatcher() *mailer.Dispatcher {
	d := mailer.New(rt.client, rt.cfg.Mail.From, rt.store, rt.logger)
	if !rt.cfg.Archive.Enabled {
		return d
	}

	archiver, err := rt.newArchiver()
	if err != nil {
		rt.logger.Warn("sent-mail archive disabled", "err", err)
		return d
	}
	return d.WithArchiver(archiver)
}

func (rt *runtime) newArchiver() (*archive.IMAPArchiver, error) {
	cfg := rt.cfg.Archive

	vault, openErr := credential.Open()
	password, err := vault.ArchivePassword()
	if err != nil {
		return nil, err
	}
	if password == "" && openErr != nil {
		return nil, openErr
	}

	return archive.NewIMAPArchiver(archive.Options{
		Host:               cfg.Host,
		Port:               cfg.Port,
		Username:           cfg.Username,
		Password:           password,
		UseTLS:             cfg.UseTLS,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Folder:             cfg.Folder,
	}, rt.logger)
}

func (rt *runtime) newPreviews() *preview.Controller {
	return preview.NewController(rt.client, rt.handles, rt.logger)
}

// appDeps wires the interactive components.
func (rt *runtime) appDeps() app.Deps {
	window := time.Duration(rt.cfg.Listing.DebounceMS) * time.Millisecond
	files := listing.New(rt.client, window, rt.logger)

	browser.Stdout = io.Discard
	browser.Stderr = io.Discard

	return app.Deps{
		BaseURL:    rt.client.BaseURL(),
		Catalog:    catalog.New(rt.client, files, rt.logger),
		Listing:    files,
		Previews:   rt.newPreviews(),
		Dispatcher: rt.newDispatcher(),
		Opener:     browser.OpenFile,
		Logger:     rt.logger,
	}
}

// Close releases everything the runtime opened, in reverse order.
func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.cleanup) - 1; i >= 0; i-- {
		if err := rt.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.cleanup = nil
	return errors.Join(errs...)
}

func setupLogger(cfg model.LogConfig, fileOnly bool) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch strings.ToLower(cfg.Level) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, cleanup, err
		}

		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = file.Close

		var w io.Writer = file
		if !fileOnly {
			w = io.MultiWriter(os.Stderr, file)
		}
		return slog.New(slog.NewTextHandler(w, opts)), cleanup, nil
	}

	if fileOnly {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), cleanup, nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), cleanup, nil
}
