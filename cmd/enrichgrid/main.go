package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/evanschultz/enrichgrid/internal/adapters/storage/memory"
	"github.com/evanschultz/enrichgrid/internal/adapters/storage/sqlite"
	"github.com/evanschultz/enrichgrid/internal/app"
	"github.com/evanschultz/enrichgrid/internal/config"
	"github.com/evanschultz/enrichgrid/internal/domain"
	"github.com/evanschultz/enrichgrid/internal/grid"
	"github.com/evanschultz/enrichgrid/internal/platform"
	"github.com/evanschultz/enrichgrid/internal/sample"
	"github.com/evanschultz/enrichgrid/internal/tui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// version is stamped at build time.
var version = "dev"

// errImportNeedsStore rejects imports that would land in a throwaway store.
var errImportNeedsStore = errors.New("import needs a persistent store: pass --db or --backend sqlite")

// program is the part of tea.Program the CLI drives.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program; tests replace it.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes the command tree with the given arguments and writers.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	backend    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{
		appName: platform.DefaultAppName,
		devMode: version == "dev",
	}
	if envApp := strings.TrimSpace(os.Getenv("ENRICHGRID_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}
	if envDev, ok := parseBoolEnv("ENRICHGRID_DEV_MODE"); ok {
		opts.devMode = envDev
	}

	root := &cobra.Command{
		Use:   "enrichgrid",
		Short: "Browse and create enrichment records in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database (implies --backend sqlite)")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")
	flags.StringVar(&opts.backend, "backend", "", "storage backend: memory or sqlite")

	root.AddCommand(
		newPathsCommand(opts),
		newListCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
	)
	return root
}

// runtimeEnv is everything one command needs after config resolution.
type runtimeEnv struct {
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
	svc        *app.Service
	closeRepo  func() error
}

// resolvePaths applies flag and environment overrides to the platform paths.
func resolvePaths(opts *rootOptions) (platform.Paths, string, string, bool, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
	if err != nil {
		return platform.Paths{}, "", "", false, err
	}
	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		configPath = strings.TrimSpace(os.Getenv("ENRICHGRID_CONFIG"))
	}
	if configPath == "" {
		configPath = paths.ConfigPath
	}
	dbPath := strings.TrimSpace(opts.dbPath)
	if dbPath == "" {
		dbPath = strings.TrimSpace(os.Getenv("ENRICHGRID_DB_PATH"))
	}
	dbOverridden := dbPath != ""
	if !dbOverridden {
		dbPath = paths.DBPath
	}
	return paths, configPath, dbPath, dbOverridden, nil
}

// openRuntime loads config, starts logging, opens storage and seeds the service.
func openRuntime(ctx context.Context, cmd *cobra.Command, opts *rootOptions, command string) (*runtimeEnv, error) {
	paths, configPath, dbPath, dbOverridden, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
		if strings.TrimSpace(opts.backend) == "" {
			cfg.Storage.Backend = config.BackendSQLite
		}
	}
	if backend := strings.TrimSpace(opts.backend); backend != "" {
		cfg.Storage.Backend = config.Backend(strings.ToLower(backend))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if command == "import" && cfg.Storage.Backend == config.BackendMemory {
		return nil, errImportNeedsStore
	}

	logger, err := newRuntimeLogger(cmd.ErrOrStderr(), opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		logger.MuteConsole(true)
	}
	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	repo, closeRepo, err := openRepository(cfg, logger)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	env := &runtimeEnv{
		paths:      paths,
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
		closeRepo:  closeRepo,
	}

	latency, err := cfg.Grid.SaveLatencyDuration()
	if err != nil {
		env.Close()
		return nil, err
	}
	env.svc = app.NewService(repo, uuid.NewString, time.Now, app.ServiceConfig{
		SaveLatency:     latency,
		TimestampLayout: cfg.Grid.TimestampLayout,
	})
	if err := env.svc.Seed(ctx, sample.Records(), sample.Stats()); err != nil {
		logger.Error("seed failed", "err", err)
		env.Close()
		return nil, fmt.Errorf("seed records: %w", err)
	}
	logger.Debug("application service initialized", "save_latency", latency, "backend", cfg.Storage.Backend)
	return env, nil
}

// openRepository opens the configured backend.
func openRepository(cfg config.Config, logger *runtimeLogger) (app.Repository, func() error, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
		repo, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
			return nil, nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")
		return repo, repo.Close, nil
	default:
		logger.Info("using in-memory repository")
		return memory.New(), func() error { return nil }, nil
	}
}

// Close releases storage and the dev log sink.
func (e *runtimeEnv) Close() {
	if e == nil {
		return
	}
	if e.closeRepo != nil {
		if err := e.closeRepo(); err != nil {
			e.logger.Warn("repository close failed", "err", err)
		}
	}
	_ = e.logger.Close()
}

// runTUI starts the interactive grid.
func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	env, err := openRuntime(cmd.Context(), cmd, opts, "tui")
	if err != nil {
		return err
	}
	defer env.Close()

	m := tui.NewModel(
		env.svc,
		tui.WithGridConfig(toTUIGridConfig(env.cfg.Grid)),
		tui.WithKeyConfig(toTUIKeyConfig(env.cfg.Keys)),
	)
	env.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		env.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	env.logger.Info("command flow complete", "command", "tui")
	return nil
}

func toTUIGridConfig(cfg config.GridConfig) tui.GridConfig {
	out := tui.DefaultGridConfig()
	if title := strings.TrimSpace(cfg.Title); title != "" {
		out.Title = title
	}
	if icon, err := domain.ParseIcon(cfg.DefaultIcon); err == nil {
		out.DefaultIcon = icon
	}
	if strings.EqualFold(strings.TrimSpace(cfg.ViewMode), string(grid.ViewGrid)) {
		out.ViewMode = grid.ViewGrid
	} else {
		out.ViewMode = grid.ViewTable
	}
	out.SidebarOpen = cfg.SidebarOpen
	out.AutoSave = cfg.AutoSave
	out.ConfirmDelete = cfg.ConfirmDelete
	return out
}

func toTUIKeyConfig(cfg config.KeyConfig) tui.KeyConfig {
	return tui.KeyConfig{
		NewRecord:      cfg.NewRecord,
		ToggleSelect:   cfg.ToggleSelect,
		OpenDetail:     cfg.OpenDetail,
		CopyAction:     cfg.CopyAction,
		DeleteSelected: cfg.DeleteSelected,
		ActivityLog:    cfg.ActivityLog,
	}
}

// parseBoolEnv reads a boolean environment variable; ok is false when unset or invalid.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
