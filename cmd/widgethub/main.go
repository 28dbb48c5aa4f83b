package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/fang"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	goversion "go.hein.dev/go-version"
	"golang.org/x/sync/errgroup"

	"github.com/evanschultz/widgethub/internal/adapters/server"
	"github.com/evanschultz/widgethub/internal/adapters/server/common"
	"github.com/evanschultz/widgethub/internal/adapters/storage/diskvstore"
	"github.com/evanschultz/widgethub/internal/adapters/storage/sqlite"
	"github.com/evanschultz/widgethub/internal/app"
	"github.com/evanschultz/widgethub/internal/config"
	"github.com/evanschultz/widgethub/internal/domain"
	"github.com/evanschultz/widgethub/internal/platform"
	"github.com/evanschultz/widgethub/internal/tui"
)

// Build metadata, set with -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// closeTimeout bounds the final flush of pending board writes.
const closeTimeout = 5 * time.Second

// commandTUI names the default interactive flow in logs.
const commandTUI = "tui"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner runs the HTTP/MCP server; tests swap it out.
var serveCommandRunner = func(ctx context.Context, cfg server.Config, deps server.Dependencies) error {
	return server.Run(ctx, cfg, deps)
}

// clipboardWriter copies exported documents for `export --clipboard`.
var clipboardWriter = clipboard.WriteAll

// main handles main.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		// fang has already rendered the error.
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	if args == nil {
		args = []string{}
	}

	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version), fang.WithCommit(commit))
}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	backend    string
	appName    string
	devMode    bool

	stdout io.Writer
	stderr io.Writer
}

// newRootCommand builds the command tree. The bare command opens the board TUI.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "widgethub",
		Short: "A three-column widget dashboard for the terminal.",
		Long: "widgethub arranges small widgets in three columns. Turn on edit mode to add,\n" +
			"remove, resize and drag widgets; the layout is saved as you go.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, commandTUI, runTUI)
		},
	}

	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("WIDGETHUB_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	appName := platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("WIDGETHUB_APP_NAME")); envApp != "" {
		appName = envApp
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.backend, "backend", "", "storage backend override (sqlite|diskv)")
	flags.StringVar(&opts.appName, "app", appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	addServe(cmd, opts)
	addExport(cmd, opts)
	addImport(cmd, opts)
	addList(cmd, opts)
	addPaths(cmd, opts)
	addVersion(cmd, opts)
	return cmd
}

func addServe(topLevel *cobra.Command, opts *rootOptions) {
	var httpBind, apiEndpoint, mcpEndpoint string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP and MCP.",
		Example: `
widgethub serve
widgethub serve --http 127.0.0.1:8080
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "serve", func(ctx context.Context, rt *runtimeEnv) error {
				cfg := server.Config{
					HTTPBind:      firstNonEmpty(httpBind, rt.cfg.Server.HTTPBind),
					APIEndpoint:   firstNonEmpty(apiEndpoint, rt.cfg.Server.APIEndpoint),
					MCPEndpoint:   firstNonEmpty(mcpEndpoint, rt.cfg.Server.MCPEndpoint),
					ServerName:    opts.appName,
					ServerVersion: version,
				}
				return runServe(ctx, rt, cfg)
			})
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "listen address (defaults to server.http_bind)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "REST API mount path")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP mount path")
	topLevel.AddCommand(cmd)
}

func addExport(topLevel *cobra.Command, opts *rootOptions) {
	var (
		outPath     string
		toClipboard bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the board as a JSON document.",
		Example: `
widgethub export > board.json
widgethub export -o board.json
widgethub export --clipboard
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// --clipboard alone skips stdout; an explicit --out still writes.
			writeOut := !toClipboard || cmd.Flags().Changed("out")
			return withRuntime(cmd.Context(), opts, "export", func(ctx context.Context, rt *runtimeEnv) error {
				return runExport(ctx, rt.svc, outPath, writeOut, toClipboard, opts.stdout)
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file path ('-' for stdout)")
	cmd.Flags().BoolVar(&toClipboard, "clipboard", false, "copy the document to the system clipboard")
	topLevel.AddCommand(cmd)
}

func addImport(topLevel *cobra.Command, opts *rootOptions) {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the board with a JSON document ('-' reads stdin).",
		Example: `
widgethub import board.json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts, "import", func(ctx context.Context, rt *runtimeEnv) error {
				return runImport(ctx, rt.svc, args[0], cmd.InOrStdin(), opts.stdout)
			})
		},
	}
	topLevel.AddCommand(cmd)
}

func addList(topLevel *cobra.Command, opts *rootOptions) {
	var activity int
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List widgets by column, or recent activity.",
		Example: `
widgethub ls
widgethub ls --activity 20
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "ls", func(ctx context.Context, rt *runtimeEnv) error {
				if activity > 0 {
					events, err := rt.svc.ListActivity(ctx, activity)
					if err != nil {
						return fmt.Errorf("list activity: %w", err)
					}
					return printActivity(opts.stdout, events)
				}
				return printBoard(opts.stdout, rt.svc.Board())
			})
		},
	}
	cmd.Flags().IntVar(&activity, "activity", 0, "show the newest N activity entries instead of widgets")
	topLevel.AddCommand(cmd)
}

func addPaths(topLevel *cobra.Command, opts *rootOptions) {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data locations.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := opts.resolvePaths()
			if err != nil {
				return err
			}
			dbPath, _ := opts.resolveDBPath(paths)
			out := opts.stdout
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", opts.resolveConfigPath(paths))
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", dbPath)
			_, _ = fmt.Fprintf(out, "store_dir: %s\n", paths.StoreDir)
			_, _ = fmt.Fprintf(out, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func addVersion(topLevel *cobra.Command, opts *rootOptions) {
	shortened := false
	output := "json"
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Get widgethub version.",
		Example: `
widgethub version
`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			resp := goversion.FuncWithOutput(shortened, version, commit, date, output)
			_, _ = fmt.Fprint(opts.stdout, resp)
		},
	}
	cmd.Flags().BoolVarP(&shortened, "short", "s", false, "Print just the version number.")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format. One of 'yaml' or 'json'.")
	topLevel.AddCommand(cmd)
}

func (o *rootOptions) resolvePaths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: o.devMode,
	})
}

// resolveConfigPath prefers --config, then WIDGETHUB_CONFIG, then the platform default.
func (o *rootOptions) resolveConfigPath(paths platform.Paths) string {
	if path := strings.TrimSpace(o.configPath); path != "" {
		return path
	}
	if envPath := strings.TrimSpace(os.Getenv("WIDGETHUB_CONFIG")); envPath != "" {
		return envPath
	}
	return paths.ConfigPath
}

// resolveDBPath reports the sqlite path and whether it overrides the config file.
func (o *rootOptions) resolveDBPath(paths platform.Paths) (string, bool) {
	if path := strings.TrimSpace(o.dbPath); path != "" {
		return path, true
	}
	if envPath := strings.TrimSpace(os.Getenv("WIDGETHUB_DB_PATH")); envPath != "" {
		return envPath, true
	}
	return paths.DBPath, false
}

// runtimeEnv is everything a command flow needs once config and storage are open.
type runtimeEnv struct {
	command    string
	configPath string
	paths      platform.Paths
	cfg        config.Config
	logger     *runtimeLogger
	repo       app.Repository
	closeRepo  func() error
	svc        *app.Service
	stderr     io.Writer
}

// openRuntime resolves config, opens storage and loads the board.
func openRuntime(ctx context.Context, opts *rootOptions, command string) (*runtimeEnv, error) {
	paths, err := opts.resolvePaths()
	if err != nil {
		return nil, err
	}
	configPath := opts.resolveConfigPath(paths)
	dbPath, dbOverridden := opts.resolveDBPath(paths)

	defaultCfg := config.Default(dbPath, paths.StoreDir)
	cfg, err := config.Load(configPath, defaultCfg)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Storage.SQLitePath = dbPath
	}
	if backend := strings.TrimSpace(opts.backend); backend != "" {
		cfg.Storage.Backend = config.StorageBackend(strings.ToLower(backend))
	}
	if level := strings.TrimSpace(os.Getenv("WIDGETHUB_LOG_LEVEL")); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %q: %w", configPath, err)
	}

	logger, err := newRuntimeLogger(opts.stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == commandTUI {
		// The board owns the terminal; runtime logs go to the dev file only.
		logger.SetConsoleEnabled(false)
	}

	rt := &runtimeEnv{
		command:    command,
		configPath: configPath,
		paths:      paths,
		cfg:        cfg,
		logger:     logger,
		stderr:     opts.stderr,
	}
	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "store_dir", paths.StoreDir)
	logger.Info("configuration loaded", "config_path", configPath, "backend", cfg.Storage.Backend, "storage", cfg.StoragePath(), "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	if err := rt.openStorage(); err != nil {
		_ = rt.Close()
		return nil, err
	}

	defaults, err := cfg.BoardDefaults()
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("board defaults: %w", err)
	}
	rt.svc = app.NewService(rt.repo, uuid.NewString, nil, app.ServiceConfig{
		Defaults: defaults,
		Logger:   logger,
	})
	board, err := rt.svc.Load(ctx)
	if err != nil {
		logger.Error("board load failed", "err", err)
		_ = rt.Close()
		return nil, fmt.Errorf("load board: %w", err)
	}
	logger.Debug("application service initialized", "widgets", board.WidgetCount(), "max_per_column", board.MaxWidgetsPerColumn)
	return rt, nil
}

// openStorage opens the configured snapshot repository.
func (rt *runtimeEnv) openStorage() error {
	switch config.StorageBackend(strings.ToLower(strings.TrimSpace(string(rt.cfg.Storage.Backend)))) {
	case config.StorageBackendDiskv:
		dir := rt.cfg.Storage.DiskvDir
		rt.logger.Info("opening diskv store", "dir", dir)
		store, err := diskvstore.Open(dir)
		if err != nil {
			rt.logger.Error("diskv open failed", "dir", dir, "err", err)
			return fmt.Errorf("open diskv store: %w", err)
		}
		rt.repo = store
		rt.logger.Info("diskv store ready", "dir", store.BasePath())
	default:
		path := rt.cfg.Storage.SQLitePath
		rt.logger.Info("opening sqlite repository", "db_path", path)
		repo, err := sqlite.Open(path)
		if err != nil {
			rt.logger.Error("sqlite open failed", "db_path", path, "err", err)
			return fmt.Errorf("open sqlite repository: %w", err)
		}
		rt.repo = repo
		rt.closeRepo = repo.Close
		rt.logger.Info("sqlite repository ready", "db_path", path, "migrations", "ensured")
	}
	return nil
}

// Close flushes pending board writes and releases storage and log sinks. A
// failed final write is returned so CLI commands exit non-zero.
func (rt *runtimeEnv) Close() error {
	if rt == nil {
		return nil
	}
	var errs []error
	if rt.svc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		if err := rt.svc.Close(ctx); err != nil {
			rt.logger.Error("final board save failed", "err", err)
			errs = append(errs, fmt.Errorf("save board: %w", err))
		}
		cancel()
	}
	if rt.closeRepo != nil {
		if err := rt.closeRepo(); err != nil {
			rt.logger.Warn("storage close failed", "storage", rt.cfg.StoragePath(), "err", err)
		}
	}
	if err := rt.logger.Close(); err != nil && rt.logger.ConsoleEnabled() && rt.stderr != nil {
		_, _ = fmt.Fprintf(rt.stderr, "warning: close runtime log sink: %v\n", err)
	}
	return errors.Join(errs...)
}

// withRuntime opens the runtime, runs one command flow, and always closes.
func withRuntime(ctx context.Context, opts *rootOptions, command string, fn func(context.Context, *runtimeEnv) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := openRuntime(ctx, opts, command)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	rt.logger.Info("command flow start", "command", command)
	if err := fn(ctx, rt); err != nil {
		rt.logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	rt.logger.Info("command flow complete", "command", command)
	return nil
}

// runTUI runs the board program while watching storage for writes from other
// processes.
func runTUI(ctx context.Context, rt *runtimeEnv) error {
	changes, unsubscribe := rt.svc.Subscribe()
	defer unsubscribe()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	g, gctx := errgroup.WithContext(watchCtx)
	g.Go(func() error { return watchStore(gctx, rt) })

	m := tui.NewModel(
		rt.svc,
		tui.WithKeyConfig(toTUIKeyConfig(rt.cfg.Keys)),
		tui.WithChangeFeed(changes),
	)
	rt.logger.Info("starting tui program loop")
	_, runErr := programFactory(m).Run()
	stopWatch()
	watchErr := g.Wait()
	if runErr != nil {
		rt.logger.Error("tui program terminated with error", "err", runErr)
		return fmt.Errorf("run tui program: %w", runErr)
	}
	return watchErr
}

// runServe runs the server and the storage watcher until either stops.
func runServe(ctx context.Context, rt *runtimeEnv, cfg server.Config) error {
	g, gctx := errgroup.WithContext(ctx)
	watchCtx, stopWatch := context.WithCancel(gctx)
	defer stopWatch()

	g.Go(func() error {
		defer stopWatch()
		rt.logger.Info("serve starting", "http_bind", cfg.HTTPBind, "api_endpoint", cfg.APIEndpoint, "mcp_endpoint", cfg.MCPEndpoint)
		if err := serveCommandRunner(gctx, cfg, server.Dependencies{Board: common.NewAppServiceAdapter(rt.svc), Logger: rt.logger}); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		rt.logger.Info("serve stopped")
		return nil
	})
	g.Go(func() error { return watchStore(watchCtx, rt) })
	return g.Wait()
}

// watchStore keeps the board in sync with other writers. Watch failures are
// logged, never fatal.
func watchStore(ctx context.Context, rt *runtimeEnv) error {
	err := rt.svc.WatchStore(ctx)
	switch {
	case errors.Is(err, app.ErrWatchUnsupported):
		rt.logger.Debug("storage watch unavailable", "backend", rt.cfg.Storage.Backend)
	case err != nil:
		rt.logger.Warn("storage watch stopped", "err", err)
	}
	return nil
}

// runExport writes the board document to a file, stdout and/or the clipboard.
func runExport(ctx context.Context, svc *app.Service, outPath string, writeOut, toClipboard bool, stdout io.Writer) error {
	encoded, err := svc.ExportSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	if len(encoded) == 0 || encoded[len(encoded)-1] != '\n' {
		encoded = append(encoded, '\n')
	}

	if toClipboard {
		if err := clipboardWriter(string(encoded)); err != nil {
			return fmt.Errorf("copy snapshot to clipboard: %w", err)
		}
	}
	if !writeOut {
		_, _ = fmt.Fprintf(stdout, "copied board config to clipboard (%d bytes)\n", len(encoded))
		return nil
	}

	outPath = strings.TrimSpace(outPath)
	if outPath == "" || outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// runImport replaces the board with the document at inPath.
func runImport(ctx context.Context, svc *app.Service, inPath string, stdin io.Reader, stdout io.Writer) error {
	var (
		content []byte
		err     error
	)
	if strings.TrimSpace(inPath) == "-" {
		if stdin == nil {
			return errors.New("stdin is not available")
		}
		content, err = io.ReadAll(stdin)
	} else {
		content, err = os.ReadFile(inPath)
	}
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	board, err := svc.ImportSnapshot(app.WithSource(ctx, app.SourceCLI), content)
	if err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "imported %d widgets\n", board.WidgetCount())
	return nil
}

// printBoard renders the widget table for `ls`.
func printBoard(out io.Writer, board domain.Board) error {
	bold := color.New(color.Bold)
	warn := color.New(color.FgYellow)

	widths := board.Widths()
	mode := "view"
	if board.IsEditing {
		mode = "edit"
	}
	_, _ = fmt.Fprintf(out, "%s  widths %d/%d/%d  max %d per column  blur %dpx\n",
		bold.Sprint(mode), widths.Left, widths.Middle, widths.Right, board.MaxWidgetsPerColumn, board.Blur)
	if total := widths.Sum(); total > 100 {
		_, _ = warn.Fprintf(out, "! column widths total %d%%\n", total)
	}
	if board.WidgetCount() == 0 {
		_, _ = fmt.Fprintln(out, "no widgets")
		return nil
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("COLUMN"), bold.Sprint("#"), bold.Sprint("ID"), bold.Sprint("KIND"), bold.Sprint("HEIGHT"), bold.Sprint("POSITION"))
	for _, col := range board.Columns {
		for i, w := range col.Items {
			height := "auto"
			if w.HasCustomHeight() {
				height = strconv.Itoa(w.CustomHeight) + "%"
			}
			position := string(w.PositionPreference)
			if position == "" {
				position = string(domain.PositionAuto)
			}
			tbl.AddRow(string(col.ID), i+1, w.ID, string(w.Kind), height, position)
		}
	}
	_, err := fmt.Fprintln(out, tbl)
	return err
}

// printActivity renders ledger entries for `ls --activity`.
func printActivity(out io.Writer, events []domain.ChangeEvent) error {
	if len(events) == 0 {
		_, _ = fmt.Fprintln(out, "no activity")
		return nil
	}
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("WHEN"), bold.Sprint("SOURCE"), bold.Sprint("OPERATION"), bold.Sprint("WIDGET"), bold.Sprint("COLUMN"))
	for _, event := range events {
		tbl.AddRow(
			event.OccurredAt.Local().Format("2006-01-02 15:04:05"),
			event.Source,
			string(event.Operation),
			dashIfEmpty(event.WidgetID),
			dashIfEmpty(string(event.ColumnID)),
		)
	}
	_, err := fmt.Fprintln(out, tbl)
	return err
}

// toTUIKeyConfig maps persisted key bindings into model options.
func toTUIKeyConfig(keys config.KeyConfig) tui.KeyConfig {
	return tui.KeyConfig{
		ToggleEdit: keys.ToggleEdit,
		AddWidget:  keys.AddWidget,
		Grab:       keys.Grab,
		Activity:   keys.Activity,
		Export:     keys.Export,
		Help:       keys.Help,
	}
}

// parseBoolEnv parses input into a normalized form.
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

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func dashIfEmpty(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
