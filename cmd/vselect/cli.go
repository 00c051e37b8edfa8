package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Dicklesworthstone/vselect/pkg/config"
	"github.com/Dicklesworthstone/vselect/pkg/filter"
	"github.com/Dicklesworthstone/vselect/pkg/loader"
	"github.com/Dicklesworthstone/vselect/pkg/logutil"
	"github.com/Dicklesworthstone/vselect/pkg/model"
	"github.com/Dicklesworthstone/vselect/pkg/store"
	"github.com/Dicklesworthstone/vselect/pkg/ui"
	"github.com/Dicklesworthstone/vselect/pkg/watcher"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

var errCancelled = errors.New("selection cancelled")

const version = "0.1.0"

// NewCLI builds the root command
func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "vselect [options-file]",
		Short:   "Pick one or more values from a large option list",
		Version: version,
		Args:    cobra.MaximumNArgs(1),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
		},
		RunE: runSelect,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default "+config.DefaultPath()+")")
	pf.String("db", "", "SQLite database for catalogues and last selections")
	pf.String("driver", "", "SQLite driver: sqlite3 (cgo) or sqlite (pure Go)")
	pf.String("log-level", "", "Log level: trace, debug, info, warn, error")
	pf.String("log-file", "", "Write logs to this file")
	pf.String("label-field", "", "Record field used as the option label")
	pf.String("value-field", "", "Record field used as the option value")

	f := rootCmd.Flags()
	f.String("id", "", "Field id used to remember the last selection")
	f.BoolP("multiple", "m", false, "Allow selecting several values")
	f.String("placeholder", "", "Text shown when nothing is selected")
	f.String("mode", "", "Match mode: contains or fuzzy")
	f.String("format", "", "Options file format: jsonl or yaml")
	f.String("catalogue", "", "Load options from a stored catalogue instead of a file")
	f.Bool("watch", false, "Reload options when the file changes")
	f.Bool("no-virtualize", false, "Render without windowing (capped at initial display cap)")
	f.Int("height", 0, "Dropdown height in lines")
	f.Int("width", 0, "Input width")
	f.Bool("no-store", false, "Do not read or write the selection history")
	f.Bool("confirm", false, "Ask for confirmation before printing the selection")
	f.Bool("copy", false, "Copy the selection to the clipboard")
	f.String("filter", "", "Print options matching this query and exit")

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store an options file as a named catalogue",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	importCmd.Flags().String("catalogue", "", "Catalogue name (default: file name)")
	importCmd.Flags().String("format", "", "Options file format: jsonl or yaml")

	cataloguesCmd := &cobra.Command{
		Use:   "catalogues",
		Short: "List stored catalogues",
		Args:  cobra.NoArgs,
		RunE:  runCatalogues,
	}

	lastCmd := &cobra.Command{
		Use:   "last ID",
		Short: "Print the last selection stored for a field",
		Args:  cobra.ExactArgs(1),
		RunE:  runLast,
	}

	rootCmd.AddCommand(importCmd, cataloguesCmd, lastCmd)
	return rootCmd
}

// loadConfig reads the config file and applies flag overrides
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str("db", &cfg.Store.Path)
	str("driver", &cfg.Store.Driver)
	str("log-level", &cfg.Log.Level)
	str("log-file", &cfg.Log.File)
	str("label-field", &cfg.Select.LabelField)
	str("value-field", &cfg.Select.ValueField)
	str("id", &cfg.Select.ID)
	str("placeholder", &cfg.Select.Placeholder)
	str("format", &cfg.Source.Format)
	str("catalogue", &cfg.Store.Catalogue)

	if flags.Lookup("mode") != nil && flags.Changed("mode") {
		mode, _ := flags.GetString("mode")
		cfg.Select.MatchMode = filter.Mode(mode)
	}
	if flags.Lookup("multiple") != nil && flags.Changed("multiple") {
		cfg.Select.Multiple, _ = flags.GetBool("multiple")
	}
	if flags.Lookup("watch") != nil && flags.Changed("watch") {
		cfg.Source.Watch, _ = flags.GetBool("watch")
	}
	if flags.Lookup("no-virtualize") != nil && flags.Changed("no-virtualize") {
		off, _ := flags.GetBool("no-virtualize")
		cfg.Select.Virtualize = !off
	}
	if flags.Lookup("height") != nil && flags.Changed("height") {
		cfg.Select.Height, _ = flags.GetInt("height")
	}
	if flags.Lookup("width") != nil && flags.Changed("width") {
		cfg.Select.Width, _ = flags.GetInt("width")
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = config.DefaultStorePath()
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// setupLogging installs the default logger. Without a log file everything is
// discarded so the TUI is not overwritten.
func setupLogging(cfg config.Log) (func(), error) {
	level, err := logutil.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if cfg.File == "" {
		slog.SetDefault(logutil.Discard())
		return func() {}, nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	slog.SetDefault(logutil.NewLogger(f, level))
	return func() { _ = f.Close() }, nil
}

func fileLoader(cfg config.Config) loader.Loader {
	return loader.Loader{
		Fields: cfg.Select.FieldSelector,
		Format: loader.Format(cfg.Source.Format),
		Logger: slog.Default(),
	}
}

func runSelect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Source.Path = args[0]
	}
	closeLogs, err := setupLogging(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLogs()

	ctx := cmd.Context()
	noStore, _ := cmd.Flags().GetBool("no-store")
	if cfg.Store.Catalogue == "" && cfg.Source.Path == "" {
		return errors.New("no options: pass a file or --catalogue")
	}
	if cfg.Store.Catalogue != "" && noStore {
		return errors.New("--catalogue needs the store; drop --no-store")
	}

	var db *store.DB
	if !noStore {
		db, err = store.Open(cfg.Store.Path, cfg.Store.Driver)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	load := func(ctx context.Context) (model.Options, error) {
		if cfg.Store.Catalogue != "" {
			return db.LoadCatalogue(ctx, cfg.Store.Catalogue)
		}
		return fileLoader(cfg).LoadFile(cfg.Source.Path)
	}

	if query, _ := cmd.Flags().GetString("filter"); cmd.Flags().Changed("filter") {
		opts, err := load(ctx)
		if err != nil {
			return err
		}
		return printMatches(cmd.OutOrStdout(), cfg, opts, query)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("vselect needs an interactive terminal (use --filter for scripts)")
	}

	sel := newSelect(cfg.Select, rememberedValues(ctx, db, cfg.Select.ID))
	defer sel.Destroy()

	var changes <-chan watcher.Reload
	if cfg.Source.Watch && cfg.Store.Catalogue == "" {
		w := watcher.New(cfg.Source.Path, load,
			watcher.WithDebounce(cfg.Source.Debounce),
			watcher.WithLogger(slog.Default()))
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Close()
		changes = w.Changes()
	}

	// options arrive while the program is already running
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)
	reloads := make(chan watcher.Reload, 1)
	g.Go(func() error {
		return feedOptions(gctx, load, changes, reloads)
	})

	program := ui.NewSelectProgram(sel, reloads)
	if db != nil {
		program.OnChange(func(c ui.ChangeMsg) {
			if err := db.SaveSelection(ctx, cfg.Select.ID, c.Values); err != nil {
				slog.Warn("could not save selection", "id", c.ID, "err", err)
			}
		})
	}

	p := tea.NewProgram(program, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	_, runErr := p.Run()
	stop()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("run select: %w", runErr)
	}

	values, ok := program.Result()
	if !ok {
		return errCancelled
	}
	if confirm, _ := cmd.Flags().GetBool("confirm"); confirm {
		accepted := true
		prompt := huh.NewConfirm().
			Title(fmt.Sprintf("Use %s?", sel.DisplayText())).
			Affirmative("Yes").
			Negative("No").
			Value(&accepted)
		if err := prompt.Run(); err != nil {
			return fmt.Errorf("confirm: %w", err)
		}
		if !accepted {
			return errCancelled
		}
	}

	out := strings.Join(values, "\n")
	if copyOut, _ := cmd.Flags().GetBool("copy"); copyOut && out != "" {
		if err := clipboard.WriteAll(out); err != nil {
			slog.Warn("clipboard copy failed", "err", err)
		}
	}
	if out != "" {
		fmt.Fprintln(cmd.OutOrStdout(), out)
	}
	return nil
}

// newSelect builds the select and binds the remembered values. Options are
// not known yet; the values resolve once the first load arrives.
func newSelect(cfg config.Select, remembered []string) *ui.SelectModel {
	sel := ui.NewSelectModel(cfg, ui.DefaultTheme(nil), ui.WithLogger(slog.Default()))
	if len(remembered) > 0 {
		sel.WriteValue(remembered)
	}
	return sel
}

// rememberedValues returns the last stored selection for id, if any
func rememberedValues(ctx context.Context, db *store.DB, id string) []string {
	if db == nil {
		return nil
	}
	sel, err := db.LoadSelection(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.Warn("could not read last selection", "id", id, "err", err)
		return nil
	}
	return sel.Values
}

// feedOptions sends the initial load on out, then forwards watcher reloads
// until ctx ends. out is closed on return. A failed initial load is returned.
func feedOptions(ctx context.Context, load watcher.LoadFunc, changes <-chan watcher.Reload, out chan<- watcher.Reload) error {
	defer close(out)

	opts, err := load(ctx)
	select {
	case out <- watcher.Reload{Options: opts, Err: err, At: time.Now()}:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("load options: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-changes:
			if !ok {
				return nil
			}
			select {
			case out <- r:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// printMatches runs one filter pass and prints "value<TAB>label" lines
func printMatches(w io.Writer, cfg config.Config, opts model.Options, query string) error {
	engine := filter.NewEngine(filter.WithMode(cfg.Select.MatchMode), filter.WithLogger(slog.Default()))
	engine.SetLabels(opts.Labels())
	res := engine.Filter(query)
	for _, i := range res.Indices {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", opts[i].Value, filter.PlainText(opts[i].DisplayLabel())); err != nil {
			return err
		}
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closeLogs, err := setupLogging(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLogs()

	name := cfg.Store.Catalogue
	if name == "" {
		base := filepath.Base(args[0])
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	opts, err := fileLoader(cfg).LoadFile(args[0])
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.Store.Path, cfg.Store.Driver)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SaveCatalogue(cmd.Context(), name, opts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d options into catalogue %q\n", len(opts), name)
	return nil
}

func runCatalogues(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.Store.Path, cfg.Store.Driver)
	if err != nil {
		return err
	}
	defer db.Close()

	names, err := db.Catalogues(cmd.Context())
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(cmd.OutOrStdout(), n)
	}
	return nil
}

func runLast(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.Store.Path, cfg.Store.Driver)
	if err != nil {
		return err
	}
	defer db.Close()

	sel, err := db.LoadSelection(cmd.Context(), args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no selection stored for %q", args[0])
	}
	if err != nil {
		return err
	}
	for _, v := range sel.Values {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}
