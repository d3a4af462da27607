package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/atelier/internal/api"
	"github.com/smileynet/atelier/internal/config"
	"github.com/smileynet/atelier/internal/dashboard"
	"github.com/smileynet/atelier/internal/pager"
	"github.com/smileynet/atelier/internal/rescache"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// CLI is the top-level command structure for atelier.
type CLI struct {
	Version   kong.VersionFlag `help:"Show version." short:"V"`
	Dashboard DashboardCmd     `cmd:"" help:"Open the interactive back-office console."`
	List      ListCmd          `cmd:"" help:"List one page of a resource."`
	Delete    DeleteCmd        `cmd:"" help:"Delete a record."`
	Toggle    ToggleCmd        `cmd:"" help:"Toggle a record's active flag."`
	Window    WindowCmd        `cmd:"" help:"Print the pagination controls for a page."`
}

// loadConfig loads layered config from user and project paths with env overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadLayered(
		os.ExpandEnv("$HOME/.config/atelier/config.yaml"),
		".atelier/config.yaml",
	)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ListCmd prints one page of a resource table.
type ListCmd struct {
	Kind   string `arg:"" help:"Resource kind (users, seasons, stock_returns, orders)."`
	Page   int    `help:"Page number." default:"1"`
	Limit  int    `help:"Page size; 0 uses the configured default."`
	Search string `help:"Free-text search."`
	Season string `help:"Season id for season-scoped kinds; defaults to the first season."`
}

// Run executes the list command.
func (c *ListCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	return withApp(cfg, os.Stderr, func(ctx context.Context, a *app) error {
		return c.run(ctx, os.Stdout, a)
	})
}

func (c *ListCmd) run(ctx context.Context, w io.Writer, a *app) error {
	t, err := a.table(ctx, c.Kind, c.Season)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	env := t.Rows(ctx, api.ListParams{Page: c.Page, Limit: c.Limit, Search: c.Search})
	if !env.OK() {
		return &failureError{op: "list", message: env.Message}
	}

	page := env.Data
	if len(page.Rows) == 0 {
		fmt.Fprintf(w, "No %s found.\n", strings.ToLower(t.Title()))
		return nil
	}
	fmt.Fprintln(w, renderRows(t.Columns(), page.Rows))

	current := pager.ClampPage(c.Page, page.TotalPages)
	labels := pager.Labels(pager.Window(current, page.TotalPages), current)
	fmt.Fprintf(w, "%s  (%d records)\n", strings.Join(labels, " "), page.TotalItems)
	return nil
}

// DeleteCmd deletes one record.
type DeleteCmd struct {
	Kind   string `arg:"" help:"Resource kind."`
	ID     string `arg:"" help:"Record id."`
	Season string `help:"Season id for season-scoped kinds."`
}

// Run executes the delete command.
func (c *DeleteCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return withApp(cfg, os.Stderr, func(ctx context.Context, a *app) error {
		return c.run(ctx, os.Stdout, a)
	})
}

func (c *DeleteCmd) run(ctx context.Context, w io.Writer, a *app) error {
	t, err := a.table(ctx, c.Kind, c.Season)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	env := t.Delete(ctx, c.ID)
	if !env.OK() {
		return &failureError{op: "delete", message: env.Message}
	}
	fmt.Fprintln(w, env.Message)
	return nil
}

// ToggleCmd flips the active flag of one record.
type ToggleCmd struct {
	Kind string `arg:"" help:"Resource kind (users, seasons)."`
	ID   string `arg:"" help:"Record id."`
}

// Run executes the toggle command.
func (c *ToggleCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("toggle: %w", err)
	}
	return withApp(cfg, os.Stderr, func(ctx context.Context, a *app) error {
		return c.run(ctx, os.Stdout, a)
	})
}

func (c *ToggleCmd) run(ctx context.Context, w io.Writer, a *app) error {
	t, err := a.table(ctx, c.Kind, "")
	if err != nil {
		return fmt.Errorf("toggle: %w", err)
	}
	env := t.ToggleRow(ctx, c.ID)
	if !env.OK() {
		return &failureError{op: "toggle", message: env.Message}
	}
	fmt.Fprintln(w, env.Message)
	return nil
}

// WindowCmd prints the pagination controls for a page without contacting
// the server.
type WindowCmd struct {
	Page  int `arg:"" help:"Current page."`
	Total int `arg:"" help:"Total pages."`
}

// Run executes the window command.
func (c *WindowCmd) Run() error {
	return c.run(os.Stdout)
}

func (c *WindowCmd) run(w io.Writer) error {
	if c.Total < 0 {
		return fmt.Errorf("window: total must be >= 0, got %d", c.Total)
	}
	fmt.Fprintln(w, strings.Join(pager.Labels(pager.Window(c.Page, c.Total), c.Page), " "))
	return nil
}

// DashboardCmd opens the interactive console.
type DashboardCmd struct{}

// teaRunner abstracts tea.Program.Run for testing.
type teaRunner interface {
	Run() (tea.Model, error)
}

// Run executes the dashboard command.
func (d *DashboardCmd) Run() error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("dashboard: requires a terminal (TTY)")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	logFile, err := openLogFile(cfg.Log.File)
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	defer logFile.Close()

	return withApp(cfg, logFile, func(ctx context.Context, a *app) error {
		prog := tea.NewProgram(a.dashboardModel(ctx), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
		return d.run(true, prog)
	})
}

// run executes the tea program, enabling testable wiring.
func (d *DashboardCmd) run(isTTY bool, prog teaRunner) error {
	if !isTTY {
		return fmt.Errorf("dashboard: requires a terminal (TTY)")
	}
	_, err := prog.Run()
	return err
}

// dashboardModel builds the console model over the app's collaborators.
func (a *app) dashboardModel(ctx context.Context) dashboard.Model {
	return dashboard.NewModel(ctx, dashboard.Deps{
		Tables:    a.registry,
		Seasons:   a.catalog,
		Session:   a.catalog.Session,
		Scope:     a.store,
		Cache:     a.cache,
		Notices:   a.notices,
		PageLimit: a.cfg.List.PageLimit,
		Debounce:  a.cfg.Selector.Debounce,
	})
}

// withApp builds the app, runs fn with an interrupt-aware context and
// releases the app afterwards.
func withApp(cfg *config.Config, logOut io.Writer, fn func(context.Context, *app) error) error {
	logger, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = fn(ctx, a)
	if cfg.Metrics.Enabled {
		a.dumpMetrics(logOut)
	}
	return err
}

// openLogFile opens path for appending, creating its directory.
func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// newLogger builds the slog logger described by cfg.
func newLogger(cfg config.Log, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// renderRows renders a table page for the terminal.
func renderRows(columns []string, rows []api.Row) string {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = append([]string{r.ID}, r.Cells...)
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(append([]string{"ID"}, columns...)...).
		Rows(cells...).
		String()
}

// failureError reports a request the server or the transport did not
// complete.
type failureError struct {
	op      string
	message string
}

func (e *failureError) Error() string {
	return e.op + ": " + e.message
}

// Exit codes.
const (
	exitSuccess = 0
	exitFailure = 1
	exitSetup   = 2
)

// exitCode maps an error to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var fe *failureError
	if errors.As(err, &fe) {
		return exitFailure
	}
	return exitSetup
}

// kindOf parses a resource kind name as typed on the command line.
func kindOf(name string) rescache.Kind {
	return rescache.Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_"))
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("atelier"),
		kong.Description("Back-office console for garment production."),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
