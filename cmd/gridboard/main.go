package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/robby/gridboard/internal/boardfile"
	"github.com/robby/gridboard/internal/config"
	"github.com/robby/gridboard/internal/dnd"
	"github.com/robby/gridboard/internal/domain"
	"github.com/robby/gridboard/internal/grid"
	"github.com/robby/gridboard/internal/hook"
	"github.com/robby/gridboard/internal/store"
	"github.com/robby/gridboard/internal/tui"
	"github.com/spf13/cobra"
)

var (
	// CLI flags
	boardFlag   string
	configFlag  string
	logFileFlag string
	noMouseFlag bool
	forceFlag   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gridboard",
		Short: "Terminal swim lane board",
		Long: `gridboard is a terminal task board laid out as a grid of
workflow columns and swim lanes.

Move items with the mouse or the keyboard, collapse columns and lanes, and
let a before-drop hook veto moves. The board is a YAML file that is saved
after every move and reloaded when it changes on disk.

Configuration is read from ~/.config/gridboard/config.toml (or the file in
GRIDBOARD_CONFIG); any key can be overridden with GRIDBOARD_* variables.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.PersistentFlags().StringVar(&boardFlag, "board", "", "Board file (default from config board.path)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default ~/.config/gridboard/config.toml)")
	rootCmd.Flags().StringVar(&logFileFlag, "log-file", "", "Write logs to this file")
	rootCmd.Flags().BoolVar(&noMouseFlag, "no-mouse", false, "Disable mouse support")

	initCmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a sample board file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}
	initCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Overwrite an existing board file")

	moveCmd := &cobra.Command{
		Use:   "move ITEM COLUMN LANE",
		Short: "Move an item without opening the board",
		Long: `Move an item to the cell at COLUMN and LANE. WIP limits and the
before-drop hook are applied exactly as in the interactive board.`,
		Args: cobra.ExactArgs(3),
		RunE: runMove,
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the board file and report items that cannot be shown",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}

	rootCmd.AddCommand(initCmd, moveCmd, checkCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	if boardFlag != "" {
		cfg.Board.Path = boardFlag
	}
	if logFileFlag != "" {
		cfg.Log.File = logFileFlag
	}
	if noMouseFlag {
		cfg.Board.Mouse = false
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newValidator combines the WIP limits and the optional hook script.
// The returned observers must see every rebuilt index.
func newValidator(cfg config.Config, logger *log.Logger) (dnd.Validator, []tui.IndexObserver) {
	var chain hook.Chain
	var observers []tui.IndexObserver
	if len(cfg.Board.WIPLimits) > 0 {
		wip := hook.NewWIPLimit(cfg.Board.WIPLimits)
		chain = append(chain, wip)
		observers = append(observers, wip)
	}
	if cfg.Hooks.BeforeDrop != "" {
		script := hook.NewScript(cfg.Hooks.BeforeDrop, logger)
		chain = append(chain, script)
		observers = append(observers, script)
	}
	return chain.Compact(), observers
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file or nowhere
	var out io.Writer = io.Discard
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          "gridboard",
		Level:           cfg.LogLevel(),
	})

	if _, err := os.Stat(cfg.Board.Path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("board file %s does not exist; create one with 'gridboard init %s'", cfg.Board.Path, cfg.Board.Path)
	}

	watcher, err := boardfile.Watch(cfg.Board.Path, logger)
	if err != nil {
		logger.Warn("Board file will not be watched", "error", err)
		watcher = nil
	} else {
		defer watcher.Close()
	}

	validator, observers := newValidator(cfg, logger)
	app := tui.NewAppModel(store.New(), tui.Options{
		BoardPath: cfg.Board.Path,
		Layout:    cfg.Board,
		Validator: validator,
		Timeout:   cfg.Hooks.Timeout,
		Observers: observers,
		Logger:    logger,
	}, watcher)

	logger.Info("Starting gridboard", "board", cfg.Board.Path, "hook", cfg.Hooks.BeforeDrop)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.Board.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(app, opts...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}

	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	path := boardFlag
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Board.Path
	}

	if _, err := os.Stat(path); err == nil && !forceFlag {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := boardfile.Save(path, boardfile.Sample()); err != nil {
		return fmt.Errorf("failed to write board: %w", err)
	}
	abs, _ := filepath.Abs(path)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample board to %s\n", abs)
	return nil
}

func runMove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "gridboard",
		Level:  cfg.LogLevel(),
	})

	board, err := boardfile.Load(cfg.Board.Path)
	if err != nil {
		return err
	}
	s := store.New()
	s.Replace(board)
	idx := grid.Build(s.Board())

	validator, observers := newValidator(cfg, logger)
	for _, o := range observers {
		o.Observe(idx)
	}

	var moved *domain.Move
	ctrl := dnd.New(
		dnd.WithValidator(validator),
		dnd.WithTimeout(cfg.Hooks.Timeout),
		dnd.WithLogger(logger),
		dnd.WithCallbacks(dnd.Callbacks{
			OnDrop: func(m domain.Move) { moved = &m },
		}),
	)

	itemID, target := args[0], domain.CellKey{ColumnID: args[1], SwimLaneID: args[2]}
	if !idx.HasCell(target) {
		return fmt.Errorf("unknown cell %s", target)
	}
	if err := ctrl.Begin(idx, itemID); err != nil {
		return err
	}

	out := ctrl.DropSync(idx, dnd.CellTarget(target))
	switch out.Kind {
	case dnd.OutcomeNoop:
		fmt.Fprintf(cmd.OutOrStdout(), "%s is already in %s\n", itemID, target)
		return nil
	case dnd.OutcomeCancelled:
		if out.Err != nil {
			return fmt.Errorf("move blocked: %w", out.Err)
		}
		if out.Reason != "" {
			return fmt.Errorf("move of %s to %s was rejected: %s", itemID, target, out.Reason)
		}
		return fmt.Errorf("move of %s to %s was rejected", itemID, target)
	case dnd.OutcomeMoved:
	default:
		return fmt.Errorf("unexpected outcome %s", out.Kind)
	}

	if err := s.ApplyMove(*moved); err != nil {
		return err
	}
	if err := boardfile.Save(cfg.Board.Path, s.Board()); err != nil {
		return fmt.Errorf("failed to save board: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Moved %s: %s -> %s\n", itemID, moved.Source(), target)
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	board, err := boardfile.Load(cfg.Board.Path)
	if err != nil {
		return err
	}

	idx := grid.Build(board)
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %d columns, %d lanes, %d items\n",
		cfg.Board.Path, len(idx.Columns()), len(idx.SwimLanes()), len(board.Items))

	excluded := idx.Excluded()
	if len(excluded) == 0 {
		fmt.Fprintln(w, "All items are placed in a cell")
		return nil
	}
	cells := make(map[string]domain.CellKey, len(board.Items))
	for _, item := range board.Items {
		cells[item.ID] = item.Cell()
	}
	for _, id := range excluded {
		fmt.Fprintf(w, "  %s: %s is not a cell of this board\n", id, cells[id])
	}
	return fmt.Errorf("%d items reference unknown columns or lanes", len(excluded))
}
