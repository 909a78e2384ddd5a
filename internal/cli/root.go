package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tgienger/ganttchart/internal/config"
	"github.com/tgienger/ganttchart/internal/db"
	"github.com/tgienger/ganttchart/internal/logging"
	"github.com/tgienger/ganttchart/internal/ui"
)

// app carries what every command needs once flags are parsed
type app struct {
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *log.Logger
}

// NewRootCmd builds the command tree
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "gantt",
		Short: "gantt - plan tasks on a day-by-day chart",
		Long: `gantt keeps Gantt charts of tasks, their scheduled instances and
colored subtasks.

Run without arguments to open the chart browser, or use the commands below
to edit chart files directly.`,
		RunE:              a.runTUI, // Default action opens the UI
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Version:           version,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/gantt/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(newShowCmd(a))
	rootCmd.AddCommand(newNewCmd(a))
	rootCmd.AddCommand(newSetCmd(a))
	rootCmd.AddCommand(newEditCmd(a))
	rootCmd.AddCommand(newConvertCmd(a))
	rootCmd.AddCommand(newRevalidateCmd(a))
	rootCmd.AddCommand(newColorsCmd(a))
	rootCmd.AddCommand(newImportCmd(a))
	rootCmd.AddCommand(newExportCmd(a))
	rootCmd.AddCommand(newProjectsCmd(a))
	rootCmd.AddCommand(newVersionCmd(version))

	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	a.logger = logging.New(cmd.ErrOrStderr(), level)
	return nil
}

func (a *app) openDB() (*db.DB, error) {
	database, err := db.New(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening project library %s: %w", a.cfg.DBPath, err)
	}
	a.logger.Debug("opened project library", "path", a.cfg.DBPath)
	return database, nil
}

func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	// The alt screen owns the terminal, so the UI logs to a file
	logger, closer, err := logging.NewFile(a.cfg.LogPath(), a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer closer.Close()

	database, err := a.openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	return ui.Run(database, a.cfg, logger)
}
