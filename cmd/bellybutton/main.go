package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/junkd0g/bellybutton/internal/config"
	"github.com/junkd0g/bellybutton/internal/dataset"
	"github.com/junkd0g/bellybutton/internal/selection"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bellybutton",
	Short: "Explore the belly button biodiversity dataset",
	Long: `Explore the microbial species (OTUs) found in the navels of test subjects.

The dataset is read from a local JSON file or an http(s) URL. Settings
resolve from ~/.bellybutton/config.yaml, then BELLYBUTTON_* environment
variables, then flags.

Examples:
  bellybutton subjects
  bellybutton show 940
  bellybutton dashboard -o biodiversity.html --theme dark
  bellybutton chart 940
  bellybutton taxonomy 940 -o 940.svg
  bellybutton browse`,
	SilenceUsage: true,
}

// Global flags
var resolveOpts config.ResolveOptions

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&resolveOpts.ConfigPath, "config", "", "config file (default ~/.bellybutton/config.yaml)")
	pf.StringVar(&resolveOpts.CLIData, "data", "", "dataset file path or http(s) URL")
	pf.StringVar(&resolveOpts.CLIOutputDir, "output-dir", "", "directory for generated files")
	pf.StringVar(&resolveOpts.CLITheme, "theme", "", "dashboard theme: light or dark")
	pf.StringVar(&resolveOpts.CLILogLevel, "log-level", "", "log level: debug, info, warn or error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session is a resolved configuration with its dataset loaded into a
// controller.
type session struct {
	cfg    config.ResolvedConfig
	ctrl   *selection.Controller
	logger *slog.Logger
}

func openSession(cmd *cobra.Command, r selection.Renderer) (*session, error) {
	cfg, err := config.ResolveConfig(resolveOpts)
	if err != nil {
		return nil, err
	}
	logger := cfg.NewLogger().With(slog.String("component", "cli"))

	ds, err := dataset.Load(cmd.Context(), cfg.DataSource.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset (%s from %s): %w", cfg.DataSource.Value, cfg.DataSource.From, err)
	}

	ctrl := selection.New(r, selection.WithLogger(logger))
	if err := ctrl.Load(ds); err != nil {
		return nil, err
	}
	return &session{cfg: cfg, ctrl: ctrl, logger: logger}, nil
}
