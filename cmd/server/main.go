package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"github.com/junkd0g/bellybutton/internal/config"
	"github.com/junkd0g/bellybutton/internal/dataset"
	"github.com/junkd0g/bellybutton/internal/selection"
	"github.com/junkd0g/bellybutton/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	var opts config.ResolveOptions
	flag.StringVar(&opts.ConfigPath, "config", "", "Path to config.yaml (default ~/.bellybutton/config.yaml)")
	flag.StringVar(&opts.CLIData, "data", "", "Dataset file path or http(s) URL")
	flag.StringVar(&opts.CLIOutputDir, "output-dir", "", "Directory for generated files")
	flag.StringVar(&opts.CLITheme, "theme", "", "Dashboard theme: light or dark")
	flag.StringVar(&opts.CLILogLevel, "log-level", "", "Log level: debug, info, warn or error")
	flag.Parse()

	cfg, err := config.ResolveConfig(opts)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	logger := cfg.NewLogger().With(slog.String("component", "server"))

	ds, err := dataset.Load(context.Background(), cfg.DataSource.Value)
	if err != nil {
		log.Fatalf("Dataset error: %v", err)
	}

	ctrl := selection.New(nil, selection.WithLogger(slog.Default().With(slog.String("component", "selection"))))
	if err := ctrl.Load(ds); err != nil {
		log.Fatalf("Dataset error: %v", err)
	}

	s := server.NewMCPServer(
		"bellybutton",
		"1.0.0",
	)

	tools.Register(s, tools.NewHandlers(ctrl, cfg.OutputDir.Value, cfg.Theme.Value))

	logger.Info("serving over stdio",
		slog.String("data_source", cfg.DataSource.Value),
		slog.String("data_source_from", string(cfg.DataSource.Source)),
		slog.String("output_dir", cfg.OutputDir.Value),
	)
	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
