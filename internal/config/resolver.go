package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/junkd0g/bellybutton/internal/dataset"
	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

const (
	DefaultDataSource = "samples.json"
	DefaultOutputDir  = "."
	DefaultTheme      = "light"
	DefaultLogLevel   = "info"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath   string
	CLIData      string
	CLIOutputDir string
	CLITheme     string
	CLILogLevel  string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DataSource ResolvedValue `json:"data_source"`
	OutputDir  ResolvedValue `json:"output_dir"`
	Theme      ResolvedValue `json:"theme"`
	LogLevel   ResolvedValue `json:"log_level"`
}

type fileConfig struct {
	DataSource string `yaml:"data_source"`
	OutputDir  string `yaml:"output_dir"`
	Theme      string `yaml:"theme"`
	LogLevel   string `yaml:"log_level"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".bellybutton", "config.yaml")
}

// ResolveConfig layers built-in defaults, the config file, the environment
// and CLI flags, later sources winning. A missing config file is not an
// error.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}
	path = expandUserPath(path)

	out := ResolvedConfig{
		ConfigPath: path,
		DataSource: ResolvedValue{Value: DefaultDataSource, Source: SourceDefault, From: "built-in default"},
		OutputDir:  ResolvedValue{Value: DefaultOutputDir, Source: SourceDefault, From: "built-in default"},
		Theme:      ResolvedValue{Value: DefaultTheme, Source: SourceDefault, From: "built-in default"},
		LogLevel:   ResolvedValue{Value: DefaultLogLevel, Source: SourceDefault, From: "built-in default"},
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DataSource, cfg.DataSource, SourceConfig, path)
		apply(&out.OutputDir, cfg.OutputDir, SourceConfig, path)
		apply(&out.Theme, cfg.Theme, SourceConfig, path)
		apply(&out.LogLevel, cfg.LogLevel, SourceConfig, path)
	}

	applyEnv(&out.DataSource, "BELLYBUTTON_DATA")
	applyEnv(&out.OutputDir, "BELLYBUTTON_OUTPUT_DIR")
	applyEnv(&out.Theme, "BELLYBUTTON_THEME")
	applyEnv(&out.LogLevel, "BELLYBUTTON_LOG_LEVEL")

	apply(&out.DataSource, opts.CLIData, SourceCLI, "--data")
	apply(&out.OutputDir, opts.CLIOutputDir, SourceCLI, "--output-dir")
	apply(&out.Theme, opts.CLITheme, SourceCLI, "--theme")
	apply(&out.LogLevel, opts.CLILogLevel, SourceCLI, "--log-level")

	if !dataset.IsURL(out.DataSource.Value) {
		out.DataSource.Value = expandUserPath(out.DataSource.Value)
	}
	out.OutputDir.Value = expandUserPath(out.OutputDir.Value)

	switch strings.ToLower(out.Theme.Value) {
	case "light", "dark":
		out.Theme.Value = strings.ToLower(out.Theme.Value)
	default:
		return out, fmt.Errorf("invalid theme %q from %s: want light or dark", out.Theme.Value, out.Theme.From)
	}
	if _, err := ParseLevel(out.LogLevel.Value); err != nil {
		return out, fmt.Errorf("invalid log level from %s: %w", out.LogLevel.From, err)
	}

	return out, nil
}

// OutputPath joins name onto the resolved output directory unless name is
// already absolute.
func (r ResolvedConfig) OutputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.OutputDir.Value, name)
}

// ParseLevel maps debug, info, warn and error onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// NewLogger returns a text logger on stderr at the resolved level and
// installs it as the slog default.
func (r ResolvedConfig) NewLogger() *slog.Logger {
	level, _ := ParseLevel(r.LogLevel.Value)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
