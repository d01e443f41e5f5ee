package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr      = ":8080"
	defaultDispatchTimeout = 15 * time.Second

	envConfigFile      = "VAULTCHAIN_CONFIG"
	envListenAddr      = "VAULTCHAIN_LISTEN_ADDR"
	envExecutorURL     = "MCP_URL"
	envDBPath          = "VAULTCHAIN_DB_PATH"
	envDispatchTimeout = "VAULTCHAIN_DISPATCH_TIMEOUT_MS"
	envStrictTasks     = "VAULTCHAIN_STRICT_TASKS"
	envLogLevel        = "VAULTCHAIN_LOG_LEVEL"
)

// Config holds application configuration loaded from an optional YAML file
// and environment variables.
type Config struct {
	ListenAddr string
	// ExecutorURL is the remote executor base URL. Empty or "internal"
	// keeps every task in-process.
	ExecutorURL string
	// DBPath selects the SQLite store. Empty means the in-memory map store.
	DBPath          string
	DispatchTimeout time.Duration
	StrictTasks     bool
	LogLevel        slog.Level
}

// fileConfig mirrors Config for YAML decoding. Pointers distinguish unset
// keys from zero values.
type fileConfig struct {
	ListenAddr        *string `yaml:"listen_addr"`
	ExecutorURL       *string `yaml:"executor_url"`
	DBPath            *string `yaml:"db_path"`
	DispatchTimeoutMS *int    `yaml:"dispatch_timeout_ms"`
	StrictTasks       *bool   `yaml:"strict_tasks"`
	LogLevel          *string `yaml:"log_level"`
}

// Load reads configuration with sensible defaults, then the YAML file named
// by VAULTCHAIN_CONFIG, then environment variables.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:      defaultListenAddr,
		DispatchTimeout: defaultDispatchTimeout,
		LogLevel:        slog.LevelInfo,
	}

	if path := os.Getenv(envConfigFile); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envExecutorURL); v != "" {
		cfg.ExecutorURL = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envDispatchTimeout); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", envDispatchTimeout, err)
		}
		cfg.DispatchTimeout = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv(envStrictTasks); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", envStrictTasks, err)
		}
		cfg.StrictTasks = strict
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.ListenAddr != nil {
		c.ListenAddr = *fc.ListenAddr
	}
	if fc.ExecutorURL != nil {
		c.ExecutorURL = *fc.ExecutorURL
	}
	if fc.DBPath != nil {
		c.DBPath = *fc.DBPath
	}
	if fc.DispatchTimeoutMS != nil {
		c.DispatchTimeout = time.Duration(*fc.DispatchTimeoutMS) * time.Millisecond
	}
	if fc.StrictTasks != nil {
		c.StrictTasks = *fc.StrictTasks
	}
	if fc.LogLevel != nil {
		c.LogLevel = parseLogLevel(*fc.LogLevel)
	}
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
