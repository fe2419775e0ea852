package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type logConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type config struct {
	DSN         string    `mapstructure:"dsn"`
	Engine      string    `mapstructure:"engine"`
	PoolSize    int       `mapstructure:"pool_size"`
	RowBuffer   int       `mapstructure:"row_buffer"`
	Log         logConfig `mapstructure:"log"`
	MetricsAddr string    `mapstructure:"metrics_addr"`
	HistoryFile string    `mapstructure:"history_file"`
}

// loadConfig merges, from lowest to highest precedence, defaults, the
// optional config file, GODUCK_ environment variables and flags.
func loadConfig(file string, flags *pflag.FlagSet) (*config, error) {
	v := viper.New()
	v.SetDefault("dsn", ":memory:")
	v.SetDefault("engine", "native")
	v.SetDefault("log.level", "INFO")
	v.SetDefault("log.format", "text")

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	// GODUCK_LOG_LEVEL -> log.level
	v.SetEnvPrefix("GODUCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"dsn", "engine", "pool_size", "row_buffer", "log.level", "log.format", "metrics_addr", "history_file"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if flags != nil {
		for key, name := range map[string]string{
			"dsn":          "dsn",
			"engine":       "engine",
			"pool_size":    "pool-size",
			"row_buffer":   "row-buffer",
			"log.level":    "log-level",
			"log.format":   "log-format",
			"metrics_addr": "metrics-addr",
			"history_file": "history-file",
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	switch cfg.Engine {
	case "native", "memory":
	default:
		return nil, fmt.Errorf("unknown engine %q, expected native or memory", cfg.Engine)
	}
	return &cfg, nil
}

func newLogger(w io.Writer, cfg logConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(cfg.Level) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
