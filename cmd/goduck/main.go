package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/barsdeveloper/goduck"
	"github.com/barsdeveloper/goduck/native"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:          "goduck",
	Short:        "Run SQL against DuckDB through the goduck bridge",
	SilenceUsage: true,
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			return goduck.RunRepl(ctx, s.bridge, s.conn, goduck.ReplOptions{
				HistoryFile: s.cfg.HistoryFile,
				Stdout:      cmd.OutOrStdout(),
			})
		})
	},
}

var execCmd = &cobra.Command{
	Use:   "exec [SQL]",
	Short: "Run one statement and print its rows, one per line",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		} else {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			query = string(b)
		}
		return withSession(cmd, func(ctx context.Context, s *session) error {
			return execQuery(ctx, cmd.OutOrStdout(), s, strings.TrimSpace(query))
		})
	},
}

type session struct {
	cfg    *config
	log    *slog.Logger
	bridge *goduck.Bridge
	conn   *goduck.Conn
}

func withSession(cmd *cobra.Command, fn func(context.Context, *session) error) error {
	cfg, err := loadConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

	var engine goduck.Engine = native.NewEngine()
	if cfg.Engine == "memory" {
		engine = goduck.NewMemoryEngine()
	}

	registry := prometheus.NewRegistry()
	metrics := goduck.NewMetrics(registry)
	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		defer srv.Close()
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	bridge, err := goduck.NewBridge(goduck.BridgeOptions{
		PoolSize:  cfg.PoolSize,
		RowBuffer: cfg.RowBuffer,
		Logger:    logger,
		Metrics:   metrics,
	})
	if err != nil {
		return err
	}
	defer bridge.Close(3 * time.Second)

	opts, err := goduck.ParseDSN(cfg.DSN)
	if err != nil {
		return err
	}
	cache := goduck.NewInstanceCache(engine, logger)
	defer cache.Close()

	conn, err := goduck.Establish(cache, opts)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Debug("connected", "path", opts.Path, "engine", cfg.Engine)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return fn(ctx, &session{cfg: cfg, log: logger, bridge: bridge, conn: conn})
}

func execQuery(ctx context.Context, w io.Writer, s *session, query string) error {
	stream, err := s.bridge.Execute(ctx, s.conn, goduck.Request{SQL: query, Cardinality: goduck.Many})
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		msg, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if msg.Summary != nil {
			fmt.Fprintf(w, "%d rows affected\n", msg.Summary.RowsAffected)
			continue
		}
		fmt.Fprintln(w, msg.Row)
	}
}

func main() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (yaml, toml or json)")
	flags.String("dsn", ":memory:", "database to open, duckdb:[//]path[?key=value...]")
	flags.String("engine", "native", "engine to run statements on: native or memory")
	flags.Int("pool-size", 0, "statements run at once across the process (default 4 per CPU)")
	flags.Int("row-buffer", 0, "rows a query may run ahead of the reader (default 256)")
	flags.String("log-level", "INFO", "DEBUG, INFO, WARN or ERROR")
	flags.String("log-format", "text", "text or json")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flags.String("history-file", "", "keep REPL history in this file")

	rootCmd.AddCommand(replCmd, execCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
