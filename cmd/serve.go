package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve practice sessions over HTTP and WebSocket",
	Long: "Serve practice sessions over HTTP. Clients may pass their own provider key in the\n" +
		server.APIKeyHeader + " header; otherwise the configured key is used.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if _, err := setupLogging(cfg.Logging, "json", os.Stderr); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, dbPath, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		repo := st.EventRepo()
		factory := newRunnerFactory(ctx, cfg, repo)
		if err := factory.Available(); err != nil {
			slog.Warn("no server-side LLM key; clients must send one", "header", server.APIKeyHeader, "error", err)
		}

		srv := server.New(server.Options{
			Registry:     server.NewRegistry(cfg.Server.SessionTTL),
			NewRunner:    func(apiKey string) (*practice.Runner, error) { return factory.New(apiKey) },
			Repo:         repo,
			RevealDelay:  cfg.Typewriter.Delay,
			AllowOrigins: cfg.Server.AllowOrigins,
		})
		slog.Info("starting server", "db", dbPath, "provider", cfg.LLM.Provider)
		if err := srv.ListenAndServe(ctx, cfg.Server); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config and LINGUAFLOW_ADDR)")
}
