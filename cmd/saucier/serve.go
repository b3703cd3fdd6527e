package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/saucier/internal/cli"
	"github.com/Veraticus/saucier/internal/web"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Long: `Serve the recipe catalog to browsers and the scaling API under /api.

Scaling sessions are kept in memory and forgotten after serve.session_ttl
without use.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "address to listen on (default: serve.addr)")
	_ = viper.BindPFlag("serve.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	interruptHandler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	defer interruptHandler.Stop()
	ctx := interruptHandler.HandleInterrupts(cmd.Context(), "Server", "")

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	srv, err := web.New(store, web.Options{
		Logger:      slog.Default(),
		Addr:        cfg.ServeAddr,
		FactorLabel: cfg.FactorLabel,
		ShowFactor:  cfg.ShowFactor,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
		MaxSessions: cfg.MaxSessions,
		SessionTTL:  cfg.SessionTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Listening on "+cfg.ServeAddr))
	return srv.ListenAndServe(ctx)
}
