package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-grounder/internal/config"
	"github.com/jonathan/resume-grounder/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves /v1/tailor, /v1/validate, /v1/budget and /v1/drafts/{id} behind bearer-token auth. Requires JWT_SECRET.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	a, err := loadApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	client, err := a.newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	engine, err := a.newEngine(ctx, client, nil)
	if err != nil {
		return err
	}

	port := a.cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}
	srv, err := server.New(server.Config{
		Port:      port,
		RateLimit: a.cfg.Server.RateLimit,
	}, engine, a.store, server.NewJWTService(jwtConfig), a.logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Run(ctx)
}
