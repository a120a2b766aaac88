package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parley-lang/parley/internal/server"
)

var (
	serveConfig string
	servePort   int
	serveDebug  bool
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat server",
		Long: `Start the Parley chat server: the REST and WebSocket API that
serves the scenario catalog and runs dialogue sessions.

Configuration comes from parley.yaml (or --config), overridable with
PARLEY_* environment variables.

Examples:
  parley serve
  parley serve --config /etc/parley/parley.yaml
  parley serve --port 9000`,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveConfig, "config", "", "Path to config file (default: parley.yaml in the working directory)")
	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "Override the configured port")
	cmd.Flags().BoolVar(&serveDebug, "debug", false, "Verbose, human-readable logging")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := server.LoadConfig(serveConfig)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	logger, err := newServeLogger(serveDebug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}

	infoColor := color.New(color.FgCyan)
	infoColor.Fprintf(cmd.OutOrStdout(), "Parley server listening on %s\n", cfg.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func newServeLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
