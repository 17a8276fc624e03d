package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gaoych/bean-analyze/internal/provider"
	"github.com/gaoych/bean-analyze/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interactive viewer server",
	Long: `Starts the viewer server: it consumes the configured graph provider and
serves the browser UI, pushing layout frames and highlight state to each
connected client over WebSocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort != 0 {
			cfg.Port = servePort
		}

		client, err := provider.NewClient(cfg.ProviderURL, cfg.CacheSize)
		if err != nil {
			return fmt.Errorf("creating provider client: %w", err)
		}

		srv := server.New(cfg, client)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down viewer...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "bean-analyze v%s: viewer on http://localhost:%d, provider %s\n",
			Version, cfg.Port, cfg.ProviderURL)

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
