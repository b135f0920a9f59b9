package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/insightify-cli/internal/server"
)

const shutdownTimeout = 10 * time.Second

var srvAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload, insight and chart API over HTTP",
	Example: `  insightify serve
  insightify serve --addr 127.0.0.1:9090 --provider ollama`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config()
		if err != nil {
			return err
		}
		addr := c.ServeAddr
		if srvAddr != "" {
			addr = srvAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		srv := server.New(server.Options{Config: c, Logger: logger, NewRuntime: newRuntime})
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Listening on http://%s (provider=%s)\n", ln.Addr(), c.DefaultProvider)
		return serve(ctx, srv.HTTPServer(addr), ln)
	},
}

// serve runs hs on ln until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, hs *http.Server, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return hs.Shutdown(sctx)
	})
	return g.Wait()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config, :8080)")
}
