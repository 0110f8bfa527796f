// Package mockvendor provides the mock-vendor command, a standalone
// server for the sample vendor snapshot.
package mockvendor

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/stocksync/cmd/application"
	"github.com/agentstation/stocksync/internal/mockvendor"
	"github.com/agentstation/stocksync/pkg/constants"
)

// NewCommand creates the mock-vendor command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "mock-vendor",
		Short: "Serve the sample vendor snapshot",
		Long: fmt.Sprintf(`Mock-vendor serves a fixed JSON product snapshot on GET %s
so a REST vendor can be pointed at it during development.`, mockvendor.Path),
		Example: `  stocksync mock-vendor --port 9090

  # stocksync.yaml
  vendors:
    rest:
      - name: VENDOR_A
        url: http://localhost:9090/mock/vendor-a/products`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mux := http.NewServeMux()
			mockvendor.Mount(mux)
			srv := &http.Server{
				Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
			return serve(cmd.Context(), srv, app)
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "Bind address")
	cmd.Flags().IntVar(&port, "port", 9090, "Port")
	return cmd
}

func serve(ctx context.Context, srv *http.Server, app application.Application) error {
	logger := app.Logger()
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("path", mockvendor.Path).Msg("Mock vendor listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancel()
	logger.Info().Msg("Shutting down mock vendor")
	return srv.Shutdown(shutdownCtx)
}
