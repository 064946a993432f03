package cli

import (
	"context"
	"log"
	"net/http"
	"time"

	transport "geo-elevate/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewServeCmd builds the subcommand that serves games over websockets.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve quiz games over websockets at /ws?mode=...",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	d, err := loadDeps(ctx, configPath)
	if err != nil {
		return err
	}
	defer d.Close()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = d.cfg.Server.Port
	}

	wsHandler := transport.NewWSHandler(d.gameService())

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting geo-elevate server on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Println("shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
