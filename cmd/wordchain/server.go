package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// Server wires the API handlers into a single mux.
type Server struct {
	config    *Config
	logger    *slog.Logger
	chainAPI  *ChainAPI
	serverAPI *ServerAPI
	mux       *http.ServeMux
}

// NewServer builds the HTTP handlers for h.
func NewServer(config *Config, logger *slog.Logger, h *chainHandle) *Server {
	server := &Server{
		config:    config,
		logger:    logger,
		chainAPI:  NewChainAPI(h.chain, h.store, h.name, config, logger),
		serverAPI: NewServerAPI(logger),
		mux:       http.NewServeMux(),
	}
	server.chainAPI.RegisterRoutes(server.mux)
	server.serverAPI.RegisterRoutes(server.mux)
	return server
}

// ServeHTTP lets the Server be used directly as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeoutSec) * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Starting api server", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Stopping api server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown failed: %w", err)
	}
	s.logger.Info("HTTP server stopped.")
	return nil
}

func newServeCmd(a *app) *cobra.Command {
	var (
		src  sourceOptions
		addr string
		save bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chain over a JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			h, err := a.buildChain(ctx, cmd, &src)
			if err != nil {
				return err
			}
			defer h.close()

			if addr == "" {
				addr = a.config.Server.Addr
			}
			if err = NewServer(a.config, a.logger, h).Run(ctx, addr); err != nil {
				return err
			}

			if save && h.store != nil {
				a.logger.Info("Saving chain before exit", "chain_name", h.name)
				if err = h.store.Save(context.Background(), h.name, h.chain); err != nil {
					return fmt.Errorf("failed to save chain: %w", err)
				}
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides the config)")
	cmd.Flags().BoolVar(&save, "save", true, "Save the chain to the database on shutdown")
	return cmd
}
