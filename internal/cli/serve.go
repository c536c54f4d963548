package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/shelfworks/planogram/pkg/api"
	"github.com/shelfworks/planogram/pkg/editor"
)

const shutdownTimeout = 10 * time.Second

// serveCommand runs the HTTP editing API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editing API over HTTP",
		Long: `Serve the editing API over HTTP. Each open planogram gets one editing
session shared by all clients; sessions are saved explicitly with
POST /planograms/{id}/save.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			return c.serve(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}

func (c *CLI) serve(ctx context.Context, addr string) error {
	repo, s, err := c.openRepository(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	opts, err := c.sessionOptions()
	if err != nil {
		return err
	}
	reg := editor.NewRegistry(repo, opts...)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.New(reg, api.WithLogger(c.Logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr, "store", c.Config.Store.Backend)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	if open := reg.IDs(); len(open) > 0 {
		c.Logger.Info("closed sessions", "planograms", open)
	}
	return nil
}
