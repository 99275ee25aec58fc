package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/routedesk/logistics-api/internal/api"
	"github.com/routedesk/logistics-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
}

func (c *cli) serve(parent context.Context) error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, c.cfg, log)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	// Audit workers outlive the signal so changes made during shutdown still drain.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	if a.dispatcher != nil {
		a.dispatcher.Start(auditCtx)
	}

	e := api.NewRouter(api.Dependencies{
		Users:     a.users,
		Orders:    a.orders,
		Admin:     a.admin,
		Checks:    a.checks,
		StaticDir: c.cfg.StaticDir,
		Logger:    log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", c.cfg.Port).Str("env", c.cfg.Env).Msg("server starting")
		if err := e.Start(":" + c.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	stopAudit()
	if a.dispatcher != nil {
		a.dispatcher.Wait()
	}
	log.Info().Msg("server stopped")
	return err
}
