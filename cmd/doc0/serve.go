package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/doc0/internal/api"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(load func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	if !a.cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(api.Services{
		Chat:   a.chatService,
		Widget: a.widgetService,
		Auth:   a.authService,
		Admin:  a.adminService,
		Docs:   a.search,
	}, api.RouterConfig{
		APIKey:       a.cfg.Admin.APIKey,
		AllowOrigins: a.cfg.Server.AllowOrigins,
		NResults:     a.cfg.Search.NResults,
	}, a.logger.Named("http"))

	srv := &http.Server{
		Addr:         a.cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Starting doc0 server",
			zap.String("address", a.cfg.Address()),
			zap.String("base_url", a.cfg.Server.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("Server stopped with error", zap.Error(err))
		return err
	}

	a.logger.Info("Server exited")
	return nil
}
