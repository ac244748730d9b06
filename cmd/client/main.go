package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/llmdesk/internal/apiclient"
	"github.com/dgallion1/llmdesk/internal/config"
	"github.com/dgallion1/llmdesk/internal/logger"
	"github.com/dgallion1/llmdesk/internal/session"
	"github.com/dgallion1/llmdesk/internal/web"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		logger.New("info").Error("load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend := apiclient.New(cfg.APIBaseURL,
		apiclient.WithTimeouts(apiclient.Timeouts{
			Health: cfg.HealthTimeout,
			Models: cfg.ModelsTimeout,
			Cloud:  cfg.CloudTimeout,
			Local:  cfg.LocalTimeout,
		}),
		apiclient.WithLogger(log.With("component", "apiclient")),
	)
	sessions := session.NewStore(cfg.SessionTTL)

	srv, err := web.NewServer(backend, sessions, web.Options{
		Title:      cfg.PageTitle,
		SessionTTL: cfg.SessionTTL,
	}, log)
	if err != nil {
		log.Error("init web server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		// Local answers may take up to LOCAL_TIMEOUT.
		WriteTimeout: cfg.LocalTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sessions.Run(gctx, time.Minute)
	})
	g.Go(func() error {
		log.Info("starting llmdesk web", "addr", cfg.Addr(), "api", backend.BaseURL())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
