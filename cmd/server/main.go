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

	"github.com/dgallion1/llmdesk/internal/api"
	"github.com/dgallion1/llmdesk/internal/config"
	"github.com/dgallion1/llmdesk/internal/logger"
	"github.com/dgallion1/llmdesk/internal/provider"
)

func main() {
	cfg, err := config.LoadServer()
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

	// Upper bound for one provider call; request contexts usually end sooner.
	httpClient := &http.Client{Timeout: 5 * time.Minute}

	var cloud provider.Provider
	switch cfg.CloudProvider {
	case "anthropic":
		cloud = provider.NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, httpClient)
	default:
		cloud = provider.NewGroq(cfg.GroqAPIKey, cfg.GroqBaseURL, httpClient)
	}
	local := provider.NewOllama(cfg.OllamaURL, httpClient)

	srv := api.NewServer(cfg, cloud, local, provider.NewStats(cfg.StatsWindow), log)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting llmdesk api", "addr", cfg.Addr(), "cloud_provider", cloud.Name())
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

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
