package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dghubble/oauth1"
	twitter "github.com/g8rswimmer/go-twitter/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
)

// noopAuthorizer used when OAuth 1.0a Transport signs the request
type noopAuthorizer struct{}

func (noopAuthorizer) Add(req *http.Request) {}

// newAPIClient builds a go-twitter client whose HTTP transport signs every
// request with the user-context credentials.
func newAPIClient(cfg Config, host string) *twitter.Client {
	oauthCfg := oauth1.NewConfig(cfg.APIKey, cfg.APISecretKey)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)
	return &twitter.Client{
		Authorizer: noopAuthorizer{},
		Client:     oauthCfg.Client(context.Background(), token),
		Host:       host,
	}
}

func run(ctx context.Context) error {
	if err := loadDotEnv(); err != nil {
		return err
	}
	cfg, err := LoadConfig(os.LookupEnv)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	settings, err := LoadSettings(os.LookupEnv)
	if err != nil {
		return err
	}
	enableDebug(settings.Debug)

	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	if srv := startMetricsServer(settings.MetricsAddr, registry); srv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	limiter := NewRateLimitTracker(settings.RateLimits, time.Now).WithMetrics(metrics)
	client := NewTwitterClient(newAPIClient(cfg, settings.APIHost), limiter, WithMetrics(metrics))
	server := NewServer(NewDispatcher(client, metrics))

	debugLog("Twitter MCP server is running on stdio.")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	debugLog("Shutting down server...")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "twitter MCP:", err)
		stop()
		os.Exit(1)
	}
}
