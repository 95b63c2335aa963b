// Package app wires the dashboard runtime and its HTTP surface.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gitgaze/gitgaze/internal/analytics"
	"github.com/gitgaze/gitgaze/internal/auth"
	"github.com/gitgaze/gitgaze/internal/config"
	"github.com/gitgaze/gitgaze/internal/githubapi"
	"github.com/gitgaze/gitgaze/internal/health"
	"github.com/gitgaze/gitgaze/internal/metrics"
	"github.com/gitgaze/gitgaze/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Runtime owns the assembled service components.
type Runtime struct {
	cfg    *config.Config
	logger *zap.Logger

	client   *githubapi.Client
	resolver *auth.Resolver
	sessions session.Store
	oauth    *auth.OAuthHandler
	commits  *analytics.Calculator

	registry    *prometheus.Registry
	httpMetrics *metrics.HTTPMetrics

	redisStore *session.RedisStore
	stopGC     chan struct{}
}

// NewRuntime assembles the service from configuration.
func NewRuntime(cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := metrics.NewRegistry()
	githubMetrics := metrics.NewGitHubMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	rt := &Runtime{
		cfg:         cfg,
		logger:      logger,
		registry:    registry,
		httpMetrics: httpMetrics,
	}

	switch cfg.Sessions.Backend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Sessions.RedisAddr,
			Password: cfg.Sessions.RedisPassword,
			DB:       cfg.Sessions.RedisDB,
		})
		rt.redisStore = session.NewRedisStore(redisClient, session.RedisStoreConfig{
			Namespace: cfg.Sessions.Namespace,
		})
		rt.sessions = rt.redisStore
	default:
		memStore := session.NewMemoryStore(nil)
		rt.sessions = memStore
		rt.stopGC = make(chan struct{})
		go func() {
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-rt.stopGC:
					return
				case tick := <-ticker.C:
					memStore.GC(tick)
				}
			}
		}()
	}

	providers := []auth.Provider{
		auth.SessionProvider{},
		auth.SharedTokenProvider{Token: cfg.GitHub.SharedToken},
	}
	if cfg.GitHub.App.Enabled() {
		appProvider, err := auth.NewAppInstallationProvider(auth.AppInstallationConfig{
			AppID:          cfg.GitHub.App.AppID,
			InstallationID: cfg.GitHub.App.InstallationID,
			PrivateKeyPath: cfg.GitHub.App.PrivateKeyPath,
		}, logger)
		if err != nil {
			return nil, err
		}
		providers = append(providers, appProvider)
	}
	rt.resolver = auth.NewResolver(providers, cfg.Dashboard.TokenCacheTTL, nil)

	httpClient := &http.Client{Timeout: cfg.GitHub.RequestTimeout}
	client, err := githubapi.NewClient(httpClient, rt.resolver, githubMetrics, githubapi.ClientConfig{
		BaseURL:   cfg.GitHub.APIBaseURL,
		UserAgent: cfg.GitHub.UserAgent,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	rt.client = client

	rt.oauth = auth.NewOAuthHandler(auth.OAuthConfig{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURL:  cfg.OAuth.RedirectURL,
		Scopes:       cfg.OAuth.Scopes,
		CookieSecure: cfg.OAuth.CookieSecure,
		SessionTTL:   cfg.OAuth.SessionTTL,
		StateTTL:     cfg.OAuth.StateTTL,
	}, rt.sessions, rt.resolver, logger)

	rt.commits = analytics.NewCalculator(client, logger, analytics.CalculatorConfig{
		RepoLimit:         cfg.Dashboard.CommitRepoLimit,
		MaxCommitsPerRepo: cfg.Dashboard.MaxCommitsPerRepo,
	})

	return rt, nil
}

// CurrentInput supplies dependency states for health evaluation.
func (rt *Runtime) CurrentInput(ctx context.Context) health.Input {
	storeHealthy := true
	if rt.redisStore != nil {
		storeHealthy = rt.redisStore.Healthy(ctx)
	}
	return health.Input{
		SessionStoreHealthy: storeHealthy,
		CredentialAvailable: !rt.resolver.Resolve(ctx).IsZero(),
	}
}

// Close releases held resources.
func (rt *Runtime) Close() error {
	if rt.stopGC != nil {
		close(rt.stopGC)
		rt.stopGC = nil
	}
	if rt.redisStore != nil {
		return rt.redisStore.Close()
	}
	return nil
}
