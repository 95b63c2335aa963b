// Package config loads and validates the service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	validLogLevels       = []string{"debug", "info", "warn", "error"}
	validSessionBackends = []string{"memory", "redis"}
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig
	GitHub    GitHubConfig
	OAuth     OAuthConfig
	Sessions  SessionsConfig
	Dashboard DashboardConfig
	Telemetry TelemetryConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`
}

// GitHubConfig configures outbound GitHub API access.
type GitHubConfig struct {
	APIBaseURL     string
	UserAgent      string
	SharedToken    string
	RequestTimeout time.Duration
	App            GitHubAppConfig
}

// GitHubAppConfig configures optional GitHub App installation credentials
// used as a fallback credential source.
type GitHubAppConfig struct {
	AppID          int64  `yaml:"app_id"`
	InstallationID int64  `yaml:"installation_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
}

// Enabled reports whether app installation credentials are configured.
func (c GitHubAppConfig) Enabled() bool {
	return c.AppID > 0 && c.InstallationID > 0 && c.PrivateKeyPath != ""
}

// OAuthConfig configures the GitHub OAuth login flow.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	CookieSecure bool
	SessionTTL   time.Duration
	StateTTL     time.Duration
}

// SessionsConfig configures session persistence.
type SessionsConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Namespace     string
}

// DashboardConfig bounds dashboard data retrieval.
type DashboardConfig struct {
	MaxFollowers      int
	CommitRepoLimit   int
	MaxCommitsPerRepo int
	TokenCacheTTL     time.Duration
}

// TelemetryConfig configures OpenTelemetry behavior.
type TelemetryConfig struct {
	OTELEnabled          bool
	OTELTraceMode        string
	OTELTraceSampleRatio float64
}

// Load reads configuration from YAML and validates the result.
func Load(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("config reader is nil")
	}

	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	var raw rawConfig
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	cfg := raw.toConfig()
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates configuration values.
func (c *Config) Validate() error {
	var errs []string

	if !slices.Contains(validLogLevels, c.Server.LogLevel) {
		errs = append(errs, "server.log_level must be one of debug|info|warn|error")
	}
	if c.Server.ListenAddr == "" {
		errs = append(errs, "server.listen_addr is required")
	}

	if c.GitHub.RequestTimeout <= 0 {
		errs = append(errs, "github.request_timeout must be > 0")
	}
	if app := c.GitHub.App; app.AppID > 0 || app.InstallationID > 0 || app.PrivateKeyPath != "" {
		if !app.Enabled() {
			errs = append(errs, "github.app requires app_id, installation_id, and private_key_path together")
		}
	}

	if (c.OAuth.ClientID == "") != (c.OAuth.ClientSecret == "") {
		errs = append(errs, "oauth.client_id and oauth.client_secret must be set together")
	}
	if c.OAuth.ClientID != "" && c.OAuth.RedirectURL == "" {
		errs = append(errs, "oauth.redirect_url is required when oauth is configured")
	}

	if !slices.Contains(validSessionBackends, c.Sessions.Backend) {
		errs = append(errs, "sessions.backend must be memory or redis")
	}
	if c.Sessions.Backend == "redis" && c.Sessions.RedisAddr == "" {
		errs = append(errs, "sessions.redis_addr is required when sessions.backend=redis")
	}

	if c.Dashboard.MaxFollowers <= 0 {
		errs = append(errs, "dashboard.max_followers must be > 0")
	}
	if c.Dashboard.CommitRepoLimit <= 0 {
		errs = append(errs, "dashboard.commit_repo_limit must be > 0")
	}
	if c.Dashboard.MaxCommitsPerRepo <= 0 {
		errs = append(errs, "dashboard.max_commits_per_repo must be > 0")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.GitHub.RequestTimeout <= 0 {
		cfg.GitHub.RequestTimeout = 30 * time.Second
	}
	if cfg.OAuth.SessionTTL <= 0 {
		cfg.OAuth.SessionTTL = 8 * time.Hour
	}
	if cfg.OAuth.StateTTL <= 0 {
		cfg.OAuth.StateTTL = 10 * time.Minute
	}
	if len(cfg.OAuth.Scopes) == 0 {
		cfg.OAuth.Scopes = []string{"read:user"}
	}
	if cfg.Sessions.Backend == "" {
		cfg.Sessions.Backend = "memory"
	}
	if cfg.Sessions.Namespace == "" {
		cfg.Sessions.Namespace = "gitgaze"
	}
	if cfg.Dashboard.MaxFollowers <= 0 {
		cfg.Dashboard.MaxFollowers = 500
	}
	if cfg.Dashboard.CommitRepoLimit <= 0 {
		cfg.Dashboard.CommitRepoLimit = 20
	}
	if cfg.Dashboard.MaxCommitsPerRepo <= 0 {
		cfg.Dashboard.MaxCommitsPerRepo = 500
	}
	if cfg.Dashboard.TokenCacheTTL <= 0 {
		cfg.Dashboard.TokenCacheTTL = 5 * time.Minute
	}
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil || value.Kind == 0 || strings.TrimSpace(value.Value) == "" {
		d.Duration = 0
		return nil
	}

	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}

	parsed, err := parseFlexibleDuration(raw)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func parseFlexibleDuration(raw string) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}

	if standard, err := time.ParseDuration(trimmed); err == nil {
		return standard, nil
	}

	if strings.HasSuffix(trimmed, "d") {
		return parseDurationWithMultiplier(strings.TrimSuffix(trimmed, "d"), 24)
	}
	if strings.HasSuffix(trimmed, "w") {
		return parseDurationWithMultiplier(strings.TrimSuffix(trimmed, "w"), 24*7)
	}

	return 0, fmt.Errorf("parse duration %q: invalid unit", raw)
}

func parseDurationWithMultiplier(numeric string, multiplierHours float64) (time.Duration, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(numeric), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration value %q: %w", numeric, err)
	}

	nanos := value * multiplierHours * float64(time.Hour)
	if nanos > math.MaxInt64 || nanos < math.MinInt64 {
		return 0, fmt.Errorf("parse duration value %q: out of range", numeric)
	}
	return time.Duration(nanos), nil
}

type rawConfig struct {
	Server    ServerConfig `yaml:"server"`
	GitHub    rawGitHub    `yaml:"github"`
	OAuth     rawOAuth     `yaml:"oauth"`
	Sessions  rawSessions  `yaml:"sessions"`
	Dashboard rawDashboard `yaml:"dashboard"`
	Telemetry rawTelemetry `yaml:"telemetry"`
}

type rawGitHub struct {
	APIBaseURL     string          `yaml:"api_base_url"`
	UserAgent      string          `yaml:"user_agent"`
	SharedToken    string          `yaml:"shared_token"`
	RequestTimeout duration        `yaml:"request_timeout"`
	App            GitHubAppConfig `yaml:"app"`
}

type rawOAuth struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURL  string   `yaml:"redirect_url"`
	Scopes       []string `yaml:"scopes"`
	CookieSecure bool     `yaml:"cookie_secure"`
	SessionTTL   duration `yaml:"session_ttl"`
	StateTTL     duration `yaml:"state_ttl"`
}

type rawSessions struct {
	Backend       string `yaml:"backend"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	Namespace     string `yaml:"namespace"`
}

type rawDashboard struct {
	MaxFollowers      int      `yaml:"max_followers"`
	CommitRepoLimit   int      `yaml:"commit_repo_limit"`
	MaxCommitsPerRepo int      `yaml:"max_commits_per_repo"`
	TokenCacheTTL     duration `yaml:"token_cache_ttl"`
}

type rawTelemetry struct {
	OTELEnabled          bool    `yaml:"otel_enabled"`
	OTELTraceMode        string  `yaml:"otel_trace_mode"`
	OTELTraceSampleRatio float64 `yaml:"otel_trace_sample_ratio"`
}

func (r rawConfig) toConfig() *Config {
	return &Config{
		Server: r.Server,
		GitHub: GitHubConfig{
			APIBaseURL:     r.GitHub.APIBaseURL,
			UserAgent:      r.GitHub.UserAgent,
			SharedToken:    r.GitHub.SharedToken,
			RequestTimeout: r.GitHub.RequestTimeout.Duration,
			App:            r.GitHub.App,
		},
		OAuth: OAuthConfig{
			ClientID:     r.OAuth.ClientID,
			ClientSecret: r.OAuth.ClientSecret,
			RedirectURL:  r.OAuth.RedirectURL,
			Scopes:       r.OAuth.Scopes,
			CookieSecure: r.OAuth.CookieSecure,
			SessionTTL:   r.OAuth.SessionTTL.Duration,
			StateTTL:     r.OAuth.StateTTL.Duration,
		},
		Sessions: SessionsConfig{
			Backend:       r.Sessions.Backend,
			RedisAddr:     r.Sessions.RedisAddr,
			RedisPassword: r.Sessions.RedisPassword,
			RedisDB:       r.Sessions.RedisDB,
			Namespace:     r.Sessions.Namespace,
		},
		Dashboard: DashboardConfig{
			MaxFollowers:      r.Dashboard.MaxFollowers,
			CommitRepoLimit:   r.Dashboard.CommitRepoLimit,
			MaxCommitsPerRepo: r.Dashboard.MaxCommitsPerRepo,
			TokenCacheTTL:     r.Dashboard.TokenCacheTTL.Duration,
		},
		Telemetry: TelemetryConfig{
			OTELEnabled:          r.Telemetry.OTELEnabled,
			OTELTraceMode:        r.Telemetry.OTELTraceMode,
			OTELTraceSampleRatio: r.Telemetry.OTELTraceSampleRatio,
		},
	}
}
