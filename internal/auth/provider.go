package auth

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/gitgaze/gitgaze/internal/session"
	"go.uber.org/zap"
)

// sharedTokenEnvVars lists the environment variables checked for a shared
// GitHub token, in priority order.
var sharedTokenEnvVars = []string{
	"GITHUB_TOKEN",
	"GH_TOKEN",
}

// Provider yields a credential for the current request scope, or reports that
// it has none. Providers are consulted in order until one yields a value.
type Provider interface {
	TryResolve(ctx context.Context) (Credential, bool)
}

// SessionProvider resolves the OAuth token of the request's authenticated
// session.
type SessionProvider struct{}

// TryResolve returns the session token when the request carries a live
// session.
func (SessionProvider) TryResolve(ctx context.Context) (Credential, bool) {
	sess, ok := session.FromContext(ctx)
	if !ok || sess.AccessToken == "" {
		return Credential{}, false
	}
	return Credential{Token: sess.AccessToken, Provenance: ProvenanceSession}, true
}

// SharedTokenProvider resolves the configured shared application token,
// falling back to well-known environment variables.
type SharedTokenProvider struct {
	Token string
}

// TryResolve returns the shared token if one is configured.
func (p SharedTokenProvider) TryResolve(context.Context) (Credential, bool) {
	token := strings.TrimSpace(p.Token)
	if token == "" {
		for _, name := range sharedTokenEnvVars {
			if value := strings.TrimSpace(os.Getenv(name)); value != "" {
				token = value
				break
			}
		}
	}
	if token == "" {
		return Credential{}, false
	}
	return Credential{Token: token, Provenance: ProvenanceShared}, true
}

// AppInstallationConfig configures GitHub App installation credentials.
type AppInstallationConfig struct {
	AppID          int64
	InstallationID int64
	PrivateKeyPath string
}

// AppInstallationProvider mints GitHub App installation tokens. The
// installation transport caches tokens internally and renews them before
// expiry.
type AppInstallationProvider struct {
	transport *ghinstallation.Transport
	logger    *zap.Logger
}

// NewAppInstallationProvider creates an installation-token provider from a
// private key file.
func NewAppInstallationProvider(cfg AppInstallationConfig, logger *zap.Logger) (*AppInstallationProvider, error) {
	transport, err := ghinstallation.NewKeyFromFile(
		http.DefaultTransport,
		cfg.AppID,
		cfg.InstallationID,
		cfg.PrivateKeyPath,
	)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppInstallationProvider{transport: transport, logger: logger}, nil
}

// TryResolve mints or reuses an installation token.
func (p *AppInstallationProvider) TryResolve(ctx context.Context) (Credential, bool) {
	token, err := p.transport.Token(ctx)
	if err != nil {
		p.logger.Warn("app installation token unavailable", zap.Error(err))
		return Credential{}, false
	}
	return Credential{Token: token, Provenance: ProvenanceApp}, true
}
