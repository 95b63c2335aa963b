package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gitgaze/gitgaze/internal/session"
	"github.com/google/go-github/v75/github"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"
)

const (
	stateCookieName = "oauth_state"

	defaultSessionTTL = 8 * time.Hour
	defaultStateTTL   = 10 * time.Minute
)

// OAuthConfig configures the GitHub OAuth login boundary.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	CookieSecure bool
	SessionTTL   time.Duration
	StateTTL     time.Duration
}

type codeExchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// OAuthHandler serves the login, callback, session, and logout endpoints.
type OAuthHandler struct {
	cfg      OAuthConfig
	store    session.Store
	resolver *Resolver
	logger   *zap.Logger

	exchange  codeExchanger
	authURL   func(state string) string
	fetchUser func(ctx context.Context, token string) (session.User, error)
	newID     func() string
	now       func() time.Time
}

// NewOAuthHandler creates the OAuth boundary over a session store. The
// resolver cache is invalidated on login and logout transitions.
func NewOAuthHandler(cfg OAuthConfig, store session.Store, resolver *Resolver, logger *zap.Logger) *OAuthHandler {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = defaultStateTTL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"read:user"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		Endpoint:     oauthgithub.Endpoint,
	}

	return &OAuthHandler{
		cfg:       cfg,
		store:     store,
		resolver:  resolver,
		logger:    logger,
		exchange:  oauthCfg,
		authURL:   func(state string) string { return oauthCfg.AuthCodeURL(state) },
		fetchUser: fetchAuthenticatedUser,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Login redirects the visitor to GitHub's authorize page with a CSRF state
// parameter stored in a short-lived cookie.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.cfg.ClientID == "" {
		h.redirectError(w, r, "oauth_not_configured")
		return
	}

	state := h.newID()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(h.cfg.StateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.authURL(state), http.StatusTemporaryRedirect)
}

// Callback exchanges the authorization code for an access token, fetches the
// authenticated user, and issues a session cookie.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if oauthErr := query.Get("error"); oauthErr != "" {
		h.redirectError(w, r, oauthErr)
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || query.Get("state") == "" || query.Get("state") != stateCookie.Value {
		h.redirectError(w, r, "invalid_state")
		return
	}

	code := query.Get("code")
	if code == "" {
		h.redirectError(w, r, "missing_code")
		return
	}
	if h.cfg.ClientID == "" || h.cfg.ClientSecret == "" {
		h.redirectError(w, r, "oauth_not_configured")
		return
	}

	token, err := h.exchange.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("oauth code exchange failed", zap.Error(err))
		h.redirectError(w, r, "oauth_failed")
		return
	}

	user, err := h.fetchUser(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Warn("authenticated user fetch failed", zap.Error(err))
		h.redirectError(w, r, "oauth_failed")
		return
	}

	sess := session.Session{
		ID:          h.newID(),
		User:        user,
		AccessToken: token.AccessToken,
		ExpiresAt:   h.now().Add(h.cfg.SessionTTL),
	}
	if err := h.store.Put(r.Context(), sess); err != nil {
		h.logger.Error("session store write failed", zap.Error(err))
		h.redirectError(w, r, "oauth_failed")
		return
	}
	h.resolver.InvalidateAll()

	h.clearCookie(w, stateCookieName)
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(h.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("visitor signed in", zap.String("login", user.Login))
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Session reports the current visitor session without exposing the access
// token.
func (h *OAuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"session": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": map[string]any{
			"user":       sess.User,
			"expires_at": sess.ExpiresAt,
		},
	})
}

// Logout deletes the stored session, clears the cookie, and invalidates the
// credential cache.
func (h *OAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		if err := h.store.Delete(r.Context(), sess.ID); err != nil {
			h.logger.Warn("session delete failed", zap.Error(err))
		}
	}
	h.resolver.InvalidateAll()
	h.clearCookie(w, session.CookieName)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *OAuthHandler) redirectError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(reason), http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func fetchAuthenticatedUser(ctx context.Context, token string) (session.User, error) {
	client := github.NewClient(nil).WithAuthToken(token)
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return session.User{}, fmt.Errorf("fetch authenticated user: %w", err)
	}
	return session.User{
		ID:        user.GetID(),
		Login:     user.GetLogin(),
		Name:      user.GetName(),
		AvatarURL: user.GetAvatarURL(),
		Email:     user.GetEmail(),
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
