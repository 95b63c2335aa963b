package auth

import (
	"net/http"
	"time"

	"github.com/gitgaze/gitgaze/internal/session"
	"go.uber.org/zap"
)

// SessionLoader attaches the visitor's session to the request context when a
// valid session cookie is present. Requests without a session pass through
// untouched.
func SessionLoader(store session.Store, logger *zap.Logger, now func() time.Time) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(session.CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, ok, err := store.Get(r.Context(), cookie.Value)
			if err != nil {
				logger.Warn("session lookup failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !ok || sess.Expired(now()) {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), &sess)))
		})
	}
}
