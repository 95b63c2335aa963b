// Package health evaluates and serves liveness/readiness state.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Mode indicates high-level health mode.
type Mode string

const (
	// ModeHealthy indicates all dependencies are healthy.
	ModeHealthy Mode = "healthy"
	// ModeDegraded indicates the service runs but a non-critical dependency
	// is impaired (e.g. anonymous-only GitHub access).
	ModeDegraded Mode = "degraded"
	// ModeUnhealthy indicates a required dependency is down.
	ModeUnhealthy Mode = "unhealthy"
)

// Input represents dependency states used for evaluation.
type Input struct {
	SessionStoreHealthy bool
	CredentialAvailable bool
}

// Status is the evaluated application health.
type Status struct {
	Mode       Mode            `json:"mode"`
	Ready      bool            `json:"ready"`
	Components map[string]bool `json:"components"`
}

// Provider supplies current dependency states.
type Provider interface {
	CurrentInput(ctx context.Context) Input
}

// Evaluate derives status from dependency states. The session store gates
// readiness; a missing credential only degrades (anonymous GitHub access
// still works, at lower limits).
func Evaluate(input Input) Status {
	status := Status{
		Mode:  ModeHealthy,
		Ready: true,
		Components: map[string]bool{
			"session_store": input.SessionStoreHealthy,
			"credential":    input.CredentialAvailable,
		},
	}

	if !input.SessionStoreHealthy {
		status.Mode = ModeUnhealthy
		status.Ready = false
		return status
	}
	if !input.CredentialAvailable {
		status.Mode = ModeDegraded
	}
	return status
}

// Handler serves /livez, /readyz, and /healthz from a provider.
type Handler struct {
	provider Provider
}

// NewHandler creates a health handler.
func NewHandler(provider Provider) *Handler {
	return &Handler{provider: provider}
}

// ServeHTTP answers health probes. Liveness always succeeds while the
// process serves; readiness reflects evaluated status.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/livez") {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	}

	var input Input
	if h.provider != nil {
		input = h.provider.CurrentInput(r.Context())
	}
	status := Evaluate(input)

	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}
