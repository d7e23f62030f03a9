// Package httpapi is the HTTP surface: routing, middleware and handlers.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"kotiva.org/internal/auth"
	"kotiva.org/internal/obs"
)

const serviceName = "kotiva-api"

// readinessChecker is satisfied by ReadyProbe and by test doubles.
type readinessChecker interface {
	Check(ctx context.Context) error
}

// ReadyProbe pings the backing stores the service cannot run without.
type ReadyProbe struct {
	DB    interface{ Ping(ctx context.Context) error }
	Cache interface{ Ping(ctx context.Context) error }
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB != nil {
		if err := rp.DB.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if rp.Cache != nil {
		if err := rp.Cache.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// CacheInvalidator is the slice of the cache client the request path needs.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, namespace, key string) error
}

// Deps carries everything the HTTP layer depends on.
type Deps struct {
	Store    auth.Store
	Sessions *auth.SessionManager
	Resolver *auth.PermissionResolver
	Policy   *auth.PolicyEngine
	Reset    *auth.ResetManager
	Cache    CacheInvalidator
	Ready    readinessChecker
	Version  string
}

// API is the HTTP layer.
type API struct {
	mux  *http.ServeMux
	deps Deps
}

func New(deps Deps) *API {
	a := &API{
		mux:  http.NewServeMux(),
		deps: deps,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/auth/login", a.handleLogin)
	a.mux.HandleFunc("/auth/logout", a.RequireAuth(a.handleLogout))
	a.mux.HandleFunc("/auth/me", a.RequireAuth(a.handleMe))
	a.mux.HandleFunc("/auth/forgot-password", a.handleForgotPassword)
	a.mux.HandleFunc("/auth/reset-password", a.handleResetPassword)

	a.mux.HandleFunc("/permissions",
		a.RequireAuth(a.RequirePermission(auth.PermReadPermission, a.handleListPermissions)))

	a.mux.HandleFunc("/documents", a.RequireAuth(a.handleDocuments))
	a.mux.HandleFunc("/documents/", a.RequireAuth(a.handleDocumentByID))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully instrumented handler chain.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.mux)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.deps.Version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if a.deps.Ready != nil {
		if err := a.deps.Ready.Check(r.Context()); err != nil {
			obs.SetReady(false)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.deps.Version,
	})
}

func (a *API) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	perms, err := a.deps.Store.ListPermissions(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "AUTHORIZATION_ERROR", "failed to load permissions", nil)
		return
	}
	if perms == nil {
		perms = []auth.Permission{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAPIError emits the error body shape shared by every endpoint:
// {"message": ..., "code": ..., "request_id": ...} plus any extras.
func writeAPIError(w http.ResponseWriter, r *http.Request, status int, code, message string, extras map[string]any) {
	body := map[string]any{
		"message": message,
		"code":    code,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		body["request_id"] = rid
	}
	for k, v := range extras {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errors.New("request body too large")
		}
		return errors.New("invalid JSON body")
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	writeAPIError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
}
