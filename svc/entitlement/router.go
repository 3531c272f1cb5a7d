package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/bizkit-fr/entitlements/pkg/jwt"
	"github.com/bizkit-fr/entitlements/pkg/logger"
	"github.com/bizkit-fr/entitlements/pkg/plans"
)

// UserIDFunc returns the caller's user ID, uuid.Nil when anonymous.
type UserIDFunc func(ctx context.Context) uuid.UUID

// RouterOptions configures Router.
type RouterOptions struct {
	// Auth authenticates requests and stores the user ID in the context.
	// Usually jwt.Middleware.
	Auth func(http.Handler) http.Handler
	// UserID reads the user ID back. Defaults to jwt.UserIDFromContext.
	UserID UserIDFunc
	// AllowedOrigins enables CORS for the browser app when non-empty.
	AllowedOrigins []string
	Logger         *slog.Logger
}

type handler struct {
	svc    Service
	userID UserIDFunc
	log    *slog.Logger
}

// Router exposes the service over HTTP.
//
//	r := chi.NewRouter()
//	r.Mount("/v1", entitlement.Router(svc, entitlement.RouterOptions{
//	    Auth: jwt.Middleware(verifier),
//	}))
func Router(svc Service, opts RouterOptions) chi.Router {
	if svc == nil {
		panic("entitlement: service is required")
	}
	h := &handler{svc: svc, userID: opts.UserID, log: opts.Logger}
	if h.userID == nil {
		h.userID = jwt.UserIDFromContext
	}
	if h.log == nil {
		h.log = logger.Nop()
	}

	r := chi.NewRouter()
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(middleware.RequestID)
	if opts.Auth != nil {
		r.Use(opts.Auth)
	}

	r.Get("/plans", h.listPlans)
	r.Route("/me", func(r chi.Router) {
		r.Get("/entitlements", h.entitlements)
		r.Get("/features/{feature}", h.feature)
		r.Get("/resources/{resource}", h.resource)
		r.Get("/usage", h.usage)
		r.Get("/downgrade/{plan}", h.downgrade)
	})
	return r
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "entitlement request failed",
			slog.String("path", r.URL.Path), logger.Error(err))
	}
	writeError(w, err)
}

func (h *handler) listPlans(w http.ResponseWriter, _ *http.Request) {
	cat := h.svc.Catalog()
	all := cat.Plans()
	out := make([]planView, 0, len(all))
	for _, p := range all {
		out = append(out, newPlanView(p, cat.IsFree(p.Name)))
	}
	writeData(w, out)
}

func (h *handler) entitlements(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Entitlements(r.Context(), h.userID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v := snapshotView{
		Plan:     snap.Plan,
		Status:   string(snap.Status),
		Active:   snap.Active,
		Features: snap.Features,
		Limits:   make(map[string]*int64, len(snap.Limits)),
	}
	for res, limit := range snap.Limits {
		v.Limits[string(res)] = quota(limit)
	}
	writeData(w, v)
}

func (h *handler) feature(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "feature")
	ok, err := h.svc.HasAccess(r.Context(), h.userID(r.Context()), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, featureView{Feature: name, Allowed: ok})
}

func (h *handler) resource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := h.userID(ctx)
	name := chi.URLParam(r, "resource")

	res, known := plans.ParseResource(name)
	if userID == uuid.Nil || !known {
		ok, err := h.svc.CanUseResource(ctx, userID, name)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeData(w, resourceView{Resource: name, Allowed: ok})
		return
	}

	u, ok, err := h.svc.CheckResource(ctx, userID, res)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v := resourceView{Resource: name, Allowed: ok, Limit: quota(u.Limit)}
	if !u.Unlimited() {
		v.Used = &u.Current
	}
	writeData(w, v)
}

func (h *handler) usage(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.AllUsage(r.Context(), h.userID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make(map[string]usageView, len(all))
	for res, u := range all {
		out[string(res)] = newUsageView(u)
	}
	writeData(w, out)
}

func (h *handler) downgrade(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "plan")
	err := h.svc.CanDowngrade(r.Context(), h.userID(r.Context()), target)
	switch {
	case err == nil:
		writeData(w, downgradeView{Plan: target, Allowed: true})
	case errors.Is(err, ErrDowngradeNotPossible):
		writeData(w, downgradeView{Plan: target, Allowed: false, Reason: err.Error()})
	default:
		h.fail(w, r, err)
	}
}

// RequireFeatureMiddleware guards routes behind a feature. Anonymous callers
// get 401, users without the feature 402 and backend failures 503.
func RequireFeatureMiddleware(svc Service, feature plans.Feature, userID UserIDFunc) func(http.Handler) http.Handler {
	if svc == nil {
		panic("entitlement: service is required")
	}
	if userID == nil {
		userID = jwt.UserIDFromContext
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := svc.RequireFeature(r.Context(), userID(r.Context()), feature); err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireResourceMiddleware guards creation routes behind a quota.
func RequireResourceMiddleware(svc Service, res plans.Resource, userID UserIDFunc) func(http.Handler) http.Handler {
	if svc == nil {
		panic("entitlement: service is required")
	}
	if userID == nil {
		userID = jwt.UserIDFromContext
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := svc.RequireResource(r.Context(), userID(r.Context()), res); err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
