package entitlement_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bizkit-fr/entitlements/pkg/jwt"
	"github.com/bizkit-fr/entitlements/pkg/plans"
	"github.com/bizkit-fr/entitlements/svc/entitlement"
)

type envelope struct {
	Code  string          `json:"code"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiFixture struct {
	*fixture
	verifier *jwt.Verifier
	handler  http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	v, err := jwt.NewVerifier(jwt.Config{Secret: "router-secret", Audience: "authenticated"})
	require.NoError(t, err)
	f := newFixture(t)
	return &apiFixture{
		fixture:  f,
		verifier: v,
		handler: entitlement.Router(f.svc, entitlement.RouterOptions{
			Auth:           jwt.Middleware(v),
			AllowedOrigins: []string{"https://app.example.test"},
		}),
	}
}

func (a *apiFixture) get(t *testing.T, path string, userID uuid.UUID) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if userID != uuid.Nil {
		token, err := a.verifier.Sign(userID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec.Code, body
}

func decodeData[T any](t *testing.T, body envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body.Data, &v))
	return v
}

func TestRouter_Plans(t *testing.T) {
	t.Parallel()
	a := newAPIFixture(t)

	code, body := a.get(t, "/plans", uuid.Nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Code)

	type plan struct {
		Name   string            `json:"name"`
		Free   bool              `json:"free"`
		Limits map[string]*int64 `json:"limits"`
	}
	list := decodeData[[]plan](t, body)
	require.Len(t, list, 4)
	assert.Equal(t, plans.PlanFreemium, list[0].Name)
	assert.True(t, list[0].Free)
	require.NotNil(t, list[0].Limits["clients"])
	assert.Equal(t, int64(10), *list[0].Limits["clients"])
	assert.Nil(t, list[1].Limits["clients"], "unlimited renders as null")
}

func TestRouter_Features(t *testing.T) {
	t.Parallel()
	a := newAPIFixture(t)

	tests := []struct {
		name    string
		feature string
		user    uuid.UUID
		want    bool
	}{
		{"anonymous", "devis", uuid.Nil, false},
		{"free feature", "devis", a.user, true},
		{"paid feature", "missions", a.user, false},
		{"unknown feature", "teleportation", a.user, false},
	}
	for _, tt := range tests {
		code, body := a.get(t, "/me/features/"+tt.feature, tt.user)
		require.Equal(t, http.StatusOK, code, tt.name)
		got := decodeData[struct {
			Feature string `json:"feature"`
			Allowed bool   `json:"allowed"`
		}](t, body)
		assert.Equal(t, tt.feature, got.Feature, tt.name)
		assert.Equal(t, tt.want, got.Allowed, tt.name)
	}

	a.subscribe(t, plans.PlanPremiumStandard, entitlement.StatusActive, time.Hour)
	_, body := a.get(t, "/me/features/missions", a.user)
	assert.True(t, decodeData[struct {
		Allowed bool `json:"allowed"`
	}](t, body).Allowed)
}

func TestRouter_Resources(t *testing.T) {
	t.Parallel()
	a := newAPIFixture(t)
	a.counters.Set(plans.ResourceClients, a.user, 3)

	type resource struct {
		Allowed bool   `json:"allowed"`
		Used    *int64 `json:"used"`
		Limit   *int64 `json:"limit"`
	}

	code, body := a.get(t, "/me/resources/clients", a.user)
	require.Equal(t, http.StatusOK, code)
	got := decodeData[resource](t, body)
	assert.True(t, got.Allowed)
	require.NotNil(t, got.Used)
	require.NotNil(t, got.Limit)
	assert.Equal(t, int64(3), *got.Used)
	assert.Equal(t, int64(10), *got.Limit)

	_, body = a.get(t, "/me/resources/showcase-sites", a.user)
	assert.False(t, decodeData[resource](t, body).Allowed)

	_, body = a.get(t, "/me/resources/projects", a.user)
	got = decodeData[resource](t, body)
	assert.True(t, got.Allowed, "unknown resources are not gated")
	assert.Nil(t, got.Used)

	_, body = a.get(t, "/me/resources/clients", uuid.Nil)
	assert.False(t, decodeData[resource](t, body).Allowed)
}

func TestRouter_ResourceResolvesOnce(t *testing.T) {
	t.Parallel()
	user := uuid.New()
	store := &mockStore{}
	store.On("ListByUser", mock.Anything, user).
		Return([]entitlement.Subscription{sub(user, plans.PlanPremiumStandard, entitlement.StatusActive, time.Hour)}, nil).
		Once()
	svc := entitlement.NewService(plans.DefaultCatalog(), store,
		entitlement.WithCounter(plans.ResourceClients, func(context.Context, uuid.UUID) (int64, error) {
			return 0, errors.New("replica lagging")
		}))
	h := entitlement.Router(svc, entitlement.RouterOptions{
		UserID: func(context.Context) uuid.UUID { return user },
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me/resources/clients", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	got := decodeData[struct {
		Allowed bool   `json:"allowed"`
		Used    *int64 `json:"used"`
		Limit   *int64 `json:"limit"`
	}](t, body)
	assert.True(t, got.Allowed)
	assert.Nil(t, got.Used, "unlimited quotas are not counted")
	assert.Nil(t, got.Limit)
	store.AssertExpectations(t)
}

func TestRouter_EntitlementsAndUsage(t *testing.T) {
	t.Parallel()
	a := newAPIFixture(t)
	a.subscribe(t, plans.PlanPremiumSiteVitrine, entitlement.StatusActive, time.Hour)
	a.counters.Set(plans.ResourceShowcaseSites, a.user, 2)

	code, body := a.get(t, "/me/entitlements", uuid.Nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "unauthenticated", body.Error.Code)

	code, body = a.get(t, "/me/entitlements", a.user)
	require.Equal(t, http.StatusOK, code)
	snap := decodeData[struct {
		Plan     string   `json:"plan"`
		Status   string   `json:"status"`
		Features []string `json:"features"`
	}](t, body)
	assert.Equal(t, plans.PlanPremiumSiteVitrine, snap.Plan)
	assert.Equal(t, "active", snap.Status)
	assert.Contains(t, snap.Features, "sites-vitrines")

	code, body = a.get(t, "/me/usage", a.user)
	require.Equal(t, http.StatusOK, code)
	usage := decodeData[map[string]struct {
		Used    int64  `json:"used"`
		Limit   *int64 `json:"limit"`
		Percent int    `json:"percent"`
	}](t, body)
	assert.Equal(t, int64(2), usage["showcase-sites"].Used)
	assert.Equal(t, 66, usage["showcase-sites"].Percent)
	assert.Equal(t, -1, usage["clients"].Percent)
	assert.Nil(t, usage["clients"].Limit)
}

func TestRouter_Downgrade(t *testing.T) {
	t.Parallel()
	a := newAPIFixture(t)
	a.subscribe(t, plans.PlanPremiumSiteVitrine, entitlement.StatusActive, time.Hour)
	a.counters.Set(plans.ResourceShowcaseSites, a.user, 2)

	type downgrade struct {
		Allowed bool   `json:"allowed"`
		Reason  string `json:"reason"`
	}

	code, body := a.get(t, "/me/downgrade/freemium", a.user)
	require.Equal(t, http.StatusOK, code)
	got := decodeData[downgrade](t, body)
	assert.False(t, got.Allowed)
	assert.NotEmpty(t, got.Reason)

	a.counters.Set(plans.ResourceShowcaseSites, a.user, 0)
	_, body = a.get(t, "/me/downgrade/freemium", a.user)
	assert.True(t, decodeData[downgrade](t, body).Allowed)

	code, _ = a.get(t, "/me/downgrade/enterprise", a.user)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRouter_BackendFailure(t *testing.T) {
	t.Parallel()
	user := uuid.New()
	store := &mockStore{}
	store.On("ListByUser", mock.Anything, user).Return(nil, errors.New("pool exhausted"))
	svc := entitlement.NewService(plans.DefaultCatalog(), store)
	h := entitlement.Router(svc, entitlement.RouterOptions{
		UserID: func(context.Context) uuid.UUID { return user },
	})

	for _, path := range []string{"/me/features/devis", "/me/resources/clients", "/me/entitlements", "/me/usage"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)

		var body envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "entitlement_unavailable", body.Code, path)
		assert.NotContains(t, rec.Body.String(), "pool exhausted", "internal causes are not exposed")
	}
}

func TestRouter_CORS(t *testing.T) {
	t.Parallel()
	a := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/me/entitlements", nil)
	req.Header.Set("Origin", "https://app.example.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.test", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequireFeatureMiddleware(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	var current uuid.UUID
	userID := func(context.Context) uuid.UUID { return current }
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := entitlement.RequireFeatureMiddleware(f.svc, plans.FeatureStatistiques, userID)(next)

	serve := func() int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
		return rec.Code
	}

	current = uuid.Nil
	assert.Equal(t, http.StatusUnauthorized, serve())

	current = f.user
	assert.Equal(t, http.StatusPaymentRequired, serve())

	f.subscribe(t, plans.PlanPremiumStandard, entitlement.StatusActive, time.Hour)
	assert.Equal(t, http.StatusNoContent, serve())
}

func TestRequireResourceMiddleware(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	userID := func(context.Context) uuid.UUID { return f.user }
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })
	h := entitlement.RequireResourceMiddleware(f.svc, plans.ResourceQuotes, userID)(next)

	serve := func() (int, envelope) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/quotes", nil))
		var body envelope
		if rec.Code != http.StatusCreated {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		}
		return rec.Code, body
	}

	code, _ := serve()
	assert.Equal(t, http.StatusCreated, code)

	f.counters.Set(plans.ResourceQuotes, f.user, 3)
	code, body := serve()
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "limit_exceeded", body.Code)
}
