package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizkit-fr/entitlements/pkg/httpserver"
)

func TestServer_RunAndCancel(t *testing.T) {
	t.Parallel()
	srv := httpserver.New(httpserver.Config{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
	}()

	select {
	case <-srv.Started():
	case <-time.After(2 * time.Second):
		require.Fail(t, "server did not start")
	}

	resp, err := http.Get("http://" + srv.Addr().String())
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		require.Fail(t, "run did not return")
	}
	assert.NoError(t, srv.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestServer_RunTwice(t *testing.T) {
	t.Parallel()
	srv := httpserver.New(httpserver.Config{Addr: "127.0.0.1:0"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = srv.Run(ctx, http.NotFoundHandler()) }()
	<-srv.Started()

	err := srv.Run(ctx, http.NotFoundHandler())
	assert.ErrorIs(t, err, httpserver.ErrAlreadyRunning)
}

func TestServer_BadAddr(t *testing.T) {
	t.Parallel()
	srv := httpserver.New(httpserver.Config{Addr: "127.0.0.1:-1"}, nil)
	err := srv.Run(context.Background(), http.NotFoundHandler())
	assert.ErrorIs(t, err, httpserver.ErrStart)

	err = srv.Run(context.Background(), http.NotFoundHandler())
	assert.ErrorIs(t, err, httpserver.ErrStart)
	assert.NotErrorIs(t, err, httpserver.ErrAlreadyRunning, "a failed listen does not hold the server")
	assert.Nil(t, srv.Addr())
}

func TestHealthHandlers(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httpserver.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("down") }

	rec = httptest.NewRecorder()
	httpserver.ReadinessHandler(nil, time.Second, map[string]httpserver.Check{"postgres": ok})(
		rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	httpserver.ReadinessHandler(nil, time.Second, map[string]httpserver.Check{"postgres": ok, "redis": fail})(
		rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])
	assert.Equal(t, "failing", body.Checks["redis"])
}
