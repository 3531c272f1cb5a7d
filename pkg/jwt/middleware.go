package jwt

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/bizkit-fr/entitlements/pkg/logger"
)

// TokenExtractorFunc extracts a raw token from a request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// BearerTokenExtractor reads "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// CookieTokenExtractor reads the token from a cookie.
func CookieTokenExtractor(name string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		c, err := r.Cookie(name)
		if err != nil || c.Value == "" {
			return "", ErrMissingToken
		}
		return c.Value, nil
	}
}

// ChainExtractors tries each extractor in turn.
func ChainExtractors(extractors ...TokenExtractorFunc) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		for _, ex := range extractors {
			if tok, err := ex(r); err == nil {
				return tok, nil
			}
		}
		return "", ErrMissingToken
	}
}

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middleware)

type middleware struct {
	extract TokenExtractorFunc
	log     *slog.Logger
}

// WithExtractor replaces the bearer extractor.
func WithExtractor(fn TokenExtractorFunc) MiddlewareOption {
	return func(m *middleware) {
		if fn != nil {
			m.extract = fn
		}
	}
}

// WithLogger logs rejected tokens at debug level.
func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(m *middleware) {
		if l != nil {
			m.log = l
		}
	}
}

// Middleware authenticates requests optionally: a valid token puts its user
// ID in the request context, anything else leaves the request anonymous so
// downstream checks see uuid.Nil.
func Middleware(v *Verifier, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if v == nil {
		panic("jwt: verifier is required")
	}
	m := &middleware{extract: BearerTokenExtractor, log: logger.Nop()}
	for _, opt := range opts {
		opt(m)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := m.extract(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := v.Verify(token)
			if err != nil {
				m.log.DebugContext(r.Context(), "access token rejected", logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			id, err := claims.UserID()
			if err != nil {
				m.log.DebugContext(r.Context(), "access token rejected", logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}
