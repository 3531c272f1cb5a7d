// Package jwt verifies the HS256 access tokens issued by the authentication
// backend and exposes the authenticated user ID through the request context.
//
// Authentication is optional at this layer: Middleware never rejects a
// request. Handlers read UserIDFromContext and treat uuid.Nil as anonymous.
package jwt
