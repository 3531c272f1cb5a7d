package jwt

import "time"

// Config describes the access tokens issued by the authentication backend.
type Config struct {
	Secret   string        `env:"AUTH_JWT_SECRET"`
	Issuer   string        `env:"AUTH_JWT_ISSUER"`
	Audience string        `env:"AUTH_JWT_AUDIENCE" envDefault:"authenticated"`
	Leeway   time.Duration `env:"AUTH_JWT_LEEWAY" envDefault:"30s"`
}
