package jwt

import "errors"

var (
	ErrMissingSecret = errors.New("jwt: missing signing secret")
	ErrMissingToken  = errors.New("jwt: missing token")
	ErrInvalidToken  = errors.New("jwt: invalid token")
	ErrInvalidUserID = errors.New("jwt: subject is not a user id")
)
