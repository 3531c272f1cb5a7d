package mongo

import "errors"

var (
	ErrEmptyConnectionURL     = errors.New("empty mongo connection URL, set MONGODB_URL")
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
)
