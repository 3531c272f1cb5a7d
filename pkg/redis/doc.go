// Package redis connects to Redis with go-redis/v9 for the Redis-backed
// subscription store.
package redis
