// Package mongo connects to MongoDB with mongo-driver/v2 for the
// MongoDB-backed subscription store and usage counters.
package mongo
