// Package httpserver runs the HTTP API with graceful shutdown and provides
// liveness and readiness handlers for orchestration probes.
package httpserver
