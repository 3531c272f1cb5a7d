package logger

import (
	"fmt"
	"log/slog"
)

// Error logs err under "error". A nil error yields an empty Attr, which slog
// drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID logs a user identifier under "user_id".
func UserID(id fmt.Stringer) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.String("user_id", id.String())
}

// Plan logs a plan name under "plan".
func Plan(name string) slog.Attr {
	return slog.String("plan", name)
}

// Feature logs a feature identifier under "feature".
func Feature[T ~string](f T) slog.Attr {
	return slog.String("feature", string(f))
}

// Resource logs a resource type under "resource".
func Resource[T ~string](r T) slog.Attr {
	return slog.String("resource", string(r))
}

// Status logs a subscription status under "status".
func Status[T ~string](s T) slog.Attr {
	return slog.String("status", string(s))
}

// Component logs the emitting component under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Count logs a usage count and its quota.
func Count(used, limit int64) slog.Attr {
	return slog.Group("usage", slog.Int64("used", used), slog.Int64("limit", limit))
}
