// Package logger builds *slog.Logger values for the entitlement service and
// provides the attribute helpers used across packages so that keys stay
// consistent (user_id, plan, feature, resource, ...).
//
// New takes functional options. WithEnvironment selects the per-environment
// defaults (text/debug in development, JSON/info in staging and production);
// WithContextExtractors adds attributes pulled from the request context at
// log time, such as the request ID set by chi's middleware:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "entitlementd"),
//	    logger.WithContextExtractors(logger.ContextValue("request_id", middleware.RequestIDKey)),
//	)
//	log.InfoContext(ctx, "access denied", logger.UserID(userID), logger.Feature(f))
package logger
