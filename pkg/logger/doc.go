// Package logger builds the process *slog.Logger.
//
// New applies Options over production defaults (JSON, info level, stdout)
// and wraps the handler so that ContextExtractors can add request scoped
// attributes, such as the request id, to every record logged with a context:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "menukit"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "scan metered", logger.PartnerID(id), logger.QRID(qrID))
//
// Attribute helpers in attr.go keep key names consistent across packages.
// Helpers for optional values return an empty slog.Attr, which slog drops.
package logger
