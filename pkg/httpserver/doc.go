// Package httpserver runs the menukit HTTP API with graceful shutdown.
//
// Run binds the listener before it returns control, so Ready and Addr are usable
// with an ephemeral port in tests. Cancelling the context passed to Run shuts the
// server down within ShutdownTimeout, then runs the stop hooks.
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithStopHook(func() { _ = inv.Close(context.Background()) }),
//	)
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	err := srv.Run(ctx, router)
//
// LivenessHandler and ReadinessHandler serve /healthz and /readyz. Readiness reports
// each named Check as "ok" or "error" and answers 503 if any fails.
package httpserver
