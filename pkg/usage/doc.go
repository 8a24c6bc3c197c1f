// Package usage meters customer menu scans against a partner's monthly quota.
//
// Every scan goes through Meter (by partner id) or MeterQR (by menu QR code id). The meter
// resolves the effective limit from the partner's plan and asks the store to apply one
// increment atomically: the calendar-month reset, the limit check and the increment are a
// single store operation, so concurrent scans for the same partner never lose or exceed
// an increment.
//
//	m := usage.NewMeter(catalog, store,
//		usage.WithResolver(store),
//		usage.WithRecorder(analytics),
//		usage.WithLogger(log),
//	)
//
//	res, err := m.MeterQR(ctx, qrID)
//	switch {
//	case errors.Is(err, usage.ErrNotFound):
//		// unknown QR code or partner
//	case err != nil:
//		// store failure
//	case res.LimitReached:
//		// show the upgrade prompt
//	}
//
// A reached limit is a normal Result, not an error.
package usage
