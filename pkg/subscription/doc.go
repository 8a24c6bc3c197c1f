// Package subscription owns the billing lifecycle of a partner (restaurant tenant).
//
// A partner carries exactly one Subscription block: the plan it is on (referenced by
// catalog id and version), a persisted Status, start and expiry dates, gateway ids and the
// monthly scan Usage. The partner also carries a feature flags string derived from the
// plan with package feature.
//
// # States
//
// Persisted states are active, halted, cancelled and paused. A fourth state, expired, is
// an overlay computed at read time: once the expiry date has passed EffectiveStatus
// reports StatusExpired whatever the stored status says. Access checks always go through
// EffectiveStatus.
//
// # Transitions
//
// Gateway webhooks are decoded into a closed set of Event variants and fed to Apply:
//
//	Charged    status=active, expiry=period end, payment appended to the ledger
//	Pending    no change
//	Halted     status=halted
//	Cancelled  status=cancelled
//	Paused     status=paused
//	Resumed    status=active, expiry=period end
//	Unhandled  no change
//
// Events whose gateway plan id is not in the catalog are ignored before any store call.
// Status and expiry writes are overwrites, so replaying an event leaves the same state.
// The ledger rejects a second record with the same gateway payment id, which makes
// duplicate charge deliveries safe.
//
// Upgrade and Activate replace the whole block: new plan, status active, fresh period,
// usage reset to zero, regenerated feature flags.
//
// # Usage
//
//	svc := subscription.NewService(catalog, store, store, invalidator,
//		subscription.WithLogger(log),
//	)
//
//	partner, err := svc.Onboard(ctx, "partner-42", "IN")
//
//	outcome, err := svc.Apply(ctx, subscription.Halted{Meta: meta})
//
//	if svc.HasFeature(ctx, "partner-42", feature.POS) {
//		// ...
//	}
//
// The service holds no locks. Every mutation is a single Store or Ledger call, and
// cache invalidation is signalled after each one.
package subscription
