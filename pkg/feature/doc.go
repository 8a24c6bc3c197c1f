// Package feature derives and parses the canonical feature flags string stored on a partner.
//
// A plan enables optional product features through a map of feature keys to booleans. The
// partner record carries a flattened, order-stable representation of that map so that
// downstream consumers (storefront, POS, dashboards) can check entitlements without loading
// the plan catalog.
//
// The flags string always contains exactly one token per canonical key, in a fixed order,
// joined with commas. Each token is "<key>-true" or "<key>-false":
//
//	ordering-true,delivery-false,multiwhatsapp-false,pos-true,stockmanagement-false,captainordering-false,purchasemanagement-false
//
// # Usage
//
//	import "github.com/dmitrymomot/menukit/pkg/feature"
//
//	flags := feature.Derive(plan.Features)
//
//	set := feature.Parse(partner.FeatureFlags)
//	if set.Enabled(feature.POS) {
//		// unlock POS screens
//	}
//
// Derive is pure and total: unknown keys in the input are ignored and a nil map produces a
// string with every key disabled. Parse is its tolerant inverse; malformed or unknown tokens
// are skipped and missing keys read as disabled.
package feature
