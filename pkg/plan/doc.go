// Package plan provides the read-only catalog of subscription plans.
//
// A plan defines the price, billing period, monthly scan quota and feature map of a
// subscription tier, together with the gateway plan ids it is sold under in production and
// test mode. Plans are immutable once loaded.
//
// The catalog is always injected. It is built once from a Source and then shared by the
// subscription service, the usage meter and the billing entry points:
//
//	import "github.com/dmitrymomot/menukit/pkg/plan"
//
//	src := plan.NewFileSource("plans.yaml")
//	catalog, err := plan.NewCatalog(ctx, src, plan.WithTestMode(cfg.TestMode))
//	if err != nil {
//		return err
//	}
//
//	p, err := catalog.Get("growth")
//	if errors.Is(err, plan.ErrPlanNotFound) {
//		// unknown plan
//	}
//
// # Catalog file
//
// FileSource reads a versioned YAML (or JSON) document:
//
//	version: 3
//	plans:
//	  - id: starter
//	    name: Starter
//	    trial: true
//	    period_days: 14
//	    scan_limit: 200
//	  - id: growth
//	    name: Growth
//	    price: {amount: 99900, currency: INR}
//	    period_days: 365
//	    scan_limit: -1
//	    gateway_plan_id: plan_LIVE123
//	    gateway_plan_id_test: plan_TEST123
//	    features:
//	      ordering: true
//	      pos: true
//
// Plans without their own version inherit the document version.
//
// # Defaults
//
// A plan without period_days lasts DefaultPeriodDays. A plan without scan_limit is metered
// against DefaultScanLimit. Unlimited (-1) disables metering.
package plan
