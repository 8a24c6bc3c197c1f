package plan

import (
	"context"
	"errors"
	"fmt"
)

// Catalog is the read-only plan repository shared by the billing components.
type Catalog interface {
	// Get returns the plan with the given internal id or ErrPlanNotFound.
	Get(id string) (Plan, error)

	// List returns all plans in source order.
	List() []Plan

	// ByGatewayID resolves a plan by either its production or its test gateway plan id.
	ByGatewayID(gatewayPlanID string) (Plan, bool)

	// IsKnownGatewayPlan reports whether a gateway plan id belongs to this product.
	// Webhooks for unknown ids are ignored.
	IsKnownGatewayPlan(gatewayPlanID string) bool

	// GatewayPlanID returns the gateway plan id to subscribe with in the current mode.
	GatewayPlanID(p Plan) string

	// Trial returns the plan assigned to newly created partners.
	Trial() (Plan, bool)
}

// Option configures a catalog.
type Option func(*catalog)

// WithTestMode makes GatewayPlanID return test gateway ids.
func WithTestMode(enabled bool) Option {
	return func(c *catalog) {
		c.testMode = enabled
	}
}

type catalog struct {
	plans    []Plan
	byID     map[string]int
	byGW     map[string]int
	trial    int
	testMode bool
}

// NewCatalog loads the plans from src once and validates them.
func NewCatalog(ctx context.Context, src Source, opts ...Option) (Catalog, error) {
	if src == nil {
		panic("plan: Source is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrFailedToLoadPlans) {
			return nil, err
		}
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	c := &catalog{
		plans: plans,
		byID:  make(map[string]int, len(plans)),
		byGW:  make(map[string]int, len(plans)*2),
		trial: -1,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.index(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *catalog) index() error {
	if len(c.plans) == 0 {
		return ErrEmptyCatalog
	}

	for i, p := range c.plans {
		if p.ID == "" {
			return errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("plan #%d has empty id", i))
		}
		if _, dup := c.byID[p.ID]; dup {
			return errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("duplicate plan id %q", p.ID))
		}
		if p.PeriodDays < 0 {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has negative period: %d", p.ID, p.PeriodDays))
		}
		if p.ScanLimit != nil && *p.ScanLimit < Unlimited {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has invalid scan limit: %d", p.ID, *p.ScanLimit))
		}
		c.byID[p.ID] = i

		for _, gid := range []string{p.GatewayPlanID, p.GatewayPlanIDTest} {
			if gid == "" {
				continue
			}
			if owner, dup := c.byGW[gid]; dup && owner != i {
				return errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("gateway plan id %q used by %s and %s", gid, c.plans[owner].ID, p.ID))
			}
			c.byGW[gid] = i
		}

		if p.Trial {
			if c.trial >= 0 {
				return errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("more than one trial plan: %s and %s", c.plans[c.trial].ID, p.ID))
			}
			c.trial = i
		}
	}
	return nil
}

func (c *catalog) Get(id string) (Plan, error) {
	i, ok := c.byID[id]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return c.plans[i].clone(), nil
}

func (c *catalog) List() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p.clone())
	}
	return out
}

func (c *catalog) ByGatewayID(gatewayPlanID string) (Plan, bool) {
	if gatewayPlanID == "" {
		return Plan{}, false
	}
	i, ok := c.byGW[gatewayPlanID]
	if !ok {
		return Plan{}, false
	}
	return c.plans[i].clone(), true
}

func (c *catalog) IsKnownGatewayPlan(gatewayPlanID string) bool {
	if gatewayPlanID == "" {
		return false
	}
	_, ok := c.byGW[gatewayPlanID]
	return ok
}

func (c *catalog) GatewayPlanID(p Plan) string {
	if c.testMode {
		return p.GatewayPlanIDTest
	}
	return p.GatewayPlanID
}

func (c *catalog) Trial() (Plan, bool) {
	if c.trial < 0 {
		return Plan{}, false
	}
	return c.plans[c.trial].clone(), true
}
