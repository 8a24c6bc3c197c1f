// Package memory is an in-process implementation of the partner, payment and QR code
// stores. A single mutex serialises all writes, which makes every method atomic.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/dmitrymomot/menukit/pkg/subscription"
	"github.com/dmitrymomot/menukit/pkg/usage"
)

type Store struct {
	mu sync.RWMutex

	partners map[string]*subscription.Partner

	// Append-only ledger and its gateway payment id index
	payments  []subscription.PaymentRecord
	paymentBy map[string]int

	qrCodes map[string]string
}

func New() *Store {
	return &Store{
		partners:  make(map[string]*subscription.Partner),
		paymentBy: make(map[string]int),
		qrCodes:   make(map[string]string),
	}
}

// Partner store implementation

func (s *Store) Create(_ context.Context, p *subscription.Partner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.partners[p.ID]; exists {
		return subscription.ErrPartnerAlreadyExists
	}
	s.partners[p.ID] = clonePartner(p)
	return nil
}

func (s *Store) Get(_ context.Context, partnerID string) (*subscription.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.partners[partnerID]
	if !ok {
		return nil, subscription.ErrPartnerNotFound
	}
	return clonePartner(p), nil
}

func (s *Store) ReplaceSubscription(_ context.Context, partnerID string, sub subscription.Subscription, featureFlags string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.partners[partnerID]
	if !ok {
		return subscription.ErrPartnerNotFound
	}
	p.Subscription = &sub
	p.FeatureFlags = featureFlags
	p.UpdatedAt = now
	return nil
}

func (s *Store) UpdateStatus(_ context.Context, partnerID string, upd subscription.StatusUpdate, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.partners[partnerID]
	if !ok {
		return subscription.ErrPartnerNotFound
	}
	if p.Subscription == nil {
		return subscription.ErrSubscriptionNotFound
	}

	p.Subscription.Status = upd.Status
	if upd.ExpiryDate != nil {
		p.Subscription.ExpiryDate = *upd.ExpiryDate
	}
	if upd.GatewaySubscriptionID != "" {
		p.Subscription.GatewaySubscriptionID = upd.GatewaySubscriptionID
	}
	p.UpdatedAt = now
	return nil
}

// IncrementScans applies the monthly reset and the conditional increment under the write lock.
func (s *Store) IncrementScans(_ context.Context, partnerID string, limit int64, now time.Time) (subscription.Usage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.partners[partnerID]
	if !ok {
		return subscription.Usage{}, false, subscription.ErrPartnerNotFound
	}
	if p.Subscription == nil {
		return subscription.Usage{}, false, subscription.ErrSubscriptionNotFound
	}

	u, accepted := p.Subscription.Usage.Increment(limit, now)
	p.Subscription.Usage = u
	if accepted {
		p.UpdatedAt = now
	}
	return u, accepted, nil
}

// Ledger implementation

func (s *Store) AppendPayment(_ context.Context, rec subscription.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.GatewayPaymentID != "" {
		if _, dup := s.paymentBy[rec.GatewayPaymentID]; dup {
			return subscription.ErrDuplicatePayment
		}
		s.paymentBy[rec.GatewayPaymentID] = len(s.payments)
	}
	rec.Details = maps.Clone(rec.Details)
	s.payments = append(s.payments, rec)
	return nil
}

func (s *Store) ListPayments(_ context.Context, partnerID string) ([]subscription.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]subscription.PaymentRecord, 0)
	for _, rec := range s.payments {
		if rec.PartnerID == partnerID {
			rec.Details = maps.Clone(rec.Details)
			out = append(out, rec)
		}
	}
	return out, nil
}

// QR code implementation

func (s *Store) AssignQR(_ context.Context, qrID, partnerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.partners[partnerID]; !ok {
		return subscription.ErrPartnerNotFound
	}
	s.qrCodes[qrID] = partnerID
	return nil
}

func (s *Store) ResolvePartner(_ context.Context, qrID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	partnerID, ok := s.qrCodes[qrID]
	if !ok {
		return "", usage.ErrNotFound
	}
	return partnerID, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func clonePartner(p *subscription.Partner) *subscription.Partner {
	cp := *p
	if p.Subscription != nil {
		sub := *p.Subscription
		cp.Subscription = &sub
	}
	return &cp
}
