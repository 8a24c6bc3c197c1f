// Package mongo implements the partner, payment and QR code stores on MongoDB.
//
// A partner is one document with its subscription embedded. Scan metering is a
// single FindOneAndUpdate with an aggregation pipeline, so the monthly reset and
// the conditional increment are applied atomically by the server.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/menukit/pkg/plan"
	"github.com/dmitrymomot/menukit/pkg/subscription"
	"github.com/dmitrymomot/menukit/pkg/usage"
)

// Collection name constants.
const (
	colPartners = "partners"
	colPayments = "payments"
	colQRCodes  = "qr_codes"
)

// ErrConcurrentUpdate means a write raced with a subscription being attached.
var ErrConcurrentUpdate = errors.New("menukit/mongo: concurrent subscription change, retry")

type Store struct {
	db *mongo.Database
}

// New creates a store on db. Call Migrate once before use.
func New(db *mongo.Database) *Store {
	if db == nil {
		panic("mongo: database is required")
	}
	return &Store{db: db}
}

// Migrate creates indexes for all collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("menukit/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// ==================== Partner Store ====================

func (s *Store) Create(ctx context.Context, p *subscription.Partner) error {
	_, err := s.db.Collection(colPartners).InsertOne(ctx, toPartnerModel(p))
	if mongo.IsDuplicateKeyError(err) {
		return subscription.ErrPartnerAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("menukit/mongo: create partner: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, partnerID string) (*subscription.Partner, error) {
	var m partnerModel
	err := s.db.Collection(colPartners).FindOne(ctx, bson.M{"_id": partnerID}).Decode(&m)
	if isNoDocuments(err) {
		return nil, subscription.ErrPartnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("menukit/mongo: get partner: %w", err)
	}
	return fromPartnerModel(&m), nil
}

func (s *Store) ReplaceSubscription(ctx context.Context, partnerID string, sub subscription.Subscription, featureFlags string, now time.Time) error {
	res, err := s.db.Collection(colPartners).UpdateOne(ctx,
		bson.M{"_id": partnerID},
		bson.M{"$set": bson.M{
			"subscription":  toSubscriptionModel(&sub),
			"feature_flags": featureFlags,
			"updated_at":    now.UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("menukit/mongo: replace subscription: %w", err)
	}
	if res.MatchedCount == 0 {
		return subscription.ErrPartnerNotFound
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, partnerID string, upd subscription.StatusUpdate, now time.Time) error {
	set := bson.M{
		"subscription.status": string(upd.Status),
		"updated_at":          now.UTC(),
	}
	if upd.ExpiryDate != nil {
		set["subscription.expiry_date"] = upd.ExpiryDate.UTC()
	}
	if upd.GatewaySubscriptionID != "" {
		set["subscription.gateway_subscription_id"] = upd.GatewaySubscriptionID
	}

	res, err := s.db.Collection(colPartners).UpdateOne(ctx, withSubscription(partnerID), bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("menukit/mongo: update status: %w", err)
	}
	if res.MatchedCount == 0 {
		return s.missing(ctx, partnerID)
	}
	return nil
}

// IncrementScans runs the reset and conditional increment as one pipeline update.
// Every $set stage reads the output of the previous one, and expressions within
// a stage read the stage input. The pre-update document is returned and the same
// transition is replayed with subscription.Usage.Increment, so nothing besides
// the usage block and updated_at is written.
func (s *Store) IncrementScans(ctx context.Context, partnerID string, limit int64, now time.Time) (subscription.Usage, bool, error) {
	// BSON dates carry milliseconds; the replay must see the stored value.
	now = now.UTC().Truncate(time.Millisecond)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	const (
		scans     = "$subscription.usage.scans_cycle"
		lastReset = "$subscription.usage.last_reset"
	)
	stale := bson.M{"$or": bson.A{
		bson.M{"$lt": bson.A{bson.M{"$ifNull": bson.A{lastReset, time.Unix(0, 0).UTC()}}, monthStart}},
		bson.M{"$gte": bson.A{lastReset, nextMonth}},
	}}

	var accept any = true
	if limit != plan.Unlimited {
		accept = bson.M{"$lt": bson.A{scans, limit}}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"subscription.usage.scans_cycle": bson.M{"$cond": bson.A{stale, int64(0), bson.M{"$ifNull": bson.A{scans, int64(0)}}}},
			"subscription.usage.last_reset":  bson.M{"$cond": bson.A{stale, now, lastReset}},
		}}},
		{{Key: "$set", Value: bson.M{
			"subscription.usage.scans_cycle": bson.M{"$cond": bson.A{accept, bson.M{"$add": bson.A{scans, int64(1)}}, scans}},
			"updated_at":                     bson.M{"$cond": bson.A{accept, now, "$updated_at"}},
		}}},
	}

	var before partnerModel
	err := s.db.Collection(colPartners).FindOneAndUpdate(ctx,
		withSubscription(partnerID),
		pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if isNoDocuments(err) {
		return subscription.Usage{}, false, s.missing(ctx, partnerID)
	}
	if err != nil {
		return subscription.Usage{}, false, fmt.Errorf("menukit/mongo: increment scans: %w", err)
	}
	if before.Subscription == nil {
		return subscription.Usage{}, false, subscription.ErrSubscriptionNotFound
	}

	u, accepted := fromUsageModel(before.Subscription.Usage).Increment(limit, now)
	return u, accepted, nil
}

// ==================== Ledger ====================

func (s *Store) AppendPayment(ctx context.Context, rec subscription.PaymentRecord) error {
	if _, err := s.Get(ctx, rec.PartnerID); err != nil {
		return err
	}

	_, err := s.db.Collection(colPayments).InsertOne(ctx, toPaymentModel(rec))
	if mongo.IsDuplicateKeyError(err) {
		return subscription.ErrDuplicatePayment
	}
	if err != nil {
		return fmt.Errorf("menukit/mongo: append payment: %w", err)
	}
	return nil
}

func (s *Store) ListPayments(ctx context.Context, partnerID string) ([]subscription.PaymentRecord, error) {
	cur, err := s.db.Collection(colPayments).Find(ctx,
		bson.M{"partner_id": partnerID},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("menukit/mongo: list payments: %w", err)
	}

	var models []paymentModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("menukit/mongo: list payments: %w", err)
	}

	out := make([]subscription.PaymentRecord, 0, len(models))
	for i := range models {
		out = append(out, fromPaymentModel(&models[i]))
	}
	return out, nil
}

// ==================== QR codes ====================

func (s *Store) AssignQR(ctx context.Context, qrID, partnerID string) error {
	if _, err := s.Get(ctx, partnerID); err != nil {
		return err
	}

	_, err := s.db.Collection(colQRCodes).UpdateOne(ctx,
		bson.M{"_id": qrID},
		bson.M{
			"$set":         bson.M{"partner_id": partnerID},
			"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("menukit/mongo: assign qr: %w", err)
	}
	return nil
}

func (s *Store) ResolvePartner(ctx context.Context, qrID string) (string, error) {
	var m qrModel
	err := s.db.Collection(colQRCodes).FindOne(ctx, bson.M{"_id": qrID}).Decode(&m)
	if isNoDocuments(err) {
		return "", usage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("menukit/mongo: resolve qr: %w", err)
	}
	return m.PartnerID, nil
}

// missing tells a missing partner from one without a subscription.
func (s *Store) missing(ctx context.Context, partnerID string) error {
	p, err := s.Get(ctx, partnerID)
	if err != nil {
		return err
	}
	if p.Subscription == nil {
		return subscription.ErrSubscriptionNotFound
	}
	return ErrConcurrentUpdate
}

func withSubscription(partnerID string) bson.M {
	return bson.M{"_id": partnerID, "subscription": bson.M{"$type": "object"}}
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colPartners: {
			{Keys: bson.D{{Key: "subscription.gateway_subscription_id", Value: 1}}},
		},
		colPayments: {
			{
				// At-least-once webhook delivery must not double-record revenue.
				Keys: bson.D{{Key: "gateway_payment_id", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"gateway_payment_id": bson.M{"$gt": ""}}),
			},
			{Keys: bson.D{{Key: "partner_id", Value: 1}, {Key: "date", Value: 1}}},
		},
		colQRCodes: {
			{Keys: bson.D{{Key: "partner_id", Value: 1}}},
		},
	}
}
