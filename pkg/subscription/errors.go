package subscription

import "errors"

var (
	ErrPartnerNotFound      = errors.New("partner not found")
	ErrPartnerAlreadyExists = errors.New("partner already exists")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNoTrialPlan          = errors.New("no trial plan configured")
	ErrMissingPartnerID     = errors.New("partner id is required")
	ErrDuplicatePayment     = errors.New("payment already recorded")

	ErrFailedToSaveSubscription = errors.New("failed to save subscription")
	ErrFailedToRecordPayment    = errors.New("failed to record payment")
)
