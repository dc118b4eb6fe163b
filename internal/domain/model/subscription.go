package model

import (
	"time"

	"edu-content-subscription/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	// Trial exists for upstream rows; redemption never produces it.
	SubscriptionStatusTrial SubscriptionStatus = "trial"
)

// Subscription is the single entitlement snapshot embedded in a profile.
// A nil SubjectID means the entitlement is platform-wide.
type Subscription struct {
	PlanID           string
	PlanName         string
	StartDate        time.Time
	EndDate          time.Time
	Status           SubscriptionStatus
	ActivationCodeID string
	SubjectID        *string
	SubjectName      *string
}

// NewSubscription builds an active snapshot and checks the window invariant.
func NewSubscription(planID, planName string, start, end time.Time, codeID string, subjectID, subjectName *string) (*Subscription, error) {
	if planID == "" || codeID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if end.Before(start) {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		PlanID:           planID,
		PlanName:         planName,
		StartDate:        start,
		EndDate:          end,
		Status:           SubscriptionStatusActive,
		ActivationCodeID: codeID,
		SubjectID:        subjectID,
		SubjectName:      subjectName,
	}, nil
}

// AllowsAccess is the entitlement predicate evaluated on every content-gating
// decision. Pure and cheap: status must be active, `now` within the window
// (EndDate inclusive), and the subject must match unless platform-wide.
func (s *Subscription) AllowsAccess(subjectID string, now time.Time) bool {
	if s == nil {
		return false
	}
	if s.Status != SubscriptionStatusActive {
		return false
	}
	if now.After(s.EndDate) {
		return false
	}
	if s.SubjectID == nil || *s.SubjectID == "" {
		return true
	}
	return *s.SubjectID == subjectID
}

// IsOverdueAt reports whether an active snapshot has outlived its window.
func (s *Subscription) IsOverdueAt(now time.Time) bool {
	return s != nil && s.Status == SubscriptionStatusActive && now.After(s.EndDate)
}
