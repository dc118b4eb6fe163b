// File: internal/usecase/entitlement_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"edu-content-subscription/internal/domain"
	"edu-content-subscription/internal/domain/model"
	"edu-content-subscription/internal/domain/ports/repository"
	"edu-content-subscription/internal/infra/metrics"
)

// EntitlementUseCase answers content-gating checks against the stored
// subscription snapshot. It does no I/O beyond the profile load.
type EntitlementUseCase struct {
	profiles repository.ProfileRepository
	log      *zerolog.Logger

	now func() time.Time
}

func NewEntitlementUseCase(profiles repository.ProfileRepository, logger *zerolog.Logger) *EntitlementUseCase {
	ucLog := logger.With().Str("component", "EntitlementUC").Logger()
	return &EntitlementUseCase{profiles: profiles, log: &ucLog, now: time.Now}
}

// CanAccess reports whether the user's snapshot permits the given subject.
// An empty subjectID asks about platform-wide access. Unknown users simply
// have no entitlement; that is not an error.
func (uc *EntitlementUseCase) CanAccess(ctx context.Context, userID, subjectID string) (bool, error) {
	prof, err := uc.profiles.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return prof.Subscription.AllowsAccess(subjectID, uc.now()), nil
}

// CurrentSubscription returns the snapshot for account pages; nil when the
// user never redeemed a code.
func (uc *EntitlementUseCase) CurrentSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	prof, err := uc.profiles.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return prof.Subscription, nil
}

// ExpireOverdue flips overdue active snapshots to expired. The access
// predicate never depends on this (it checks the end date itself); stored
// status just converges for reporting. Called by the expiry worker.
func (uc *EntitlementUseCase) ExpireOverdue(ctx context.Context) (int, error) {
	n, err := uc.profiles.ExpireOverdue(ctx, repository.NoTX, uc.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.IncSubscriptionsExpired(n)
	}
	return n, nil
}
