package repository

import (
	"context"
	"time"

	"edu-content-subscription/internal/domain/model"
)

// ProfileRepository is the port for user profiles and their embedded
// subscription snapshot.
type ProfileRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Profile) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Profile, error)
	// UpsertSubscription replaces the profile's subscription snapshot, creating
	// the profile row if the user has never been seen before.
	UpsertSubscription(ctx context.Context, tx Tx, userID, email string, sub *model.Subscription) error
	// ExpireOverdue flips active snapshots whose end date has passed to
	// "expired" and returns how many rows changed.
	ExpireOverdue(ctx context.Context, tx Tx, now time.Time) (int, error)
}
