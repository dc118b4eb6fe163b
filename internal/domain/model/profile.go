package model

import (
	"time"

	"edu-content-subscription/internal/domain"

	"github.com/google/uuid"
)

// Profile is the user record this engine cares about: identity plus the one
// current subscription snapshot. The content catalog and auth live upstream.
type Profile struct {
	ID           string
	Email        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Subscription *Subscription
}

func NewProfile(id, email string) (*Profile, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Profile{
		ID:        id,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (p *Profile) IsZero() bool { return p == nil || p.ID == "" }
