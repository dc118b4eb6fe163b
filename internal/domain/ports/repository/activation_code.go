package repository

import (
	"context"
	"time"

	"edu-content-subscription/internal/domain/model"
)

// ActivationCodeRepository is the port for reading and consuming activation codes.
type ActivationCodeRepository interface {
	// Save creates a code row (issuance/seed path).
	Save(ctx context.Context, tx Tx, code *model.ActivationCode) error
	// FindByCode looks a code up by its secret string, used or not.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.ActivationCode, error)
	// FindByID looks a code up by id, used during the commit re-validation.
	FindByID(ctx context.Context, tx Tx, id string) (*model.ActivationCode, error)
	// MarkUsed conditionally consumes the code: the update only matches while
	// is_used is still false. When the row was already consumed it returns
	// domain.ErrCodeAlreadyUsed so racing redeemers lose cleanly.
	MarkUsed(ctx context.Context, tx Tx, codeID, userID string, subjectID *string, usedAt time.Time) error
}
