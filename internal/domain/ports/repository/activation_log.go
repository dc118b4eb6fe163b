package repository

import (
	"context"

	"edu-content-subscription/internal/domain/model"
)

// ActivationLogRepository is the port for the append-only redemption audit trail.
type ActivationLogRepository interface {
	Append(ctx context.Context, tx Tx, entry *model.ActivationLogEntry) error
	// ListByUser exists for support tooling; the entitlement path never reads the log.
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.ActivationLogEntry, error)
}
