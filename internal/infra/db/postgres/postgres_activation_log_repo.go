package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"edu-content-subscription/internal/domain"
	"edu-content-subscription/internal/domain/model"
	"edu-content-subscription/internal/domain/ports/repository"
)

var _ repository.ActivationLogRepository = (*activationLogRepo)(nil)

type activationLogRepo struct {
	pool *pgxpool.Pool
}

func NewActivationLogRepo(pool *pgxpool.Pool) repository.ActivationLogRepository {
	return &activationLogRepo{pool: pool}
}

// Append inserts a log row. There is no update path: the table is the audit
// trail and rows are never mutated or deleted.
func (r *activationLogRepo) Append(ctx context.Context, tx repository.Tx, entry *model.ActivationLogEntry) error {
	const q = `
INSERT INTO activation_logs (id, user_id, code_id, subject_id, plan_name, activated_at)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		entry.ID, entry.UserID, entry.CodeID, entry.SubjectID, entry.PlanName, entry.ActivatedAt,
	)
	return err
}

func (r *activationLogRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.ActivationLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, user_id, code_id, subject_id, plan_name, activated_at
  FROM activation_logs
 WHERE user_id = $1
 ORDER BY id DESC
 LIMIT $2;
`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.ActivationLogEntry
	for rows.Next() {
		var e model.ActivationLogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.CodeID, &e.SubjectID, &e.PlanName, &e.ActivatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
