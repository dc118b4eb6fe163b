package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"edu-content-subscription/internal/domain"
	"edu-content-subscription/internal/domain/model"
	"edu-content-subscription/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.ActivationCodeRepository = (*activationCodeRepo)(nil)

type activationCodeRepo struct {
	pool *pgxpool.Pool
}

func NewActivationCodeRepo(pool *pgxpool.Pool) repository.ActivationCodeRepository {
	return &activationCodeRepo{pool: pool}
}

const codeColumns = `
id, code, name, category, period, subject_id, subject_name,
is_active, is_used, used_by_user_id, used_for_subject_id,
valid_from, valid_until, used_at, created_at, updated_at`

// Save inserts a code row. Issuance is append-only; usage mutations go
// through MarkUsed exclusively.
func (r *activationCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}

	const q = `
INSERT INTO activation_codes (
  id, code, name, category, period, subject_id, subject_name,
  is_active, is_used, used_by_user_id, used_for_subject_id,
  valid_from, valid_until, used_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		code.ID, code.Code, code.Name, code.Category, code.Period, code.SubjectID, code.SubjectName,
		code.IsActive, code.IsUsed, code.UsedByUserID, code.UsedForSubjectID,
		code.ValidFrom, code.ValidUntil, code.UsedAt, code.CreatedAt, code.UpdatedAt,
	)
	return err
}

// FindByCode looks a code up by its secret string. Used rows are returned
// too: the validator needs to distinguish already-used from not-found.
func (r *activationCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	const q = `SELECT ` + codeColumns + ` FROM activation_codes WHERE code = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanCode(row)
}

func (r *activationCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ActivationCode, error) {
	const q = `SELECT ` + codeColumns + ` FROM activation_codes WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanCode(row)
}

// MarkUsed conditionally consumes the code. The WHERE clause is the race
// guard: of N concurrent committers exactly one update matches the row,
// every loser sees zero rows affected and gets ErrCodeAlreadyUsed.
func (r *activationCodeRepo) MarkUsed(ctx context.Context, tx repository.Tx, codeID, userID string, subjectID *string, usedAt time.Time) error {
	const q = `
UPDATE activation_codes
   SET is_used = TRUE,
       is_active = FALSE,
       used_by_user_id = $2,
       used_for_subject_id = $3,
       used_at = $4,
       updated_at = $4
 WHERE id = $1 AND is_used = FALSE;
`
	cmd, err := execSQL(ctx, r.pool, tx, q, codeID, userID, subjectID, usedAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrCodeAlreadyUsed
	}
	return nil
}

func scanCode(row pgx.Row) (*model.ActivationCode, error) {
	var ac model.ActivationCode
	err := row.Scan(
		&ac.ID, &ac.Code, &ac.Name, &ac.Category, &ac.Period, &ac.SubjectID, &ac.SubjectName,
		&ac.IsActive, &ac.IsUsed, &ac.UsedByUserID, &ac.UsedForSubjectID,
		&ac.ValidFrom, &ac.ValidUntil, &ac.UsedAt, &ac.CreatedAt, &ac.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &ac, nil
}
