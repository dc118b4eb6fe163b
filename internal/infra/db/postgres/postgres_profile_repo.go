package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"edu-content-subscription/internal/domain"
	"edu-content-subscription/internal/domain/model"
	"edu-content-subscription/internal/domain/ports/repository"
)

var _ repository.ProfileRepository = (*profileRepo)(nil)

// profileRepo stores profiles with the subscription snapshot denormalized
// into sub_* columns; a NULL sub_plan_id means the user never redeemed.
type profileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) repository.ProfileRepository {
	return &profileRepo{pool: pool}
}

func (r *profileRepo) Save(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	const q = `
INSERT INTO profiles (id, email, created_at, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, updated_at = EXCLUDED.updated_at;
`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Email, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *profileRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Profile, error) {
	const q = `
SELECT id, email, created_at, updated_at,
       sub_plan_id, sub_plan_name, sub_start_date, sub_end_date,
       sub_status, sub_activation_code_id, sub_subject_id, sub_subject_name
  FROM profiles
 WHERE id = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	var (
		p        model.Profile
		planID   *string
		planName *string
		start    *time.Time
		end      *time.Time
		status   *string
		codeID   *string
		subjID   *string
		subjName *string
	)
	err = row.Scan(
		&p.ID, &p.Email, &p.CreatedAt, &p.UpdatedAt,
		&planID, &planName, &start, &end, &status, &codeID, &subjID, &subjName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}

	if planID != nil {
		p.Subscription = &model.Subscription{
			PlanID:           *planID,
			ActivationCodeID: deref(codeID),
			PlanName:         deref(planName),
			Status:           model.SubscriptionStatus(deref(status)),
			SubjectID:        subjID,
			SubjectName:      subjName,
		}
		if start != nil {
			p.Subscription.StartDate = *start
		}
		if end != nil {
			p.Subscription.EndDate = *end
		}
	}
	return &p, nil
}

// UpsertSubscription replaces the snapshot in one statement, creating the
// profile row for first-time redeemers.
func (r *profileRepo) UpsertSubscription(ctx context.Context, tx repository.Tx, userID, email string, sub *model.Subscription) error {
	const q = `
INSERT INTO profiles (
  id, email, created_at, updated_at,
  sub_plan_id, sub_plan_name, sub_start_date, sub_end_date,
  sub_status, sub_activation_code_id, sub_subject_id, sub_subject_name
) VALUES ($1, $2, NOW(), NOW(), $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
  email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE profiles.email END,
  updated_at = NOW(),
  sub_plan_id = EXCLUDED.sub_plan_id,
  sub_plan_name = EXCLUDED.sub_plan_name,
  sub_start_date = EXCLUDED.sub_start_date,
  sub_end_date = EXCLUDED.sub_end_date,
  sub_status = EXCLUDED.sub_status,
  sub_activation_code_id = EXCLUDED.sub_activation_code_id,
  sub_subject_id = EXCLUDED.sub_subject_id,
  sub_subject_name = EXCLUDED.sub_subject_name;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		userID, email,
		sub.PlanID, sub.PlanName, sub.StartDate, sub.EndDate,
		sub.Status, sub.ActivationCodeID, sub.SubjectID, sub.SubjectName,
	)
	return err
}

func (r *profileRepo) ExpireOverdue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	const q = `
UPDATE profiles
   SET sub_status = 'expired', updated_at = $1
 WHERE sub_status = 'active' AND sub_end_date < $1;
`
	cmd, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
