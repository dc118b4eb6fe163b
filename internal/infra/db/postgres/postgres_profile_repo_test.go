//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"edu-content-subscription/internal/domain"
	"edu-content-subscription/internal/domain/model"
)

func TestProfileRepo_UpsertSubscription(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewProfileRepo(testPool)

	subj := "subj-math"
	subjName := "الرياضيات"
	start := time.Now().Truncate(time.Millisecond)
	end := start.Add(30 * 24 * time.Hour)
	sub, err := model.NewSubscription("choose_single_subject_monthly", "اشتراك لمادة الرياضيات", start, end, "code-1", &subj, &subjName)
	if err != nil {
		t.Fatalf("new subscription: %v", err)
	}

	// first redemption creates the profile row
	if err := repo.UpsertSubscription(ctx, nil, "user-1", "u1@example.com", sub); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	prof, err := repo.FindByID(ctx, nil, "user-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if prof.Email != "u1@example.com" {
		t.Errorf("unexpected email %q", prof.Email)
	}
	got := prof.Subscription
	if got == nil {
		t.Fatal("expected snapshot")
	}
	if got.PlanID != sub.PlanID || got.Status != model.SubscriptionStatusActive {
		t.Errorf("unexpected snapshot %+v", got)
	}
	if got.SubjectID == nil || *got.SubjectID != subj {
		t.Errorf("expected subject bound, got %+v", got.SubjectID)
	}
	if !got.EndDate.Equal(end) {
		t.Errorf("expected end %v, got %v", end, got.EndDate)
	}

	// a later redemption overwrites the snapshot in place
	sub2, _ := model.NewSubscription("general_yearly", "اشتراك سنوي عام", start, end.Add(300*24*time.Hour), "code-2", nil, nil)
	if err := repo.UpsertSubscription(ctx, nil, "user-1", "", sub2); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	prof, _ = repo.FindByID(ctx, nil, "user-1")
	if prof.Email != "u1@example.com" {
		t.Errorf("empty email must not clobber the stored one, got %q", prof.Email)
	}
	if prof.Subscription.PlanID != "general_yearly" || prof.Subscription.SubjectID != nil {
		t.Errorf("unexpected snapshot after overwrite: %+v", prof.Subscription)
	}
}

func TestProfileRepo_FindByID_NotFound(t *testing.T) {
	cleanup(t)
	if _, err := NewProfileRepo(testPool).FindByID(context.Background(), nil, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileRepo_ExpireOverdue(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewProfileRepo(testPool)

	now := time.Now()
	overdue, _ := model.NewSubscription("general_monthly", "اشتراك شهري عام", now.Add(-48*time.Hour), now.Add(-time.Hour), "code-1", nil, nil)
	current, _ := model.NewSubscription("general_monthly", "اشتراك شهري عام", now.Add(-time.Hour), now.Add(time.Hour), "code-2", nil, nil)

	if err := repo.UpsertSubscription(ctx, nil, "user-a", "a@example.com", overdue); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.UpsertSubscription(ctx, nil, "user-b", "b@example.com", current); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	n, err := repo.ExpireOverdue(ctx, nil, now)
	if err != nil {
		t.Fatalf("ExpireOverdue: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired, got %d", n)
	}

	prof, _ := repo.FindByID(ctx, nil, "user-a")
	if prof.Subscription.Status != model.SubscriptionStatusExpired {
		t.Errorf("expected expired, got %s", prof.Subscription.Status)
	}
	prof, _ = repo.FindByID(ctx, nil, "user-b")
	if prof.Subscription.Status != model.SubscriptionStatusActive {
		t.Errorf("expected still active, got %s", prof.Subscription.Status)
	}
}
