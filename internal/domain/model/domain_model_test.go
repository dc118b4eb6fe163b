package model_test

import (
	"errors"
	"testing"
	"time"

	"edu-content-subscription/internal/domain"
	"edu-content-subscription/internal/domain/model"
)

func TestActivationCode_VerdictAt(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	newCode := func(t *testing.T) *model.ActivationCode {
		t.Helper()
		c, err := model.NewActivationCode("id-1", "AAAA-BBBB-CCCC", "test", model.PlanCategoryGeneral, model.PlanPeriodMonthly, from, until)
		if err != nil {
			t.Fatalf("new code: %v", err)
		}
		return c
	}

	t.Run("fresh code inside window is valid", func(t *testing.T) {
		c := newCode(t)
		if err := c.VerdictAt(from.Add(time.Hour)); err != nil {
			t.Errorf("expected valid, got %v", err)
		}
	})

	t.Run("window boundaries are inclusive", func(t *testing.T) {
		c := newCode(t)
		if err := c.VerdictAt(from); err != nil {
			t.Errorf("expected valid at valid_from, got %v", err)
		}
		if err := c.VerdictAt(until); err != nil {
			t.Errorf("expected valid at valid_until, got %v", err)
		}
		if err := c.VerdictAt(from.Add(-time.Nanosecond)); !errors.Is(err, domain.ErrCodeNotYetValid) {
			t.Errorf("expected not-yet-valid before window, got %v", err)
		}
		if err := c.VerdictAt(until.Add(time.Nanosecond)); !errors.Is(err, domain.ErrCodeExpired) {
			t.Errorf("expected expired after window, got %v", err)
		}
	})

	t.Run("disabled code reports inactive", func(t *testing.T) {
		c := newCode(t)
		c.IsActive = false
		if err := c.VerdictAt(from.Add(time.Hour)); !errors.Is(err, domain.ErrCodeInactive) {
			t.Errorf("expected inactive, got %v", err)
		}
	})

	t.Run("consumed code reports already-used even though it is also inactive", func(t *testing.T) {
		c := newCode(t)
		if err := c.Use("user-1", nil, from.Add(time.Hour)); err != nil {
			t.Fatalf("use: %v", err)
		}
		if c.IsActive {
			t.Error("expected Use to clear is_active")
		}
		if err := c.VerdictAt(from.Add(2 * time.Hour)); !errors.Is(err, domain.ErrCodeAlreadyUsed) {
			t.Errorf("expected already-used, got %v", err)
		}
	})

	t.Run("second use fails", func(t *testing.T) {
		c := newCode(t)
		if err := c.Use("user-1", nil, from); err != nil {
			t.Fatalf("first use: %v", err)
		}
		if err := c.Use("user-2", nil, from); !errors.Is(err, domain.ErrCodeAlreadyUsed) {
			t.Errorf("expected already-used on second use, got %v", err)
		}
		if *c.UsedByUserID != "user-1" {
			t.Errorf("expected winner preserved, got %q", *c.UsedByUserID)
		}
	})

	t.Run("inverted window is rejected at construction", func(t *testing.T) {
		_, err := model.NewActivationCode("id-2", "X", "test", model.PlanCategoryGeneral, model.PlanPeriodMonthly, until, from)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected invalid-argument, got %v", err)
		}
	})
}

func TestActivationCode_PlanTypePacking(t *testing.T) {
	cases := []struct {
		token    string
		category model.PlanCategory
		period   model.PlanPeriod
	}{
		{"general_monthly", model.PlanCategoryGeneral, model.PlanPeriodMonthly},
		{"general_yearly", model.PlanCategoryGeneral, model.PlanPeriodYearly},
		{"choose_single_subject_monthly", model.PlanCategorySingleSubject, model.PlanPeriodMonthly},
		{"choose_single_subject_yearly", model.PlanCategorySingleSubject, model.PlanPeriodYearly},
	}
	for _, tc := range cases {
		cat, per, err := model.ParsePlanType(tc.token)
		if err != nil {
			t.Errorf("ParsePlanType(%q): %v", tc.token, err)
			continue
		}
		if cat != tc.category || per != tc.period {
			t.Errorf("ParsePlanType(%q) = (%s, %s)", tc.token, cat, per)
		}
		c := &model.ActivationCode{Category: cat, Period: per}
		if got := c.PlanID(); got != tc.token {
			t.Errorf("PlanID round-trip for %q = %q", tc.token, got)
		}
	}

	if _, _, err := model.ParsePlanType("mystery_plan"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected invalid-argument for unknown token, got %v", err)
	}

	choice := &model.ActivationCode{Category: model.PlanCategorySingleSubject, Period: model.PlanPeriodMonthly}
	if !choice.RequiresSubjectChoice() {
		t.Error("single_subject category must require a subject choice")
	}
	general := &model.ActivationCode{Category: model.PlanCategoryGeneral, Period: model.PlanPeriodMonthly}
	if general.RequiresSubjectChoice() {
		t.Error("general category must not require a subject choice")
	}
}

func TestSubscription_AllowsAccess(t *testing.T) {
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	now := end.Add(-24 * time.Hour)

	t.Run("nil subscription denies", func(t *testing.T) {
		var s *model.Subscription
		if s.AllowsAccess("subj-1", now) {
			t.Error("nil subscription must deny")
		}
	})

	t.Run("platform-wide grants any subject until end date, inclusive", func(t *testing.T) {
		s := &model.Subscription{Status: model.SubscriptionStatusActive, EndDate: end}
		if !s.AllowsAccess("subj-1", now) || !s.AllowsAccess("", now) {
			t.Error("expected platform-wide access")
		}
		if !s.AllowsAccess("subj-1", end) {
			t.Error("expected access at now == end_date")
		}
		if s.AllowsAccess("subj-1", end.Add(time.Nanosecond)) {
			t.Error("expected deny one tick past end_date")
		}
	})

	t.Run("subject-scoped grants only the bound subject", func(t *testing.T) {
		subj := "subj-1"
		s := &model.Subscription{Status: model.SubscriptionStatusActive, EndDate: end, SubjectID: &subj}
		if !s.AllowsAccess("subj-1", now) {
			t.Error("expected access to bound subject")
		}
		if s.AllowsAccess("subj-2", now) {
			t.Error("expected deny for other subjects")
		}
	})

	t.Run("only active status grants", func(t *testing.T) {
		for _, status := range []model.SubscriptionStatus{
			model.SubscriptionStatusExpired,
			model.SubscriptionStatusCancelled,
			model.SubscriptionStatusTrial,
		} {
			s := &model.Subscription{Status: status, EndDate: end}
			if s.AllowsAccess("subj-1", now) {
				t.Errorf("status %s must deny", status)
			}
		}
	})

	t.Run("inverted window is rejected at construction", func(t *testing.T) {
		_, err := model.NewSubscription("general_monthly", "x", end, end.Add(-time.Hour), "code-1", nil, nil)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected invalid-argument, got %v", err)
		}
	})
}
