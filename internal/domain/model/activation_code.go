package model

import (
	"strings"
	"time"

	"edu-content-subscription/internal/domain"
)

// PlanCategory tells what kind of access a code grants.
// "general" codes grant platform-wide access (or carry a pre-bound subject);
// "single_subject" codes defer the subject choice to redemption time.
type PlanCategory string

const (
	PlanCategoryGeneral       PlanCategory = "general"
	PlanCategorySingleSubject PlanCategory = "single_subject"
)

// PlanPeriod is the billing period of the granted subscription.
type PlanPeriod string

const (
	PlanPeriodMonthly   PlanPeriod = "monthly"
	PlanPeriodQuarterly PlanPeriod = "quarterly"
	PlanPeriodYearly    PlanPeriod = "yearly"
)

// legacy packed plan tokens, still produced upstream
const singleSubjectPrefix = "choose_single_subject_"

// ActivationCode represents a single-use secret that can be redeemed for a
// time-boxed subscription. Rows are created by the upstream issuance pipeline;
// this engine only reads them and mutates the usage fields exactly once.
type ActivationCode struct {
	ID               string
	Code             string
	Name             string
	Category         PlanCategory
	Period           PlanPeriod
	SubjectID        *string // pre-bound subject, nil = platform-wide
	SubjectName      *string
	IsActive         bool
	IsUsed           bool
	UsedByUserID     *string
	UsedForSubjectID *string
	ValidFrom        time.Time
	ValidUntil       time.Time
	UsedAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewActivationCode builds an unused, active code and checks the window invariant.
func NewActivationCode(id, code, name string, category PlanCategory, period PlanPeriod, validFrom, validUntil time.Time) (*ActivationCode, error) {
	if id == "" || code == "" {
		return nil, domain.ErrInvalidArgument
	}
	if validUntil.Before(validFrom) {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &ActivationCode{
		ID:         id,
		Code:       code,
		Name:       name,
		Category:   category,
		Period:     period,
		IsActive:   true,
		ValidFrom:  validFrom,
		ValidUntil: validUntil,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// PlanID re-packs category and period into the legacy plan token
// (e.g. "general_yearly", "choose_single_subject_monthly") stored on the
// subscription snapshot for upstream compatibility.
func (c *ActivationCode) PlanID() string {
	if c.Category == PlanCategorySingleSubject {
		return singleSubjectPrefix + string(c.Period)
	}
	return string(PlanCategoryGeneral) + "_" + string(c.Period)
}

// ParsePlanType decomposes a legacy packed token into explicit fields.
func ParsePlanType(token string) (PlanCategory, PlanPeriod, error) {
	if p, ok := strings.CutPrefix(token, singleSubjectPrefix); ok {
		return PlanCategorySingleSubject, PlanPeriod(p), nil
	}
	if p, ok := strings.CutPrefix(token, string(PlanCategoryGeneral)+"_"); ok {
		return PlanCategoryGeneral, PlanPeriod(p), nil
	}
	return "", "", domain.ErrInvalidArgument
}

// RequiresSubjectChoice reports whether redemption must supply a subject.
func (c *ActivationCode) RequiresSubjectChoice() bool {
	return c.Category == PlanCategorySingleSubject
}

// VerdictAt evaluates the code against the validation rules at the given
// instant. It is pure: no I/O, no mutation. A nil return means the code is
// redeemable at `now`. Rule order matters: redemption clears is_active too,
// so a consumed code must report already-used before the inactive check,
// and `now == ValidUntil` is still valid.
func (c *ActivationCode) VerdictAt(now time.Time) error {
	if c.IsUsed {
		return domain.ErrCodeAlreadyUsed
	}
	if !c.IsActive {
		return domain.ErrCodeInactive
	}
	if now.Before(c.ValidFrom) {
		return domain.ErrCodeNotYetValid
	}
	if now.After(c.ValidUntil) {
		return domain.ErrCodeExpired
	}
	return nil
}

// Use marks the code consumed by a user, optionally binding the subject the
// entitlement was granted for. Storage-level conditional updates are the real
// race guard; this keeps the in-memory invariant in one place.
func (c *ActivationCode) Use(userID string, subjectID *string, at time.Time) error {
	if c.IsUsed {
		return domain.ErrCodeAlreadyUsed
	}
	if userID == "" {
		return domain.ErrMissingUserIdentity
	}
	c.IsUsed = true
	c.IsActive = false
	c.UsedByUserID = &userID
	c.UsedForSubjectID = subjectID
	c.UsedAt = &at
	c.UpdatedAt = at
	return nil
}
