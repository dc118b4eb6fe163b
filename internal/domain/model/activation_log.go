package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// ActivationLogEntry is a write-once audit record of a redemption. Entries are
// never read back by the entitlement path; ULID ids keep the log sortable by
// creation order.
type ActivationLogEntry struct {
	ID          string
	UserID      string
	CodeID      string
	SubjectID   *string
	PlanName    string
	ActivatedAt time.Time
}

func NewActivationLogEntry(userID, codeID string, subjectID *string, planName string, at time.Time) *ActivationLogEntry {
	return &ActivationLogEntry{
		ID:          ulid.Make().String(),
		UserID:      userID,
		CodeID:      codeID,
		SubjectID:   subjectID,
		PlanName:    planName,
		ActivatedAt: at,
	}
}
