// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"edu-content-subscription/internal/domain"
	"edu-content-subscription/internal/domain/model"
	"edu-content-subscription/internal/domain/ports/repository"
	"edu-content-subscription/internal/infra/i18n"
)

// memCodeRepo is a small in-memory implementation used by unit tests.
type memCodeRepo struct {
	mu     sync.Mutex
	byID   map[string]*model.ActivationCode
	findErr error
	markErr error
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{byID: make(map[string]*model.ActivationCode)}
}

func (m *memCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *code
	m.byID[code.ID] = &cp
	return nil
}

func (m *memCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ActivationCode, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// MarkUsed mirrors the conditional UPDATE: the check and the mutation happen
// under one lock so racing goroutines behave like racing transactions.
func (m *memCodeRepo) MarkUsed(ctx context.Context, tx repository.Tx, codeID, userID string, subjectID *string, usedAt time.Time) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[codeID]
	if !ok {
		return domain.ErrNotFound
	}
	if c.IsUsed {
		return domain.ErrCodeAlreadyUsed
	}
	return c.Use(userID, subjectID, usedAt)
}

// memProfileRepo provides in-memory profiles keyed by user id.
type memProfileRepo struct {
	mu        sync.Mutex
	store     map[string]*model.Profile
	upsertErr error
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{store: make(map[string]*model.Profile)}
}

func (m *memProfileRepo) Save(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memProfileRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfileRepo) UpsertSubscription(ctx context.Context, tx repository.Tx, userID, email string, sub *model.Subscription) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[userID]
	if !ok {
		p = &model.Profile{ID: userID, Email: email, CreatedAt: time.Now()}
		m.store[userID] = p
	}
	cp := *sub
	p.Subscription = &cp
	p.UpdatedAt = time.Now()
	return nil
}

func (m *memProfileRepo) ExpireOverdue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.store {
		if p.Subscription.IsOverdueAt(now) {
			p.Subscription.Status = model.SubscriptionStatusExpired
			n++
		}
	}
	return n, nil
}

// memLogRepo records appended entries for assertions.
type memLogRepo struct {
	mu        sync.Mutex
	entries   []*model.ActivationLogEntry
	appendErr error
}

func newMemLogRepo() *memLogRepo { return &memLogRepo{} }

func (m *memLogRepo) Append(ctx context.Context, tx repository.Tx, entry *model.ActivationLogEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memLogRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.ActivationLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ActivationLogEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// memTxManager runs the callback directly; the mem repos are individually
// atomic, which is enough for unit tests.
type memTxManager struct{}

func (memTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func newTestTranslator(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "ar")
	if err != nil {
		t.Fatalf("load translator: %v", err)
	}
	return tr
}

// newTestCode builds an unused, active code valid around `now`.
func newTestCode(t *testing.T, id string, category model.PlanCategory, period model.PlanPeriod, from, until time.Time) *model.ActivationCode {
	t.Helper()
	c, err := model.NewActivationCode(id, "CODE-"+id, "test code "+id, category, period, from, until)
	if err != nil {
		t.Fatalf("new code: %v", err)
	}
	return c
}
