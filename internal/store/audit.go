package store

import (
	"context"

	"talentcycle/internal/domain"
)

// Auditor persists AI call records outside any pipeline transaction, so
// the pending row is visible while the network call is in flight and
// survives a later stage rollback.
type Auditor struct {
	store *Store
}

// NewAuditor returns an auditor bound to the store's base handle.
func NewAuditor(s *Store) *Auditor { return &Auditor{store: s} }

// Begin commits the record in its pending state.
func (a *Auditor) Begin(ctx context.Context, rec *domain.AICallRecord) error {
	return a.store.UnitOfWork().AICalls().Create(ctx, *rec)
}

// Finish commits the terminal outcome.
func (a *Auditor) Finish(ctx context.Context, rec *domain.AICallRecord) error {
	return a.store.UnitOfWork().AICalls().Finalize(ctx, *rec)
}
