package services

import (
	"context"
	"sync"
	"time"

	"meritbot/domain/catalog"
	"meritbot/domain/entities"
	"meritbot/domain/interfaces"
)

// BatchKey identifies one pending-sanction batch. Keying by guild, operator
// and target keeps two operators disciplining the same target, or the same
// operator working in two guilds, from merging their selections.
type BatchKey struct {
	GuildID    int64
	OperatorID int64
	TargetID   int64
}

type pendingBatch struct {
	kinds     []entities.ActionKind
	updatedAt time.Time
}

// SanctionBatchArena holds every uncommitted sanction batch. Batches live in
// memory only; an abandoned one is swept after its TTL.
type SanctionBatchArena struct {
	mu      sync.Mutex
	batches map[BatchKey]*pendingBatch
}

// NewSanctionBatchArena creates an empty arena
func NewSanctionBatchArena() *SanctionBatchArena {
	return &SanctionBatchArena{
		batches: make(map[BatchKey]*pendingBatch),
	}
}

// Add validates the kind against the catalog and appends it to the batch,
// creating the batch if needed. Duplicates are allowed and counted
// separately. Returns the new batch size.
func (a *SanctionBatchArena) Add(key BatchKey, kind entities.ActionKind) (int, error) {
	if _, err := catalog.Lookup(kind); err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.batches[key]
	if !ok {
		b = &pendingBatch{}
		a.batches[key] = b
	}
	b.kinds = append(b.kinds, kind)
	b.updatedAt = time.Now()
	return len(b.kinds), nil
}

// Kinds returns a copy of the accumulated kinds, in selection order
func (a *SanctionBatchArena) Kinds(key BatchKey) []entities.ActionKind {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.batches[key]
	if !ok {
		return nil
	}
	out := make([]entities.ActionKind, len(b.kinds))
	copy(out, b.kinds)
	return out
}

// Cancel discards the batch without touching the ledger. Safe to call on a
// key that has no batch.
func (a *SanctionBatchArena) Cancel(key BatchKey) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.batches, key)
}

// clear removes a batch after a successful commit
func (a *SanctionBatchArena) clear(key BatchKey) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.batches, key)
}

// Sweep drops batches untouched for longer than ttl and returns how many
// were removed
func (a *SanctionBatchArena) Sweep(ttl time.Duration) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-ttl)
	for key, b := range a.batches {
		if b.updatedAt.Before(cutoff) {
			delete(a.batches, key)
			removed++
		}
	}
	return removed
}

// sanctionService commits pending batches through the ledger
type sanctionService struct {
	arena  *SanctionBatchArena
	ledger interfaces.LedgerService
}

// SanctionService commits or cancels pending sanction batches
type SanctionService interface {
	Commit(ctx context.Context, key BatchKey, reason string) (*entities.BatchResult, error)
}

// NewSanctionService creates a sanction commit service. The ledger service
// must come from the same unit of work the caller will commit, so the whole
// batch lands in one transaction.
func NewSanctionService(arena *SanctionBatchArena, ledger interfaces.LedgerService) SanctionService {
	return &sanctionService{
		arena:  arena,
		ledger: ledger,
	}
}

// Commit applies every accumulated sanction for the operator and returns the
// per-action breakdown. The batch is cleared only after every action was
// applied; on failure the accumulated kinds stay intact so the operator can
// retry or cancel, and the caller's rollback undoes any partial credit.
func (s *sanctionService) Commit(ctx context.Context, key BatchKey, reason string) (*entities.BatchResult, error) {
	kinds := s.arena.Kinds(key)
	if len(kinds) == 0 {
		return nil, entities.ErrEmptyBatch
	}

	result := &entities.BatchResult{
		Breakdown: make([]entities.ActionAward, 0, len(kinds)),
	}
	for _, kind := range kinds {
		applied, err := s.ledger.ApplyAction(ctx, key.OperatorID, kind, key.TargetID, reason)
		if err != nil {
			return nil, err
		}
		result.TotalAwarded += applied.PointsAwarded
		result.Breakdown = append(result.Breakdown, entities.ActionAward{
			Kind:   kind,
			Points: applied.PointsAwarded,
		})
	}

	s.arena.clear(key)
	return result, nil
}
