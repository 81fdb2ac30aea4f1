package services

import (
	"context"
	"fmt"
	"time"

	"meritbot/domain/catalog"
	"meritbot/domain/entities"
	"meritbot/domain/events"
	"meritbot/domain/interfaces"
)

// ledgerService implements the LedgerService interface
type ledgerService struct {
	accounts  interfaces.MeritAccountRepository
	actionLog interfaces.ActionLogRepository
	publisher interfaces.EventPublisher
	now       func() time.Time
}

// NewLedgerService creates a ledger service bound to one unit of work
func NewLedgerService(
	accounts interfaces.MeritAccountRepository,
	actionLog interfaces.ActionLogRepository,
	publisher interfaces.EventPublisher,
) interfaces.LedgerService {
	return &ledgerService{
		accounts:  accounts,
		actionLog: actionLog,
		publisher: publisher,
		now:       time.Now,
	}
}

// ApplyAction credits the actor and appends the audit record. The catalog
// lookup happens first so an unknown kind aborts before any mutation.
func (s *ledgerService) ApplyAction(ctx context.Context, actorID int64, kind entities.ActionKind, targetID int64, reason string) (*entities.DeclareResult, error) {
	entry, err := catalog.Lookup(kind)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.Credit(ctx, actorID, entry.Points)
	if err != nil {
		return nil, fmt.Errorf("failed to credit %d points to actor %d: %w", entry.Points, actorID, err)
	}

	record := &entities.ActionRecord{
		ActorID:    actorID,
		GuildID:    account.GuildID,
		Kind:       kind,
		Points:     entry.Points,
		WeekNumber: entities.WeekNumber(s.now()),
	}
	if err := s.actionLog.Record(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record action %s for actor %d: %w", kind, actorID, err)
	}

	s.publisher.Publish(events.MeritCreditedEvent{
		ActorID:        actorID,
		GuildID:        account.GuildID,
		Kind:           kind,
		Points:         entry.Points,
		NewTotal:       account.TotalPoints,
		NewWeeklyTotal: account.WeeklyPoints,
		TargetID:       targetID,
		Reason:         reason,
	})

	return &entities.DeclareResult{
		PointsAwarded:  entry.Points,
		NewTotal:       account.TotalPoints,
		NewWeeklyTotal: account.WeeklyPoints,
	}, nil
}

// CreditPassiveMessage credits the current message rate without an audit
// record; passive activity is not part of the action log.
func (s *ledgerService) CreditPassiveMessage(ctx context.Context, actorID int64) error {
	points := catalog.MessagePoints()
	if points <= 0 {
		return nil
	}

	if _, err := s.accounts.Credit(ctx, actorID, points); err != nil {
		return fmt.Errorf("failed to credit message activity for actor %d: %w", actorID, err)
	}

	return nil
}
