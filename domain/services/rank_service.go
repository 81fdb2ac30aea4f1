package services

import (
	"context"
	"fmt"

	"meritbot/domain/entities"
	"meritbot/domain/interfaces"
)

// rankService implements the RankService interface
type rankService struct {
	accounts interfaces.MeritAccountRepository
}

// NewRankService creates a rank query service bound to one unit of work
func NewRankService(accounts interfaces.MeritAccountRepository) interfaces.RankService {
	return &rankService{accounts: accounts}
}

// TopN returns the top n standings for a field. The repository orders by
// value descending with creation-order tie-break, so ranks follow directly.
func (s *rankService) TopN(ctx context.Context, field entities.PointsField, n int) ([]entities.Standing, error) {
	accounts, err := s.accounts.TopN(ctx, field, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query top %d by %s: %w", n, field, err)
	}

	standings := make([]entities.Standing, 0, len(accounts))
	for i, account := range accounts {
		standings = append(standings, entities.Standing{
			Rank:   i + 1,
			UserID: account.UserID,
			Points: fieldValue(account, field),
		})
	}
	return standings, nil
}

// RankOf computes the dense 1-based rank of a user: accounts with equal
// values share a rank number. A user without an account ranks as value zero,
// after every positive account.
func (s *rankService) RankOf(ctx context.Context, userID int64, field entities.PointsField) (int, error) {
	accounts, err := s.accounts.GetAll(ctx, field)
	if err != nil {
		return 0, fmt.Errorf("failed to load accounts for rank of user %d: %w", userID, err)
	}

	rank := 0
	prev := int64(-1)
	for _, account := range accounts {
		value := fieldValue(account, field)
		if value != prev {
			rank++
			prev = value
		}
		if account.UserID == userID {
			return rank, nil
		}
	}

	// Not on the board: ranked as value 0, after all positive values
	if prev == 0 {
		// A zero-valued tier already exists; the user shares it
		return rank, nil
	}
	return rank + 1, nil
}

func fieldValue(account *entities.MeritAccount, field entities.PointsField) int64 {
	if field == entities.FieldWeekly {
		return account.WeeklyPoints
	}
	return account.TotalPoints
}
