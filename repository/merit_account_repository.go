package repository

import (
	"context"
	"fmt"

	"meritbot/database"
	"meritbot/domain/entities"

	"github.com/jackc/pgx/v5"
)

// MeritAccountRepository implements the MeritAccountRepository interface
type MeritAccountRepository struct {
	q       Queryable
	guildID int64
}

// NewMeritAccountRepository creates a new merit account repository
func NewMeritAccountRepository(db *database.DB, guildID int64) *MeritAccountRepository {
	return &MeritAccountRepository{q: db.Pool, guildID: guildID}
}

// NewMeritAccountRepositoryScoped creates a new merit account repository with a transaction and guild scope
func NewMeritAccountRepositoryScoped(tx Queryable, guildID int64) *MeritAccountRepository {
	return &MeritAccountRepository{
		q:       tx,
		guildID: guildID,
	}
}

// Get retrieves the account for a user in the current guild. A user without
// an account returns nil, not an error.
func (r *MeritAccountRepository) Get(ctx context.Context, userID int64) (*entities.MeritAccount, error) {
	query := `
		SELECT id, user_id, guild_id, total_points, weekly_points, created_at, updated_at
		FROM merit_accounts
		WHERE user_id = $1 AND guild_id = $2
	`

	var account entities.MeritAccount
	err := r.q.QueryRow(ctx, query, userID, r.guildID).Scan(
		&account.ID,
		&account.UserID,
		&account.GuildID,
		&account.TotalPoints,
		&account.WeeklyPoints,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get merit account for user %d in guild %d: %w", userID, r.guildID, err)
	}

	return &account, nil
}

// Credit increments both counters by amount, creating the account on first
// touch. The single upsert keeps concurrent credits from losing updates.
func (r *MeritAccountRepository) Credit(ctx context.Context, userID int64, amount int64) (*entities.MeritAccount, error) {
	query := `
		INSERT INTO merit_accounts (user_id, guild_id, total_points, weekly_points)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id, guild_id) DO UPDATE
		SET total_points = merit_accounts.total_points + $3,
		    weekly_points = merit_accounts.weekly_points + $3,
		    updated_at = NOW()
		RETURNING id, user_id, guild_id, total_points, weekly_points, created_at, updated_at
	`

	var account entities.MeritAccount
	err := r.q.QueryRow(ctx, query, userID, r.guildID, amount).Scan(
		&account.ID,
		&account.UserID,
		&account.GuildID,
		&account.TotalPoints,
		&account.WeeklyPoints,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to credit %d points to user %d in guild %d: %w", amount, userID, r.guildID, err)
	}

	return &account, nil
}

// ResetWeekly zeroes the weekly counter for every account in the guild
func (r *MeritAccountRepository) ResetWeekly(ctx context.Context) error {
	query := `
		UPDATE merit_accounts
		SET weekly_points = 0, updated_at = NOW()
		WHERE guild_id = $1 AND weekly_points <> 0
	`

	if _, err := r.q.Exec(ctx, query, r.guildID); err != nil {
		return fmt.Errorf("failed to reset weekly points for guild %d: %w", r.guildID, err)
	}

	return nil
}

// TopN returns up to n accounts ordered by the requested field descending.
// Ties break by account age so standings never reshuffle between reads.
func (r *MeritAccountRepository) TopN(ctx context.Context, field entities.PointsField, n int) ([]*entities.MeritAccount, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, guild_id, total_points, weekly_points, created_at, updated_at
		FROM merit_accounts
		WHERE guild_id = $1
		ORDER BY %s DESC, created_at ASC, id ASC
		LIMIT $2
	`, orderColumn(field))

	rows, err := r.q.Query(ctx, query, r.guildID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query top %d accounts for guild %d: %w", n, r.guildID, err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

// GetAll returns every account in the guild, ordered like TopN
func (r *MeritAccountRepository) GetAll(ctx context.Context, field entities.PointsField) ([]*entities.MeritAccount, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, guild_id, total_points, weekly_points, created_at, updated_at
		FROM merit_accounts
		WHERE guild_id = $1
		ORDER BY %s DESC, created_at ASC, id ASC
	`, orderColumn(field))

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts for guild %d: %w", r.guildID, err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

// orderColumn maps a points field to its column. The field is a closed enum,
// never user input, so interpolation is safe.
func orderColumn(field entities.PointsField) string {
	if field == entities.FieldWeekly {
		return "weekly_points"
	}
	return "total_points"
}

func scanAccounts(rows pgx.Rows) ([]*entities.MeritAccount, error) {
	var accounts []*entities.MeritAccount
	for rows.Next() {
		var account entities.MeritAccount
		err := rows.Scan(
			&account.ID,
			&account.UserID,
			&account.GuildID,
			&account.TotalPoints,
			&account.WeeklyPoints,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan merit account: %w", err)
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate merit accounts: %w", err)
	}

	return accounts, nil
}
