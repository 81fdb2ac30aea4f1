package repository

import (
	"context"
	"fmt"

	"meritbot/database"
	"meritbot/domain/entities"
)

// ReportRecipientRepository implements the ReportRecipientRepository interface
type ReportRecipientRepository struct {
	q       Queryable
	guildID int64
}

// NewReportRecipientRepository creates a new report recipient repository
func NewReportRecipientRepository(db *database.DB, guildID int64) *ReportRecipientRepository {
	return &ReportRecipientRepository{q: db.Pool, guildID: guildID}
}

// NewReportRecipientRepositoryScoped creates a new report recipient repository with a transaction and guild scope
func NewReportRecipientRepositoryScoped(tx Queryable, guildID int64) *ReportRecipientRepository {
	return &ReportRecipientRepository{
		q:       tx,
		guildID: guildID,
	}
}

// Add subscribes a user to action reports. Subscribing twice is a no-op.
func (r *ReportRecipientRepository) Add(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO report_recipients (guild_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (guild_id, user_id) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, r.guildID, userID); err != nil {
		return fmt.Errorf("failed to add report recipient %d in guild %d: %w", userID, r.guildID, err)
	}

	return nil
}

// Remove unsubscribes a user. Removing an absent recipient is a no-op.
func (r *ReportRecipientRepository) Remove(ctx context.Context, userID int64) error {
	query := `
		DELETE FROM report_recipients
		WHERE guild_id = $1 AND user_id = $2
	`

	if _, err := r.q.Exec(ctx, query, r.guildID, userID); err != nil {
		return fmt.Errorf("failed to remove report recipient %d in guild %d: %w", userID, r.guildID, err)
	}

	return nil
}

// List returns every subscribed recipient in the guild
func (r *ReportRecipientRepository) List(ctx context.Context) ([]*entities.ReportRecipient, error) {
	query := `
		SELECT guild_id, user_id, created_at
		FROM report_recipients
		WHERE guild_id = $1
		ORDER BY created_at ASC, user_id ASC
	`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list report recipients for guild %d: %w", r.guildID, err)
	}
	defer rows.Close()

	var recipients []*entities.ReportRecipient
	for rows.Next() {
		var recipient entities.ReportRecipient
		if err := rows.Scan(&recipient.GuildID, &recipient.UserID, &recipient.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report recipient: %w", err)
		}
		recipients = append(recipients, &recipient)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate report recipients: %w", err)
	}

	return recipients, nil
}
