package repository

import (
	"context"
	"fmt"

	"meritbot/database"
	"meritbot/domain/entities"
)

// ActionLogRepository implements the ActionLogRepository interface
type ActionLogRepository struct {
	q       Queryable
	guildID int64
}

// NewActionLogRepository creates a new action log repository
func NewActionLogRepository(db *database.DB, guildID int64) *ActionLogRepository {
	return &ActionLogRepository{q: db.Pool, guildID: guildID}
}

// NewActionLogRepositoryScoped creates a new action log repository with a transaction and guild scope
func NewActionLogRepositoryScoped(tx Queryable, guildID int64) *ActionLogRepository {
	return &ActionLogRepository{
		q:       tx,
		guildID: guildID,
	}
}

// Record appends one audit entry. The entry's ID and timestamp are filled in
// from the insert.
func (r *ActionLogRepository) Record(ctx context.Context, record *entities.ActionRecord) error {
	query := `
		INSERT INTO action_log (actor_id, guild_id, action_kind, points, week_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.ActorID,
		r.guildID,
		record.Kind,
		record.Points,
		record.WeekNumber,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record action %s for actor %d in guild %d: %w", record.Kind, record.ActorID, r.guildID, err)
	}

	record.GuildID = r.guildID
	return nil
}

// ListByActor returns the most recent entries for one actor, newest first
func (r *ActionLogRepository) ListByActor(ctx context.Context, actorID int64, limit int) ([]*entities.ActionRecord, error) {
	query := `
		SELECT id, actor_id, guild_id, action_kind, points, week_number, created_at
		FROM action_log
		WHERE actor_id = $1 AND guild_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, actorID, r.guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions for actor %d in guild %d: %w", actorID, r.guildID, err)
	}
	defer rows.Close()

	var records []*entities.ActionRecord
	for rows.Next() {
		var record entities.ActionRecord
		err := rows.Scan(
			&record.ID,
			&record.ActorID,
			&record.GuildID,
			&record.Kind,
			&record.Points,
			&record.WeekNumber,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate action records: %w", err)
	}

	return records, nil
}
