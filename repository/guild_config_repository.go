package repository

import (
	"context"
	"fmt"

	"meritbot/database"
	"meritbot/domain/entities"

	"github.com/jackc/pgx/v5"
)

// GuildConfigRepository implements the GuildConfigRepository interface.
// Not guild-scoped: the scheduler walks every guild at startup.
type GuildConfigRepository struct {
	q Queryable
}

// NewGuildConfigRepository creates a new guild config repository
func NewGuildConfigRepository(db *database.DB) *GuildConfigRepository {
	return &GuildConfigRepository{q: db.Pool}
}

// NewGuildConfigRepositoryWithTx creates a new guild config repository with a transaction
func NewGuildConfigRepositoryWithTx(tx Queryable) *GuildConfigRepository {
	return &GuildConfigRepository{q: tx}
}

const guildConfigColumns = `guild_id, mod_role_id, leaderboard_channel_id, welcome_channel_id,
		welcome_title, welcome_content, welcome_image, rotation_schedule, created_at, updated_at`

// GetOrCreate retrieves guild config or creates an all-defaults row if not found
func (r *GuildConfigRepository) GetOrCreate(ctx context.Context, guildID int64) (*entities.GuildConfig, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM guild_config
		WHERE guild_id = $1
	`, guildConfigColumns)

	config, err := r.scanConfig(r.q.QueryRow(ctx, query, guildID))
	if err == nil {
		return config, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to get guild config for guild %d: %w", guildID, err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO guild_config (guild_id)
		VALUES ($1)
		ON CONFLICT (guild_id) DO UPDATE SET guild_id = EXCLUDED.guild_id
		RETURNING %s
	`, guildConfigColumns)

	config, err = r.scanConfig(r.q.QueryRow(ctx, insertQuery, guildID))
	if err != nil {
		return nil, fmt.Errorf("failed to create guild config for guild %d: %w", guildID, err)
	}

	return config, nil
}

// Upsert merges the patch into the stored row. COALESCE keeps every field
// the patch leaves nil, so setting one field never clobbers another.
func (r *GuildConfigRepository) Upsert(ctx context.Context, guildID int64, patch entities.GuildConfigPatch) (*entities.GuildConfig, error) {
	query := fmt.Sprintf(`
		INSERT INTO guild_config (
			guild_id, mod_role_id, leaderboard_channel_id, welcome_channel_id,
			welcome_title, welcome_content, welcome_image, rotation_schedule
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (guild_id) DO UPDATE
		SET mod_role_id = COALESCE($2, guild_config.mod_role_id),
		    leaderboard_channel_id = COALESCE($3, guild_config.leaderboard_channel_id),
		    welcome_channel_id = COALESCE($4, guild_config.welcome_channel_id),
		    welcome_title = COALESCE($5, guild_config.welcome_title),
		    welcome_content = COALESCE($6, guild_config.welcome_content),
		    welcome_image = COALESCE($7, guild_config.welcome_image),
		    rotation_schedule = COALESCE($8, guild_config.rotation_schedule),
		    updated_at = NOW()
		RETURNING %s
	`, guildConfigColumns)

	config, err := r.scanConfig(r.q.QueryRow(ctx, query,
		guildID,
		patch.ModRoleID,
		patch.LeaderboardChannelID,
		patch.WelcomeChannelID,
		patch.WelcomeTitle,
		patch.WelcomeContent,
		patch.WelcomeImage,
		patch.RotationSchedule,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert guild config for guild %d: %w", guildID, err)
	}

	return config, nil
}

// ListGuildIDs returns every guild that has a config row
func (r *GuildConfigRepository) ListGuildIDs(ctx context.Context) ([]int64, error) {
	query := `
		SELECT guild_id
		FROM guild_config
		ORDER BY guild_id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list guild IDs: %w", err)
	}
	defer rows.Close()

	var guildIDs []int64
	for rows.Next() {
		var guildID int64
		if err := rows.Scan(&guildID); err != nil {
			return nil, fmt.Errorf("failed to scan guild ID: %w", err)
		}
		guildIDs = append(guildIDs, guildID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate guild IDs: %w", err)
	}

	return guildIDs, nil
}

func (r *GuildConfigRepository) scanConfig(row pgx.Row) (*entities.GuildConfig, error) {
	var config entities.GuildConfig
	err := row.Scan(
		&config.GuildID,
		&config.ModRoleID,
		&config.LeaderboardChannelID,
		&config.WelcomeChannelID,
		&config.WelcomeTitle,
		&config.WelcomeContent,
		&config.WelcomeImage,
		&config.RotationSchedule,
		&config.CreatedAt,
		&config.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &config, nil
}
