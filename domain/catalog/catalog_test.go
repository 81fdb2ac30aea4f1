package catalog

import (
	"errors"
	"testing"
	"time"

	"meritbot/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	t.Run("registered kind", func(t *testing.T) {
		e, err := Lookup(entities.ActionBan)
		require.NoError(t, err)
		assert.Equal(t, int64(10), e.Points)
		assert.Equal(t, CategoryDiscipline, e.Category)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := Lookup(entities.ActionKind("PURGE"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, entities.ErrUnknownActionKind))
	})
}

func TestListByCategory(t *testing.T) {
	t.Parallel()

	discipline := ListByCategory(CategoryDiscipline)
	require.Len(t, discipline, 4)

	// Registration order is stable: warn, mute, kick, ban
	kinds := make([]entities.ActionKind, 0, len(discipline))
	for _, e := range discipline {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []entities.ActionKind{
		entities.ActionWarn,
		entities.ActionMute,
		entities.ActionKick,
		entities.ActionBan,
	}, kinds)

	// Menu page limit
	assert.LessOrEqual(t, len(discipline), 25)
	assert.LessOrEqual(t, len(ListByCategory(CategoryCommunity)), 25)
}

func TestUpdateRates(t *testing.T) {
	original := Rates()
	defer UpdateRates(original)

	UpdateRates(GlobalRates{
		PointsPerMessage: 2,
		Multiplier:       3,
		Cooldown:         30 * time.Second,
	})

	assert.Equal(t, int64(6), MessagePoints())
	assert.Equal(t, 30*time.Second, Rates().Cooldown)
}
