package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mudmind/internal/character"
	"mudmind/internal/world"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "mudmind.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := character.New("Thorin")
	rec.Class = "warrior"
	rec.Race = "dwarf"
	rec.Level = 3
	rec.Graph.Observe("The Temple Square\nExits:NS\n", nil)
	rec.RecordMovement(world.North, character.MoveSuccess)
	rec.AddPath("Temple", "Market", []world.Direction{world.North, world.East})
	rec.AddMemory("the beggar knows the sewers", "social")
	rec.AddMemory("rats are easy xp", "combat")

	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Load(ctx, "Thorin")
	require.NoError(t, err)
	assert.Equal(t, "warrior", got.Class)
	assert.Equal(t, 3, got.Level)
	assert.Len(t, got.Graph.Rooms, 1)
	assert.Equal(t, rec.Graph.CurrentRoomID, got.Graph.CurrentRoomID)
	require.Len(t, got.Movements, 1)
	assert.Equal(t, world.North, got.Movements[0].Dir)
	require.Len(t, got.Paths, 1)
	assert.Equal(t, []world.Direction{world.North, world.East}, got.Paths[0].Directions)
	require.Len(t, got.Memories, 2)
	assert.Equal(t, "the beggar knows the sewers", got.Memories[0].Summary)
	assert.Equal(t, "combat", got.Memories[1].Type)
}

func TestSaveIsUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := character.New("Thorin")
	require.NoError(t, s.Save(ctx, rec))

	rec.Level = 5
	rec.AddMemory("leveled up at the shrine", "level_up")
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Load(ctx, "Thorin")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Level)
	require.Len(t, got.Memories, 1)
}

func TestLoadMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load(context.Background(), "Nobody")
	assert.ErrorIs(t, err, character.ErrNotFound)
}

func TestMemoriesBoundedOnLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := character.New("Thorin")
	for i := 0; i < 25; i++ {
		rec.AddMemory(fmt.Sprintf("note %d", i), "exploration")
	}
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Load(ctx, "Thorin")
	require.NoError(t, err)
	require.Len(t, got.Memories, character.MaxMemories)
	assert.Equal(t, "note 5", got.Memories[0].Summary)
	assert.Equal(t, "note 24", got.Memories[len(got.Memories)-1].Summary)
}
