package character

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mudmind/internal/world"
)

func TestMovementRingBounded(t *testing.T) {
	r := New("Thorin")
	for i := 0; i < 55; i++ {
		result := MoveSuccess
		if i%2 == 1 {
			result = MoveFailed
		}
		r.RecordMovement(world.North, result)
	}

	require.Len(t, r.Movements, MaxMovements)
	// The first five entries (indexes 0..4) were evicted; index 5 was odd,
	// so the surviving head is a failed move and the tail matches insert 54.
	assert.Equal(t, MoveFailed, r.Movements[0].Result)
	assert.Equal(t, MoveSuccess, r.Movements[len(r.Movements)-1].Result)
}

func TestLastMovement(t *testing.T) {
	r := New("Thorin")
	assert.Nil(t, r.LastMovement())

	r.RecordMovement(world.East, MoveSuccess)
	last := r.LastMovement()
	require.NotNil(t, last)
	assert.Equal(t, world.East, last.Dir)
}

func TestAddPathReplacesSamePair(t *testing.T) {
	r := New("Thorin")
	r.AddPath("Temple", "Market", []world.Direction{world.North})
	r.AddPath("Temple", "Inn", []world.Direction{world.East})
	r.AddPath("Temple", "Market", []world.Direction{world.North, world.North})

	require.Len(t, r.Paths, 2)
	// Replacement keeps the original insertion-order position.
	assert.Equal(t, "Market", r.Paths[0].To)
	assert.Equal(t, []world.Direction{world.North, world.North}, r.Paths[0].Directions)
}

func TestAddPathBounded(t *testing.T) {
	r := New("Thorin")
	for i := 0; i < 25; i++ {
		r.AddPath("Temple", fmt.Sprintf("room-%d", i), []world.Direction{world.South})
	}
	require.Len(t, r.Paths, MaxPaths)
	assert.Equal(t, "room-5", r.Paths[0].To)
	assert.Equal(t, "room-24", r.Paths[len(r.Paths)-1].To)
}

func TestAddMemoryBounded(t *testing.T) {
	r := New("Thorin")
	for i := 0; i < 25; i++ {
		r.AddMemory(fmt.Sprintf("note %d", i), "exploration")
	}
	require.Len(t, r.Memories, MaxMemories)
	assert.Equal(t, "note 5", r.Memories[0].Summary)
}
