package world

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const templeFragment = "The Temple Square\nA wide square before the temple.\nExits:NS\n"

func TestObserveRevisitSameRoom(t *testing.T) {
	g := NewGraph()

	id1, ok := g.Observe(templeFragment, nil)
	require.True(t, ok)
	id2, ok := g.Observe(templeFragment, nil)
	require.True(t, ok)

	assert.Equal(t, id1, id2)
	require.Len(t, g.Rooms, 1)
	assert.Equal(t, 2, g.Rooms[id1].VisitCount)
	assert.Equal(t, id1, g.CurrentRoomID)
}

func TestObserveSameNameDifferentExitsAreDistinct(t *testing.T) {
	g := NewGraph()
	id1, _ := g.Observe("Dark Corridor\nExits:NS\n", nil)
	id2, _ := g.Observe("Dark Corridor\nExits:EW\n", nil)

	assert.NotEqual(t, id1, id2)
	assert.Len(t, g.Rooms, 2)
}

func TestClosedDoorExcludedFromSignature(t *testing.T) {
	open := RoomID("Guard House", []Exit{{Dir: North}, {Dir: West}})
	closedDoor := RoomID("Guard House", []Exit{{Dir: North}, {Dir: West, Closed: true}})
	bare := RoomID("Guard House", []Exit{{Dir: North}})

	assert.NotEqual(t, open, closedDoor)
	assert.Equal(t, bare, closedDoor)
}

func TestObserveVerboseExitsCreatesConnections(t *testing.T) {
	g := NewGraph()
	id, ok := g.Observe(`Market Street
Obvious exits:
North - The Temple Square
East - Too dark to tell
`, nil)
	require.True(t, ok)

	room := g.Rooms[id]
	require.NotNil(t, room)
	assert.Equal(t, []Exit{{Dir: North}, {Dir: East}}, room.Exits)

	// The dark direction is an exit but never a connection or a node.
	_, hasEast := room.Connections[East]
	assert.False(t, hasEast)
	assert.Len(t, g.Rooms, 2)

	destID := room.Connections[North]
	require.NotEmpty(t, destID)
	dest := g.Rooms[destID]
	require.NotNil(t, dest)
	assert.Equal(t, "The Temple Square", dest.Name)
	assert.Equal(t, id, dest.Connections[South])
}

func TestObserveUnparsableLeavesGraphUntouched(t *testing.T) {
	g := NewGraph()
	g.Observe(templeFragment, nil)

	_, ok := g.Observe("you see nothing new.\n", nil)
	assert.False(t, ok)
	assert.Len(t, g.Rooms, 1)
	assert.NotEmpty(t, g.CurrentRoomID)
}

func TestCorrectionRewritesStalePrediction(t *testing.T) {
	g := NewGraph()

	// First pass: the square's verbose block glimpses "Market Street" by
	// name only, creating an under-specified node at north.
	squareID, ok := g.Observe(`The Temple Square
Obvious exits:
North - Market Street
`, nil)
	require.True(t, ok)
	staleID := g.Rooms[squareID].Connections[North]
	require.NotEmpty(t, staleID)

	// Walk north; the fuller observation carries exits, so its id differs
	// from the name-only guess.
	fullID, ok := g.Observe("Market Street\nExits:NS\n", &Move{Dir: North, Success: true})
	require.True(t, ok)
	require.NotEqual(t, staleID, fullID)

	assert.Equal(t, fullID, g.Rooms[squareID].Connections[North])
	_, staleAlive := g.Rooms[staleID]
	assert.False(t, staleAlive, "stale node should be removed")
	assert.Equal(t, squareID, g.Rooms[fullID].Connections[South])
}

func TestSuccessfulMoveLearnsEdge(t *testing.T) {
	g := NewGraph()
	a, _ := g.Observe("The Gate\nExits:N\n", nil)
	b, _ := g.Observe("North Road\nExits:NS\n", &Move{Dir: North, Success: true})

	assert.Equal(t, b, g.Rooms[a].Connections[North])
	assert.Equal(t, a, g.Rooms[b].Connections[South])
}

func TestObserveAfterJSONRoundTrip(t *testing.T) {
	g := NewGraph()
	a, _ := g.Observe("The Gate\nExits:N\n", nil)

	// A room with no learned edges serializes with a nil connection map;
	// resuming a stored graph must still be able to learn edges through it.
	data, err := json.Marshal(g)
	require.NoError(t, err)
	var loaded Graph
	require.NoError(t, json.Unmarshal(data, &loaded))
	require.Nil(t, loaded.Rooms[a].Connections)

	b, ok := loaded.Observe("North Road\nExits:NS\n", &Move{Dir: North, Success: true})
	require.True(t, ok)
	assert.Equal(t, b, loaded.Rooms[a].Connections[North])
	assert.Equal(t, a, loaded.Rooms[b].Connections[South])
}

func TestObserveVerboseExitsAfterJSONRoundTrip(t *testing.T) {
	g := NewGraph()
	id, _ := g.Observe("Market Street\nExits:NS\n", nil)

	data, err := json.Marshal(g)
	require.NoError(t, err)
	var loaded Graph
	require.NoError(t, json.Unmarshal(data, &loaded))

	_, ok := loaded.Observe(`Market Street
Obvious exits:
North - The Temple Square
South - The Gate
`, nil)
	require.True(t, ok)
	assert.NotEmpty(t, loaded.Rooms[id].Connections[North])
	assert.NotEmpty(t, loaded.Rooms[id].Connections[South])
}

func TestFailedMoveDoesNotRewire(t *testing.T) {
	g := NewGraph()
	a, _ := g.Observe("The Gate\nExits:N\n", nil)

	// A failed move re-describes the same room; no edge should appear.
	id, ok := g.Observe("The Gate\nExits:N\n", &Move{Dir: East, Success: false})
	require.True(t, ok)
	assert.Equal(t, a, id)
	assert.Empty(t, g.Rooms[a].Connections)
}
