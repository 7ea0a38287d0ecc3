package world

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{
		"n": North, "North": North, "SOUTH": South, "u": Up, "down": Down,
	} {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"ne", "northeast", "out", "enter", ""} {
		_, err := ParseDirection(bad)
		assert.Error(t, err, bad)
	}
}

func TestOpposite(t *testing.T) {
	assert.Equal(t, South, North.Opposite())
	assert.Equal(t, East, West.Opposite())
	assert.Equal(t, Down, Up.Opposite())
}

func TestParseFragmentHeadingAndInlineExits(t *testing.T) {
	obs := ParseFragment("The Temple Square\nYou stand before a great temple.\nExits:NE(W)\n")
	assert.Equal(t, "The Temple Square", obs.Name)
	want := []Exit{{Dir: North}, {Dir: East}, {Dir: West, Closed: true}}
	assert.Empty(t, cmp.Diff(want, obs.Exits))
	assert.Nil(t, obs.Links)
}

func TestParseFragmentVerboseExits(t *testing.T) {
	obs := ParseFragment(`Market Street
A muddy street runs north to south.
Obvious exits:
North - The Temple Square
South - Too dark to tell
`)
	assert.Equal(t, "Market Street", obs.Name)
	require.Len(t, obs.Links, 2)
	assert.Equal(t, "The Temple Square", obs.Links[0].Destination)
	assert.False(t, obs.Links[0].Dark)
	assert.True(t, obs.Links[1].Dark)
	assert.Equal(t, []Exit{{Dir: North}, {Dir: South}}, obs.Exits)
}

func TestParseFragmentStatusLineFallback(t *testing.T) {
	obs := ParseFragment("The Dusty Cellar\nCobwebs everywhere.\n<20/20hp 98/100mv 12xp 40% 3g 5t UD>\n")
	assert.Equal(t, "The Dusty Cellar", obs.Name)
	assert.Equal(t, []Exit{{Dir: Up}, {Dir: Down}}, obs.Exits)
}

func TestParseFragmentStatusLineDoesNotOverride(t *testing.T) {
	obs := ParseFragment("The Gate\nExits:N\n<10/10hp 5/5mv 0xp 0% 0g 2t NS>\n")
	assert.Equal(t, []Exit{{Dir: North}}, obs.Exits)
}

func TestParseFragmentNoRoom(t *testing.T) {
	obs := ParseFragment("you see nothing new here.\n")
	assert.Empty(t, obs.Name)
	assert.Empty(t, obs.Exits)
}

func TestParseFragmentIgnoresProse(t *testing.T) {
	// A sentence that happens to start capitalized is not a heading.
	obs := ParseFragment("A rat scurries past you.\n")
	assert.Empty(t, obs.Name)
}

func TestMovementBlocked(t *testing.T) {
	assert.True(t, MovementBlocked("Alas, you cannot go that way.\n"))
	assert.True(t, MovementBlocked("You can't go that way."))
	assert.False(t, MovementBlocked("You walk north.\n"))
}
