package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mudmind/internal/character"
	"mudmind/internal/world"
)

func TestComposeWithoutCharacter(t *testing.T) {
	out := Compose(nil)
	assert.Contains(t, out, "<command>")
	assert.Contains(t, out, "no character yet")
}

func TestComposeWithCharacter(t *testing.T) {
	rec := character.New("Thorin")
	rec.Class = "warrior"
	rec.Level = 2
	rec.Graph.Observe("The Temple Square\nExits:NS\n", nil)
	rec.AddPath("Temple", "Market", []world.Direction{world.North, world.East})
	rec.AddMemory("the beggar knows the sewers", "social")

	out := Compose(rec)
	assert.Contains(t, out, "name: Thorin")
	assert.Contains(t, out, "class: warrior")
	assert.Contains(t, out, "The Temple Square")
	assert.Contains(t, out, "Temple -> Market: N E")
	assert.Contains(t, out, "[social] the beggar knows the sewers")
}
