package transcript

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendPreservesOrder(t *testing.T) {
	tr := New("be helpful", 1000)
	tr.Append(RoleSessionText, "You are standing in a field.")
	tr.Append(RoleAgentText, "<command>\nnorth\n</command>")

	msgs := tr.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleInstruction, msgs[0].Role)
	assert.Equal(t, RoleSessionText, msgs[1].Role)
	assert.Equal(t, RoleAgentText, msgs[2].Role)
}

func TestCompactNoOpUnderBudget(t *testing.T) {
	tr := New("short instruction", 1000)
	tr.Append(RoleSessionText, "a few words here")

	assert.Equal(t, 0, tr.Compact())
	assert.Equal(t, 2, tr.Len())
}

func TestCompactDropsOldestFirst(t *testing.T) {
	tr := New("keep me", 50)
	for i := 0; i < 10; i++ {
		tr.Append(RoleSessionText, fmt.Sprintf("chunk %d %s", i, strings.Repeat("word ", 10)))
	}
	require.Greater(t, tr.TotalCost(), 50)

	dropped := tr.Compact()
	require.Greater(t, dropped, 0)

	msgs := tr.Messages()
	assert.Equal(t, RoleInstruction, msgs[0].Role)
	assert.Equal(t, "keep me", msgs[0].Content)
	// Oldest session chunks are gone, the newest survive in order.
	assert.Contains(t, msgs[len(msgs)-1].Content, "chunk 9")
	assert.LessOrEqual(t, tr.TotalCost(), 45) // 0.9 * budget
}

func TestCompactNeverRemovesInstruction(t *testing.T) {
	tr := New(strings.Repeat("word ", 200), 50)
	tr.Append(RoleSessionText, strings.Repeat("word ", 100))

	tr.Compact()
	msgs := tr.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleInstruction, msgs[0].Role)
}

func TestSetInstructionKeepsPosition(t *testing.T) {
	tr := New("v1", 100)
	tr.Append(RoleSessionText, "hello")
	tr.SetInstruction("v2")

	msgs := tr.Messages()
	assert.Equal(t, "v2", msgs[0].Content)
	assert.Equal(t, RoleInstruction, msgs[0].Role)
	assert.Equal(t, "hello", msgs[1].Content)
}

func TestCustomCostFunc(t *testing.T) {
	tr := New("xxxx", 100)
	tr.SetCostFunc(func(m Message) int { return len(m.Content) / 4 })
	assert.Equal(t, 1, tr.TotalCost())

	tr.SetCostFunc(nil)
	assert.Equal(t, 1, tr.TotalCost()) // one word
}
