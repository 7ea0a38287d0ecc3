package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantOK  bool
		wantErr bool
	}{
		{name: "simple", input: "<command>\nlook\n</command>", want: "look", wantOK: true},
		{name: "surrounded by prose", input: "I will look around.\n<command>\nlook\n</command>\nDone.", want: "look", wantOK: true},
		{name: "no block", input: "no block here", wantOK: false},
		{name: "multi line rejected", input: "<command>\nnorth\nsouth\n</command>", wantOK: false, wantErr: true},
		{name: "empty block", input: "<command>\n\n</command>", wantOK: false},
		{name: "return alias", input: "<command>\nreturn\n</command>", want: "\n", wantOK: true},
		{name: "enter alias uppercase", input: "<command>\nENTER\n</command>", want: "\n", wantOK: true},
		{name: "inline single line", input: "<command>kill rat</command>", want: "kill rat", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Extract(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMultiLine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractCharacter(t *testing.T) {
	sheet, ok, err := ExtractCharacter(`<new_character>{"name":"Thorin","class":"warrior","race":"dwarf"}</new_character>`)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Thorin", sheet.Name)
	assert.Equal(t, "warrior", sheet.Class)

	_, ok, err = ExtractCharacter("nothing")
	assert.False(t, ok)
	assert.NoError(t, err)

	_, ok, err = ExtractCharacter(`<new_character>{"class":"mage"}</new_character>`)
	assert.True(t, ok)
	assert.ErrorContains(t, err, "name")

	_, ok, err = ExtractCharacter(`<new_character>not json</new_character>`)
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestExtractMemory(t *testing.T) {
	note, ok, err := ExtractMemory(`<memory>{"summary":"the rat king drops gold","type":"combat"}</memory>`)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "combat", note.Type)

	_, ok, err = ExtractMemory(`<memory>{"summary":"x","type":"nonsense"}</memory>`)
	require.True(t, ok)
	require.Error(t, err)
	assert.ErrorContains(t, err, "pathfinding")

	note, ok, err = ExtractMemory(`<memory>{"summary":"untyped is fine"}</memory>`)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, note.Type)

	_, ok, _ = ExtractMemory("plain text")
	assert.False(t, ok)
}
