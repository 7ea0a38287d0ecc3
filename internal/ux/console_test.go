package ux

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanelShowsTitleAndBody(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, strings.NewReader(""))

	c.Panel("session", "The Temple Square\n")

	assert.Contains(t, out.String(), "SESSION")
	assert.Contains(t, out.String(), "The Temple Square")
}

func TestApprove(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"whatever\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		c := NewConsole(&out, strings.NewReader(tt.input))
		got, err := c.Approve(context.Background(), "north")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "north")
	}
}

func TestApproveReadFailure(t *testing.T) {
	c := NewConsole(&bytes.Buffer{}, strings.NewReader("no newline"))
	_, err := c.Approve(context.Background(), "north")
	assert.Error(t, err)
}
