package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mudmind/internal/transcript"
)

func sampleTranscript() []transcript.Message {
	return []transcript.Message{
		{Role: transcript.RoleInstruction, Content: "you are playing a MUD"},
		{Role: transcript.RoleSessionText, Content: "The Temple Square"},
		{Role: transcript.RoleAgentText, Content: "<command>\nnorth\n</command>"},
		{Role: transcript.RoleSessionText, Content: "Market Street"},
		{Role: transcript.RoleSessionText, Content: "A beggar waves at you."},
	}
}

func TestNewFactory(t *testing.T) {
	c, err := New(ProviderOpenAI, Config{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = New(ProviderAnthropic, Config{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, c)

	_, err = New(Provider("mystery"), Config{})
	assert.Error(t, err)
}

func TestOpenAIRoleMapping(t *testing.T) {
	wire := mapOpenAIRoles(sampleTranscript())
	require.Len(t, wire, 5)
	assert.Equal(t, "system", wire[0].Role)
	assert.Equal(t, "user", wire[1].Role)
	assert.Equal(t, "assistant", wire[2].Role)
	assert.Equal(t, "user", wire[3].Role)
}

func TestAnthropicRoleMapping(t *testing.T) {
	system, wire := mapAnthropicRoles(sampleTranscript())
	assert.Equal(t, "you are playing a MUD", system)
	// Consecutive session chunks merge to keep strict alternation.
	require.Len(t, wire, 3)
	assert.Equal(t, "user", wire[0].Role)
	assert.Equal(t, "assistant", wire[1].Role)
	assert.Equal(t, "user", wire[2].Role)
	assert.Contains(t, wire[2].Content, "Market Street")
	assert.Contains(t, wire[2].Content, "beggar")
}

func TestOpenAICompleteRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "system", req.Messages[0].Role)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "<command>\nlook\n</command>"}},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	got, err := c.Complete(context.Background(), sampleTranscript())
	require.NoError(t, err)
	assert.Equal(t, "<command>\nlook\n</command>", got)
}

func TestAnthropicCompleteRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.System)
		for _, m := range req.Messages {
			assert.Contains(t, []string{"user", "assistant"}, m.Role)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": "onward"}},
		})
	}))
	defer srv.Close()

	c := NewAnthropicClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	got, err := c.Complete(context.Background(), sampleTranscript())
	require.NoError(t, err)
	assert.Equal(t, "onward", got)
}

func TestOpenAICompleteClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad model"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), sampleTranscript())
	require.Error(t, err)
	// 4xx other than 429 is not retried.
	assert.Contains(t, err.Error(), "status 400")
}

func TestCompleteWithoutKey(t *testing.T) {
	c := NewOpenAIClient(Config{})
	_, err := c.Complete(context.Background(), sampleTranscript())
	assert.Error(t, err)
}
