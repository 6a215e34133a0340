package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thisisntnathan/arXivCurator/pkg/config"
	"github.com/thisisntnathan/arXivCurator/pkg/domain"
)

// newTestClient returns a client pointed at an OpenAI-compatible test
// server that replies with the given message contents, one per call.
func newTestClient(t *testing.T, replies ...string) (*Client, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		n := atomic.AddInt32(&calls, 1)
		reply := replies[len(replies)-1]
		if int(n) <= len(replies) {
			reply = replies[n-1]
		}

		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: reply}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	client := NewClient(config.LLMConfig{
		Endpoint:    server.URL + "/v1",
		APIKey:      "test-key",
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   500,
		Timeout:     5 * time.Second,
		RateLimit:   1000,
	})
	return client, &calls
}

func testArticles() []domain.Article {
	return []domain.Article{
		{
			GUID:     "https://arxiv.org/abs/2501.01234",
			Title:    "ML for Retrosynthesis",
			Abstract: "We present a transformer model for retrosynthetic planning.",
		},
		{
			GUID:     "https://arxiv.org/abs/2501.05678",
			Title:    "Topological Phases in Moire Lattices",
			Abstract: "A study of emergent band topology.",
		},
	}
}

func TestClassifier_Triage(t *testing.T) {
	client, calls := newTestClient(t, `Here are the decisions:

[
  {"guid": "https://arxiv.org/abs/2501.01234", "relevant": true, "confidence": 0.92, "explanation": "matches synthesis planning interest"},
  {"guid": "https://arxiv.org/abs/2501.05678", "relevant": false, "confidence": 0.7, "explanation": "condensed matter, not chemistry"},
  {"guid": "unknown-guid", "relevant": true, "confidence": 0.5, "explanation": "hallucinated"}
]`)

	classifier := NewClassifier(client)
	profile := config.ProfileConfig{Interests: "ML for organic synthesis"}

	decisions, err := classifier.Triage(context.Background(), testArticles(), profile)
	require.NoError(t, err)
	assert.Equal(t, int32(1), *calls)

	// the hallucinated GUID is dropped
	require.Len(t, decisions, 2)
	assert.Equal(t, "https://arxiv.org/abs/2501.01234", decisions[0].ArticleGUID)
	assert.True(t, decisions[0].Relevant)
	assert.InDelta(t, 0.92, decisions[0].Confidence, 0.001)
	assert.False(t, decisions[1].Relevant)
}

func TestClassifier_Triage_RetryOnBadJSON(t *testing.T) {
	client, calls := newTestClient(t,
		"sorry, no JSON here",
		`[{"guid": "https://arxiv.org/abs/2501.01234", "relevant": true, "confidence": 0.8}]`,
	)

	classifier := NewClassifier(client)
	decisions, err := classifier.Triage(context.Background(), testArticles(), config.ProfileConfig{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), *calls)
	require.Len(t, decisions, 1)
	assert.True(t, decisions[0].Relevant)
}

func TestClassifier_Triage_FailsAfterThreeBadResponses(t *testing.T) {
	client, calls := newTestClient(t, "still no JSON")

	classifier := NewClassifier(client)
	_, err := classifier.Triage(context.Background(), testArticles(), config.ProfileConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrClassificationUnavailable)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, int32(3), *calls)
}

func TestClassifier_Triage_EmptyInput(t *testing.T) {
	client, calls := newTestClient(t, "should never be called")

	classifier := NewClassifier(client)
	decisions, err := classifier.Triage(context.Background(), nil, config.ProfileConfig{})
	require.NoError(t, err)
	assert.Empty(t, decisions)
	assert.Equal(t, int32(0), *calls)
}

func TestClassifier_Triage_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(config.LLMConfig{
		Endpoint:  server.URL + "/v1",
		APIKey:    "test-key",
		Model:     "gpt-4o-mini",
		Timeout:   5 * time.Second,
		RateLimit: 1000,
	})
	classifier := NewClassifier(client)

	_, err := classifier.Triage(context.Background(), testArticles(), config.ProfileConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrClassificationUnavailable)
}

func TestClassifier_Triage_PromptContainsProfile(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req openai.ChatCompletionRequest
		require.NoError(t, json.Unmarshal(body, &req))
		require.Len(t, req.Messages, 2)
		gotPrompt = req.Messages[1].Content

		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: `[]`}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(config.LLMConfig{
		Endpoint:  server.URL + "/v1",
		APIKey:    "test-key",
		Model:     "gpt-4o-mini",
		Timeout:   5 * time.Second,
		RateLimit: 1000,
	})
	classifier := NewClassifier(client)

	profile := config.ProfileConfig{
		Interests: "reaction prediction",
		Liked:     []string{"Neural Retrosynthesis"},
		Disliked:  []string{"Quantum Gravity Review"},
	}
	_, err := classifier.Triage(context.Background(), testArticles()[:1], profile)
	require.NoError(t, err)

	assert.Contains(t, gotPrompt, "reaction prediction")
	assert.Contains(t, gotPrompt, "Neural Retrosynthesis")
	assert.Contains(t, gotPrompt, "Quantum Gravity Review")
	assert.Contains(t, gotPrompt, "GUID: https://arxiv.org/abs/2501.01234")
	assert.True(t, strings.Contains(gotPrompt, "ML for Retrosynthesis"))
}
