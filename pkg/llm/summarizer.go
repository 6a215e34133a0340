package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/thisisntnathan/arXivCurator/pkg/domain"
)

// Summarizer produces short digests of relevant articles from their
// title and abstract.
type Summarizer struct {
	client *Client
}

// NewSummarizer creates a new LLM-backed summarizer
func NewSummarizer(client *Client) *Summarizer {
	return &Summarizer{client: client}
}

const summarySystemPrompt = `Summarize the following paper from its title and abstract.
Make sure to highlight any datasets, methods, and results that are mentioned.
Keep your summary to fewer than 60 words and at most 4 sentences.
Write directly about the content itself, never "the paper discusses".`

// Summarize produces a short digest of the article. Failures wrap
// domain.ErrSummarizationUnavailable.
func (s *Summarizer) Summarize(ctx context.Context, article domain.Article) (string, error) {
	req := openai.ChatCompletionRequest{
		Temperature: s.client.Temperature(),
		MaxTokens:   s.client.MaxTokens(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("The paper title is %s\nThe abstract is %s", article.Title, article.Abstract),
			},
		},
	}

	resp, err := s.client.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: summarize %q: %w", domain.ErrSummarizationUnavailable, article.Title, err)
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary for %q", domain.ErrSummarizationUnavailable, article.Title)
	}
	return summary, nil
}
