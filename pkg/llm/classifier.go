package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/thisisntnathan/arXivCurator/pkg/config"
	"github.com/thisisntnathan/arXivCurator/pkg/domain"
)

// Classifier triages articles against the user's standing preference
// profile. The decision is a black box and not guaranteed stable
// across profile versions or runs; callers cache within a session
// only.
type Classifier struct {
	client *Client
}

// NewClassifier creates a new LLM-backed relevance classifier
func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

const triageSystemPrompt = `You are a reading assistant that decides whether preprints match the user's standing research interests.
For every article produce a decision object:
- guid: the article's GUID exactly as given
- relevant: true or false
- confidence: your confidence in the decision, 0.0 to 1.0
- explanation: brief reason (max 100 chars)
Judge only from the title and abstract against the stated interests. Every listed article must get exactly one decision.`

// Triage classifies the given articles against the profile, returning
// one decision per recognized article GUID. Failures wrap
// domain.ErrClassificationUnavailable.
func (c *Classifier) Triage(ctx context.Context, articles []domain.Article, profile config.ProfileConfig) ([]domain.TriageDecision, error) {
	if len(articles) == 0 {
		return []domain.TriageDecision{}, nil
	}

	prompt := c.buildPrompt(articles, profile)

	// retry up to 3 times if we get invalid JSON
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req := openai.ChatCompletionRequest{
			Temperature: c.client.Temperature(),
			MaxTokens:   c.client.MaxTokens(),
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: triageSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		}
		if c.client.UseJSONMode() {
			req.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			}
		}

		resp, err := c.client.Complete(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrClassificationUnavailable, err)
		}

		decisions, err := c.parseResponse(resp.Choices[0].Message.Content, articles)
		if err == nil {
			return decisions, nil
		}
		lastErr = err

		// malformed JSON is worth another attempt, anything else is not
		if strings.Contains(err.Error(), "parse json") || strings.Contains(err.Error(), "no json array found") {
			continue
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrClassificationUnavailable, err)
	}

	return nil, fmt.Errorf("%w: failed after 3 attempts: %w", domain.ErrClassificationUnavailable, lastErr)
}

// buildPrompt creates the triage prompt for the LLM
func (c *Classifier) buildPrompt(articles []domain.Article, profile config.ProfileConfig) string {
	var sb strings.Builder

	if profile.Interests != "" {
		sb.WriteString("The user's standing interests:\n")
		sb.WriteString(profile.Interests)
		sb.WriteString("\n\n")
	}

	if len(profile.Liked) > 0 {
		sb.WriteString("Examples of papers the user found interesting:\n")
		for _, title := range profile.Liked {
			sb.WriteString("- " + title + "\n")
		}
		sb.WriteString("\n")
	}

	if len(profile.Disliked) > 0 {
		sb.WriteString("Examples of papers the user skipped:\n")
		for _, title := range profile.Disliked {
			sb.WriteString("- " + title + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Decide whether each of these articles is interesting:\n\n")
	for i, article := range articles {
		sb.WriteString(fmt.Sprintf("%d. GUID: %s\n", i+1, article.GUID))
		sb.WriteString(fmt.Sprintf("   Title: %s\n", article.Title))
		if article.Abstract != "" {
			abstract := article.Abstract
			if len(abstract) > 1500 {
				abstract = abstract[:1500] + "..."
			}
			sb.WriteString(fmt.Sprintf("   Abstract: %s\n", abstract))
		}
		sb.WriteString("\n")
	}

	if c.client.UseJSONMode() {
		sb.WriteString("Respond with a JSON object containing a 'decisions' array of decision objects.")
	} else {
		sb.WriteString("Respond with a JSON array of decision objects.")
	}
	return sb.String()
}

// parseResponse parses the LLM response into triage decisions
func (c *Classifier) parseResponse(content string, articles []domain.Article) ([]domain.TriageDecision, error) {
	var decisions []domain.TriageDecision

	if c.client.UseJSONMode() {
		var resp struct {
			Decisions []domain.TriageDecision `json:"decisions"`
		}
		if err := json.Unmarshal([]byte(content), &resp); err != nil {
			return nil, fmt.Errorf("parse json object response: %w", err)
		}
		decisions = resp.Decisions
	} else {
		start := strings.Index(content, "[")
		end := strings.LastIndex(content, "]")
		if start == -1 || end == -1 || start >= end {
			return nil, fmt.Errorf("no json array found in response")
		}
		if err := json.Unmarshal([]byte(content[start:end+1]), &decisions); err != nil {
			return nil, fmt.Errorf("parse json array response: %w", err)
		}
	}

	// keep only decisions for articles we actually asked about
	guids := make(map[string]bool)
	for _, article := range articles {
		guids[article.GUID] = true
	}

	var valid []domain.TriageDecision
	for _, d := range decisions {
		if !guids[d.ArticleGUID] {
			continue
		}
		if d.Confidence < 0 {
			d.Confidence = 0
		} else if d.Confidence > 1 {
			d.Confidence = 1
		}
		valid = append(valid, d)
	}

	return valid, nil
}
