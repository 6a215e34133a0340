package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/thisisntnathan/arXivCurator/pkg/config"
)

// Client wraps an OpenAI-compatible endpoint with the bounded-timeout
// and rate-limit discipline shared by every external LLM call.
type Client struct {
	api     *openai.Client
	cfg     config.LLMConfig
	limiter *rate.Limiter
}

// NewClient creates a new LLM client
func NewClient(cfg config.LLMConfig) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}

	return &Client{
		api:     openai.NewClientWithConfig(clientConfig),
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}
}

// Complete runs a single chat completion. Every call waits for rate
// limit clearance and is bounded by the configured timeout so a stuck
// upstream fails instead of hanging the session.
func (c *Client) Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if req.Model == "" {
		req.Model = c.cfg.Model
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("llm request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionResponse{}, fmt.Errorf("no response from llm")
	}
	return resp, nil
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.cfg.Model
}

// Temperature returns the configured sampling temperature
func (c *Client) Temperature() float32 {
	return float32(c.cfg.Temperature)
}

// MaxTokens returns the configured response token budget
func (c *Client) MaxTokens() int {
	return c.cfg.MaxTokens
}

// UseJSONMode reports whether responses should request JSON object format
func (c *Client) UseJSONMode() bool {
	return c.cfg.UseJSONMode
}
