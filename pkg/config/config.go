package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	User struct {
		Name  string `yaml:"name" json:"name" jsonschema:"description=Display name used in assistant replies"`
		Feeds []Feed `yaml:"feeds" json:"feeds" jsonschema:"description=Syndication feeds to curate from"`
	} `yaml:"user" json:"user"`

	Profile ProfileConfig `yaml:"profile" json:"profile"`

	LLM LLMConfig `yaml:"llm" json:"llm"`

	GitHub GitHubConfig `yaml:"github" json:"github"`

	Email EmailConfig `yaml:"email" json:"email"`

	Agent AgentConfig `yaml:"agent" json:"agent"`
}

// Feed describes a single syndication source
type Feed struct {
	Name string `yaml:"name" json:"name" jsonschema:"description=Short feed name used in conversation"`
	URL  string `yaml:"url" json:"url" jsonschema:"description=Feed URL (RSS or Atom)"`
}

// ProfileConfig is the standing preference profile used for triage.
// Owned by configuration, read-only to the curation core.
type ProfileConfig struct {
	Version   string   `yaml:"version" json:"version" jsonschema:"description=Free-form profile revision marker"`
	Interests string   `yaml:"interests" json:"interests" jsonschema:"description=Prose description of research interests"`
	Liked     []string `yaml:"liked" json:"liked" jsonschema:"description=Titles of papers the user liked"`
	Disliked  []string `yaml:"disliked" json:"disliked" jsonschema:"description=Titles of papers the user disliked"`
}

// LLMConfig holds LLM settings for triage, summarization and routing
type LLMConfig struct {
	Endpoint    string        `yaml:"endpoint" json:"endpoint" jsonschema:"description=OpenAI-compatible API endpoint; empty for the default"`
	APIKey      string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key"`
	Model       string        `yaml:"model" json:"model" jsonschema:"default=gpt-4o-mini,description=Model name"`
	Temperature float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0.3,minimum=0,maximum=2,description=Sampling temperature"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=1000,description=Response token budget"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Per-request timeout"`
	RateLimit   float64       `yaml:"rate_limit" json:"rate_limit" jsonschema:"default=1,description=Requests per second"`
	UseJSONMode bool          `yaml:"use_json_mode" json:"use_json_mode" jsonschema:"description=Request JSON object responses where supported"`
}

// GitHubConfig describes the remote reading-list document
type GitHubConfig struct {
	APIURL    string        `yaml:"api_url" json:"api_url" jsonschema:"default=https://api.github.com,description=GitHub API base URL"`
	Repo      string        `yaml:"repo" json:"repo" jsonschema:"description=Repository in owner/name form"`
	Path      string        `yaml:"path" json:"path" jsonschema:"description=Path of the reading-list file in the repository"`
	Branch    string        `yaml:"branch" json:"branch" jsonschema:"default=main,description=Branch the file lives on"`
	Token     string        `yaml:"token" json:"token" jsonschema:"description=Personal access token with contents write scope"`
	Committer string        `yaml:"committer" json:"committer" jsonschema:"default=arXivCurator,description=Commit author name"`
	Email     string        `yaml:"email" json:"email" jsonschema:"description=Commit author email"`
	PageURL   string        `yaml:"page_url" json:"page_url" jsonschema:"description=Public URL of the published list, used in confirmations"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Per-request timeout"`
}

// EmailConfig describes the SMTP digest sink
type EmailConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled" jsonschema:"description=Enable email delivery"`
	SMTPHost  string        `yaml:"smtp_host" json:"smtp_host" jsonschema:"description=SMTP server host"`
	SMTPPort  int           `yaml:"smtp_port" json:"smtp_port" jsonschema:"default=587,description=SMTP server port"`
	From      string        `yaml:"from" json:"from" jsonschema:"description=Sender address, also used for SMTP auth"`
	Password  string        `yaml:"password" json:"password" jsonschema:"description=SMTP password"`
	Recipient string        `yaml:"recipient" json:"recipient" jsonschema:"description=Digest recipient address"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=15s,description=SMTP dial timeout"`
}

// AgentConfig holds orchestrator settings
type AgentConfig struct {
	MaxToolRounds  int           `yaml:"max_tool_rounds" json:"max_tool_rounds" jsonschema:"default=8,minimum=1,description=Tool-dispatch rounds allowed per turn"`
	TriageBatch    int           `yaml:"triage_batch" json:"triage_batch" jsonschema:"default=10,minimum=1,description=Articles per classification request"`
	TriageWindow   time.Duration `yaml:"triage_window" json:"triage_window" jsonschema:"default=24h,description=How far back triage looks"`
	FeedTimeout    time.Duration `yaml:"feed_timeout" json:"feed_timeout" jsonschema:"default=30s,description=Per-feed fetch timeout"`
	MaxFeedWorkers int           `yaml:"max_feed_workers" json:"max_feed_workers" jsonschema:"default=4,minimum=1,description=Concurrent feed fetches"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// set defaults for LLM
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.3
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1000
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}
	if cfg.LLM.RateLimit == 0 {
		cfg.LLM.RateLimit = 1.0
	}

	// set defaults for GitHub
	if cfg.GitHub.APIURL == "" {
		cfg.GitHub.APIURL = "https://api.github.com"
	}
	if cfg.GitHub.Branch == "" {
		cfg.GitHub.Branch = "main"
	}
	if cfg.GitHub.Timeout == 0 {
		cfg.GitHub.Timeout = 30 * time.Second
	}
	if cfg.GitHub.Committer == "" {
		cfg.GitHub.Committer = "arXivCurator"
	}

	// set defaults for email
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Email.Timeout == 0 {
		cfg.Email.Timeout = 15 * time.Second
	}

	// set defaults for agent
	if cfg.Agent.MaxToolRounds == 0 {
		cfg.Agent.MaxToolRounds = 8
	}
	if cfg.Agent.TriageBatch == 0 {
		cfg.Agent.TriageBatch = 10
	}
	if cfg.Agent.TriageWindow == 0 {
		cfg.Agent.TriageWindow = 24 * time.Hour
	}
	if cfg.Agent.FeedTimeout == 0 {
		cfg.Agent.FeedTimeout = 30 * time.Second
	}
	if cfg.Agent.MaxFeedWorkers == 0 {
		cfg.Agent.MaxFeedWorkers = 4
	}

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}

	if cfg.GitHub.Repo != "" {
		if !strings.Contains(cfg.GitHub.Repo, "/") {
			return fmt.Errorf("github.repo must be in owner/name form")
		}
		if cfg.GitHub.Path == "" {
			return fmt.Errorf("github.path is required when github.repo is set")
		}
		if cfg.GitHub.Token == "" {
			return fmt.Errorf("github.token is required when github.repo is set")
		}
	}

	if cfg.Email.Enabled {
		if cfg.Email.SMTPHost == "" {
			return fmt.Errorf("email.smtp_host is required when email is enabled")
		}
		if cfg.Email.From == "" || cfg.Email.Recipient == "" {
			return fmt.Errorf("email.from and email.recipient are required when email is enabled")
		}
	}

	if cfg.Agent.TriageBatch < 1 {
		return fmt.Errorf("agent.triage_batch must be at least 1")
	}

	for i, f := range cfg.User.Feeds {
		if f.URL == "" {
			return fmt.Errorf("user.feeds[%d]: url is required", i)
		}
	}

	return nil
}

// GetFeeds returns the user's configured feed list
func (c *Config) GetFeeds() []Feed {
	return c.User.Feeds
}

// GetProfile returns the preference profile
func (c *Config) GetProfile() ProfileConfig {
	return c.Profile
}

// GetLLMConfig returns LLM configuration
func (c *Config) GetLLMConfig() LLMConfig {
	return c.LLM
}

// GetGitHubConfig returns the destination document configuration
func (c *Config) GetGitHubConfig() GitHubConfig {
	return c.GitHub
}

// GetEmailConfig returns the email sink configuration
func (c *Config) GetEmailConfig() EmailConfig {
	return c.Email
}

// GetAgentConfig returns orchestrator configuration
func (c *Config) GetAgentConfig() AgentConfig {
	return c.Agent
}
