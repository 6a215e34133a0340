package agent

import (
	"github.com/invopop/jsonschema"
	"github.com/sashabaranov/go-openai"
)

// capability names exposed to the model as tools
const (
	capListSources      = "list_sources"
	capReadFeed         = "read_feed"
	capTriageFeed       = "triage_feed"
	capSummarizeArticle = "summarize_article"
	capPublishDigest    = "publish_digest"
	capSendEmail        = "send_email"
)

// listSourcesArgs are the arguments for the list_sources capability
type listSourcesArgs struct{}

// readFeedArgs are the arguments for the read_feed capability
type readFeedArgs struct {
	Feed        string `json:"feed" jsonschema:"description=Feed name from list_sources or a full feed URL"`
	MaxArticles int    `json:"max_articles,omitempty" jsonschema:"minimum=1,description=Limit on returned articles; omit for all"`
}

// triageFeedArgs are the arguments for the triage_feed capability
type triageFeedArgs struct {
	Feed string `json:"feed,omitempty" jsonschema:"description=Feed name or URL to triage; omit to triage every configured feed"`
}

// summarizeArticleArgs are the arguments for the summarize_article capability
type summarizeArticleArgs struct {
	GUID string `json:"guid" jsonschema:"description=Identity of an article from an earlier read_feed or triage_feed result"`
}

// publishDigestArgs are the arguments for the publish_digest capability
type publishDigestArgs struct{}

// sendEmailArgs are the arguments for the send_email capability
type sendEmailArgs struct {
	Subject string `json:"subject,omitempty" jsonschema:"description=Email subject line; omit for the default digest subject"`
}

// toolDefinitions builds the OpenAI tool list, one entry per
// capability, with parameter schemas reflected from the argument
// structs so the structs stay the single source of truth.
func toolDefinitions() []openai.Tool {
	specs := []struct {
		name        string
		description string
		args        any
	}{
		{capListSources, "List the configured feed sources by name and URL", &listSourcesArgs{}},
		{capReadFeed, "Fetch a feed and return its articles with identities, titles and dates", &readFeedArgs{}},
		{capTriageFeed, "Fetch recent articles and classify them against the user's research interests", &triageFeedArgs{}},
		{capSummarizeArticle, "Summarize one article and queue it for the reading list", &summarizeArticleArgs{}},
		{capPublishDigest, "Merge the queued entries into the reading list on GitHub", &publishDigestArgs{}},
		{capSendEmail, "Email the queued entries to the user instead of publishing", &sendEmailArgs{}},
	}

	reflector := jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true, Anonymous: true}
	tools := make([]openai.Tool, 0, len(specs))
	for _, s := range specs {
		params := reflector.Reflect(s.args)
		params.Version = "" // inline parameter schemas carry no $schema
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.name,
				Description: s.description,
				Parameters:  params,
			},
		})
	}
	return tools
}
