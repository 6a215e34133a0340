package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/thisisntnathan/arXivCurator/pkg/config"
	"github.com/thisisntnathan/arXivCurator/pkg/digest"
	"github.com/thisisntnathan/arXivCurator/pkg/domain"
	"github.com/thisisntnathan/arXivCurator/pkg/publish"
)

//go:generate moq -out mocks/completer.go -pkg mocks -skip-ensure -fmt goimports . Completer
//go:generate moq -out mocks/feed_reader.go -pkg mocks -skip-ensure -fmt goimports . FeedReader
//go:generate moq -out mocks/classifier.go -pkg mocks -skip-ensure -fmt goimports . Classifier
//go:generate moq -out mocks/summarizer.go -pkg mocks -skip-ensure -fmt goimports . Summarizer
//go:generate moq -out mocks/publisher.go -pkg mocks -skip-ensure -fmt goimports . Publisher
//go:generate moq -out mocks/emailer.go -pkg mocks -skip-ensure -fmt goimports . Emailer

// Completer produces chat completions for the dispatch loop
type Completer interface {
	Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// FeedReader fetches and parses remote feeds
type FeedReader interface {
	Parse(ctx context.Context, url string, max int) ([]domain.Article, error)
	ParseSince(ctx context.Context, url string, cutoff time.Time) ([]domain.Article, error)
}

// Classifier triages articles against the standing preference profile
type Classifier interface {
	Triage(ctx context.Context, articles []domain.Article, profile config.ProfileConfig) ([]domain.TriageDecision, error)
}

// Summarizer produces a short prose summary for one article
type Summarizer interface {
	Summarize(ctx context.Context, article domain.Article) (string, error)
}

// Publisher merges curated entries into the hosted reading list
type Publisher interface {
	Publish(ctx context.Context, entries []domain.DigestEntry) (*publish.Result, error)
}

// Emailer delivers a digest by email
type Emailer interface {
	Send(ctx context.Context, subject, body string) error
}

const systemPromptTmpl = `You are a personal research curation assistant for %s.
You manage an automated reading list of research papers and articles.

Use the provided tools to fulfill requests: list the configured sources,
read feeds, triage recent articles against the user's interests,
summarize individual articles, and publish or email the curated digest.
Refer to articles by the guid values shown in tool results. When the
user refers to an article by title or position ("the second one",
"that transformer paper"), resolve it to the matching guid from earlier
results in this conversation. Answer follow-up questions about articles
you have already seen from the conversation, without calling tools
again. Be concise.`

// Params carries the agent's collaborators and settings
type Params struct {
	Completer  Completer
	Feeds      FeedReader
	Classifier Classifier
	Summarizer Summarizer
	Publisher  Publisher
	Emailer    Emailer // nil disables the send_email capability

	UserName string
	Sources  []config.Feed
	Profile  config.ProfileConfig
	PageURL  string
	Config   config.AgentConfig
}

// Agent is the tool-dispatch orchestrator. It owns no per-session
// state; everything mutable lives in the Session passed to each turn,
// so one Agent can serve many sequential sessions.
type Agent struct {
	Params
	tools []openai.Tool
	now   func() time.Time
}

// New creates an agent from its collaborators
func New(p Params) *Agent {
	if p.Config.MaxToolRounds <= 0 {
		p.Config.MaxToolRounds = 8
	}
	if p.Config.MaxFeedWorkers <= 0 {
		p.Config.MaxFeedWorkers = 4
	}
	return &Agent{Params: p, tools: toolDefinitions(), now: time.Now}
}

// Turn runs one user turn through the dispatch loop: send history to
// the model, execute whatever capabilities it selects, feed results
// back, and repeat until the model produces a plain reply. Capability
// failures are folded into tool results so the model can report them;
// only transport failures to the model itself surface as errors, and
// those leave the session usable for the next turn.
func (a *Agent) Turn(ctx context.Context, sess *Session, userMsg string) (string, error) {
	if sess.State() == StateClosed {
		return "", fmt.Errorf("session %s is closed", sess.ID)
	}

	sess.appendMessage(openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userMsg})

	for round := 0; round < a.Config.MaxToolRounds; round++ {
		sess.state = StateSelectingCapability
		resp, err := a.Completer.Complete(ctx, openai.ChatCompletionRequest{
			Messages: append([]openai.ChatCompletionMessage{{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(systemPromptTmpl, a.UserName),
			}}, sess.history()...),
			Tools: a.tools,
		})
		if err != nil {
			sess.state = StateAwaitingRequest
			return "", fmt.Errorf("dispatch completion: %w", err)
		}

		msg := resp.Choices[0].Message
		sess.appendMessage(msg)

		if len(msg.ToolCalls) == 0 {
			sess.state = StateAwaitingRequest
			return msg.Content, nil
		}

		sess.state = StateExecutingCapability
		for _, tc := range msg.ToolCalls {
			lgr.Printf("[DEBUG] session %s round %d: %s(%s)", sess.ID, round+1, tc.Function.Name, tc.Function.Arguments)
			result := a.execute(ctx, sess, tc.Function.Name, tc.Function.Arguments)
			sess.appendMessage(openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: tc.ID,
				Content:    result,
			})
		}
	}

	sess.state = StateAwaitingRequest
	return "", fmt.Errorf("request needed more than %d tool rounds, giving up", a.Config.MaxToolRounds)
}

// execute dispatches one capability call. It never returns an error;
// failures become text the model sees, so a broken feed or a rejected
// publish ends one capability, not the session.
func (a *Agent) execute(ctx context.Context, sess *Session, name, rawArgs string) string {
	var result string
	var err error

	switch name {
	case capListSources:
		result = a.listSources()
	case capReadFeed:
		var args readFeedArgs
		if err = json.Unmarshal([]byte(rawArgs), &args); err == nil {
			result, err = a.readFeed(ctx, sess, args)
		}
	case capTriageFeed:
		var args triageFeedArgs
		if err = json.Unmarshal([]byte(rawArgs), &args); err == nil {
			result, err = a.triageFeed(ctx, sess, args)
		}
	case capSummarizeArticle:
		var args summarizeArticleArgs
		if err = json.Unmarshal([]byte(rawArgs), &args); err == nil {
			result, err = a.summarizeArticle(ctx, sess, args)
		}
	case capPublishDigest:
		result, err = a.publishDigest(ctx, sess)
	case capSendEmail:
		var args sendEmailArgs
		if err = json.Unmarshal([]byte(rawArgs), &args); err == nil {
			result, err = a.sendEmail(ctx, sess, args)
		}
	default:
		err = fmt.Errorf("unknown capability %q", name)
	}

	if err != nil {
		lgr.Printf("[WARN] capability %s failed: %v", name, err)
		return "ERROR: " + err.Error()
	}
	return result
}

// listSources reports the configured feeds
func (a *Agent) listSources() string {
	if len(a.Sources) == 0 {
		return "No feed sources configured."
	}
	var b strings.Builder
	b.WriteString("Configured sources:\n")
	for _, f := range a.Sources {
		fmt.Fprintf(&b, "- %s: %s\n", f.Name, f.URL)
	}
	return b.String()
}

// resolveFeed maps a feed name to its configured URL; anything that is
// not a configured name passes through as a URL.
func (a *Agent) resolveFeed(feed string) (name, url string, err error) {
	for _, f := range a.Sources {
		if strings.EqualFold(f.Name, feed) || f.URL == feed {
			return f.Name, f.URL, nil
		}
	}
	if strings.HasPrefix(feed, "http://") || strings.HasPrefix(feed, "https://") {
		return feed, feed, nil
	}
	return "", "", fmt.Errorf("unknown feed %q, use list_sources for configured names", feed)
}

func (a *Agent) readFeed(ctx context.Context, sess *Session, args readFeedArgs) (string, error) {
	name, url, err := a.resolveFeed(args.Feed)
	if err != nil {
		return "", err
	}

	fctx, cancel := context.WithTimeout(ctx, a.Config.FeedTimeout)
	defer cancel()

	articles, err := a.Feeds.Parse(fctx, url, args.MaxArticles)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	sess.RememberArticles(articles)

	if len(articles) == 0 {
		return fmt.Sprintf("Feed %s has no articles.", name), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Feed %s, %d articles:\n", name, len(articles))
	writeArticleList(&b, articles)
	return b.String(), nil
}

// feedBatch is one feed's triage input, kept in source order so the
// output is deterministic regardless of fetch completion order.
type feedBatch struct {
	name     string
	articles []domain.Article
	err      error
}

func (a *Agent) triageFeed(ctx context.Context, sess *Session, args triageFeedArgs) (string, error) {
	feeds := a.Sources
	if args.Feed != "" {
		name, url, err := a.resolveFeed(args.Feed)
		if err != nil {
			return "", err
		}
		feeds = []config.Feed{{Name: name, URL: url}}
	}
	if len(feeds) == 0 {
		return "", fmt.Errorf("no feed sources configured")
	}

	cutoff := a.now().Add(-a.Config.TriageWindow)
	batches := a.fetchAll(ctx, feeds, cutoff)

	var articles []domain.Article
	var feedFailures []string
	seen := make(map[string]struct{})
	for _, fb := range batches {
		if fb.err != nil {
			lgr.Printf("[WARN] triage skipping feed %s: %v", fb.name, fb.err)
			feedFailures = append(feedFailures, fb.name)
			continue
		}
		for _, art := range fb.articles {
			if _, dup := seen[art.GUID]; dup {
				continue
			}
			seen[art.GUID] = struct{}{}
			articles = append(articles, art)
		}
	}
	sess.RememberArticles(articles)

	decisions, triageFailed := a.triageArticles(ctx, sess, articles)

	relevant := make([]domain.Article, 0, len(decisions))
	for _, art := range articles {
		if d, ok := decisions[art.GUID]; ok && d.Relevant {
			relevant = append(relevant, art)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Triaged %d articles from %d feeds since %s: %d relevant.\n",
		len(articles), len(feeds)-len(feedFailures), cutoff.Format("02 Jan 2006 15:04"), len(relevant))
	if len(feedFailures) > 0 {
		fmt.Fprintf(&b, "Unreachable feeds skipped: %s.\n", strings.Join(feedFailures, ", "))
	}
	if triageFailed > 0 {
		fmt.Fprintf(&b, "%d articles could not be classified and were skipped.\n", triageFailed)
	}
	if len(relevant) > 0 {
		b.WriteString("Relevant articles:\n")
		for _, art := range relevant {
			d := decisions[art.GUID]
			fmt.Fprintf(&b, "- guid=%s %q (%.0f%%): %s\n", art.GUID, art.Title, d.Confidence*100, d.Explanation)
		}
	}
	return b.String(), nil
}

// fetchAll reads every feed concurrently, bounded by MaxFeedWorkers.
// One unreachable feed fails its own batch only.
func (a *Agent) fetchAll(ctx context.Context, feeds []config.Feed, cutoff time.Time) []feedBatch {
	batches := make([]feedBatch, len(feeds))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.MaxFeedWorkers)
	for i, f := range feeds {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, a.Config.FeedTimeout)
			defer cancel()
			articles, err := a.Feeds.ParseSince(fctx, f.URL, cutoff)
			mu.Lock()
			batches[i] = feedBatch{name: f.Name, articles: articles, err: err}
			mu.Unlock()
			return nil // feed failures are per-batch, never group-fatal
		})
	}
	_ = g.Wait() // workers never return errors
	return batches
}

// triageArticles classifies articles in batches, serving repeats from
// the session cache. Returns decisions by identity and the count of
// articles left undecided by classifier failures.
func (a *Agent) triageArticles(ctx context.Context, sess *Session, articles []domain.Article) (map[string]domain.TriageDecision, int) {
	decisions := make(map[string]domain.TriageDecision, len(articles))
	var uncached []domain.Article
	for _, art := range articles {
		if d, ok := sess.CachedDecision(art.GUID); ok {
			decisions[art.GUID] = d
			continue
		}
		uncached = append(uncached, art)
	}

	batchSize := a.Config.TriageBatch
	if batchSize <= 0 {
		batchSize = len(uncached)
	}

	failed := 0
	for start := 0; start < len(uncached); start += batchSize {
		end := min(start+batchSize, len(uncached))
		batch := uncached[start:end]
		res, err := a.Classifier.Triage(ctx, batch, a.Profile)
		if err != nil {
			lgr.Printf("[WARN] triage batch of %d failed: %v", len(batch), err)
			failed += len(batch)
			continue
		}
		for _, d := range res {
			decisions[d.ArticleGUID] = d
			sess.CacheDecision(d)
		}
	}
	return decisions, failed
}

func (a *Agent) summarizeArticle(ctx context.Context, sess *Session, args summarizeArticleArgs) (string, error) {
	art, ok := sess.Article(args.GUID)
	if !ok {
		return "", fmt.Errorf("article %q not seen in this session, read or triage a feed first", args.GUID)
	}

	summary, err := a.Summarizer.Summarize(ctx, art)
	if err != nil {
		return "", fmt.Errorf("summarize %q: %w", art.Title, err)
	}

	entry := domain.DigestEntry{
		ArticleGUID: art.GUID,
		Title:       art.Title,
		Link:        art.Link,
		Authors:     art.Authors,
		Summary:     summary,
		Source:      art.Source,
	}
	if !art.Published.IsZero() {
		entry.Date = art.Published.Format("02 Jan 2006")
	}
	sess.AddPending(entry)

	return fmt.Sprintf("Queued for the reading list (%d pending):\n%s", len(sess.Pending()), digest.RenderEntry(entry).Raw), nil
}

func (a *Agent) publishDigest(ctx context.Context, sess *Session) (string, error) {
	pending := sess.Pending()
	if len(pending) == 0 {
		return "Nothing queued to publish. Summarize some articles first.", nil
	}

	res, err := a.Publisher.Publish(ctx, pending)
	if err != nil {
		// pending entries survive a failed publish so a retry can pick them up
		return "", fmt.Errorf("publish %d entries: %w", len(pending), err)
	}
	sess.ClearPending()
	return res.Confirmation(a.PageURL), nil
}

func (a *Agent) sendEmail(ctx context.Context, sess *Session, args sendEmailArgs) (string, error) {
	if a.Emailer == nil {
		return "", fmt.Errorf("email delivery is not configured")
	}
	pending := sess.Pending()
	if len(pending) == 0 {
		return "Nothing queued to email. Summarize some articles first.", nil
	}

	subject := args.Subject
	if subject == "" {
		subject = "Your Daily Reading List - " + a.now().Format("02 Jan 2006")
	}
	parts := make([]string, 0, len(pending))
	for _, e := range pending {
		parts = append(parts, digest.RenderEntry(e).Raw)
	}
	if err := a.Emailer.Send(ctx, subject, strings.Join(parts, "\n\n")); err != nil {
		return "", fmt.Errorf("email %d entries: %w", len(pending), err)
	}
	return fmt.Sprintf("Emailed %d entries, subject %q.", len(pending), subject), nil
}

// writeArticleList renders articles for the model, newest first,
// each line carrying the guid later calls address it by.
func writeArticleList(b *strings.Builder, articles []domain.Article) {
	sorted := make([]domain.Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Published.After(sorted[j].Published) })
	for _, art := range sorted {
		date := "unknown date"
		if !art.Published.IsZero() {
			date = art.Published.Format("02 Jan 2006")
		}
		fmt.Fprintf(b, "- guid=%s %q by %s (%s, %s)\n", art.GUID, art.Title, strings.Join(art.Authors, ", "), art.Source, date)
	}
}
