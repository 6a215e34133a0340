package agent

import (
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sashabaranov/go-openai"

	"github.com/thisisntnathan/arXivCurator/pkg/domain"
)

// State is the orchestrator's position in the dispatch loop
type State int

// dispatch loop states
const (
	StateAwaitingRequest State = iota
	StateSelectingCapability
	StateExecutingCapability
	StateClosed
)

// String implements fmt.Stringer for log lines
func (s State) String() string {
	switch s {
	case StateAwaitingRequest:
		return "awaiting-request"
	case StateSelectingCapability:
		return "selecting-capability"
	case StateExecutingCapability:
		return "executing-capability"
	case StateClosed:
		return "session-closed"
	}
	return "unknown"
}

// Session carries all cross-turn state for one curation session:
// conversation history, the last-seen article set follow-up turns can
// reference, entries curated but not yet published, and the triage
// cache that keeps one classification call per article identity.
// Created at session start, mutated by every turn, discarded at
// process exit. Sessions share nothing with each other.
type Session struct {
	ID string

	state     State
	messages  []openai.ChatCompletionMessage
	lastSeen  []domain.Article
	byGUID    map[string]int
	pending   []domain.DigestEntry
	decisions *gocache.Cache
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{
		ID:     uuid.New().String(),
		state:  StateAwaitingRequest,
		byGUID: make(map[string]int),
		// decisions never expire, no cleanup goroutine needed
		decisions: gocache.New(gocache.NoExpiration, 0),
	}
}

// State returns the current dispatch state
func (s *Session) State() State {
	return s.state
}

// Close moves the session to its terminal state
func (s *Session) Close() {
	s.state = StateClosed
}

// appendMessage adds a message to the conversation history
func (s *Session) appendMessage(msg openai.ChatCompletionMessage) {
	s.messages = append(s.messages, msg)
}

// history returns the conversation so far
func (s *Session) history() []openai.ChatCompletionMessage {
	return s.messages
}

// RememberArticles merges articles into the last-seen set, keeping
// first-seen order and dropping identities already present. This is
// what makes "that one" resolvable on the next turn.
func (s *Session) RememberArticles(articles []domain.Article) {
	for _, a := range articles {
		if _, seen := s.byGUID[a.GUID]; seen {
			continue
		}
		s.byGUID[a.GUID] = len(s.lastSeen)
		s.lastSeen = append(s.lastSeen, a)
	}
}

// Article resolves an article by its identity from the last-seen set
func (s *Session) Article(guid string) (domain.Article, bool) {
	idx, ok := s.byGUID[domain.NormalizeLink(guid)]
	if !ok {
		return domain.Article{}, false
	}
	return s.lastSeen[idx], true
}

// Articles returns the last-seen set in first-seen order
func (s *Session) Articles() []domain.Article {
	return s.lastSeen
}

// CachedDecision returns a previously cached triage decision
func (s *Session) CachedDecision(guid string) (domain.TriageDecision, bool) {
	if v, ok := s.decisions.Get(guid); ok {
		return v.(domain.TriageDecision), true
	}
	return domain.TriageDecision{}, false
}

// CacheDecision stores a triage decision for the rest of the session
func (s *Session) CacheDecision(d domain.TriageDecision) {
	s.decisions.Set(d.ArticleGUID, d, gocache.NoExpiration)
}

// AddPending queues an entry for publication, one per identity
func (s *Session) AddPending(e domain.DigestEntry) {
	for i, existing := range s.pending {
		if existing.ArticleGUID == e.ArticleGUID {
			s.pending[i] = e // re-summarizing before publish replaces the draft
			return
		}
	}
	s.pending = append(s.pending, e)
}

// Pending returns the entries queued for publication, in curation order
func (s *Session) Pending() []domain.DigestEntry {
	return s.pending
}

// ClearPending empties the publication queue after a successful publish
func (s *Session) ClearPending() {
	s.pending = nil
}
