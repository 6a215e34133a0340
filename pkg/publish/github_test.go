package publish

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thisisntnathan/arXivCurator/pkg/config"
	"github.com/thisisntnathan/arXivCurator/pkg/domain"
)

// fakeContents emulates the GitHub contents API for one file with
// sha-based optimistic concurrency.
type fakeContents struct {
	mu      sync.Mutex
	body    string
	sha     string
	exists  bool
	commits int

	gets int
	puts int
}

func (f *fakeContents) bump() {
	f.commits++
	f.sha = fmt.Sprintf("sha-%d", f.commits)
}

func (f *fakeContents) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/repos/me/palace/contents/readinglist.md", r.URL.Path)

		switch r.Method {
		case http.MethodGet:
			f.gets++
			if !f.exists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{
				"content": base64.StdEncoding.EncodeToString([]byte(f.body)),
				"sha":     f.sha,
			})

		case http.MethodPut:
			f.puts++
			var payload struct {
				Content string `json:"content"`
				SHA     string `json:"sha"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

			if f.exists && payload.SHA != f.sha {
				w.WriteHeader(http.StatusConflict)
				return
			}

			decoded, err := base64.StdEncoding.DecodeString(payload.Content)
			require.NoError(t, err)
			f.body = string(decoded)
			f.exists = true
			f.bump()

			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"commit": map[string]string{"sha": "commit-" + f.sha},
			})

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func newPublisher(t *testing.T, serverURL string) *GitHubPublisher {
	t.Helper()
	p := NewGitHubPublisher(config.GitHubConfig{
		APIURL:    serverURL,
		Repo:      "me/palace",
		Path:      "readinglist.md",
		Branch:    "main",
		Token:     "test-token",
		Committer: "arXivCurator",
		Email:     "bot@example.com",
		Timeout:   5 * time.Second,
	})
	p.now = func() time.Time { return time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC) }
	return p
}

func testEntries() []domain.DigestEntry {
	return []domain.DigestEntry{
		{
			ArticleGUID: "https://arxiv.org/abs/2501.00001",
			Title:       "Paper A",
			Link:        "https://arxiv.org/abs/2501.00001",
			Authors:     []string{"A. Author"},
			Summary:     "summary A",
			Source:      "arXiv",
			Date:        "Mon, 05 Jan 2026",
		},
		{
			ArticleGUID: "https://arxiv.org/abs/2501.00002",
			Title:       "Paper B",
			Link:        "https://arxiv.org/abs/2501.00002",
			Authors:     []string{"B. Author"},
			Summary:     "summary B",
			Source:      "arXiv",
			Date:        "Tue, 06 Jan 2026",
		},
	}
}

func TestGitHubPublisher_Publish_CreatesMissingFile(t *testing.T) {
	fake := &fakeContents{}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	p := newPublisher(t, server.URL)
	res, err := p.Publish(context.Background(), testEntries())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, "commit-sha-1", res.CommitSHA)

	assert.Contains(t, fake.body, "## 06 Jan 2026")
	assert.Contains(t, fake.body, "Paper A")
	assert.Contains(t, fake.body, "Paper B")
	assert.Less(t, strings.Index(fake.body, "Paper A"), strings.Index(fake.body, "Paper B"))
}

func TestGitHubPublisher_Publish_DeduplicatesAgainstRemote(t *testing.T) {
	fake := &fakeContents{
		exists: true,
		body: "# Reading List\n\n## 05 Jan 2026\n\n- [Paper A](https://arxiv.org/abs/2501.00001)  \nA. Author  \n*arXiv*  \nMon, 05 Jan 2026  \n&ensp;original summary  \n",
		sha:  "sha-0",
	}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	p := newPublisher(t, server.URL)
	res, err := p.Publish(context.Background(), testEntries())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Skipped)

	// pre-existing summary kept, duplicate not re-added
	assert.Contains(t, fake.body, "original summary")
	assert.NotContains(t, fake.body, "summary A")
	assert.Equal(t, 1, strings.Count(fake.body, "Paper A"))
	assert.Contains(t, fake.body, "Paper B")
}

func TestGitHubPublisher_Publish_Idempotent(t *testing.T) {
	fake := &fakeContents{}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	p := newPublisher(t, server.URL)
	first, err := p.Publish(context.Background(), testEntries())
	require.NoError(t, err)
	bodyAfterFirst := fake.body

	second, err := p.Publish(context.Background(), testEntries())
	require.NoError(t, err)

	assert.True(t, second.UpToDate)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, bodyAfterFirst, fake.body)
	assert.NotEqual(t, first.CommitSHA, second.CommitSHA) // second reports the current version, no new commit
	assert.Equal(t, 1, fake.commits)
}

func TestGitHubPublisher_Publish_ConflictRetriesAgainstLatest(t *testing.T) {
	fake := &fakeContents{
		exists: true,
		body:   "# Reading List\n",
		sha:    "sha-0",
	}

	// an interloper commits between our read and write, exactly once
	interfered := false
	var mux http.ServeMux
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && !interfered {
			interfered = true
			fake.handler(t)(w, r)
			// after we read, someone else appends a paper and the sha moves
			fake.mu.Lock()
			fake.body += "\n## 06 Jan 2026\n\n- [Interloper Paper](https://arxiv.org/abs/2501.09999)  \nI. Author  \n*arXiv*  \ndate  \n&ensp;intervening  \n"
			fake.bump()
			fake.mu.Unlock()
			return
		}
		fake.handler(t)(w, r)
	})
	server := httptest.NewServer(&mux)
	defer server.Close()

	p := newPublisher(t, server.URL)
	res, err := p.Publish(context.Background(), testEntries())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)

	// final body reflects the merge against the latest remote state
	assert.Contains(t, fake.body, "Interloper Paper")
	assert.Contains(t, fake.body, "Paper A")
	assert.Contains(t, fake.body, "Paper B")
	assert.Equal(t, 2, fake.gets)
	assert.Equal(t, 2, fake.puts)
}

func TestGitHubPublisher_Publish_ConflictTwiceFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]string{
				"content": base64.StdEncoding.EncodeToString([]byte("# Reading List\n")),
				"sha":     "always-stale",
			})
		case http.MethodPut:
			w.WriteHeader(http.StatusConflict)
		}
	}))
	defer server.Close()

	p := newPublisher(t, server.URL)
	_, err := p.Publish(context.Background(), testEntries())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPublishConflict)
}

func TestGitHubPublisher_Publish_RemoteDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := newPublisher(t, server.URL)
	_, err := p.Publish(context.Background(), testEntries())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPublishUnavailable)
}

func TestGitHubPublisher_Publish_AuthRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	p := newPublisher(t, server.URL)
	_, err := p.Publish(context.Background(), testEntries())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPublishUnavailable)
	assert.Contains(t, err.Error(), "status 401")
}

func TestResult_Confirmation(t *testing.T) {
	r := &Result{CommitSHA: "abc123", Added: 2, Skipped: 1}
	msg := r.Confirmation("https://example.github.io/readinglist.html")
	assert.Contains(t, msg, "2 added")
	assert.Contains(t, msg, "abc123")
	assert.Contains(t, msg, "https://example.github.io/readinglist.html")

	upToDate := &Result{CommitSHA: "abc123", UpToDate: true}
	assert.Contains(t, upToDate.Confirmation(""), "already up to date")
}
