package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thisisntnathan/arXivCurator/pkg/domain"
)

const arxivRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
	<title>cond-mat updates on arXiv.org</title>
	<link>http://arxiv.org/</link>
	<description>Condensed Matter updates</description>
	<item>
		<title>Emergent Order in
 Driven Lattices</title>
		<link>http://arxiv.org/abs/2501.01234v1</link>
		<description>&lt;p&gt;arXiv:2501.01234v1 We study &amp;amp; classify emergent order in driven lattices.&lt;/p&gt;</description>
		<dc:creator>A. Researcher, B. Scientist</dc:creator>
		<pubDate>Mon, 05 Jan 2026 00:00:00 -0500</pubDate>
		<guid>oai:arXiv.org:2501.01234v1</guid>
	</item>
	<item>
		<title>Machine Learning for Synthesis Planning</title>
		<link>http://arxiv.org/abs/2501.05678v2</link>
		<description>A review of retrosynthesis models.</description>
		<dc:creator>C. Chemist</dc:creator>
		<pubDate>Tue, 06 Jan 2026 00:00:00 -0500</pubDate>
		<guid>oai:arXiv.org:2501.05678v2</guid>
	</item>
	<item>
		<title>Older Paper</title>
		<link>http://arxiv.org/abs/2412.00001v1</link>
		<description>Published well before the cutoff.</description>
		<pubDate>Mon, 01 Dec 2025 00:00:00 -0500</pubDate>
	</item>
</channel>
</rss>`

func newFeedServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(content))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestParser_Parse(t *testing.T) {
	server := newFeedServer(t, arxivRSS)

	parser := NewParser(5*time.Second, "arXivCurator/1.0")
	articles, err := parser.Parse(context.Background(), server.URL, 0)
	require.NoError(t, err)
	require.Len(t, articles, 3)

	// first item: multi-line title flattened, HTML stripped from abstract,
	// identity normalized from the link (version suffix collapsed)
	a := articles[0]
	assert.Equal(t, "Emergent Order in Driven Lattices", a.Title)
	assert.Equal(t, "https://arxiv.org/abs/2501.01234", a.GUID)
	assert.Equal(t, "http://arxiv.org/abs/2501.01234v1", a.Link)
	assert.Equal(t, "arXiv:2501.01234v1 We study & classify emergent order in driven lattices.", a.Abstract)
	assert.Equal(t, []string{"A. Researcher", "B. Scientist"}, a.Authors)
	assert.Equal(t, "cond-mat updates on arXiv.org", a.Source)
	assert.False(t, a.Published.IsZero())

	// order follows the source listing
	assert.Equal(t, "https://arxiv.org/abs/2501.05678", articles[1].GUID)
	assert.Equal(t, []string{"C. Chemist"}, articles[1].Authors)
}

func TestParser_Parse_MaxArticles(t *testing.T) {
	server := newFeedServer(t, arxivRSS)

	parser := NewParser(5*time.Second, "arXivCurator/1.0")
	articles, err := parser.Parse(context.Background(), server.URL, 2)
	require.NoError(t, err)
	assert.Len(t, articles, 2)
	assert.Equal(t, "Emergent Order in Driven Lattices", articles[0].Title)
}

func TestParser_ParseSince(t *testing.T) {
	server := newFeedServer(t, arxivRSS)

	parser := NewParser(5*time.Second, "arXivCurator/1.0")
	cutoff := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	articles, err := parser.ParseSince(context.Background(), server.URL, cutoff)
	require.NoError(t, err)

	require.Len(t, articles, 2)
	assert.Equal(t, "https://arxiv.org/abs/2501.01234", articles[0].GUID)
	assert.Equal(t, "https://arxiv.org/abs/2501.05678", articles[1].GUID)
}

func TestParser_Parse_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	parser := NewParser(5*time.Second, "arXivCurator/1.0")
	_, err := parser.Parse(context.Background(), server.URL, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
	assert.Contains(t, err.Error(), "unexpected status code: 500")
}

func TestParser_Parse_InvalidContent(t *testing.T) {
	server := newFeedServer(t, "this is not a feed")

	parser := NewParser(5*time.Second, "arXivCurator/1.0")
	_, err := parser.Parse(context.Background(), server.URL, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
}

func TestParser_Parse_Unreachable(t *testing.T) {
	parser := NewParser(100*time.Millisecond, "arXivCurator/1.0")
	_, err := parser.Parse(context.Background(), "http://127.0.0.1:1/feed.xml", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
}
