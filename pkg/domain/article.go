package domain

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Article represents a single preprint pulled from a syndication feed.
// GUID is the normalized link URL and serves as the article identity:
// two articles with the same GUID are the same article regardless of
// surface text differences.
type Article struct {
	GUID      string
	Title     string
	Authors   []string
	Abstract  string
	Link      string
	Published time.Time
	Source    string
}

// TriageDecision is the classifier's verdict for a single article.
// It lives only for the duration of a session and is never persisted.
type TriageDecision struct {
	ArticleGUID string  `json:"guid"`
	Relevant    bool    `json:"relevant"`
	Confidence  float64 `json:"confidence,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
}

// DigestEntry is a summarized article ready to be merged into the
// destination document. Its markdown rendering is a pure function of
// the record, which is what makes value-wise dedup possible.
type DigestEntry struct {
	ArticleGUID string
	Title       string
	Link        string
	Authors     []string
	Summary     string
	Source      string
	Date        string
}

// arXiv abstract links carry a version suffix (/abs/2501.01234v2)
// that changes between revisions of the same paper
var arxivVersionRe = regexp.MustCompile(`^(/abs/[^/]+?)v\d+$`)

// trackingParams are query parameters stripped during link normalization
var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true, "ref": true, "fbclid": true,
}

// NormalizeLink canonicalizes an article link for identity comparison.
// Scheme is forced to https, host lowercased, fragment and trailing
// slash dropped, tracking query parameters removed and arXiv version
// suffixes collapsed. Returns the input unchanged if it doesn't parse
// as a URL.
func NormalizeLink(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(raw)
	}

	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	if m := arxivVersionRe.FindStringSubmatch(u.Path); m != nil {
		u.Path = m[1]
	}

	if u.RawQuery != "" {
		q := u.Query()
		for param := range q {
			if trackingParams[strings.ToLower(param)] {
				q.Del(param)
			}
		}
		u.RawQuery = q.Encode()
	}

	return u.String()
}
