// Package digest renders curated entries and merges them into the
// destination reading-list document without duplicating identities.
package digest

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/thisisntnathan/arXivCurator/pkg/domain"
)

// Entry is one markdown block of the destination document. Identity
// is the normalized article link extracted from the block's first
// line, empty when the block carries no recognizable link.
type Entry struct {
	Identity string
	Raw      string
}

// entryLinkRe captures the link of a list entry: "- [title](link)"
var entryLinkRe = regexp.MustCompile(`^- \[[^\]]*\]\(([^)\s]+)\)`)

// RenderEntry produces the canonical markdown block for a digest
// entry. The rendering is a pure function of the record so that merge
// can compare entries value-wise.
func RenderEntry(e domain.DigestEntry) Entry {
	raw := fmt.Sprintf("- [%s](%s)  \n%s  \n*%s*  \n%s  \n&ensp;%s  ",
		e.Title, e.Link, strings.Join(e.Authors, ", "), e.Source, e.Date, e.Summary)

	identity := e.ArticleGUID
	if identity == "" {
		identity = domain.NormalizeLink(e.Link)
	}

	return Entry{Identity: identity, Raw: raw}
}

// Heading formats the dated section heading new entries are curated
// under.
func Heading(t time.Time) string {
	return "## " + t.Format("02 Jan 2006")
}

// extractIdentity pulls the normalized link out of an entry block
func extractIdentity(raw string) string {
	firstLine := raw
	if idx := strings.IndexByte(raw, '\n'); idx >= 0 {
		firstLine = raw[:idx]
	}
	m := entryLinkRe.FindStringSubmatch(firstLine)
	if m == nil {
		return ""
	}
	return domain.NormalizeLink(m[1])
}
