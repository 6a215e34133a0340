package feed

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/thisisntnathan/arXivCurator/pkg/domain"
)

// Parser fetches a syndication feed and converts it into article
// records. Articles come back in the order the source lists them,
// normally reverse-chronological.
type Parser struct {
	client    *http.Client
	userAgent string
	sanitizer *bluemonday.Policy
}

// NewParser creates a new feed parser
func NewParser(timeout time.Duration, userAgent string) *Parser {
	return &Parser{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Parse fetches and parses a feed from the given URL. A max of zero or
// less means unbounded. Failures wrap domain.ErrFeedUnavailable.
func (p *Parser) Parse(ctx context.Context, url string, max int) ([]domain.Article, error) {
	body, err := p.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", domain.ErrFeedUnavailable, url, err)
	}
	defer body.Close()

	parser := gofeed.NewParser()
	parsed, err := parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrFeedUnavailable, url, err)
	}

	source := parsed.Title
	if source == "" {
		source = url
	}

	articles := make([]domain.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if max > 0 && len(articles) >= max {
			break
		}
		articles = append(articles, p.toArticle(item, source))
	}

	return articles, nil
}

// ParseSince fetches the feed and keeps only articles published after
// the cutoff, preserving source order.
func (p *Parser) ParseSince(ctx context.Context, url string, cutoff time.Time) ([]domain.Article, error) {
	articles, err := p.Parse(ctx, url, 0)
	if err != nil {
		return nil, err
	}

	recent := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if a.Published.IsZero() || !a.Published.Before(cutoff) {
			recent = append(recent, a)
		}
	}
	return recent, nil
}

// toArticle converts a gofeed item to a domain article
func (p *Parser) toArticle(item *gofeed.Item, source string) domain.Article {
	article := domain.Article{
		Title:    cleanTitle(item.Title),
		Link:     item.Link,
		Abstract: p.cleanAbstract(item.Description),
		Source:   source,
	}

	// identity is the normalized link, falling back to GUID for
	// sources that ship no link at all
	if item.Link != "" {
		article.GUID = domain.NormalizeLink(item.Link)
	} else {
		article.GUID = item.GUID
	}

	if article.Abstract == "" {
		article.Abstract = p.cleanAbstract(item.Content)
	}

	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			article.Authors = append(article.Authors, author.Name)
		}
	}
	// arXiv feeds carry authors in dc:creator
	if len(article.Authors) == 0 && item.DublinCoreExt != nil {
		for _, creator := range item.DublinCoreExt.Creator {
			for _, name := range strings.Split(creator, ",") {
				if name = strings.TrimSpace(name); name != "" {
					article.Authors = append(article.Authors, name)
				}
			}
		}
	}

	if item.PublishedParsed != nil {
		article.Published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		article.Published = *item.UpdatedParsed
	}

	return article
}

// cleanAbstract strips HTML markup and collapses whitespace, arXiv
// abstracts come wrapped in markup and entity-escaped
func (p *Parser) cleanAbstract(s string) string {
	text := p.sanitizer.Sanitize(s)
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

// cleanTitle flattens multi-line feed titles
func cleanTitle(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// fetch retrieves content from a URL
func (p *Parser) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)
	addBrowserHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}
