// Package publish commits merged digest bodies to the destination
// document and sends email digests. The GitHub publisher is the only
// place two sessions can race, guarded by compare-and-swap on the
// content sha.
package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"

	"github.com/thisisntnathan/arXivCurator/pkg/config"
	"github.com/thisisntnathan/arXivCurator/pkg/digest"
	"github.com/thisisntnathan/arXivCurator/pkg/domain"
)

// errCritical marks failures not worth retrying with backoff
var errCritical = errors.New("critical")

// errStaleToken marks a write rejected because the version token went
// stale between read and write
var errStaleToken = errors.New("stale version token")

// GitHubPublisher merges digest entries into a file in a GitHub repo
// via the contents API. The file's blob sha acts as the version token:
// a write with a stale sha is rejected by the API, which is what turns
// a lost-update race into a detectable conflict.
type GitHubPublisher struct {
	cfg    config.GitHubConfig
	client *http.Client
	now    func() time.Time
}

// Result reports the outcome of one publish
type Result struct {
	CommitSHA string
	Added     int
	Skipped   int
	UpToDate  bool
}

// Confirmation builds the human-readable outcome string, pointing at
// the published artifact when a page URL is configured.
func (r *Result) Confirmation(pageURL string) string {
	if r.UpToDate {
		return fmt.Sprintf("Reading list already up to date, nothing new to add (version %s)", r.CommitSHA)
	}
	msg := fmt.Sprintf("Reading list updated: %d added, %d already present. Commit: %s", r.Added, r.Skipped, r.CommitSHA)
	if pageURL != "" {
		msg += "\nTo catch up on your reading, visit " + pageURL
	}
	return msg
}

// NewGitHubPublisher creates a publisher for the configured repo/path
func NewGitHubPublisher(cfg config.GitHubConfig) *GitHubPublisher {
	return &GitHubPublisher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}
}

// remoteFile is the read side of the contents API
type remoteFile struct {
	body string
	sha  string
}

// Publish merges the entries into the remote document with a
// read-verify-write sequence: fetch the current body right before
// merging, merge, write back with the fetched sha. A stale sha
// (someone else wrote in between) triggers exactly one re-fetch,
// re-merge and retry before failing with domain.ErrPublishConflict.
func (p *GitHubPublisher) Publish(ctx context.Context, entries []domain.DigestEntry) (*Result, error) {
	rendered := make([]digest.Entry, len(entries))
	for i, e := range entries {
		rendered[i] = digest.RenderEntry(e)
	}
	heading := digest.Heading(p.now())

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		current, err := p.read(ctx)
		if err != nil {
			return nil, err
		}

		doc := digest.ParseDocument(current.body)
		before := len(doc.Identities())
		merged := digest.Merge(doc, rendered, heading)
		added := len(merged.Identities()) - before

		newBody := merged.Render()
		if current.sha != "" && newBody == current.body {
			lgr.Printf("[INFO] destination already contains all %d entries, skipping write", len(entries))
			return &Result{CommitSHA: current.sha, Skipped: len(entries), UpToDate: true}, nil
		}

		commitSHA, err := p.write(ctx, newBody, current.sha)
		if err == nil {
			lgr.Printf("[INFO] published %d new entries to %s/%s, commit %s", added, p.cfg.Repo, p.cfg.Path, commitSHA)
			return &Result{CommitSHA: commitSHA, Added: added, Skipped: len(entries) - added}, nil
		}

		if errors.Is(err, errStaleToken) {
			lgr.Printf("[WARN] publish conflict on %s/%s, re-fetching and retrying: %v", p.cfg.Repo, p.cfg.Path, err)
			lastErr = err
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("%w: remote changed twice during publish: %w", domain.ErrPublishConflict, lastErr)
}

// read fetches the current document body and version token. A missing
// file is an empty document, not an error.
func (p *GitHubPublisher) read(ctx context.Context) (*remoteFile, error) {
	url := fmt.Sprintf("%s/repos/%s/contents/%s?ref=%s", p.cfg.APIURL, p.cfg.Repo, p.cfg.Path, p.cfg.Branch)

	var file *remoteFile
	retrier := repeater.NewBackoff(3, 100*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("%w: create request: %w", errCritical, err)
		}
		p.setHeaders(req)

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch document: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			file = &remoteFile{}
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("remote error: status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("%w: read document: status %d", errCritical, resp.StatusCode)
		}

		var payload struct {
			Content string `json:"content"`
			SHA     string `json:"sha"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return fmt.Errorf("%w: decode response: %w", errCritical, err)
		}

		body, err := base64.StdEncoding.DecodeString(payload.Content)
		if err != nil {
			return fmt.Errorf("%w: decode content: %w", errCritical, err)
		}

		file = &remoteFile{body: string(body), sha: payload.SHA}
		return nil
	}, errCritical)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s/%s: %w", domain.ErrPublishUnavailable, p.cfg.Repo, p.cfg.Path, err)
	}
	return file, nil
}

// write puts the new body with the version token from read. An empty
// sha creates the file.
func (p *GitHubPublisher) write(ctx context.Context, body, sha string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/contents/%s", p.cfg.APIURL, p.cfg.Repo, p.cfg.Path)

	payload := map[string]any{
		"message": fmt.Sprintf("Curator added papers from %s", p.now().Format("02-01-2006")),
		"content": base64.StdEncoding.EncodeToString([]byte(body)),
		"branch":  p.cfg.Branch,
		"committer": map[string]string{
			"name":  p.cfg.Committer,
			"email": p.cfg.Email,
		},
	}
	if sha != "" {
		payload["sha"] = sha
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	var commitSHA string
	retrier := repeater.NewBackoff(3, 100*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err = retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%w: create request: %w", errCritical, err)
		}
		p.setHeaders(req)

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("put document: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusPreconditionFailed:
			return fmt.Errorf("%w: status %d", errStaleToken, resp.StatusCode)
		case resp.StatusCode == http.StatusUnprocessableEntity && sha != "":
			// the contents API reports a stale sha as 422
			return fmt.Errorf("%w: status %d", errStaleToken, resp.StatusCode)
		case resp.StatusCode >= 500:
			return fmt.Errorf("remote error: status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("%w: write document: status %d: %s", errCritical, resp.StatusCode, msg)
		}

		var result struct {
			Commit struct {
				SHA string `json:"sha"`
			} `json:"commit"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("%w: decode response: %w", errCritical, err)
		}
		commitSHA = result.Commit.SHA
		return nil
	}, errCritical, errStaleToken)
	if err != nil {
		if errors.Is(err, errStaleToken) {
			return "", err
		}
		return "", fmt.Errorf("%w: write %s/%s: %w", domain.ErrPublishUnavailable, p.cfg.Repo, p.cfg.Path, err)
	}
	return commitSHA, nil
}

func (p *GitHubPublisher) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
}
