package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"

	"github.com/thisisntnathan/arXivCurator/pkg/agent"
)

//go:generate moq -out mocks/curator.go -pkg mocks -skip-ensure -fmt goimports . Curator

// Curator runs one conversational turn against a curation session
type Curator interface {
	Turn(ctx context.Context, sess *agent.Session, userMsg string) (string, error)
}

// Config holds scheduler settings
type Config struct {
	Spec       string        // cron expression for the daily run
	Message    string        // the scripted request each run starts with
	RunTimeout time.Duration // hard cap on one scheduled run
}

// Scheduler fires unattended curation runs on a cron schedule. Each
// firing gets a fresh session, so scheduled runs never share triage
// caches or pending entries with each other.
type Scheduler struct {
	curator Curator
	cfg     Config
	cron    *cron.Cron
	runMu   sync.Mutex // skip a firing while the previous one still runs
}

// New creates a scheduler for the given curator
func New(curator Curator, cfg Config) *Scheduler {
	if cfg.Spec == "" {
		cfg.Spec = "0 7 * * *" // daily at 07:00
	}
	if cfg.Message == "" {
		cfg.Message = "Find interesting new papers in my feeds, summarize them, and publish the reading list."
	}
	if cfg.RunTimeout == 0 {
		cfg.RunTimeout = 15 * time.Minute
	}
	return &Scheduler{curator: curator, cfg: cfg, cron: cron.New()}
}

// Start registers the cron job and runs until ctx is canceled
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.cfg.Spec, func() { s.runOnce(ctx) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.cfg.Spec, err)
	}

	s.cron.Start()
	lgr.Printf("[INFO] scheduler started, spec %q, message %q", s.cfg.Spec, s.cfg.Message)

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done() // wait for an in-flight run to finish
	lgr.Printf("[INFO] scheduler stopped")
	return nil
}

// runOnce executes one unattended curation run in a fresh session
func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.runMu.TryLock() {
		lgr.Printf("[WARN] skipping scheduled run, previous run still in progress")
		return
	}
	defer s.runMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	sess := agent.NewSession()
	defer sess.Close()

	started := time.Now()
	lgr.Printf("[INFO] scheduled run started, session %s", sess.ID)
	reply, err := s.curator.Turn(ctx, sess, s.cfg.Message)
	if err != nil {
		lgr.Printf("[ERROR] scheduled run failed after %v: %v", time.Since(started).Round(time.Millisecond), err)
		return
	}
	lgr.Printf("[INFO] scheduled run finished in %v: %s", time.Since(started).Round(time.Millisecond), reply)
}
