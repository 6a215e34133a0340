package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/thisisntnathan/arXivCurator/pkg/agent"
	"github.com/thisisntnathan/arXivCurator/pkg/config"
	"github.com/thisisntnathan/arXivCurator/pkg/digest"
	"github.com/thisisntnathan/arXivCurator/pkg/domain"
	"github.com/thisisntnathan/arXivCurator/pkg/feed"
	"github.com/thisisntnathan/arXivCurator/pkg/llm"
	"github.com/thisisntnathan/arXivCurator/pkg/publish"
	"github.com/thisisntnathan/arXivCurator/pkg/scheduler"
)

// Opts with all CLI options
type Opts struct {
	Config      string `short:"f" long:"config" env:"CONFIG" default:"config.yml" description:"path to config file"`
	Message     string `short:"m" long:"message" description:"run a single request and exit"`
	Interactive bool   `short:"i" long:"interactive" description:"interactive session on stdin (default when no message or schedule given)"`
	Schedule    string `short:"s" long:"schedule" description:"run unattended on a cron schedule, e.g. '0 7 * * *'"`
	DryRun      bool   `long:"dry-run" description:"render the digest instead of publishing it"`

	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

const userAgent = "arXivCurator/1.0"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	setupLog(opts.Debug, opts.NoColor, cfg.GetLLMConfig().APIKey, cfg.GetGitHubConfig().Token, cfg.GetEmailConfig().Password)
	log.Printf("[INFO] starting curator version %s", revision)

	curator := makeAgent(cfg, opts.DryRun)

	switch {
	case opts.Message != "":
		return runMessage(ctx, curator, opts.Message)
	case opts.Schedule != "":
		sched := scheduler.New(curator, scheduler.Config{Spec: opts.Schedule})
		return sched.Start(ctx)
	default:
		return runInteractive(ctx, curator, os.Stdin, os.Stdout)
	}
}

// makeAgent wires the agent from configuration
func makeAgent(cfg *config.Config, dryRun bool) *agent.Agent {
	client := llm.NewClient(cfg.GetLLMConfig())
	agentCfg := cfg.GetAgentConfig()

	var publisher agent.Publisher = publish.NewGitHubPublisher(cfg.GetGitHubConfig())
	if dryRun {
		log.Printf("[INFO] dry-run mode, digest will be rendered, not published")
		publisher = &dryRunPublisher{}
	}

	var emailer agent.Emailer
	if cfg.GetEmailConfig().Enabled {
		emailer = publish.NewEmailSink(cfg.GetEmailConfig())
	}

	return agent.New(agent.Params{
		Completer:  client,
		Feeds:      feed.NewParser(agentCfg.FeedTimeout, userAgent),
		Classifier: llm.NewClassifier(client),
		Summarizer: llm.NewSummarizer(client),
		Publisher:  publisher,
		Emailer:    emailer,
		UserName:   cfg.User.Name,
		Sources:    cfg.GetFeeds(),
		Profile:    cfg.GetProfile(),
		PageURL:    cfg.GetGitHubConfig().PageURL,
		Config:     agentCfg,
	})
}

// dryRunPublisher prints the rendered digest instead of committing it
type dryRunPublisher struct{}

func (d *dryRunPublisher) Publish(_ context.Context, entries []domain.DigestEntry) (*publish.Result, error) {
	for _, e := range entries {
		fmt.Println(digest.RenderEntry(e).Raw)
	}
	return &publish.Result{CommitSHA: "dry-run", Added: len(entries)}, nil
}

// runMessage executes one request in a throwaway session
func runMessage(ctx context.Context, curator *agent.Agent, message string) error {
	sess := agent.NewSession()
	defer sess.Close()

	reply, err := curator.Turn(ctx, sess, message)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	fmt.Println(reply)
	return nil
}

// runInteractive keeps one session alive across stdin turns so
// follow-ups can refer back to earlier results
func runInteractive(ctx context.Context, curator *agent.Agent, in io.Reader, out io.Writer) error {
	sess := agent.NewSession()
	defer sess.Close()

	fmt.Fprintln(out, "curator ready, 'exit' to quit")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break // EOF
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		reply, err := curator.Turn(ctx, sess, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, reply)
	}
	fmt.Fprintln(out, "bye")
	return scanner.Err()
}

func setupLog(dbg, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}

	// keep credentials out of log lines
	var secrets []string
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
