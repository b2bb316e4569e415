package briefing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"lookout/internal/articles"
	"lookout/internal/profiles"
	"lookout/pkg/logging"
)

// Composer renders a briefing into an email document. Pure function of its
// inputs.
type Composer interface {
	Compose(user profiles.UserProfile, b *Briefing, date time.Time) (string, error)
}

// Sender dispatches a rendered briefing document.
type Sender interface {
	Send(ctx context.Context, to, subject, document string) error
	IsConfigured() bool
}

// GeneratorConfig configures the orchestrator.
type GeneratorConfig struct {
	FetchWindowHours int
	SendEmail        bool

	// RunsTotal counts completed runs by outcome, UserOutcomes counts
	// per-user pipeline results by status. Both optional.
	RunsTotal    *prometheus.CounterVec
	UserOutcomes *prometheus.CounterVec
}

// Generator orchestrates the full pipeline across all registered users,
// isolating per-user failures.
type Generator struct {
	fetcher   *articles.Fetcher
	processor *Processor
	store     *profiles.Store
	composer  Composer
	sender    Sender
	logger    logging.Logger
	cfg       GeneratorConfig

	runMu sync.Mutex

	lastMu  sync.Mutex
	lastRun *RunInfo
}

// NewGenerator wires the orchestrator from its collaborators.
func NewGenerator(fetcher *articles.Fetcher, processor *Processor, store *profiles.Store, composer Composer, sender Sender, cfg GeneratorConfig, logger logging.Logger) *Generator {
	if cfg.FetchWindowHours <= 0 {
		cfg.FetchWindowHours = 48
	}
	return &Generator{
		fetcher:   fetcher,
		processor: processor,
		store:     store,
		composer:  composer,
		sender:    sender,
		logger:    logger,
		cfg:       cfg,
	}
}

// RunOptions narrows a run to one user or overrides email dispatch.
type RunOptions struct {
	// Email, when set, restricts the run to that single registered user.
	Email string
	// SendEmail, when non-nil, overrides the configured send behavior.
	SendEmail *bool
}

// Run executes the pipeline for every registered profile (or the one named
// in opts). A second invocation while one is active fails immediately with
// ErrRunInProgress. One result is returned per profile, in profile order,
// regardless of per-user failures.
func (g *Generator) Run(ctx context.Context, opts RunOptions) (*RunSummary, error) {
	if !g.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer g.runMu.Unlock()

	users, err := g.resolveUsers(opts)
	if err != nil {
		return nil, err
	}

	sendEmail := g.cfg.SendEmail
	if opts.SendEmail != nil {
		sendEmail = *opts.SendEmail
	}

	startedAt := time.Now().UTC()
	summary := &RunSummary{Results: make([]RunResult, 0, len(users))}
	for _, user := range users {
		result := RunResult{UserEmail: user.Email, Status: StatusSuccess}
		if err := g.runUser(ctx, user, sendEmail); err != nil {
			result.Status = StatusFailure
			result.Error = err.Error()
			summary.Failed++
			g.logger.WithFields(logging.Fields{
				"user":  user.Email,
				"error": err.Error(),
			}).Error("User briefing pipeline failed")
		} else {
			summary.Successful++
		}
		if g.cfg.UserOutcomes != nil {
			g.cfg.UserOutcomes.WithLabelValues(result.Status).Inc()
		}
		summary.Results = append(summary.Results, result)
	}
	summary.UsersProcessed = len(users)

	g.recordRun(RunInfo{
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		Successful: summary.Successful,
		Failed:     summary.Failed,
	})

	if g.cfg.RunsTotal != nil {
		outcome := StatusSuccess
		if summary.Failed > 0 {
			outcome = "partial"
		}
		if summary.Successful == 0 && summary.Failed > 0 {
			outcome = StatusFailure
		}
		g.cfg.RunsTotal.WithLabelValues(outcome).Inc()
	}

	g.logger.WithFields(logging.Fields{
		"users":      summary.UsersProcessed,
		"successful": summary.Successful,
		"failed":     summary.Failed,
	}).Info("Briefing run complete")

	return summary, nil
}

func (g *Generator) resolveUsers(opts RunOptions) ([]profiles.UserProfile, error) {
	if opts.Email != "" {
		user, ok, err := g.store.Get(opts.Email)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, opts.Email)
		}
		return []profiles.UserProfile{user}, nil
	}
	return g.store.List()
}

func (g *Generator) runUser(ctx context.Context, user profiles.UserProfile, sendEmail bool) error {
	briefing, err := g.BuildBriefing(ctx, user)
	if err != nil {
		return err
	}

	document, err := g.composer.Compose(user, briefing, briefing.Date)
	if err != nil {
		return fmt.Errorf("compose briefing: %w", err)
	}

	if sendEmail && g.sender.IsConfigured() {
		subject := fmt.Sprintf("Your AI Briefing - %s", briefing.Date.Format("January 2, 2006"))
		if err := g.sender.Send(ctx, user.Email, subject, document); err != nil {
			return fmt.Errorf("send briefing: %w", err)
		}
	}

	return nil
}

// BuildBriefing runs the per-user pipeline through synthesis without
// composing or sending. Shared by runs and previews.
func (g *Generator) BuildBriefing(ctx context.Context, user profiles.UserProfile) (*Briefing, error) {
	grouped, err := g.fetcher.Prepare(ctx, g.cfg.FetchWindowHours)
	if err != nil {
		return nil, err
	}

	processed, err := g.processor.ProcessAllSources(ctx, grouped, user.Topics)
	if err != nil {
		return nil, err
	}

	landscape := g.processor.GenerateLandscape(ctx, processed, user.Topics)
	top5 := g.processor.SelectTopFive(ctx, processed, user.Topics)
	deepDives := g.processor.GenerateDeepDives(ctx, processed, user.Topics)

	return &Briefing{
		Landscape:        landscape,
		Top5:             top5,
		DeepDives:        deepDives,
		ArticlesAnalyzed: len(processed),
		SourcesCount:     len(grouped),
		Date:             time.Now().UTC(),
	}, nil
}

// Preview renders the briefing document for one user without sending.
func (g *Generator) Preview(ctx context.Context, email string) (string, error) {
	user, ok, err := g.store.Get(email)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}

	briefing, err := g.BuildBriefing(ctx, user)
	if err != nil {
		return "", err
	}
	return g.composer.Compose(user, briefing, briefing.Date)
}

func (g *Generator) recordRun(info RunInfo) {
	g.lastMu.Lock()
	defer g.lastMu.Unlock()
	g.lastRun = &info
}

// LastRun returns metadata about the most recent run, or nil before the
// first one.
func (g *Generator) LastRun() *RunInfo {
	g.lastMu.Lock()
	defer g.lastMu.Unlock()
	if g.lastRun == nil {
		return nil
	}
	info := *g.lastRun
	return &info
}
