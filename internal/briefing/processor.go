package briefing

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"lookout/internal/articles"
	"lookout/pkg/llm"
	"lookout/pkg/logging"
)

// ProcessorConfig configures the model-facing pipeline stages.
type ProcessorConfig struct {
	MaxConcurrency int
	CallTimeout    time.Duration
	MaxDeepDives   int
}

// Processor runs the per-source summarization fan-out and the three
// synthesis stages.
type Processor struct {
	provider       llm.Provider
	logger         logging.Logger
	maxConcurrency int
	callTimeout    time.Duration
	maxDeepDives   int
}

// NewProcessor creates a processor using the given model provider.
func NewProcessor(provider llm.Provider, cfg ProcessorConfig, logger logging.Logger) *Processor {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	if cfg.MaxDeepDives <= 0 {
		cfg.MaxDeepDives = 3
	}
	return &Processor{
		provider:       provider,
		logger:         logger,
		maxConcurrency: cfg.MaxConcurrency,
		callTimeout:    cfg.CallTimeout,
		maxDeepDives:   cfg.MaxDeepDives,
	}
}

func (p *Processor) complete(ctx context.Context, messages []llm.Message) (string, error) {
	if p.provider == nil {
		return "", fmt.Errorf("no LLM provider configured")
	}
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	return llm.CompleteText(callCtx, p.provider, messages)
}

// ProcessAllSources summarizes each source's articles in parallel. A failed
// or timed-out source is skipped; the merged result is deterministic, ordered
// by source name with each source's own output order preserved. It fails only
// when every source failed.
func (p *Processor) ProcessAllSources(ctx context.Context, bySource map[string][]articles.Article, topics []string) ([]ProcessedArticle, error) {
	if len(bySource) == 0 {
		return nil, nil
	}

	sources := make([]string, 0, len(bySource))
	for source := range bySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	results := make([][]ProcessedArticle, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrency)
	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			processed, err := p.processSource(gctx, source, bySource[source], topics)
			if err != nil {
				p.logger.WithFields(logging.Fields{
					"source": source,
					"error":  err.Error(),
				}).Warn("Source summarization failed, skipping")
				return nil
			}
			results[i] = processed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]ProcessedArticle, 0)
	succeeded := 0
	for i := range sources {
		if results[i] != nil {
			succeeded++
		}
		merged = append(merged, results[i]...)
	}

	if succeeded == 0 {
		return nil, fmt.Errorf("all %d sources failed summarization", len(sources))
	}

	p.logger.WithFields(logging.Fields{
		"sources_ok":     succeeded,
		"sources_total":  len(sources),
		"articles_total": len(merged),
	}).Info("Per-source summarization complete")

	return merged, nil
}

func (p *Processor) processSource(ctx context.Context, source string, arts []articles.Article, topics []string) ([]ProcessedArticle, error) {
	raw, err := p.complete(ctx, buildSiteAgentPrompt(source, topics, arts))
	if err != nil {
		return nil, err
	}

	var parsed []ProcessedArticle
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return nil, &ParseError{Stage: "summarize", Err: err}
	}

	for i := range parsed {
		parsed[i].Source = source
		if parsed[i].Relevance < 0 {
			parsed[i].Relevance = 0
		}
		if parsed[i].Relevance > 1 {
			parsed[i].Relevance = 1
		}
	}
	return parsed, nil
}

// GenerateLandscape produces the narrative synthesis. Unparseable or failed
// output degrades to an empty landscape rather than failing the pipeline.
func (p *Processor) GenerateLandscape(ctx context.Context, processed []ProcessedArticle, topics []string) Landscape {
	if len(processed) == 0 {
		return Landscape{}
	}

	bySource := make(map[string][]ProcessedArticle)
	var order []string
	for _, a := range processed {
		if _, ok := bySource[a.Source]; !ok {
			order = append(order, a.Source)
		}
		bySource[a.Source] = append(bySource[a.Source], a)
	}

	content, err := p.complete(ctx, buildLandscapePrompt(topics, bySource, order, len(processed)))
	if err != nil {
		p.logger.WithError(err).Warn("Landscape generation failed")
		return Landscape{}
	}
	return Landscape{Content: content}
}

// SelectTopFive asks the model to rank the processed set, then enforces the
// parts the model cannot be trusted with: entries are deduplicated by story
// key, truncated to 5, and re-ranked 1..N.
func (p *Processor) SelectTopFive(ctx context.Context, processed []ProcessedArticle, topics []string) []ProcessedArticle {
	if len(processed) == 0 {
		return nil
	}

	raw, err := p.complete(ctx, buildTop5Prompt(topics, processed))
	if err != nil {
		p.logger.WithError(err).Warn("Top-5 selection failed")
		return nil
	}

	var response struct {
		Top5 []ProcessedArticle `json:"top_5"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &response); err != nil {
		p.logger.WithError(&ParseError{Stage: "top5", Err: err}).Warn("Discarding top-5 response")
		return nil
	}

	byURL := make(map[string]ProcessedArticle, len(processed))
	for _, a := range processed {
		byURL[normalizeKey(a.URL)] = a
	}

	out := make([]ProcessedArticle, 0, 5)
	seenURLs := make(map[string]struct{})
	seenStories := make(map[string]struct{})
	for _, pick := range response.Top5 {
		if len(out) == 5 {
			break
		}
		urlKey := normalizeKey(pick.URL)
		if _, dup := seenURLs[urlKey]; dup {
			continue
		}
		story := storyKey(pick.Title)
		if _, dup := seenStories[story]; dup && story != "" {
			continue
		}

		entry := pick
		if orig, ok := byURL[urlKey]; ok {
			entry = orig
			entry.WhySelected = pick.WhySelected
			if pick.Summary != "" {
				entry.Summary = pick.Summary
			}
		}
		entry.Rank = len(out) + 1
		out = append(out, entry)
		seenURLs[urlKey] = struct{}{}
		seenStories[story] = struct{}{}
	}

	return out
}

// GenerateDeepDives produces up to the configured number of topic analyses.
// Cited URLs are validated against the processed set; anything the model made
// up is dropped from related_articles.
func (p *Processor) GenerateDeepDives(ctx context.Context, processed []ProcessedArticle, topics []string) []DeepDive {
	if len(processed) == 0 {
		return nil
	}

	raw, err := p.complete(ctx, buildDeepDivePrompt(topics, processed))
	if err != nil {
		p.logger.WithError(err).Warn("Deep dive generation failed")
		return nil
	}

	var response struct {
		DeepDives []DeepDive `json:"deep_dives"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &response); err != nil {
		p.logger.WithError(&ParseError{Stage: "deep_dives", Err: err}).Warn("Discarding deep dive response")
		return nil
	}

	known := make(map[string]string, len(processed))
	for _, a := range processed {
		known[normalizeKey(a.URL)] = a.URL
	}

	out := make([]DeepDive, 0, p.maxDeepDives)
	for _, dive := range response.DeepDives {
		if len(out) == p.maxDeepDives {
			break
		}
		grounded := make([]string, 0, len(dive.RelatedArticles))
		for _, cited := range dive.RelatedArticles {
			if canonical, ok := known[normalizeKey(cited)]; ok {
				grounded = append(grounded, canonical)
			} else {
				p.logger.WithFields(logging.Fields{
					"topic": dive.Topic,
					"url":   cited,
				}).Warn("Dropping ungrounded deep dive citation")
			}
		}
		dive.RelatedArticles = grounded
		out = append(out, dive)
	}

	return out
}

// extractJSON returns the outermost JSON value embedded in text. Models often
// wrap JSON in prose or markdown fences.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if fence := strings.Index(text, "```"); fence >= 0 {
		rest := text[fence+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			text = strings.TrimSpace(rest[:end])
		}
	}

	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	start := objStart
	closer := "}"
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		start = arrStart
		closer = "]"
	}
	if start < 0 {
		return text
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return text
	}
	return text[start : end+1]
}

func normalizeKey(raw string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "/")
}

// storyKey reduces a title to a crude identity for near-duplicate detection.
func storyKey(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
