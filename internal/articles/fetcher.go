package articles

import (
	"context"
	"strings"
	"time"

	"lookout/pkg/logging"
)

// Fetcher retrieves articles from the source connector and prepares them for
// processing: dedupe, time filter, group by source.
type Fetcher struct {
	client *SourceClient
	logger logging.Logger
	now    func() time.Time
}

// NewFetcher creates a fetcher backed by the given source client.
func NewFetcher(client *SourceClient, logger logging.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// FetchArticles retrieves articles published since the given time. Connector
// failures propagate to the caller as a FetchError.
func (f *Fetcher) FetchArticles(ctx context.Context, since time.Time) ([]Article, error) {
	return f.client.FetchArticles(ctx, since)
}

// normalizeURL lowercases the URL and strips a trailing slash so that
// http://a.com/X and http://a.com/x/ collapse to the same key.
func normalizeURL(raw string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "/")
}

// Deduplicate removes articles whose normalized URL has already been seen,
// keeping the first occurrence and preserving input order. Idempotent.
func Deduplicate(in []Article) []Article {
	seen := make(map[string]struct{}, len(in))
	out := make([]Article, 0, len(in))
	for _, a := range in {
		key := normalizeURL(a.URL)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

// FilterRecent retains articles whose published timestamp lies within
// [now-hours, now]. Articles without a timestamp are dropped.
func (f *Fetcher) FilterRecent(in []Article, hours int) []Article {
	now := f.now().UTC()
	cutoff := now.Add(-time.Duration(hours) * time.Hour)

	out := make([]Article, 0, len(in))
	dropped := 0
	for _, a := range in {
		if !a.HasTimestamp() {
			dropped++
			continue
		}
		ts := a.PublishedAt.UTC()
		if ts.Before(cutoff) || ts.After(now) {
			continue
		}
		out = append(out, a)
	}

	if dropped > 0 {
		f.logger.WithFields(logging.Fields{
			"dropped": dropped,
		}).Warn("Dropped articles without published timestamp")
	}

	return out
}

// GroupBySource partitions articles by source name, preserving each source's
// input order. Every article lands in exactly one group.
func GroupBySource(in []Article) map[string][]Article {
	groups := make(map[string][]Article)
	for _, a := range in {
		groups[a.Source] = append(groups[a.Source], a)
	}
	return groups
}

// Prepare runs the full fetch pipeline: fetch, dedupe, filter, group.
func (f *Fetcher) Prepare(ctx context.Context, windowHours int) (map[string][]Article, error) {
	since := f.now().UTC().Add(-time.Duration(windowHours) * time.Hour)

	fetched, err := f.FetchArticles(ctx, since)
	if err != nil {
		return nil, err
	}

	deduped := Deduplicate(fetched)
	recent := f.FilterRecent(deduped, windowHours)
	groups := GroupBySource(recent)

	f.logger.WithFields(logging.Fields{
		"fetched": len(fetched),
		"deduped": len(deduped),
		"recent":  len(recent),
		"sources": len(groups),
	}).Info("Prepared articles for processing")

	return groups, nil
}
