package articles

import "time"

// Article is a raw article as returned by the source connector. Articles are
// produced fresh each run and never persisted.
type Article struct {
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`
}

// HasTimestamp reports whether the article carries a published timestamp.
func (a Article) HasTimestamp() bool {
	return !a.PublishedAt.IsZero()
}
