package briefing

import "time"

// ProcessedArticle is the per-article output of the summarization stage. All
// three synthesis stages consume these.
type ProcessedArticle struct {
	Source      string   `json:"source"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Relevance   float64  `json:"relevance"`
	Keywords    []string `json:"keywords"`
	WhySelected string   `json:"why_selected,omitempty"`
	Rank        int      `json:"rank,omitempty"`
}

// Landscape is the narrative synthesis across all sources.
type Landscape struct {
	Content string `json:"content"`
}

// DeepDive is an analytical expansion on one hot topic, grounded in cited
// source articles.
type DeepDive struct {
	Topic           string   `json:"topic"`
	Hook            string   `json:"hook"`
	Analysis        string   `json:"analysis"`
	RelatedArticles []string `json:"related_articles"`
}

// Briefing is the complete per-user output artifact for one run.
type Briefing struct {
	Landscape        Landscape          `json:"landscape"`
	Top5             []ProcessedArticle `json:"top_5"`
	DeepDives        []DeepDive         `json:"deep_dives"`
	ArticlesAnalyzed int                `json:"articles_analyzed"`
	SourcesCount     int                `json:"sources_count"`
	Date             time.Time          `json:"date"`
}

// Run result statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// RunResult records the outcome of one user's pipeline within a run.
type RunResult struct {
	UserEmail string `json:"user_email"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// RunSummary is the aggregate outcome of one run across all users.
type RunSummary struct {
	UsersProcessed int         `json:"users_processed"`
	Successful     int         `json:"successful"`
	Failed         int         `json:"failed"`
	Results        []RunResult `json:"results"`
}

// RunInfo is last-run metadata exposed on the health endpoint.
type RunInfo struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
}
