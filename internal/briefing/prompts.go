package briefing

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"lookout/internal/articles"
	"lookout/pkg/llm"
)

// Prompt contracts for the four model stages. Each builder returns a
// system/user message pair; responses are expected in the JSON shapes the
// user messages describe.

const siteAgentSystem = `You are an AI news analyst processing articles from %s.

The reader you're briefing cares about these topics:
%s

Your job:
1. Summarize each article in 2-3 sentences (what happened, why it matters)
2. Score relevance 0.0-1.0 based on how much it relates to the reader's topics
3. Extract 3-5 keywords

Be concise. Focus on facts and implications, not hype.`

const siteAgentUser = `Analyze these articles from %s:

%s

Return JSON array:
[
  {
    "title": "...",
    "url": "...",
    "summary": "2-3 sentence summary",
    "relevance": 0.85,
    "keywords": ["keyword1", "keyword2", "keyword3"]
  }
]`

const landscapeSystem = `You are an AI industry analyst creating a daily landscape briefing.

The reader cares about: %s

Your job is to synthesize what's happening across the AI world today into a concise, scannable overview. Think of it like a morning briefing for an executive - high signal, no fluff.

Write in a direct, confident voice. Use present tense. No preamble.`

const landscapeUser = `Here are today's articles from %d sources (%d articles total):

%s

Write a 3-4 paragraph "Landscape" section covering:
1. The biggest story/theme of the day (1 paragraph)
2. Other notable developments worth knowing (1-2 paragraphs)
3. One emerging trend or undercurrent (1 paragraph)

Keep it under 250 words. No bullet points - flowing prose that's easy to scan.`

const top5System = `You are selecting the top 5 most relevant articles for a reader.

The reader's interests: %s

CRITICAL: Each article must cover a DIFFERENT topic or story. Do not select multiple articles about the same news event, product, or announcement. Prioritize diversity of coverage.

Rank by:
1. Topic diversity (no duplicates - each article should be about something different)
2. Direct relevance to their stated topics
3. Significance of the news (major announcements > minor updates)
4. Actionability (things they might need to know or act on)
5. Recency and freshness`

const top5User = `From these %d article summaries, select the top 5 for this reader:

%s

Return JSON:
{
  "top_5": [
    {
      "rank": 1,
      "title": "...",
      "url": "...",
      "summary": "...",
      "why_selected": "One sentence on why this matters for this reader"
    }
  ]
}`

const deepDiveSystem = `You are creating deep-dive analysis on hot topics for an AI-focused reader.

The reader's interests: %s

Your job is to identify 3 themes that are particularly hot RIGHT NOW based on today's news, then provide substantive analysis on each. These should connect to the reader's interests.

Write with insight and perspective. Don't just summarize - analyze. What does this mean? What should they watch? What's the implication?`

const deepDiveUser = `Based on today's %d articles:

%s

Identify 3 hot topics that intersect with the reader's interests and provide a deep dive on each.

IMPORTANT: For related_articles, you MUST use exact URLs from the articles listed above. Do not make up or guess URLs.

Return JSON:
{
  "deep_dives": [
    {
      "topic": "Topic name (2-4 words)",
      "hook": "One compelling sentence that draws them in",
      "analysis": "2-3 paragraph analysis (150-200 words). What's happening, why it matters, what to watch.",
      "related_articles": ["exact URL from articles above", "another exact URL from articles above"]
    }
  ]
}`

const articleTextLimit = 1500

func formatTopics(topics []string) string {
	return strings.Join(topics, ", ")
}

// truncateText cuts text to at most limit bytes without splitting a rune.
func truncateText(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func buildSiteAgentPrompt(source string, topics []string, arts []articles.Article) []llm.Message {
	type promptArticle struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	}
	items := make([]promptArticle, 0, len(arts))
	for _, a := range arts {
		items = append(items, promptArticle{Title: a.Title, Text: truncateText(a.Text, articleTextLimit)})
	}
	articlesJSON, _ := json.MarshalIndent(items, "", "  ")

	return []llm.Message{
		{Role: "system", Content: fmt.Sprintf(siteAgentSystem, source, formatTopics(topics))},
		{Role: "user", Content: fmt.Sprintf(siteAgentUser, source, string(articlesJSON))},
	}
}

// buildLandscapePrompt bounds prompt size by taking at most the top 3
// processed articles per source.
func buildLandscapePrompt(topics []string, bySource map[string][]ProcessedArticle, sourceOrder []string, totalArticles int) []llm.Message {
	var b strings.Builder
	for _, source := range sourceOrder {
		arts := bySource[source]
		b.WriteString("\n## " + source + "\n")
		for i, a := range arts {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", a.Title, a.Summary)
		}
	}

	return []llm.Message{
		{Role: "system", Content: fmt.Sprintf(landscapeSystem, formatTopics(topics))},
		{Role: "user", Content: fmt.Sprintf(landscapeUser, len(sourceOrder), totalArticles, b.String())},
	}
}

func buildTop5Prompt(topics []string, processed []ProcessedArticle) []llm.Message {
	lines := make([]string, 0, len(processed))
	for i, a := range processed {
		lines = append(lines, fmt.Sprintf("[%d] %s (relevance: %.2f)\n    %s\n    URL: %s",
			i+1, a.Title, a.Relevance, a.Summary, a.URL))
	}

	return []llm.Message{
		{Role: "system", Content: fmt.Sprintf(top5System, formatTopics(topics))},
		{Role: "user", Content: fmt.Sprintf(top5User, len(processed), strings.Join(lines, "\n"))},
	}
}

func buildDeepDivePrompt(topics []string, processed []ProcessedArticle) []llm.Message {
	lines := make([]string, 0, len(processed))
	for _, a := range processed {
		lines = append(lines, fmt.Sprintf("- %s: %s (keywords: %s) URL: %s",
			a.Title, a.Summary, strings.Join(a.Keywords, ", "), a.URL))
	}

	return []llm.Message{
		{Role: "system", Content: fmt.Sprintf(deepDiveSystem, formatTopics(topics))},
		{Role: "user", Content: fmt.Sprintf(deepDiveUser, len(processed), strings.Join(lines, "\n"))},
	}
}
