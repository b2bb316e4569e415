package notify

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"lookout/internal/briefing"
	"lookout/internal/profiles"
)

// Composer renders a briefing into an HTML email document. Rendering is a
// pure function of its inputs.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

type briefingEmailData struct {
	Name             string
	Date             time.Time
	Landscape        []string
	Top5             []briefing.ProcessedArticle
	DeepDives        []briefing.DeepDive
	ArticlesAnalyzed int
	SourcesCount     int
}

// Compose renders the briefing document for one user.
func (c *Composer) Compose(user profiles.UserProfile, b *briefing.Briefing, date time.Time) (string, error) {
	name := strings.TrimSpace(user.Name)
	if name == "" {
		name = user.Email
	}

	data := briefingEmailData{
		Name:             name,
		Date:             date,
		Landscape:        splitParagraphs(b.Landscape.Content),
		Top5:             b.Top5,
		DeepDives:        b.DeepDives,
		ArticlesAnalyzed: b.ArticlesAnalyzed,
		SourcesCount:     b.SourcesCount,
	}

	funcs := template.FuncMap{
		"hasTop5": func(arts []briefing.ProcessedArticle) bool {
			return len(arts) > 0
		},
		"hasDeepDives": func(dives []briefing.DeepDive) bool {
			return len(dives) > 0
		},
	}

	tpl, err := template.New("briefing_email").Funcs(funcs).Parse(briefingEmailTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func splitParagraphs(content string) []string {
	var out []string
	for _, p := range strings.Split(content, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

const briefingEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Your AI Briefing</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 640px; margin: 0 auto; padding: 24px;">
        <h2 style="color: #2c3e50;">Your AI Briefing - {{.Date.Format "January 2, 2006"}}</h2>

        <p>Good morning {{.Name}},</p>

        {{if .Landscape}}
        <h3 style="color: #2c3e50; margin-top: 30px;">The Landscape</h3>
        {{range .Landscape}}
        <p>{{.}}</p>
        {{end}}
        {{end}}

        {{if hasTop5 .Top5}}
        <h3 style="color: #2c3e50; margin-top: 30px;">Top Stories for You</h3>
        {{range .Top5}}
        <div style="background-color: #f8f9fa; padding: 16px; border-radius: 6px; margin: 12px 0;">
            <strong>{{.Rank}}. <a href="{{.URL}}" style="color: #3498db; text-decoration: none;">{{.Title}}</a></strong>
            {{if .Source}}<span style="color: #6c757d; font-size: 12px;"> ({{.Source}})</span>{{end}}
            <p style="margin: 10px 0 0 0;">{{.Summary}}</p>
            {{if .WhySelected}}<p style="margin: 8px 0 0 0; color: #555; font-style: italic;">{{.WhySelected}}</p>{{end}}
        </div>
        {{end}}
        {{end}}

        {{if hasDeepDives .DeepDives}}
        <h3 style="color: #2c3e50; margin-top: 30px;">Deep Dives</h3>
        {{range .DeepDives}}
        <div style="margin: 20px 0;">
            <strong>{{.Topic}}</strong>
            {{if .Hook}}<p style="margin: 6px 0; color: #555;">{{.Hook}}</p>{{end}}
            <p style="margin: 10px 0;">{{.Analysis}}</p>
            {{if .RelatedArticles}}
            <ul style="padding-left: 20px; font-size: 13px;">
                {{range .RelatedArticles}}
                <li><a href="{{.}}" style="color: #3498db;">{{.}}</a></li>
                {{end}}
            </ul>
            {{end}}
        </div>
        {{end}}
        {{end}}

        <p style="color: #6c757d; font-size: 12px; margin-top: 30px;">
            Analyzed {{.ArticlesAnalyzed}} articles from {{.SourcesCount}} sources.
        </p>
    </div>
</body>
</html>`
