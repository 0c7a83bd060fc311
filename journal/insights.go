package journal

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/creastat/aura"
	"github.com/creastat/aura/llm"
)

// InsightsMaxTokens caps the length of an insights completion.
const InsightsMaxTokens = 400

const insightsSystemPrompt = "You are a spiritual writing assistant. Analyze the journal entry and provide helpful, biblical insights and suggestions."

const insightsUserPrompt = `Please analyze this journal entry and provide:
1. 2-3 encouraging suggestions for spiritual growth
2. 2-3 relevant Bible verses that relate to the content
3. 2-3 themes or topics being explored
4. Overall sentiment (positive/negative/neutral)

Journal content: %q`

// Sentiment is the overall tone of an entry.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Insights is the structured analysis of a journal entry.
type Insights struct {
	Suggestions          []string  `json:"suggestions"`
	VerseRecommendations []string  `json:"verse_recommendations"`
	Themes               []string  `json:"themes"`
	Sentiment            Sentiment `json:"sentiment"`
}

// Assistant analyses journal entries with the completion endpoint.
type Assistant struct {
	client llm.Client
}

// NewAssistant creates an Assistant.
func NewAssistant(client llm.Client) *Assistant {
	return &Assistant{client: client}
}

// Insights asks the completion endpoint about content and parses its answer.
func (a *Assistant) Insights(ctx context.Context, content string) (*Insights, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: journal content is empty", aura.ErrInvalidInput)
	}

	resp, err := a.client.Generate(ctx, []llm.Message{
		{Role: aura.RoleSystem, Content: insightsSystemPrompt},
		{Role: aura.RoleUser, Content: fmt.Sprintf(insightsUserPrompt, content)},
	}, llm.WithMaxTokens(InsightsMaxTokens))
	if err != nil {
		return nil, fmt.Errorf("failed to generate insights: %w", err)
	}

	return ParseInsights(resp.Content), nil
}

type section int

const (
	sectionNone section = iota
	sectionSuggestions
	sectionVerses
	sectionThemes
	sectionSentiment
)

var (
	verseRef    = regexp.MustCompile(`(?:[1-3]\s?)?[A-Z][a-z]+(?:\sof\s[A-Z][a-z]+)?\s\d{1,3}:\d{1,3}(?:[-–]\d{1,3})?`)
	listMarker  = regexp.MustCompile(`^(?:[-*•]+|\d+[.)]|#+)\s*`)
	bullet      = regexp.MustCompile(`^\s*(?:[-•]|\*\s)`)
	sentimentRe = regexp.MustCompile(`(?i)\b(positive|negative|neutral)\b`)
)

// ParseInsights extracts insights from a free-text answer. Lines are grouped
// under the section heading that precedes them; verse references are matched
// by pattern, and sentiment defaults to neutral.
func ParseInsights(text string) *Insights {
	out := &Insights{
		Suggestions:          []string{},
		VerseRecommendations: []string{},
		Themes:               []string{},
		Sentiment:            SentimentNeutral,
	}
	seenVerse := make(map[string]bool)
	addVerses := func(s string) {
		for _, ref := range verseRef.FindAllString(s, -1) {
			if !seenVerse[ref] {
				seenVerse[ref] = true
				out.VerseRecommendations = append(out.VerseRecommendations, ref)
			}
		}
	}

	sentimentFound := false
	current := sectionNone

	for _, raw := range strings.Split(text, "\n") {
		line := cleanLine(raw)
		if line == "" {
			continue
		}

		if sec, rest, ok := heading(raw, line); ok {
			current = sec
			line = rest
			if line == "" {
				continue
			}
		}

		switch current {
		case sectionSuggestions:
			out.Suggestions = append(out.Suggestions, line)
		case sectionVerses:
			addVerses(line)
		case sectionThemes:
			for _, theme := range strings.Split(line, ",") {
				if theme = strings.Trim(strings.TrimSpace(theme), "."); theme != "" {
					out.Themes = append(out.Themes, theme)
				}
			}
		case sectionSentiment:
			if m := sentimentRe.FindStringSubmatch(line); m != nil && !sentimentFound {
				out.Sentiment = Sentiment(strings.ToLower(m[1]))
				sentimentFound = true
			}
		}
	}

	// Answers without recognisable headings still name verses.
	if len(out.VerseRecommendations) == 0 {
		addVerses(text)
	}

	return out
}

// heading reports whether line opens a section, returning any inline content
// that follows a colon. A heading without a colon must be emphasised, and a
// bullet item only opens a section when it carries an emphasised label.
func heading(raw, line string) (section, string, bool) {
	emphasised := strings.Contains(raw, "**") || strings.HasPrefix(strings.TrimSpace(raw), "#")

	label, rest, hasColon := strings.Cut(line, ":")
	if !hasColon && !emphasised {
		return sectionNone, "", false
	}
	if bullet.MatchString(raw) && !(hasColon && emphasised) {
		return sectionNone, "", false
	}
	if hasColon && strings.TrimSpace(label) == "" {
		return sectionNone, "", false
	}
	if !hasColon {
		label = line
	}
	if len(strings.Fields(label)) > 6 {
		return sectionNone, "", false
	}

	lower := strings.ToLower(label)
	var sec section
	switch {
	case strings.Contains(lower, "sentiment") || strings.Contains(lower, "tone"):
		sec = sectionSentiment
	case strings.Contains(lower, "suggestion"):
		sec = sectionSuggestions
	case strings.Contains(lower, "verse") || strings.Contains(lower, "scripture"):
		sec = sectionVerses
	case strings.Contains(lower, "theme") || strings.Contains(lower, "topic"):
		sec = sectionThemes
	default:
		return sectionNone, "", false
	}
	return sec, cleanLine(rest), true
}

// cleanLine strips list markers, markdown emphasis and surrounding quotes.
func cleanLine(s string) string {
	s = strings.TrimSpace(s)
	for {
		next := listMarker.ReplaceAllString(s, "")
		next = strings.TrimSpace(strings.ReplaceAll(next, "**", ""))
		if next == s {
			break
		}
		s = next
	}
	return strings.Trim(s, `"“”`)
}
