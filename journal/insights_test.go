package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creastat/aura"
	"github.com/creastat/aura/llm"
)

const markdownAnswer = `Here is an analysis of your entry.

**1. Suggestions for Spiritual Growth:**
- Consider adding a prayer of thanksgiving.
- Read more scripture each morning
- Reflect on God's faithfulness in hard times.

**2. Relevant Bible Verses:**
- Philippians 4:13 - "I can do all things through Christ who strengthens me."
- Jeremiah 29:11
- 1 Peter 5:7 and Philippians 4:13

**3. Themes:**
- Faith
- Trust, Perseverance

**4. Overall Sentiment:** Positive`

func TestParseInsightsMarkdown(t *testing.T) {
	got := ParseInsights(markdownAnswer)

	assert.Equal(t, []string{
		"Consider adding a prayer of thanksgiving.",
		"Read more scripture each morning",
		"Reflect on God's faithfulness in hard times.",
	}, got.Suggestions)
	assert.Equal(t, []string{"Philippians 4:13", "Jeremiah 29:11", "1 Peter 5:7"}, got.VerseRecommendations)
	assert.Equal(t, []string{"Faith", "Trust", "Perseverance"}, got.Themes)
	assert.Equal(t, SentimentPositive, got.Sentiment)
}

func TestParseInsightsInlineSections(t *testing.T) {
	answer := `Suggestions: Spend time in quiet prayer
Verses: Psalm 34:18, Matthew 11:28-30
Themes: Grief, Comfort.
Sentiment: The entry is mostly negative but hopeful.`

	got := ParseInsights(answer)
	assert.Equal(t, []string{"Spend time in quiet prayer"}, got.Suggestions)
	assert.Equal(t, []string{"Psalm 34:18", "Matthew 11:28-30"}, got.VerseRecommendations)
	assert.Equal(t, []string{"Grief", "Comfort"}, got.Themes)
	assert.Equal(t, SentimentNegative, got.Sentiment)
}

func TestParseInsightsUnstructured(t *testing.T) {
	got := ParseInsights("What a beautiful reflection. Consider Romans 8:28 and Song of Solomon 2:4 as you pray.")

	assert.Empty(t, got.Suggestions)
	assert.Empty(t, got.Themes)
	assert.Equal(t, []string{"Romans 8:28", "Song of Solomon 2:4"}, got.VerseRecommendations)
	assert.Equal(t, SentimentNeutral, got.Sentiment)
}

func TestParseInsightsEmpty(t *testing.T) {
	got := ParseInsights("")
	assert.NotNil(t, got.Suggestions)
	assert.NotNil(t, got.VerseRecommendations)
	assert.NotNil(t, got.Themes)
	assert.Equal(t, SentimentNeutral, got.Sentiment)
}

type recordingClient struct {
	messages []llm.Message
	opts     int
	content  string
	err      error
}

func (c *recordingClient) Generate(_ context.Context, messages []llm.Message, opts ...llm.CallOption) (llm.Response, error) {
	c.messages = messages
	c.opts = len(opts)
	return llm.Response{Content: c.content}, c.err
}

func TestAssistantInsights(t *testing.T) {
	client := &recordingClient{content: markdownAnswer}
	assistant := NewAssistant(client)

	got, err := assistant.Insights(context.Background(), "Today I trusted God with my worries.")
	require.NoError(t, err)
	assert.Equal(t, SentimentPositive, got.Sentiment)

	require.Len(t, client.messages, 2)
	assert.Equal(t, aura.RoleSystem, client.messages[0].Role)
	assert.Contains(t, client.messages[1].Content, `Journal content: "Today I trusted God with my worries."`)
	assert.Equal(t, 1, client.opts)
}

func TestAssistantInsightsErrors(t *testing.T) {
	assistant := NewAssistant(&recordingClient{err: aura.ErrUnavailable})

	_, err := assistant.Insights(context.Background(), "  ")
	assert.ErrorIs(t, err, aura.ErrInvalidInput)

	_, err = assistant.Insights(context.Background(), "entry")
	assert.True(t, errors.Is(err, aura.ErrUnavailable))
}
