package analysis

import (
	"sync"
	"testing"

	"github.com/acadwell/wellness-bot/internal/lexicon"
	"github.com/acadwell/wellness-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzer_Scenarios(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	t.Run("crisis statement", func(t *testing.T) {
		result := analyzer.Analyze("I want to end my life", "message")

		assert.Equal(t, 90.0, result.Score)
		assert.Equal(t, models.LevelRed, result.Level)
		assert.Contains(t, result.Categories, models.CategoryCrisis)
		assert.True(t, result.NeedsAttention)
		assert.Equal(t, models.SentimentVeryNegative, result.Sentiment)
		assert.Equal(t, 30.0, result.Confidence)
		assert.Equal(t, "message", result.Context)
		assert.Equal(t, "Immediate intervention recommended", result.Recommendations[0])
	})

	t.Run("negated sadness", func(t *testing.T) {
		result := analyzer.Analyze("I am not sad at all, just a bit tired", "mood_note")

		assert.Contains(t, []models.Level{models.LevelGreen, models.LevelYellow}, result.Level)
		assert.Equal(t, 10.4, result.Score)
		require.Len(t, result.KeywordsDetected, 2)
		assert.Equal(t, "sad", result.KeywordsDetected[0].Keyword)
		assert.True(t, result.KeywordsDetected[0].Negated)
		assert.Equal(t, "tired", result.KeywordsDetected[1].Keyword)
		assert.False(t, result.KeywordsDetected[1].Negated)
		assert.False(t, result.NeedsAttention)
	})

	t.Run("gratitude", func(t *testing.T) {
		result := analyzer.Analyze("feeling great and grateful today", "community_post")

		assert.Equal(t, models.SentimentPositive, result.Sentiment)
		assert.Equal(t, models.LevelGreen, result.Level)
		assert.Equal(t, 0.0, result.Score)
		assert.Equal(t, []models.Category{models.CategoryPositive}, result.Categories)
	})
}

func TestAnalyzer_ZeroSignalInputs(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	for _, text := range []string{"", "  ", "hi", " ok "} {
		t.Run("input "+text, func(t *testing.T) {
			result := analyzer.Analyze(text, "message")
			assert.Equal(t, 0.0, result.Score)
			assert.Equal(t, models.LevelGreen, result.Level)
			assert.Equal(t, models.SentimentNeutral, result.Sentiment)
			assert.Equal(t, 0.0, result.Confidence)
			assert.Empty(t, result.KeywordsDetected)
			assert.NotNil(t, result.KeywordsDetected)
			assert.False(t, result.NeedsAttention)
		})
	}
}

func TestAnalyzer_NegationLowersScore(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	for _, keyword := range []string{"sad", "hopeless", "suicidal", "overwhelmed", "cutting"} {
		t.Run(keyword, func(t *testing.T) {
			plain := analyzer.Analyze(keyword, "message")
			negated := analyzer.Analyze("not "+keyword, "message")
			assert.Less(t, negated.Score, plain.Score)
		})
	}
}

func TestAnalyzer_IntensityDoesNotLowerScore(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	for _, keyword := range []string{"sad", "hopeless", "anxious", "grateful", "suicidal"} {
		t.Run(keyword, func(t *testing.T) {
			plain := analyzer.Analyze(keyword, "message")
			intense := analyzer.Analyze("extremely "+keyword, "message")
			assert.GreaterOrEqual(t, intense.Score, plain.Score)
		})
	}

	assert.Equal(t, 12.0, analyzer.Analyze("extremely sad", "message").Score)
}

func TestAnalyzer_NegationAppliesBeforeIntensity(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	result := analyzer.Analyze("not very sad", "message")
	assert.Equal(t, 3.12, result.Score)
	require.Len(t, result.KeywordsDetected, 1)
	assert.True(t, result.KeywordsDetected[0].Negated)
}

func TestAnalyzer_IntensifierMustBeWholeToken(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	// "also" contains "so" but is not an intensifier
	assert.Equal(t, 8.0, analyzer.Analyze("also sad", "message").Score)
	assert.Equal(t, 9.6, analyzer.Analyze("so sad", "message").Score)
}

func TestAnalyzer_WindowsCountCharacters(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	tests := []struct {
		name    string
		text    string
		score   float64
		negated bool
	}{
		{"negation across emoji", "not 😢😢 sad", 2.4, true},
		{"intensifier across emoji", "so 😢😢😢 sad", 9.6, false},
		{"negation across accents", "not déçu sad", 2.4, true},
		{"negation beyond window", "not 😢😢😢😢😢😢 sad", 8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyzer.Analyze(tt.text, "message")
			assert.Equal(t, tt.score, result.Score)
			require.Len(t, result.KeywordsDetected, 1)
			assert.Equal(t, tt.negated, result.KeywordsDetected[0].Negated)
		})
	}
}

func TestAnalyzer_MinimumLengthCountsCharacters(t *testing.T) {
	lex := &lexicon.Lexicon{
		Tiers: []lexicon.Tier{
			{Name: "test", Category: models.CategoryHigh, Score: 40, Keywords: []string{"ñé"}},
		},
		NegationWindow:  10,
		IntensityWindow: 15,
		NegationFactor:  0.5,
	}
	require.NoError(t, lex.Validate())
	analyzer := NewAnalyzer(lex)

	short := analyzer.Analyze("ñé", "message")
	assert.Equal(t, 0.0, short.Score)
	assert.Equal(t, 0.0, short.Confidence)

	assert.Equal(t, 40.0, analyzer.Analyze("ñé!", "message").Score)
}

func TestAnalyzer_BehavioralHeuristics(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	tests := []struct {
		name       string
		text       string
		score      float64
		confidence float64
	}{
		{"all caps", "HELP ME PLEASE NOW", 5, 10},
		{"short caps ignored", "HELP ME", 0, 0},
		{"excessive punctuation", "why is this happening???", 3, 6},
		{"repeated token", "help help help me", 5, 10},
		{"crisis question", "how to make it all die down", 15, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyzer.Analyze(tt.text, "message")
			assert.Equal(t, tt.score, result.Score)
			assert.Equal(t, tt.confidence, result.Confidence)
			assert.Empty(t, result.KeywordsDetected)
		})
	}
}

func TestAnalyzer_CrisisQuestionNeedsCrisisTerm(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	// "attend" and "weekend" contain "end" but are not crisis terms
	result := analyzer.Analyze("how to attend the weekend session", "community_post")
	assert.Equal(t, 0.0, result.Score)
}

func TestAnalyzer_ScoreIsClamped(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	high := analyzer.Analyze("suicide, suicidal, kill myself, want to die, end my life", "message")
	assert.Equal(t, 100.0, high.Score)
	assert.Equal(t, models.LevelRed, high.Level)
	assert.Equal(t, 75.0, high.Confidence)

	low := analyzer.Analyze("happy and grateful and hopeful", "message")
	assert.Equal(t, 0.0, low.Score)
	assert.Equal(t, models.SentimentPositive, low.Sentiment)
}

func TestAnalyzer_CrisisCategoryEscalatesAttention(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	result := analyzer.Analyze("cutting", "message")
	assert.Equal(t, models.LevelYellow, result.Level)
	assert.True(t, result.NeedsAttention)
	assert.Equal(t, Recommendations(models.LevelRed, nil), result.Recommendations)
}

func TestAnalyzer_IsPure(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	text := "I'm so overwhelmed and anxious, nobody cares!!!"

	first := analyzer.Analyze(text, "message")
	second := analyzer.Analyze(text, "message")
	assert.Equal(t, first, second)

	var wg sync.WaitGroup
	results := make([]models.AnalysisResult, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = analyzer.Analyze(text, "message")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, first, r)
	}
}

func TestAnalyzer_SyntheticLexicon(t *testing.T) {
	lex := &lexicon.Lexicon{
		Tiers: []lexicon.Tier{
			{Name: "test", Category: models.CategoryHigh, Score: 40, Keywords: []string{"meh"}},
		},
		Negations:       []string{"not"},
		NegationWindow:  10,
		IntensityWindow: 15,
		NegationFactor:  0.5,
	}
	require.NoError(t, lex.Validate())
	analyzer := NewAnalyzer(lex)

	result := analyzer.Analyze("feeling meh", "message")
	assert.Equal(t, 40.0, result.Score)
	assert.Equal(t, models.LevelYellow, result.Level)
	assert.Equal(t, []models.Category{models.CategoryHigh}, result.Categories)

	negated := analyzer.Analyze("not meh", "message")
	assert.Equal(t, 20.0, negated.Score)
}

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		score    float64
		expected models.Level
	}{
		{0, models.LevelGreen},
		{29.99, models.LevelGreen},
		{30, models.LevelYellow},
		{59.99, models.LevelYellow},
		{60, models.LevelOrange},
		{79.99, models.LevelOrange},
		{80, models.LevelRed},
		{100, models.LevelRed},
	}

	previous := 0
	for _, tt := range tests {
		level := LevelForScore(tt.score)
		assert.Equal(t, tt.expected, level, "score %v", tt.score)

		// levels never step down as the score grows
		idx := levelIndex(level)
		assert.GreaterOrEqual(t, idx, previous)
		previous = idx
	}
}

func TestRecommendations_ReturnsCopies(t *testing.T) {
	recs := Recommendations(models.LevelYellow, nil)
	recs[0] = "changed"
	assert.Equal(t, "Check in with student", Recommendations(models.LevelYellow, nil)[0])
}

func levelIndex(l models.Level) int {
	for i, known := range models.Levels {
		if known == l {
			return i
		}
	}
	return -1
}
