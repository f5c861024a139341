package analysis

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/acadwell/wellness-bot/internal/lexicon"
	"github.com/acadwell/wellness-bot/internal/models"
)

// MinTextLength is the shortest normalized text that is screened at all
const MinTextLength = 3

// Analyzer turns raw text into an AnalysisResult
type Analyzer struct {
	extractor *Extractor
}

// NewAnalyzer creates an analyzer over lex, falling back to the built-in
// lexicon when lex is nil
func NewAnalyzer(lex *lexicon.Lexicon) *Analyzer {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Analyzer{extractor: NewExtractor(lex)}
}

// Analyze screens text. Identical inputs always produce identical results.
func (a *Analyzer) Analyze(text, context string) models.AnalysisResult {
	original := strings.TrimSpace(text)
	normalized := strings.ToLower(original)

	if utf8.RuneCountInString(normalized) < MinTextLength {
		return zeroResult(context)
	}

	ext := a.extractor.Extract(normalized, original)

	score := round2(clamp(ext.RawScore, 0, 100))
	level := LevelForScore(score)
	crisis := containsCategory(ext.Categories, models.CategoryCrisis)

	return models.AnalysisResult{
		Score:            score,
		Level:            level,
		Confidence:       confidence(len(ext.Matches), ext.BehavioralScore),
		Sentiment:        sentimentFor(score, ext.Matches),
		Categories:       ext.Categories,
		KeywordsDetected: ext.Matches,
		NeedsAttention:   level == models.LevelOrange || level == models.LevelRed || crisis,
		Recommendations:  Recommendations(level, ext.Categories),
		Context:          context,
	}
}

// LevelForScore maps a clamped score onto the fixed level thresholds
func LevelForScore(score float64) models.Level {
	switch {
	case score >= 80:
		return models.LevelRed
	case score >= 60:
		return models.LevelOrange
	case score >= 30:
		return models.LevelYellow
	default:
		return models.LevelGreen
	}
}

var recommendationTable = map[models.Level][]string{
	models.LevelRed: {
		"Immediate intervention recommended",
		"Contact counselor or crisis helpline",
		"Do not leave person alone",
	},
	models.LevelOrange: {
		"Reach out within 24 hours",
		"Offer support and resources",
		"Schedule counseling session",
	},
	models.LevelYellow: {
		"Check in with student",
		"Provide wellness resources",
		"Monitor for changes",
	},
	models.LevelGreen: {
		"Continue regular wellness checks",
		"Encourage positive habits",
	},
}

// Recommendations returns the action list for a level and category set.
// Any crisis category escalates to the red list.
func Recommendations(level models.Level, categories []models.Category) []string {
	key := level
	if containsCategory(categories, models.CategoryCrisis) {
		key = models.LevelRed
	}
	recs, ok := recommendationTable[key]
	if !ok {
		recs = recommendationTable[models.LevelGreen]
	}
	return append([]string(nil), recs...)
}

func zeroResult(context string) models.AnalysisResult {
	return models.AnalysisResult{
		Score:            0,
		Level:            models.LevelGreen,
		Confidence:       0,
		Sentiment:        models.SentimentNeutral,
		Categories:       []models.Category{},
		KeywordsDetected: []models.KeywordMatch{},
		Recommendations:  Recommendations(models.LevelGreen, nil),
		Context:          context,
	}
}

func confidence(matches int, behavioral float64) float64 {
	if matches == 0 && behavioral == 0 {
		return 0
	}
	return round2(math.Min(100, float64(matches)*15+behavioral*2))
}

func sentimentFor(score float64, matches []models.KeywordMatch) models.Sentiment {
	switch {
	case score >= 60:
		return models.SentimentVeryNegative
	case score >= 30:
		return models.SentimentNegative
	case score >= 15:
		return models.SentimentSlightlyNegative
	}
	for _, m := range matches {
		if m.Category == models.CategoryPositive {
			return models.SentimentPositive
		}
	}
	return models.SentimentNeutral
}

func containsCategory(categories []models.Category, c models.Category) bool {
	for _, got := range categories {
		if got == c {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
