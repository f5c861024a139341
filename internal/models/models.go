package models

import "time"

// Level is the discrete severity bucket derived from a score
type Level string

const (
	LevelGreen  Level = "green"
	LevelYellow Level = "yellow"
	LevelOrange Level = "orange"
	LevelRed    Level = "red"
)

// Levels lists every level from least to most severe
var Levels = []Level{LevelGreen, LevelYellow, LevelOrange, LevelRed}

// Valid reports whether l is one of the known levels
func (l Level) Valid() bool {
	switch l {
	case LevelGreen, LevelYellow, LevelOrange, LevelRed:
		return true
	}
	return false
}

// Sentiment is the coarse label attached to an analysis
type Sentiment string

const (
	SentimentVeryNegative     Sentiment = "very_negative"
	SentimentNegative         Sentiment = "negative"
	SentimentSlightlyNegative Sentiment = "slightly_negative"
	SentimentNeutral          Sentiment = "neutral"
	SentimentPositive         Sentiment = "positive"
)

// Category tags a lexicon tier
type Category string

const (
	CategoryCrisis   Category = "crisis"
	CategorySevere   Category = "severe"
	CategoryHigh     Category = "high"
	CategoryModerate Category = "moderate"
	CategoryPositive Category = "positive"
)

// Categories is the canonical category order used when emitting results
var Categories = []Category{CategoryCrisis, CategorySevere, CategoryHigh, CategoryModerate, CategoryPositive}

// KeywordMatch records one lexicon keyword found in a text
type KeywordMatch struct {
	Keyword      string   `json:"keyword"`
	Category     Category `json:"category"`
	SeverityTier string   `json:"severity"`
	Negated      bool     `json:"negated"`
}

// AnalysisResult is the outcome of screening a single piece of text.
// It is never mutated after creation.
type AnalysisResult struct {
	UserID           string         `json:"user_id,omitempty"`
	Score            float64        `json:"score"`
	Level            Level          `json:"level"`
	Confidence       float64        `json:"confidence"`
	Sentiment        Sentiment      `json:"sentiment"`
	Categories       []Category     `json:"categories"`
	KeywordsDetected []KeywordMatch `json:"keywords_detected"`
	NeedsAttention   bool           `json:"needs_attention"`
	Recommendations  []string       `json:"recommendations"`
	Context          string         `json:"context"`
	CreatedAt        time.Time      `json:"created_at"`
}

// HasCategory reports whether c was found in the analysed text
func (r *AnalysisResult) HasCategory(c Category) bool {
	for _, got := range r.Categories {
		if got == c {
			return true
		}
	}
	return false
}

// Summary aggregates a window of analysis results
type Summary struct {
	TotalChecks    int           `json:"total_checks"`
	AverageScore   float64       `json:"average_score"`
	LevelBreakdown map[Level]int `json:"level_breakdown"`
}

// TrendKind characterizes the direction of wellbeing over a window
type TrendKind string

const (
	TrendInsufficientData TrendKind = "insufficient_data"
	TrendWorsening        TrendKind = "worsening"
	TrendImproving        TrendKind = "improving"
	TrendStable           TrendKind = "stable"
)

// Direction is the score direction reported alongside a trend
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// Trend compares the earlier and later halves of a history window
type Trend struct {
	Trend            TrendKind `json:"trend"`
	Direction        Direction `json:"direction"`
	ChangePercentage float64   `json:"change_percentage"`
	CurrentAverage   float64   `json:"current_average"`
	PreviousAverage  float64   `json:"previous_average"`
}

// PatternFinding describes a behavioral pattern spotted across a history
type PatternFinding struct {
	Type            string  `json:"type"`
	Difference      float64 `json:"difference,omitempty"`
	PreviousAverage float64 `json:"previous_average,omitempty"`
	NewScore        float64 `json:"new_score,omitempty"`
	DurationDays    int     `json:"duration_days,omitempty"`
	ConcerningCount int     `json:"concerning_checks,omitempty"`
	TotalChecks     int     `json:"total_checks,omitempty"`
	PreviousCount   int     `json:"previous_activity,omitempty"`
	CurrentCount    int     `json:"current_activity,omitempty"`
	CommunityPosts  int     `json:"community_posts,omitempty"`
}

// DailySummary is the cross-student roll-up sent to staff once a day
type DailySummary struct {
	Date               string        `json:"date"`
	TotalChecks        int           `json:"total_checks"`
	UniqueStudents     int           `json:"unique_students"`
	LevelBreakdown     map[Level]int `json:"level_breakdown"`
	CriticalStudents   int           `json:"critical_students"`
	ConcerningStudents int           `json:"concerning_students"`
}

// Encouragement is the supportive bundle returned to the submitting user
type Encouragement struct {
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Tips    []string `json:"tips"`
}
