package analysis

import (
	"math"
	"sort"

	"github.com/acadwell/wellness-bot/internal/models"
)

// trendThreshold is the mean score change that separates stable from a trend
const trendThreshold = 10

// Summarize counts checks per level and averages their scores
func Summarize(history []models.AnalysisResult) models.Summary {
	summary := models.Summary{
		LevelBreakdown: emptyBreakdown(),
	}
	if len(history) == 0 {
		return summary
	}

	total := 0.0
	for _, r := range history {
		total += r.Score
		if _, ok := summary.LevelBreakdown[r.Level]; ok {
			summary.LevelBreakdown[r.Level]++
		}
	}

	summary.TotalChecks = len(history)
	summary.AverageScore = round2(total / float64(len(history)))
	return summary
}

// Trend compares the mean score of the later half of history with the
// earlier half. history is ordered by creation time before splitting.
func Trend(history []models.AnalysisResult) models.Trend {
	if len(history) < 2 {
		return models.Trend{
			Trend:     models.TrendInsufficientData,
			Direction: models.DirectionNeutral,
		}
	}

	ordered := SortAscending(history)
	mid := len(ordered) / 2
	earlier := meanScore(ordered[:mid])
	later := meanScore(ordered[mid:])

	change := later - earlier
	trend := models.Trend{
		ChangePercentage: round2(change / math.Max(earlier, 1) * 100),
		CurrentAverage:   round2(later),
		PreviousAverage:  round2(earlier),
	}

	switch {
	case change > trendThreshold:
		trend.Trend, trend.Direction = models.TrendWorsening, models.DirectionUp
	case change < -trendThreshold:
		trend.Trend, trend.Direction = models.TrendImproving, models.DirectionDown
	default:
		trend.Trend, trend.Direction = models.TrendStable, models.DirectionNeutral
	}

	return trend
}

// SortAscending returns a copy of history ordered oldest first. Records with
// equal timestamps keep their relative order.
func SortAscending(history []models.AnalysisResult) []models.AnalysisResult {
	out := append([]models.AnalysisResult(nil), history...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// SortDescending returns a copy of history ordered newest first, for display
func SortDescending(history []models.AnalysisResult) []models.AnalysisResult {
	out := append([]models.AnalysisResult(nil), history...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func meanScore(results []models.AnalysisResult) float64 {
	if len(results) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range results {
		total += r.Score
	}
	return total / float64(len(results))
}

func emptyBreakdown() map[models.Level]int {
	breakdown := make(map[models.Level]int, len(models.Levels))
	for _, l := range models.Levels {
		breakdown[l] = 0
	}
	return breakdown
}
