package analysis

import (
	"math"
	"time"

	"github.com/acadwell/wellness-bot/internal/models"
)

const (
	suddenChangeSample    = 5
	suddenChangeMinimum   = 3
	suddenChangeThreshold = 30

	week = 7 * 24 * time.Hour

	prolongedWindow      = week
	prolongedMinimum     = 5
	prolongedConcernRate = 0.6

	isolationMinimumActivity = 10
	isolationDropRatio       = 0.3
)

// DetectSuddenChange compares newScore against the average of the most
// recent results. At least three prior results are required.
func DetectSuddenChange(recent []models.AnalysisResult, newScore float64) (*models.PatternFinding, bool) {
	ordered := SortDescending(recent)
	if len(ordered) > suddenChangeSample {
		ordered = ordered[:suddenChangeSample]
	}
	if len(ordered) < suddenChangeMinimum {
		return nil, false
	}

	avg := meanScore(ordered)
	diff := math.Abs(newScore - avg)
	if diff <= suddenChangeThreshold {
		return nil, false
	}

	kind := "sudden_decrease"
	if newScore > avg {
		kind = "sudden_increase"
	}
	return &models.PatternFinding{
		Type:            kind,
		Difference:      round2(diff),
		PreviousAverage: round2(avg),
		NewScore:        newScore,
	}, true
}

// DetectProlongedDistress flags a user whose last week is mostly orange or red
func DetectProlongedDistress(history []models.AnalysisResult, now time.Time) (*models.PatternFinding, bool) {
	cutoff := now.Add(-prolongedWindow)

	total, concerning := 0, 0
	for _, r := range history {
		if r.CreatedAt.Before(cutoff) {
			continue
		}
		total++
		if r.Level == models.LevelOrange || r.Level == models.LevelRed {
			concerning++
		}
	}

	if total < prolongedMinimum {
		return nil, false
	}
	if float64(concerning) < float64(total)*prolongedConcernRate {
		return nil, false
	}

	return &models.PatternFinding{
		Type:            "prolonged_distress",
		DurationDays:    7,
		ConcerningCount: concerning,
		TotalChecks:     total,
	}, true
}

// DetectIsolation flags a sharp drop in messaging between two consecutive weeks
func DetectIsolation(previousWeek, recentWeek, recentPosts int) (*models.PatternFinding, bool) {
	if previousWeek <= isolationMinimumActivity {
		return nil, false
	}
	if float64(recentWeek) >= float64(previousWeek)*isolationDropRatio {
		return nil, false
	}
	return &models.PatternFinding{
		Type:           "reduced_communication",
		PreviousCount:  previousWeek,
		CurrentCount:   recentWeek,
		CommunityPosts: recentPosts,
	}, true
}

// Contexts counted by WeeklyActivity
const (
	ContextMessage       = "message"
	ContextCommunityPost = "community_post"
)

// WeeklyActivity counts messages in the week up to now and in the week
// before it, plus community posts in the recent week. The counts feed
// DetectIsolation.
func WeeklyActivity(history []models.AnalysisResult, now time.Time) (previousWeek, recentWeek, recentPosts int) {
	recentStart := now.Add(-week)
	previousStart := recentStart.Add(-week)

	for _, r := range history {
		if r.CreatedAt.Before(previousStart) || r.CreatedAt.After(now) {
			continue
		}
		recent := !r.CreatedAt.Before(recentStart)
		switch r.Context {
		case ContextMessage:
			if recent {
				recentWeek++
			} else {
				previousWeek++
			}
		case ContextCommunityPost:
			if recent {
				recentPosts++
			}
		}
	}
	return previousWeek, recentWeek, recentPosts
}

// BuildDailySummary rolls up results across users for day
func BuildDailySummary(day time.Time, results []models.AnalysisResult) models.DailySummary {
	summary := models.DailySummary{
		Date:           day.Format("2006-01-02"),
		TotalChecks:    len(results),
		LevelBreakdown: emptyBreakdown(),
	}

	students := make(map[string]struct{})
	for _, r := range results {
		if _, ok := summary.LevelBreakdown[r.Level]; ok {
			summary.LevelBreakdown[r.Level]++
		}
		students[r.UserID] = struct{}{}
	}

	summary.UniqueStudents = len(students)
	summary.CriticalStudents = summary.LevelBreakdown[models.LevelRed]
	summary.ConcerningStudents = summary.LevelBreakdown[models.LevelOrange]
	return summary
}
