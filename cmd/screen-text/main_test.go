package main

import (
	"strings"
	"testing"
	"time"

	"github.com/acadwell/wellness-bot/internal/analysis"
	"github.com/acadwell/wellness-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreen(t *testing.T) {
	end := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	input := "feeling great and grateful today\n\n   \nI want to end my life\n"

	results, err := screen(analysis.NewAnalyzer(nil), strings.NewReader(input), "cli", end)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, models.LevelGreen, results[0].Level)
	assert.Equal(t, models.LevelRed, results[1].Level)
	assert.Equal(t, "cli", results[1].Context)
	assert.Equal(t, end.Add(-time.Minute), results[0].CreatedAt)
	assert.Equal(t, end, results[1].CreatedAt)
}

func TestScreen_Empty(t *testing.T) {
	results, err := screen(analysis.NewAnalyzer(nil), strings.NewReader(""), "cli", time.Now())
	require.NoError(t, err)
	assert.Empty(t, results)
}
