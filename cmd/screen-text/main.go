package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/acadwell/wellness-bot/internal/analysis"
	"github.com/acadwell/wellness-bot/internal/lexicon"
	"github.com/acadwell/wellness-bot/internal/models"
	"github.com/sirupsen/logrus"
)

// screen-text screens one text per input line and prints the results,
// followed by a summary and trend over all lines in input order.
func main() {
	input := flag.String("input", "", "file with one text per line (default stdin)")
	lexiconPath := flag.String("lexicon", "", "YAML lexicon overriding the built-in one")
	context := flag.String("context", "cli", "context recorded on each result")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	var lex *lexicon.Lexicon
	if *lexiconPath != "" {
		var err error
		if lex, err = lexicon.Load(*lexiconPath); err != nil {
			logrus.Fatalf("Failed to load lexicon: %v", err)
		}
	}

	var reader io.Reader = os.Stdin
	if *input != "" {
		f, err := os.Open(*input)
		if err != nil {
			logrus.Fatalf("Failed to open input: %v", err)
		}
		defer f.Close()
		reader = f
	}

	results, err := screen(analysis.NewAnalyzer(lex), reader, *context, time.Now().UTC())
	if err != nil {
		logrus.Fatalf("Failed to read input: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	for _, result := range results {
		if err := encoder.Encode(result); err != nil {
			logrus.Fatalf("Failed to encode result: %v", err)
		}
	}

	summary := analysis.Summarize(results)
	trend := analysis.Trend(results)

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Texts screened:  %d\n", summary.TotalChecks)
	fmt.Printf("Average score:   %.2f\n", summary.AverageScore)
	for _, level := range []models.Level{models.LevelRed, models.LevelOrange, models.LevelYellow, models.LevelGreen} {
		fmt.Printf("   %-8s %d\n", string(level)+":", summary.LevelBreakdown[level])
	}
	fmt.Printf("Trend:           %s (%s, %.2f%%)\n", trend.Trend, trend.Direction, trend.ChangePercentage)
	fmt.Println(strings.Repeat("=", 70))
}

// screen analyzes each non-blank line. Lines get one-minute spaced timestamps
// ending at end so the trend follows input order.
func screen(analyzer *analysis.Analyzer, r io.Reader, context string, end time.Time) ([]models.AnalysisResult, error) {
	var texts []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			texts = append(texts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	results := make([]models.AnalysisResult, 0, len(texts))
	for i, text := range texts {
		result := analyzer.Analyze(text, context)
		result.CreatedAt = end.Add(-time.Duration(len(texts)-1-i) * time.Minute)
		results = append(results, result)
	}
	return results, nil
}
