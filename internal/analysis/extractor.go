package analysis

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/acadwell/wellness-bot/internal/lexicon"
	"github.com/acadwell/wellness-bot/internal/models"
)

const tokenPunctuation = ".,;:!?\"'()[]{}…"

// Extraction is the raw output of the signal extractor
type Extraction struct {
	RawScore        float64
	KeywordScore    float64
	BehavioralScore float64
	Matches         []models.KeywordMatch
	Categories      []models.Category
}

// Extractor scans text against a lexicon. It holds no mutable state and is
// safe for concurrent use.
type Extractor struct {
	lex *lexicon.Lexicon
}

// NewExtractor creates an extractor over lex
func NewExtractor(lex *lexicon.Lexicon) *Extractor {
	return &Extractor{lex: lex}
}

// Extract scores normalized text. original is the trimmed text before
// lower-casing and is only consulted by the all-caps heuristic.
func (e *Extractor) Extract(normalized, original string) Extraction {
	ext := Extraction{
		Matches: []models.KeywordMatch{},
	}
	found := make(map[models.Category]bool)

	for _, tier := range e.lex.Tiers {
		for _, keyword := range tier.Keywords {
			pos := strings.Index(normalized, keyword)
			if pos == -1 {
				continue
			}

			contribution := tier.Score
			negated := e.isNegated(normalized, pos)
			if negated {
				contribution *= e.lex.NegationFactor
			}
			contribution *= e.intensity(normalized, pos)

			ext.KeywordScore += contribution
			ext.Matches = append(ext.Matches, models.KeywordMatch{
				Keyword:      keyword,
				Category:     tier.Category,
				SeverityTier: tier.Name,
				Negated:      negated,
			})
			found[tier.Category] = true
		}
	}

	ext.BehavioralScore = e.behavioralScore(normalized, original)
	ext.RawScore = ext.KeywordScore + ext.BehavioralScore

	ext.Categories = []models.Category{}
	for _, c := range models.Categories {
		if found[c] {
			ext.Categories = append(ext.Categories, c)
		}
	}

	return ext
}

// isNegated looks for a negation token in the window before pos
func (e *Extractor) isNegated(text string, pos int) bool {
	for _, token := range windowTokens(text, pos, e.lex.NegationWindow) {
		for _, negation := range e.lex.Negations {
			if token == negation {
				return true
			}
		}
	}
	return false
}

// intensity returns the multiplier of the first intensifier, in lexicon
// order, present in the window before pos
func (e *Extractor) intensity(text string, pos int) float64 {
	tokens := windowTokens(text, pos, e.lex.IntensityWindow)
	for _, in := range e.lex.Intensifiers {
		for _, token := range tokens {
			if token == in.Word {
				return in.Multiplier
			}
		}
	}
	return 1.0
}

func (e *Extractor) behavioralScore(normalized, original string) float64 {
	rules := e.lex.Behavior
	score := 0.0

	if len([]rune(original)) > rules.CapsMinLength && isAllCaps(original) {
		score += rules.CapsScore
	}

	if strings.Contains(normalized, "!!!") || strings.Contains(normalized, "???") {
		score += rules.PunctuationScore
	}

	words := strings.Fields(normalized)
	for i := 0; i+2 < len(words); i++ {
		if words[i] == words[i+1] && words[i+1] == words[i+2] {
			score += rules.RepetitionScore
			break
		}
	}

	if hasCrisisQuestion(normalized, rules) {
		score += rules.CrisisQuestionScore
	}

	return score
}

func hasCrisisQuestion(text string, rules lexicon.BehaviorRules) bool {
	phrase := false
	for _, q := range rules.CrisisQuestionPhrases {
		if strings.Contains(text, q) {
			phrase = true
			break
		}
	}
	if !phrase {
		return false
	}

	for _, token := range tokens(text) {
		for _, term := range rules.CrisisTerms {
			if token == term {
				return true
			}
		}
	}
	return false
}

// windowTokens splits the size characters preceding the byte offset pos into
// punctuation-trimmed tokens
func windowTokens(text string, pos, size int) []string {
	start := pos
	for i := 0; i < size && start > 0; i++ {
		_, width := utf8.DecodeLastRuneInString(text[:start])
		start -= width
	}
	return tokens(text[start:pos])
}

func tokens(s string) []string {
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, tokenPunctuation)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// isAllCaps mirrors str.isupper: at least one cased letter and no lower-case ones
func isAllCaps(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
