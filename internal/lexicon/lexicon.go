package lexicon

import (
	"fmt"
	"os"

	"github.com/acadwell/wellness-bot/internal/models"
	"gopkg.in/yaml.v3"
)

// Tier is a named keyword group sharing a base score and category
type Tier struct {
	Name     string          `yaml:"name" json:"name"`
	Category models.Category `yaml:"category" json:"category"`
	Score    float64         `yaml:"score" json:"score"`
	Keywords []string        `yaml:"keywords" json:"keywords"`
}

// Intensifier scales the contribution of a keyword that follows it
type Intensifier struct {
	Word       string  `yaml:"word" json:"word"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// BehaviorRules holds the weights of the lexicon-independent heuristics
type BehaviorRules struct {
	CapsMinLength         int      `yaml:"caps_min_length" json:"caps_min_length"`
	CapsScore             float64  `yaml:"caps_score" json:"caps_score"`
	PunctuationScore      float64  `yaml:"punctuation_score" json:"punctuation_score"`
	RepetitionScore       float64  `yaml:"repetition_score" json:"repetition_score"`
	CrisisQuestionScore   float64  `yaml:"crisis_question_score" json:"crisis_question_score"`
	CrisisQuestionPhrases []string `yaml:"crisis_question_phrases" json:"crisis_question_phrases"`
	CrisisTerms           []string `yaml:"crisis_terms" json:"crisis_terms"`
}

// Lexicon is the complete, serializable rule set used by the signal extractor.
// Tier and intensifier order is significant: matches are recorded in tier
// order and the first intensifier found wins.
type Lexicon struct {
	Tiers           []Tier        `yaml:"tiers" json:"tiers"`
	Intensifiers    []Intensifier `yaml:"intensifiers" json:"intensifiers"`
	Negations       []string      `yaml:"negations" json:"negations"`
	NegationWindow  int           `yaml:"negation_window" json:"negation_window"`
	IntensityWindow int           `yaml:"intensity_window" json:"intensity_window"`
	NegationFactor  float64       `yaml:"negation_factor" json:"negation_factor"`
	Behavior        BehaviorRules `yaml:"behavior" json:"behavior"`
}

// Load reads a YAML lexicon from path. Fields missing from the file keep
// their default values.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML lexicon document on top of the defaults
func Parse(data []byte) (*Lexicon, error) {
	lex := Default()
	if err := yaml.Unmarshal(data, lex); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}
	if err := lex.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lexicon: %w", err)
	}
	return lex, nil
}

// Validate checks the lexicon for values the extractor cannot work with
func (l *Lexicon) Validate() error {
	if len(l.Tiers) == 0 {
		return fmt.Errorf("at least one tier is required")
	}

	seen := make(map[string]bool, len(l.Tiers))
	for _, tier := range l.Tiers {
		if tier.Name == "" {
			return fmt.Errorf("tier name is required")
		}
		if seen[tier.Name] {
			return fmt.Errorf("duplicate tier %q", tier.Name)
		}
		seen[tier.Name] = true

		if !knownCategory(tier.Category) {
			return fmt.Errorf("tier %q has unknown category %q", tier.Name, tier.Category)
		}
		if len(tier.Keywords) == 0 {
			return fmt.Errorf("tier %q has no keywords", tier.Name)
		}
	}

	for _, in := range l.Intensifiers {
		if in.Word == "" || in.Multiplier <= 0 {
			return fmt.Errorf("intensifier %q must have a word and a positive multiplier", in.Word)
		}
	}

	if l.NegationFactor <= 0 || l.NegationFactor > 1 {
		return fmt.Errorf("negation factor must be in (0, 1], got %v", l.NegationFactor)
	}
	if l.NegationWindow < 0 || l.IntensityWindow < 0 {
		return fmt.Errorf("look-behind windows must not be negative")
	}

	return nil
}

func knownCategory(c models.Category) bool {
	for _, known := range models.Categories {
		if c == known {
			return true
		}
	}
	return false
}
