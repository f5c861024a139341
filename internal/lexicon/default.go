package lexicon

import "github.com/acadwell/wellness-bot/internal/models"

// Default returns a fresh copy of the built-in lexicon
func Default() *Lexicon {
	return &Lexicon{
		Tiers: []Tier{
			{
				Name:     "critical",
				Category: models.CategoryCrisis,
				Score:    45,
				Keywords: []string{
					"suicide", "kill myself", "want to die", "end my life", "end it all",
					"better off dead", "no reason to live", "take my life", "suicidal",
					"end it", "ending it", "want to end", "going to end",
				},
			},
			{
				Name:     "self_harm",
				Category: models.CategoryCrisis,
				Score:    35,
				Keywords: []string{
					"self-harm", "hurt myself", "cut myself", "harm myself", "cutting",
					"self injury", "want to hurt",
				},
			},
			{
				Name:     "severe_distress",
				Category: models.CategorySevere,
				Score:    25,
				Keywords: []string{
					"give up", "no point", "hopeless", "worthless", "useless",
					"failure", "can't take it", "unbearable", "falling apart",
					"broken", "nothing matters", "why bother", "can't go on",
				},
			},
			{
				Name:     "high_distress",
				Category: models.CategoryHigh,
				Score:    15,
				Keywords: []string{
					"depressed", "depression", "anxious", "anxiety", "panic attack",
					"overwhelmed", "can't cope", "breaking down", "stressed out",
					"exhausted mentally", "losing control", "scared", "terrified",
					"isolated", "alone", "lonely", "nobody cares",
				},
			},
			{
				Name:     "moderate_concern",
				Category: models.CategoryModerate,
				Score:    8,
				Keywords: []string{
					"stressed", "worried", "nervous", "sad", "upset", "tired",
					"struggling", "difficult time", "hard to focus", "can't sleep",
					"insomnia", "nightmare", "crying", "unmotivated",
				},
			},
			{
				Name:     "positive_indicators",
				Category: models.CategoryPositive,
				Score:    -10,
				Keywords: []string{
					"feeling better", "improving", "grateful", "thankful", "hopeful",
					"optimistic", "proud", "accomplished", "happy", "excited",
					"motivated", "energized", "confident", "peaceful", "relaxed",
					"relieved", "progress", "getting better", "moving forward",
				},
			},
		},
		Intensifiers: []Intensifier{
			{Word: "very", Multiplier: 1.3},
			{Word: "extremely", Multiplier: 1.5},
			{Word: "really", Multiplier: 1.2},
			{Word: "so", Multiplier: 1.2},
			{Word: "too", Multiplier: 1.3},
			{Word: "completely", Multiplier: 1.4},
			{Word: "totally", Multiplier: 1.4},
			{Word: "absolutely", Multiplier: 1.4},
		},
		Negations: []string{
			"not", "no", "never", "neither", "nobody", "nothing", "nowhere", "hardly", "barely",
		},
		NegationWindow:  10,
		IntensityWindow: 15,
		NegationFactor:  0.3,
		Behavior: BehaviorRules{
			CapsMinLength:         10,
			CapsScore:             5,
			PunctuationScore:      3,
			RepetitionScore:       5,
			CrisisQuestionScore:   15,
			CrisisQuestionPhrases: []string{"how to", "ways to", "should i"},
			CrisisTerms:           []string{"die", "end", "kill", "hurt"},
		},
	}
}
