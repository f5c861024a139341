package encouragement

import (
	"strings"

	"github.com/acadwell/wellness-bot/internal/models"
)

var levelMessages = map[models.Level]models.Encouragement{
	models.LevelGreen: {
		Title:   "You're doing great!",
		Message: "Keep up the positive momentum! Remember to maintain healthy habits.",
		Tips: []string{
			"Continue your regular sleep schedule",
			"Stay connected with friends and family",
			"Keep up with physical activity",
		},
	},
	models.LevelYellow: {
		Title:   "We're here for you",
		Message: "It's normal to feel stressed sometimes. Take care of yourself.",
		Tips: []string{
			"Take short breaks between study sessions",
			"Practice deep breathing exercises",
			"Reach out to a friend or counselor if you need to talk",
		},
	},
	models.LevelOrange: {
		Title:   "Your wellbeing matters",
		Message: "We noticed you might be going through a tough time. Please reach out for support.",
		Tips: []string{
			"Talk to a counselor - they're here to help",
			"Consider taking a mental health day if needed",
			"Don't hesitate to ask for help from professors or friends",
		},
	},
	models.LevelRed: {
		Title:   "You're not alone",
		Message: "Please reach out to someone right now. Your safety and wellbeing are important.",
		Tips: []string{
			"Call campus counseling services immediately",
			"Reach out to a trusted friend or family member",
			"Crisis helpline: 988 (available 24/7)",
		},
	},
}

// moodTips adds one extra tip when a self-reported mood is known
var moodTips = map[string]string{
	"anxious":  "Try the 5-4-3-2-1 grounding exercise when worry builds up",
	"stressed": "Break big tasks into small steps and tackle one at a time",
	"sad":      "Be gentle with yourself and do one small thing you enjoy today",
	"tired":    "A short walk or a 20-minute nap can help more than another coffee",
	"lonely":   "Join a study group or community thread to connect with classmates",
}

// Encourage returns the supportive message for level. Unknown levels get the
// yellow message. mood may be empty.
func Encourage(level models.Level, mood string) models.Encouragement {
	base, ok := levelMessages[level]
	if !ok {
		base = levelMessages[models.LevelYellow]
	}

	out := models.Encouragement{
		Title:   base.Title,
		Message: base.Message,
		Tips:    append([]string(nil), base.Tips...),
	}

	if tip, ok := moodTips[strings.ToLower(strings.TrimSpace(mood))]; ok {
		out.Tips = append(out.Tips, tip)
	}
	return out
}
