package alerting

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/acadwell/wellness-bot/internal/models"
	"github.com/acadwell/wellness-bot/internal/storage"
	"github.com/sirupsen/logrus"
)

// PreviewLength caps the text excerpt carried in alert payloads
const PreviewLength = 200

// Subject identifies the user whose text was screened
type Subject struct {
	UserID string
	Name   string
	Text   string
}

// severity is one row of the fan-out table
type severity struct {
	roles       []models.Role
	priority    models.Priority
	channels    []models.Channel
	alertType   string
	titleFormat string
}

var severityTable = map[models.Level]severity{
	models.LevelRed: {
		roles:       []models.Role{models.RoleTeacher, models.RoleCounselor, models.RoleAdmin},
		priority:    models.PriorityUrgent,
		channels:    []models.Channel{models.ChannelInApp, models.ChannelEmail},
		alertType:   models.AlertTypeCritical,
		titleFormat: "CRITICAL: Wellness Alert for %s",
	},
	models.LevelOrange: {
		roles:       []models.Role{models.RoleCounselor, models.RoleAdmin},
		priority:    models.PriorityHigh,
		channels:    []models.Channel{models.ChannelInApp, models.ChannelEmail},
		alertType:   models.AlertTypeHighConcern,
		titleFormat: "HIGH CONCERN: Wellness Alert for %s",
	},
	models.LevelYellow: {
		roles:       []models.Role{models.RoleAdmin},
		priority:    models.PriorityNormal,
		channels:    []models.Channel{models.ChannelInApp},
		alertType:   models.AlertTypeMonitor,
		titleFormat: "Monitor: Wellness Check for %s",
	},
}

// Config holds the router's throttle windows and link base
type Config struct {
	Windows          map[models.Level]time.Duration
	EmailWindow      time.Duration
	DashboardBaseURL string
}

// DefaultConfig returns the standard cooldowns: red 2h, orange 6h, yellow 24h
// and a 2h email anti-spam window
func DefaultConfig() Config {
	return Config{
		Windows: map[models.Level]time.Duration{
			models.LevelRed:    2 * time.Hour,
			models.LevelOrange: 6 * time.Hour,
			models.LevelYellow: 24 * time.Hour,
		},
		EmailWindow:      2 * time.Hour,
		DashboardBaseURL: "http://localhost:3000",
	}
}

// Validate checks that every alerting level has a positive window and that
// windows do not shrink as severity decreases
func (c Config) Validate() error {
	red, orange, yellow := c.Windows[models.LevelRed], c.Windows[models.LevelOrange], c.Windows[models.LevelYellow]
	if red <= 0 || orange <= 0 || yellow <= 0 {
		return fmt.Errorf("throttle windows must be positive (red=%s orange=%s yellow=%s)", red, orange, yellow)
	}
	if red > orange || orange > yellow {
		return fmt.Errorf("throttle windows must not decrease with severity (red=%s orange=%s yellow=%s)", red, orange, yellow)
	}
	if c.EmailWindow < 0 {
		return fmt.Errorf("email throttle window must not be negative")
	}
	return nil
}

// Router turns analysis results into role-scoped alert instructions
type Router struct {
	throttle storage.ThrottleStore
	config   Config
	now      func() time.Time
}

// NewRouter creates a router backed by the given throttle store
func NewRouter(throttle storage.ThrottleStore, cfg Config) (*Router, error) {
	if throttle == nil {
		return nil, fmt.Errorf("throttle store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Router{
		throttle: throttle,
		config:   cfg,
		now:      time.Now,
	}, nil
}

// SetClock replaces the router's time source
func (r *Router) SetClock(now func() time.Time) {
	r.now = now
}

// Route decides who hears about result. A nil slice means nothing is sent,
// either because the level does not alert or the user is inside a cooldown.
func (r *Router) Route(ctx context.Context, subject Subject, result models.AnalysisResult) ([]models.AlertInstruction, error) {
	if subject.UserID == "" {
		return nil, fmt.Errorf("subject has no user id")
	}

	if !result.Level.Valid() {
		return nil, fmt.Errorf("unknown level %q", result.Level)
	}
	sev, ok := severityTable[result.Level]
	if !ok {
		return nil, nil
	}

	log := logrus.WithFields(logrus.Fields{
		"user":  subject.UserID,
		"level": result.Level,
	})

	now := r.now()
	claimed, err := r.throttle.Claim(ctx, throttleKey(subject.UserID, result.Level), now, r.config.Windows[result.Level])
	if err != nil {
		if result.Level == models.LevelYellow {
			log.Warnf("Throttle check failed, suppressing monitor alert: %v", err)
			return nil, nil
		}
		log.Errorf("Throttle check failed, sending alert anyway: %v", err)
		claimed = true
	}
	if !claimed {
		log.Debug("Alert throttled")
		return nil, nil
	}

	name := subject.Name
	if name == "" {
		name = "Unknown Student"
	}
	origin := result.Context
	if origin == "" {
		origin = "unknown"
	}

	payload := models.AlertPayload{
		StudentID:   subject.UserID,
		StudentName: name,
		Level:       result.Level,
		Preview:     Preview(subject.Text, PreviewLength),
		Context:     origin,
		Link:        r.studentLink(subject.UserID),
	}

	instructions := make([]models.AlertInstruction, 0, len(sev.roles))
	for _, role := range sev.roles {
		channels := append([]models.Channel(nil), sev.channels...)
		if containsChannel(channels, models.ChannelEmail) && !r.claimEmail(ctx, role, sev.alertType, now) {
			log.WithField("role", role).Info("Email throttled, in-app only")
			channels = removeChannel(channels, models.ChannelEmail)
		}

		instructions = append(instructions, models.AlertInstruction{
			RecipientRole: role,
			Priority:      sev.priority,
			Channels:      channels,
			AlertType:     sev.alertType,
			Title:         fmt.Sprintf(sev.titleFormat, name),
			Message:       fmt.Sprintf("Student %s may need attention. Context: %s", name, origin),
			Payload:       payload,
		})
	}

	log.Infof("Routed %s to %d roles", sev.alertType, len(instructions))
	return instructions, nil
}

// claimEmail reports whether the email channel may be used; a store failure keeps it
func (r *Router) claimEmail(ctx context.Context, role models.Role, alertType string, now time.Time) bool {
	ok, err := r.throttle.Claim(ctx, emailKey(role, alertType), now, r.config.EmailWindow)
	if err != nil {
		logrus.WithField("role", role).Warnf("Email throttle check failed, keeping email: %v", err)
		return true
	}
	return ok
}

func (r *Router) studentLink(userID string) string {
	return strings.TrimRight(r.config.DashboardBaseURL, "/") + "/wellness/student/" + url.PathEscape(userID)
}

func throttleKey(userID string, level models.Level) string {
	return fmt.Sprintf("alert:%s:%s", userID, level)
}

func emailKey(role models.Role, alertType string) string {
	return fmt.Sprintf("email:%s:%s", role, alertType)
}

// Preview trims text and cuts it to at most n runes
func Preview(text string, n int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

func containsChannel(channels []models.Channel, c models.Channel) bool {
	for _, ch := range channels {
		if ch == c {
			return true
		}
	}
	return false
}

func removeChannel(channels []models.Channel, c models.Channel) []models.Channel {
	out := channels[:0]
	for _, ch := range channels {
		if ch != c {
			out = append(out, ch)
		}
	}
	return out
}
