package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/acadwell/wellness-bot/internal/config"
	"github.com/acadwell/wellness-bot/internal/models"
	"github.com/acadwell/wellness-bot/internal/storage"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Sender delivers composed email messages
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	store  storage.NotificationStore
	client *resty.Client
	sender Sender
	now    func() time.Time
}

// Ensure Service implements Dispatcher and Inbox
var (
	_ Dispatcher = (*Service)(nil)
	_ Inbox      = (*Service)(nil)
)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config, store storage.NotificationStore) *Service {
	s := &Service{
		config: cfg,
		store:  store,
		client: resty.New().SetTimeout(30 * time.Second),
		now:    time.Now,
	}
	if cfg.SMTPHost != "" {
		s.sender = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	return s
}

// SetSender replaces the SMTP sender
func (s *Service) SetSender(sender Sender) {
	s.sender = sender
}

// CreateInApp stores an in-app notification, filling in its id and timestamp
func (s *Service) CreateInApp(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.RecipientID == "" {
		return n, fmt.Errorf("notification has no recipient")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	if n.Priority == "" {
		n.Priority = models.PriorityNormal
	}
	n.Read = false

	if err := s.store.SaveNotification(ctx, n); err != nil {
		return n, fmt.Errorf("failed to save notification for %s: %w", n.RecipientID, err)
	}

	logrus.Debugf("In-app notification %s created for %s: %s", n.ID, n.RecipientID, n.Title)
	return n, nil
}

// List returns a recipient's notifications, newest first
func (s *Service) List(ctx context.Context, recipientID string, limit int, unreadOnly bool) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, recipientID, limit, unreadOnly)
}

// UnreadCount counts a recipient's unread notifications
func (s *Service) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	return s.store.UnreadCount(ctx, recipientID)
}

// MarkRead marks one of the recipient's notifications as read
func (s *Service) MarkRead(ctx context.Context, notificationID, recipientID string) error {
	return s.store.MarkRead(ctx, notificationID, recipientID)
}

// Cleanup deletes read notifications older than retention
func (s *Service) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	removed, err := s.store.DeleteReadBefore(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	logrus.Infof("Removed %d read notifications older than %s", removed, retention)
	return removed, nil
}

// MirrorAlert posts an alert to the configured Teams channel
func (s *Service) MirrorAlert(ctx context.Context, alert models.AlertInstruction) error {
	if s.config.TeamsWebhookURL == "" {
		return nil
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(buildTeamsMessage(alert)).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	logrus.Infof("Mirrored %s for %s to Teams", alert.AlertType, alert.Payload.StudentID)
	return nil
}

func buildTeamsMessage(alert models.AlertInstruction) *TeamsMessage {
	p := alert.Payload
	facts := []TeamsFact{
		{Name: "Student", Value: p.StudentName},
		{Name: "Level", Value: strings.ToUpper(string(p.Level))},
		{Name: "Priority", Value: string(alert.Priority)},
		{Name: "Context", Value: p.Context},
	}

	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: strings.TrimPrefix(levelColor(p.Level), "#"),
		Title:      alert.Title,
		Text:       alert.Message,
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Details",
		Facts:         facts,
		Markdown:      true,
	})

	if p.Preview != "" || p.Link != "" {
		text := fmt.Sprintf("> %s", p.Preview)
		if p.Link != "" {
			text += fmt.Sprintf("\n\n[Open student wellness page](%s)", p.Link)
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Flagged content",
			ActivityText:  text,
			Markdown:      true,
		})
	}

	return message
}
