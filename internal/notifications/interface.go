package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/acadwell/wellness-bot/internal/models"
)

// ErrEmailNotConfigured is returned by SendEmail when no SMTP host is set
var ErrEmailNotConfigured = errors.New("email delivery is not configured")

// Dispatcher defines the contract for delivering alerts to people
type Dispatcher interface {
	CreateInApp(ctx context.Context, n models.Notification) (models.Notification, error)
	SendEmail(ctx context.Context, req EmailRequest) error
	MirrorAlert(ctx context.Context, alert models.AlertInstruction) error
}

// Inbox defines the read side of in-app notifications
type Inbox interface {
	List(ctx context.Context, recipientID string, limit int, unreadOnly bool) ([]models.Notification, error)
	UnreadCount(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, notificationID, recipientID string) error
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

// EmailRequest describes one outgoing email. Type selects the template:
// alert types use Alert, EmailTypeDailySummary uses Summary.
type EmailRequest struct {
	To            string
	RecipientName string
	Type          string
	Alert         *models.AlertPayload
	Summary       *models.DailySummary
}
