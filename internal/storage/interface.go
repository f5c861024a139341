package storage

import (
	"context"
	"errors"
	"time"

	"github.com/acadwell/wellness-bot/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// BlobStore defines the contract for raw object storage
type BlobStore interface {
	Store(ctx context.Context, name string, data []byte) error
	Retrieve(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// HistoryStore persists analysis results keyed by user and creation time
type HistoryStore interface {
	Append(ctx context.Context, result models.AnalysisResult) error
	// History returns a user's results created at or after since, oldest first
	History(ctx context.Context, userID string, since time.Time) ([]models.AnalysisResult, error)
	// Since returns every user's results created at or after since, oldest first
	Since(ctx context.Context, since time.Time) ([]models.AnalysisResult, error)
}

// ThrottleStore holds last-sent timestamps for throttled keys
type ThrottleStore interface {
	// Claim atomically records now for key unless the previous record is
	// younger than window. It reports whether the caller won the claim.
	Claim(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error)
	// LastSent returns the most recent claim time for key, if one is still held
	LastSent(ctx context.Context, key string) (time.Time, bool, error)
}

// NotificationStore persists in-app notifications
type NotificationStore interface {
	SaveNotification(ctx context.Context, n models.Notification) error
	ListNotifications(ctx context.Context, recipientID string, limit int, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID, recipientID string) error
	UnreadCount(ctx context.Context, recipientID string) (int, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
