package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/acadwell/wellness-bot/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial.sql
var sqliteMigration string

// SQLiteStore keeps analysis history and in-app notifications in SQLite
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ HistoryStore      = (*SQLiteStore)(nil)
	_ NotificationStore = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens the database at dsn and applies the schema.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn != ":memory:" {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// one connection serializes writes; it also keeps :memory: a single database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append inserts an analysis result
func (s *SQLiteStore) Append(ctx context.Context, result models.AnalysisResult) error {
	if result.UserID == "" {
		return fmt.Errorf("analysis result has no user id")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_results (user_id, level, score, created_at, payload)
		VALUES (?, ?, ?, ?, ?)
	`, result.UserID, string(result.Level), result.Score, result.CreatedAt.UnixNano(), string(payload))
	if err != nil {
		return fmt.Errorf("insert analysis result: %w", err)
	}
	return nil
}

// History returns a user's results created at or after since, oldest first
func (s *SQLiteStore) History(ctx context.Context, userID string, since time.Time) ([]models.AnalysisResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM analysis_results
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at, id
	`, userID, since.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return scanResults(rows)
}

// Since returns all results created at or after since, oldest first
func (s *SQLiteStore) Since(ctx context.Context, since time.Time) ([]models.AnalysisResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM analysis_results
		WHERE created_at >= ?
		ORDER BY created_at, id
	`, since.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]models.AnalysisResult, error) {
	defer rows.Close()

	var results []models.AnalysisResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var r models.AnalysisResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decode analysis result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// SaveNotification inserts or replaces a notification
func (s *SQLiteStore) SaveNotification(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, recipient_id, read, created_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			recipient_id = excluded.recipient_id,
			read = excluded.read,
			created_at = excluded.created_at,
			payload = excluded.payload
	`, n.ID, n.RecipientID, boolToInt(n.Read), n.CreatedAt.UnixNano(), string(payload))
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns a recipient's notifications, newest first
func (s *SQLiteStore) ListNotifications(ctx context.Context, recipientID string, limit int, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT payload, read FROM notifications WHERE recipient_id = ?`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var (
			payload string
			read    int
		)
		if err := rows.Scan(&payload, &read); err != nil {
			return nil, err
		}
		var n models.Notification
		if err := json.Unmarshal([]byte(payload), &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		n.Read = read != 0
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags a recipient's notification as read
func (s *SQLiteStore) MarkRead(ctx context.Context, notificationID, recipientID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read = 1 WHERE id = ? AND recipient_id = ?
	`, notificationID, recipientID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UnreadCount counts a recipient's unread notifications
func (s *SQLiteStore) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND read = 0
	`, recipientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// DeleteReadBefore removes read notifications created before cutoff
func (s *SQLiteStore) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM notifications WHERE read = 1 AND created_at < ?
	`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete old notifications: %w", err)
	}
	return res.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
