package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/acadwell/wellness-bot/internal/config"
	"github.com/acadwell/wellness-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

// MockNotificationStore is a mock implementation of storage.NotificationStore
type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) SaveNotification(ctx context.Context, n models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationStore) ListNotifications(ctx context.Context, recipientID string, limit int, unreadOnly bool) ([]models.Notification, error) {
	args := m.Called(ctx, recipientID, limit, unreadOnly)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationStore) MarkRead(ctx context.Context, notificationID, recipientID string) error {
	args := m.Called(ctx, notificationID, recipientID)
	return args.Error(0)
}

func (m *MockNotificationStore) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationStore) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockSender records messages instead of dialing SMTP
type MockSender struct {
	mock.Mock
	sent []*gomail.Message
}

func (m *MockSender) DialAndSend(msgs ...*gomail.Message) error {
	m.sent = append(m.sent, msgs...)
	args := m.Called(len(msgs))
	return args.Error(0)
}

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestService(cfg *config.Config, store *MockNotificationStore) *Service {
	s := NewService(cfg, store)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestService_CreateInApp(t *testing.T) {
	ctx := context.Background()
	store := &MockNotificationStore{}
	service := newTestService(&config.Config{}, store)

	store.On("SaveNotification", ctx, mock.MatchedBy(func(n models.Notification) bool {
		return n.ID != "" && n.RecipientID == "c1" && n.CreatedAt.Equal(fixedNow) &&
			n.Priority == models.PriorityNormal && !n.Read
	})).Return(nil)

	n, err := service.CreateInApp(ctx, models.Notification{RecipientID: "c1", Title: "Monitor", Read: true})
	require.NoError(t, err)
	assert.Len(t, n.ID, 36)
	store.AssertExpectations(t)
}

func TestService_CreateInAppErrors(t *testing.T) {
	ctx := context.Background()
	store := &MockNotificationStore{}
	service := newTestService(&config.Config{}, store)

	_, err := service.CreateInApp(ctx, models.Notification{})
	assert.Error(t, err)

	store.On("SaveNotification", ctx, mock.Anything).Return(errors.New("disk full"))
	_, err = service.CreateInApp(ctx, models.Notification{RecipientID: "c1"})
	assert.Error(t, err)
}

func TestService_Cleanup(t *testing.T) {
	ctx := context.Background()
	store := &MockNotificationStore{}
	service := newTestService(&config.Config{}, store)

	store.On("DeleteReadBefore", ctx, fixedNow.Add(-30*24*time.Hour)).Return(int64(4), nil)

	removed, err := service.Cleanup(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
}

func TestService_SendAlertEmail(t *testing.T) {
	ctx := context.Background()
	service := newTestService(&config.Config{EmailFrom: "wellbot@example.com"}, &MockNotificationStore{})
	sender := &MockSender{}
	sender.On("DialAndSend", 1).Return(nil)
	service.SetSender(sender)

	err := service.SendEmail(ctx, EmailRequest{
		To:            "dana@example.com",
		RecipientName: "Dana",
		Type:          models.AlertTypeCritical,
		Alert: &models.AlertPayload{
			StudentID:   "s1",
			StudentName: "Ana",
			Level:       models.LevelRed,
			Preview:     "I can't <do> this",
			Context:     "message",
			Link:        "http://localhost:3000/wellness/student/s1",
		},
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	m := sender.sent[0]
	assert.Equal(t, []string{"CRITICAL: Wellness Alert for Ana"}, m.GetHeader("Subject"))
	assert.Equal(t, []string{"dana@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"wellbot@example.com"}, m.GetHeader("From"))
}

func TestService_Compose(t *testing.T) {
	service := newTestService(&config.Config{DashboardBaseURL: "https://acadwell.example/"}, &MockNotificationStore{})

	subject, html, text, err := service.compose(EmailRequest{
		Type:  models.AlertTypeHighConcern,
		Alert: &models.AlertPayload{StudentName: "Ana", Level: models.LevelOrange, Preview: "I can't <do> this", Context: "community_post"},
	})
	require.NoError(t, err)
	assert.Equal(t, "HIGH CONCERN: Wellness Alert for Ana", subject)
	assert.Contains(t, html, "#ea580c")
	assert.Contains(t, html, "I can&#39;t &lt;do&gt; this")
	assert.Contains(t, text, "Hello there,")

	subject, html, text, err = service.compose(EmailRequest{
		RecipientName: "Lee",
		Type:          models.EmailTypeDailySummary,
		Summary:       &models.DailySummary{Date: "2026-03-02", TotalChecks: 12, UniqueStudents: 5, CriticalStudents: 1, ConcerningStudents: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "Daily Wellness Summary - 2026-03-02", subject)
	assert.Contains(t, html, "Critical: 1 checks")
	assert.Contains(t, text, "https://acadwell.example/wellness")

	_, _, _, err = service.compose(EmailRequest{Type: models.AlertTypeMonitor})
	assert.Error(t, err)
	_, _, _, err = service.compose(EmailRequest{Type: models.AlertTypeCritical})
	assert.Error(t, err)
}

func TestService_SendEmailNotConfigured(t *testing.T) {
	service := newTestService(&config.Config{}, &MockNotificationStore{})
	err := service.SendEmail(context.Background(), EmailRequest{To: "x@example.com"})
	assert.ErrorIs(t, err, ErrEmailNotConfigured)
}

func TestService_MirrorAlert(t *testing.T) {
	var received TeamsMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := newTestService(&config.Config{TeamsWebhookURL: server.URL}, &MockNotificationStore{})
	alert := models.AlertInstruction{
		RecipientRole: models.RoleTeacher,
		Priority:      models.PriorityUrgent,
		AlertType:     models.AlertTypeCritical,
		Title:         "CRITICAL: Wellness Alert for Ana",
		Message:       "Student Ana may need attention. Context: message",
		Payload: models.AlertPayload{
			StudentID:   "s1",
			StudentName: "Ana",
			Level:       models.LevelRed,
			Preview:     "I want to end my life",
			Link:        "http://localhost:3000/wellness/student/s1",
		},
	}

	require.NoError(t, service.MirrorAlert(context.Background(), alert))
	assert.Equal(t, "MessageCard", received.Type)
	assert.Equal(t, "dc2626", received.ThemeColor)
	assert.Equal(t, alert.Title, received.Title)
	require.Len(t, received.Sections, 2)
	assert.True(t, strings.Contains(received.Sections[1].ActivityText, alert.Payload.Link))
}

func TestService_MirrorAlertErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	service := newTestService(&config.Config{TeamsWebhookURL: server.URL}, &MockNotificationStore{})
	assert.Error(t, service.MirrorAlert(context.Background(), models.AlertInstruction{}))

	// no webhook configured is a no-op
	service = newTestService(&config.Config{}, &MockNotificationStore{})
	assert.NoError(t, service.MirrorAlert(context.Background(), models.AlertInstruction{}))
}
