package alerting

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/acadwell/wellness-bot/internal/analysis"
	"github.com/acadwell/wellness-bot/internal/models"
	"github.com/acadwell/wellness-bot/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockThrottleStore is a mock implementation of storage.ThrottleStore
type MockThrottleStore struct {
	mock.Mock
}

func (m *MockThrottleStore) Claim(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, now, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockThrottleStore) LastSent(ctx context.Context, key string) (time.Time, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRouter(t *testing.T, store storage.ThrottleStore) (*Router, *testClock) {
	t.Helper()
	router, err := NewRouter(store, DefaultConfig())
	require.NoError(t, err)
	clock := &testClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	router.SetClock(clock.Now)
	return router, clock
}

func TestRouter_RedScenario(t *testing.T) {
	router, _ := newTestRouter(t, storage.NewMemoryThrottleStore())
	analyzer := analysis.NewAnalyzer(nil)

	text := "I want to end my life"
	result := analyzer.Analyze(text, "message")
	require.Equal(t, models.LevelRed, result.Level)

	alerts, err := router.Route(context.Background(), Subject{UserID: "s1", Name: "Ana", Text: text}, result)
	require.NoError(t, err)
	require.Len(t, alerts, 3)

	roles := make([]models.Role, 0, len(alerts))
	for _, a := range alerts {
		roles = append(roles, a.RecipientRole)
		assert.Equal(t, models.PriorityUrgent, a.Priority)
		assert.Equal(t, models.AlertTypeCritical, a.AlertType)
		assert.Equal(t, "CRITICAL: Wellness Alert for Ana", a.Title)
		assert.Equal(t, "Student Ana may need attention. Context: message", a.Message)
		assert.Equal(t, text, a.Payload.Preview)
		assert.Equal(t, "http://localhost:3000/wellness/student/s1", a.Payload.Link)
		assert.True(t, a.HasChannel(models.ChannelInApp))
		assert.True(t, a.HasChannel(models.ChannelEmail))
	}
	assert.Equal(t, []models.Role{models.RoleTeacher, models.RoleCounselor, models.RoleAdmin}, roles)
}

func TestRouter_FanOut(t *testing.T) {
	tests := []struct {
		name      string
		level     models.Level
		roles     []models.Role
		priority  models.Priority
		alertType string
		email     bool
	}{
		{
			name:      "orange goes to counselors and admins",
			level:     models.LevelOrange,
			roles:     []models.Role{models.RoleCounselor, models.RoleAdmin},
			priority:  models.PriorityHigh,
			alertType: models.AlertTypeHighConcern,
			email:     true,
		},
		{
			name:      "yellow goes to admins in-app only",
			level:     models.LevelYellow,
			roles:     []models.Role{models.RoleAdmin},
			priority:  models.PriorityNormal,
			alertType: models.AlertTypeMonitor,
			email:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, storage.NewMemoryThrottleStore())
			alerts, err := router.Route(context.Background(), Subject{UserID: "s1"}, models.AnalysisResult{Level: tt.level})
			require.NoError(t, err)
			require.Len(t, alerts, len(tt.roles))

			for i, a := range alerts {
				assert.Equal(t, tt.roles[i], a.RecipientRole)
				assert.Equal(t, tt.priority, a.Priority)
				assert.Equal(t, tt.alertType, a.AlertType)
				assert.Equal(t, tt.email, a.HasChannel(models.ChannelEmail))
				assert.Equal(t, "Unknown Student", a.Payload.StudentName)
				assert.Equal(t, "unknown", a.Payload.Context)
			}
		})
	}
}

func TestRouter_GreenProducesNothing(t *testing.T) {
	store := &MockThrottleStore{}
	router, _ := newTestRouter(t, store)

	result := analysis.NewAnalyzer(nil).Analyze("feeling great and grateful today", "mood")
	require.Equal(t, models.LevelGreen, result.Level)
	require.Equal(t, models.SentimentPositive, result.Sentiment)

	alerts, err := router.Route(context.Background(), Subject{UserID: "s1"}, result)
	require.NoError(t, err)
	assert.Empty(t, alerts)
	store.AssertNumberOfCalls(t, "Claim", 0)
}

func TestRouter_ThrottlesRepeatedAlerts(t *testing.T) {
	router, clock := newTestRouter(t, storage.NewMemoryThrottleStore())
	ctx := context.Background()
	subject := Subject{UserID: "s1", Name: "Ana"}
	red := models.AnalysisResult{Level: models.LevelRed}

	alerts, err := router.Route(ctx, subject, red)
	require.NoError(t, err)
	assert.Len(t, alerts, 3)

	clock.Advance(30 * time.Minute)
	alerts, err = router.Route(ctx, subject, red)
	require.NoError(t, err)
	assert.Empty(t, alerts, "second red alert inside 2h is suppressed")

	// each level keeps its own cooldown
	alerts, err = router.Route(ctx, subject, models.AnalysisResult{Level: models.LevelOrange})
	require.NoError(t, err)
	assert.Len(t, alerts, 2)

	// other users are unaffected
	alerts, err = router.Route(ctx, Subject{UserID: "s2"}, red)
	require.NoError(t, err)
	assert.Len(t, alerts, 3)

	clock.Advance(90 * time.Minute)
	alerts, err = router.Route(ctx, subject, red)
	require.NoError(t, err)
	assert.Len(t, alerts, 3, "cooldown elapsed")
}

func TestRouter_EmailAntiSpam(t *testing.T) {
	router, clock := newTestRouter(t, storage.NewMemoryThrottleStore())
	ctx := context.Background()

	alerts, err := router.Route(ctx, Subject{UserID: "s1"}, models.AnalysisResult{Level: models.LevelOrange})
	require.NoError(t, err)
	for _, a := range alerts {
		assert.True(t, a.HasChannel(models.ChannelEmail))
	}

	// a second student's orange alert for the same roles inside 2h goes in-app only
	clock.Advance(time.Hour)
	alerts, err = router.Route(ctx, Subject{UserID: "s2"}, models.AnalysisResult{Level: models.LevelOrange})
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	for _, a := range alerts {
		assert.Equal(t, []models.Channel{models.ChannelInApp}, a.Channels)
	}

	clock.Advance(time.Hour)
	alerts, err = router.Route(ctx, Subject{UserID: "s3"}, models.AnalysisResult{Level: models.LevelOrange})
	require.NoError(t, err)
	for _, a := range alerts {
		assert.True(t, a.HasChannel(models.ChannelEmail))
	}
}

func TestRouter_ThrottleFailure(t *testing.T) {
	storeErr := errors.New("redis unavailable")

	t.Run("orange fails open and keeps email", func(t *testing.T) {
		store := &MockThrottleStore{}
		store.On("Claim", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, storeErr)
		router, _ := newTestRouter(t, store)

		alerts, err := router.Route(context.Background(), Subject{UserID: "s1"}, models.AnalysisResult{Level: models.LevelOrange})
		require.NoError(t, err)
		require.Len(t, alerts, 2)
		for _, a := range alerts {
			assert.True(t, a.HasChannel(models.ChannelEmail))
		}
	})

	t.Run("red fails open", func(t *testing.T) {
		store := &MockThrottleStore{}
		store.On("Claim", mock.Anything, "alert:s1:red", mock.Anything, 2*time.Hour).Return(false, storeErr)
		store.On("Claim", mock.Anything, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "email:")
		}), mock.Anything, 2*time.Hour).Return(true, nil)
		router, _ := newTestRouter(t, store)

		alerts, err := router.Route(context.Background(), Subject{UserID: "s1"}, models.AnalysisResult{Level: models.LevelRed})
		require.NoError(t, err)
		assert.Len(t, alerts, 3)
		store.AssertNumberOfCalls(t, "Claim", 4)
	})

	t.Run("yellow suppresses", func(t *testing.T) {
		store := &MockThrottleStore{}
		store.On("Claim", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, storeErr)
		router, _ := newTestRouter(t, store)

		alerts, err := router.Route(context.Background(), Subject{UserID: "s1"}, models.AnalysisResult{Level: models.LevelYellow})
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})
}

func TestRouter_RequiresUser(t *testing.T) {
	router, _ := newTestRouter(t, storage.NewMemoryThrottleStore())
	_, err := router.Route(context.Background(), Subject{}, models.AnalysisResult{Level: models.LevelRed})
	assert.Error(t, err)
}

func TestRouter_RejectsUnknownLevel(t *testing.T) {
	store := &MockThrottleStore{}
	router, _ := newTestRouter(t, store)

	alerts, err := router.Route(context.Background(), Subject{UserID: "s1"}, models.AnalysisResult{Level: "purple"})
	assert.Error(t, err)
	assert.Nil(t, alerts)
	store.AssertNumberOfCalls(t, "Claim", 0)
}

func TestRouter_ConcurrentRoutesAlertOnce(t *testing.T) {
	router, _ := newTestRouter(t, storage.NewMemoryThrottleStore())
	result := models.AnalysisResult{Level: models.LevelRed, Score: 90}

	const workers = 50
	var wg sync.WaitGroup
	routed := make([]int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			alerts, err := router.Route(context.Background(), Subject{UserID: "s1", Name: "Ana"}, result)
			assert.NoError(t, err)
			routed[i] = len(alerts)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, n := range routed {
		if n > 0 {
			winners++
			assert.Equal(t, 3, n)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("é", 250)
	assert.Equal(t, 200, len([]rune(Preview(long, PreviewLength))))
	assert.Equal(t, "short", Preview("  short \n", PreviewLength))
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Windows = map[models.Level]time.Duration{
		models.LevelRed:    8 * time.Hour,
		models.LevelOrange: 6 * time.Hour,
		models.LevelYellow: 24 * time.Hour,
	}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	delete(cfg.Windows, models.LevelYellow)
	assert.Error(t, cfg.Validate())

	_, err := NewRouter(nil, DefaultConfig())
	assert.Error(t, err)
}

func TestRouter_LinkEscapesUser(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DashboardBaseURL = "https://acadwell.example/"
	router, err := NewRouter(storage.NewMemoryThrottleStore(), cfg)
	require.NoError(t, err)

	alerts, err := router.Route(context.Background(), Subject{UserID: "a b"}, models.AnalysisResult{Level: models.LevelYellow})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "https://acadwell.example/wellness/student/a%20b", alerts[0].Payload.Link)
}
