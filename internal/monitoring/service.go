package monitoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/acadwell/wellness-bot/internal/alerting"
	"github.com/acadwell/wellness-bot/internal/analysis"
	"github.com/acadwell/wellness-bot/internal/config"
	"github.com/acadwell/wellness-bot/internal/encouragement"
	"github.com/acadwell/wellness-bot/internal/models"
	"github.com/acadwell/wellness-bot/internal/notifications"
	"github.com/acadwell/wellness-bot/internal/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	dispatchTimeout     = 2 * time.Minute
	dispatchConcurrency = 8
)

// Submission is one piece of user text to screen
type Submission struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name,omitempty"`
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
	Mood    string `json:"mood,omitempty"`
}

// Outcome is what a screening returns to the caller
type Outcome struct {
	Analysis      models.AnalysisResult     `json:"analysis"`
	Alerts        []models.AlertInstruction `json:"alerts"`
	Trend         models.Trend              `json:"trend"`
	Encouragement *models.Encouragement     `json:"encouragement,omitempty"`
}

// Dependencies are the collaborators a Service is built from
type Dependencies struct {
	Analyzer   *analysis.Analyzer
	Router     *alerting.Router
	History    storage.HistoryStore
	Dispatcher notifications.Dispatcher
	Inbox      notifications.Inbox
	Staff      StaffDirectory
	Metrics    *Metrics
}

// Service screens submissions and fans alerts out to staff
type Service struct {
	config     *config.Config
	analyzer   *analysis.Analyzer
	router     *alerting.Router
	history    storage.HistoryStore
	dispatcher notifications.Dispatcher
	inbox      notifications.Inbox
	staff      StaffDirectory
	metrics    *Metrics
	now        func() time.Time
	wg         sync.WaitGroup
}

// NewService creates a new monitoring service
func NewService(cfg *config.Config, deps Dependencies) (*Service, error) {
	if deps.Router == nil || deps.History == nil || deps.Dispatcher == nil || deps.Staff == nil {
		return nil, fmt.Errorf("router, history, dispatcher and staff directory are required")
	}
	if deps.Analyzer == nil {
		deps.Analyzer = analysis.NewAnalyzer(nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}

	return &Service{
		config:     cfg,
		analyzer:   deps.Analyzer,
		router:     deps.Router,
		history:    deps.History,
		dispatcher: deps.Dispatcher,
		inbox:      deps.Inbox,
		staff:      deps.Staff,
		metrics:    deps.Metrics,
		now:        time.Now,
	}, nil
}

// SetClock replaces the service's time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Metrics returns the service's Prometheus collectors
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

// Screen analyzes a submission, records it, routes alerts and queues
// delivery. Storage and delivery failures are logged; only a missing user
// id is an error.
func (s *Service) Screen(ctx context.Context, sub Submission) (*Outcome, error) {
	if sub.UserID == "" {
		return nil, fmt.Errorf("submission has no user id")
	}

	start := s.now()
	result := s.analyzer.Analyze(sub.Text, sub.Context)
	result.UserID = sub.UserID
	result.CreatedAt = start.UTC()
	s.metrics.Screenings.WithLabelValues(string(result.Level)).Inc()

	prior, err := s.history.History(ctx, sub.UserID, start.Add(-s.config.HistoryWindow()))
	if err != nil {
		logrus.Warnf("Failed to load history for %s: %v", sub.UserID, err)
		prior = nil
	}
	s.checkPatterns(sub.UserID, prior, result)

	if err := s.history.Append(ctx, result); err != nil {
		logrus.Errorf("Failed to store analysis for %s: %v", sub.UserID, err)
	}

	outcome := &Outcome{
		Analysis: result,
		Trend:    analysis.Trend(append(append([]models.AnalysisResult(nil), prior...), result)),
		Alerts:   []models.AlertInstruction{},
	}

	alerts, err := s.router.Route(ctx, alerting.Subject{UserID: sub.UserID, Name: sub.Name, Text: sub.Text}, result)
	if err != nil {
		logrus.Errorf("Failed to route alerts for %s: %v", sub.UserID, err)
	}
	if len(alerts) > 0 {
		outcome.Alerts = alerts
		for _, a := range alerts {
			s.metrics.Alerts.WithLabelValues(string(result.Level), string(a.RecipientRole)).Inc()
		}
	} else if err == nil && result.Level != models.LevelGreen {
		s.metrics.Throttled.WithLabelValues(string(result.Level)).Inc()
	}

	var cheer *models.Notification
	if s.config.EnableEncouragement {
		e := encouragement.Encourage(result.Level, sub.Mood)
		outcome.Encouragement = &e
		cheer = &models.Notification{
			RecipientID: sub.UserID,
			Type:        models.NotificationTypeCheer,
			Priority:    models.PriorityNormal,
			Title:       e.Title,
			Message:     e.Message,
			Tips:        e.Tips,
			Level:       result.Level,
		}
	}

	s.dispatch(alerts, cheer)

	s.metrics.ScreeningDuration.Observe(s.now().Sub(start).Seconds())
	logrus.Infof("Screened text from %s: level=%s score=%.2f alerts=%d", sub.UserID, result.Level, result.Score, len(alerts))
	return outcome, nil
}

// Wait blocks until every queued dispatch has finished
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) checkPatterns(userID string, prior []models.AnalysisResult, result models.AnalysisResult) {
	if finding, ok := analysis.DetectSuddenChange(prior, result.Score); ok {
		s.metrics.Patterns.WithLabelValues(finding.Type).Inc()
		logrus.WithFields(logrus.Fields{
			"user":             userID,
			"pattern":          finding.Type,
			"difference":       finding.Difference,
			"previous_average": finding.PreviousAverage,
		}).Warn("Sudden wellness change detected")
	}

	all := append(append([]models.AnalysisResult(nil), prior...), result)
	if finding, ok := analysis.DetectProlongedDistress(all, result.CreatedAt); ok {
		s.metrics.Patterns.WithLabelValues(finding.Type).Inc()
		logrus.WithFields(logrus.Fields{
			"user":              userID,
			"pattern":           finding.Type,
			"concerning_checks": finding.ConcerningCount,
			"total_checks":      finding.TotalChecks,
		}).Warn("Prolonged distress detected")
	}

	if finding, ok := analysis.DetectIsolation(analysis.WeeklyActivity(all, result.CreatedAt)); ok {
		s.metrics.Patterns.WithLabelValues(finding.Type).Inc()
		logrus.WithFields(logrus.Fields{
			"user":            userID,
			"pattern":         finding.Type,
			"previous_week":   finding.PreviousCount,
			"recent_week":     finding.CurrentCount,
			"community_posts": finding.CommunityPosts,
		}).Warn("Reduced communication detected")
	}
}

// dispatch delivers alerts and the encouragement note in the background
func (s *Service) dispatch(alerts []models.AlertInstruction, cheer *models.Notification) {
	if len(alerts) == 0 && cheer == nil {
		return
	}

	s.wg.Add(1)
	s.metrics.PendingDispatch.Inc()
	go func() {
		defer s.wg.Done()
		defer s.metrics.PendingDispatch.Dec()

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		var g errgroup.Group
		g.SetLimit(dispatchConcurrency)

		if len(alerts) > 0 && alerts[0].Priority == models.PriorityUrgent {
			alert := alerts[0]
			g.Go(func() error {
				err := s.dispatcher.MirrorAlert(ctx, alert)
				s.metrics.delivery("teams", err)
				if err != nil {
					logrus.Errorf("Failed to mirror alert to Teams: %v", err)
				}
				return nil
			})
		}

		// A person listed under several roles hears about a result once
		notified := make(map[string]bool)
		emailed := make(map[string]bool)
		for _, alert := range alerts {
			members := s.staff.ByRole(alert.RecipientRole)
			if len(members) == 0 {
				logrus.Warnf("No staff configured for role %s, %s not delivered", alert.RecipientRole, alert.AlertType)
				continue
			}
			for _, member := range members {
				inApp := alert.HasChannel(models.ChannelInApp) && !notified[member.ID]
				address := strings.ToLower(strings.TrimSpace(member.Email))
				email := alert.HasChannel(models.ChannelEmail) && address != "" && !emailed[address]
				if inApp {
					notified[member.ID] = true
				}
				if email {
					emailed[address] = true
				}
				if !inApp && !email {
					logrus.Debugf("Skipping duplicate %s for %s", alert.AlertType, member.ID)
					continue
				}
				g.Go(func() error {
					s.deliver(ctx, alert, member, inApp, email)
					return nil
				})
			}
		}

		if cheer != nil {
			g.Go(func() error {
				_, err := s.dispatcher.CreateInApp(ctx, *cheer)
				s.metrics.delivery(string(models.ChannelInApp), err)
				if err != nil {
					logrus.Errorf("Failed to send encouragement to %s: %v", cheer.RecipientID, err)
				}
				return nil
			})
		}

		_ = g.Wait()
	}()
}

func (s *Service) deliver(ctx context.Context, alert models.AlertInstruction, member models.StaffMember, inApp, email bool) {
	log := logrus.WithFields(logrus.Fields{
		"user":      alert.Payload.StudentID,
		"role":      alert.RecipientRole,
		"recipient": member.ID,
	})

	if inApp {
		_, err := s.dispatcher.CreateInApp(ctx, models.Notification{
			RecipientID:    member.ID,
			RecipientEmail: member.Email,
			Type:           alert.AlertType,
			Priority:       alert.Priority,
			Title:          alert.Title,
			Message:        alert.Message,
			RelatedID:      alert.Payload.StudentID,
			StudentID:      alert.Payload.StudentID,
			StudentName:    alert.Payload.StudentName,
			Level:          alert.Payload.Level,
			Preview:        alert.Payload.Preview,
			Link:           alert.Payload.Link,
		})
		s.metrics.delivery(string(models.ChannelInApp), err)
		if err != nil {
			log.Errorf("Failed to create in-app alert: %v", err)
		}
	}

	if email {
		payload := alert.Payload
		err := s.dispatcher.SendEmail(ctx, notifications.EmailRequest{
			To:            member.Email,
			RecipientName: member.Name,
			Type:          alert.AlertType,
			Alert:         &payload,
		})
		switch {
		case errors.Is(err, notifications.ErrEmailNotConfigured):
			log.Debug("Email not configured, skipping alert email")
		case err != nil:
			s.metrics.delivery(string(models.ChannelEmail), err)
			log.Errorf("Failed to email alert: %v", err)
		default:
			s.metrics.delivery(string(models.ChannelEmail), nil)
		}
	}
}

// RunDailySummary builds today's cross-student summary and emails it to
// teachers and counselors. It returns nil when there were no checks today.
func (s *Service) RunDailySummary(ctx context.Context) (*models.DailySummary, error) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	results, err := s.history.Since(ctx, dayStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load today's history: %w", err)
	}
	if len(results) == 0 {
		logrus.Info("No wellness checks today, skipping daily summary")
		return nil, nil
	}

	summary := analysis.BuildDailySummary(dayStart, results)
	logrus.Infof("Daily summary %s: %d checks, %d students, %d critical", summary.Date, summary.TotalChecks, summary.UniqueStudents, summary.CriticalStudents)

	var errs []string
	for _, role := range []models.Role{models.RoleTeacher, models.RoleCounselor} {
		for _, member := range s.staff.ByRole(role) {
			if member.Email == "" {
				continue
			}
			err := s.dispatcher.SendEmail(ctx, notifications.EmailRequest{
				To:            member.Email,
				RecipientName: member.Name,
				Type:          models.EmailTypeDailySummary,
				Summary:       &summary,
			})
			if errors.Is(err, notifications.ErrEmailNotConfigured) {
				logrus.Debug("Email not configured, daily summary not sent")
				return &summary, nil
			}
			s.metrics.delivery(string(models.ChannelEmail), err)
			if err != nil {
				logrus.Errorf("Failed to send daily summary to %s: %v", member.Email, err)
				errs = append(errs, fmt.Sprintf("%s: %v", member.Email, err))
			}
		}
	}

	if len(errs) > 0 {
		return &summary, fmt.Errorf("daily summary errors: %s", strings.Join(errs, "; "))
	}
	return &summary, nil
}

// RunCleanup removes read notifications past the retention period
func (s *Service) RunCleanup(ctx context.Context) error {
	if s.inbox == nil {
		return nil
	}
	_, err := s.inbox.Cleanup(ctx, s.config.NotificationRetention())
	return err
}

// UserSummary aggregates a user's results inside the history window
func (s *Service) UserSummary(ctx context.Context, userID string) (models.Summary, error) {
	history, err := s.userHistory(ctx, userID)
	if err != nil {
		return models.Summary{}, err
	}
	return analysis.Summarize(history), nil
}

// UserTrend characterizes a user's direction inside the history window
func (s *Service) UserTrend(ctx context.Context, userID string) (models.Trend, error) {
	history, err := s.userHistory(ctx, userID)
	if err != nil {
		return models.Trend{}, err
	}
	return analysis.Trend(history), nil
}

// UserHistory returns a user's results, newest first
func (s *Service) UserHistory(ctx context.Context, userID string) ([]models.AnalysisResult, error) {
	history, err := s.userHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	return analysis.SortDescending(history), nil
}

func (s *Service) userHistory(ctx context.Context, userID string) ([]models.AnalysisResult, error) {
	history, err := s.history.History(ctx, userID, s.now().Add(-s.config.HistoryWindow()))
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", userID, err)
	}
	return history, nil
}
