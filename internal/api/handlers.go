package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/acadwell/wellness-bot/internal/models"
	"github.com/acadwell/wellness-bot/internal/monitoring"
	"github.com/acadwell/wellness-bot/internal/notifications"
	"github.com/acadwell/wellness-bot/internal/storage"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	maxBodyBytes      = 64 << 10
	defaultInboxLimit = 10
	maximumInboxLimit = 100
)

// Screener is the screening side of the monitoring service
type Screener interface {
	Screen(ctx context.Context, sub monitoring.Submission) (*monitoring.Outcome, error)
	UserSummary(ctx context.Context, userID string) (models.Summary, error)
	UserTrend(ctx context.Context, userID string) (models.Trend, error)
	UserHistory(ctx context.Context, userID string) ([]models.AnalysisResult, error)
}

// Server exposes the screening engine over HTTP
type Server struct {
	screener Screener
	inbox    notifications.Inbox
	metrics  http.Handler
}

// NewServer creates the HTTP layer. metrics may be nil.
func NewServer(screener Screener, inbox notifications.Inbox, metrics http.Handler) *Server {
	return &Server{screener: screener, inbox: inbox, metrics: metrics}
}

// Router builds the mux router with every endpoint registered
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	if s.metrics != nil {
		router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	router.HandleFunc("/analyze", s.analyze).Methods(http.MethodPost)
	router.HandleFunc("/users/{id}/summary", s.summary).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}/trend", s.trend).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}/history", s.history).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}/notifications", s.notifications).Methods(http.MethodGet)
	router.HandleFunc("/notifications/{id}/read", s.markRead).Methods(http.MethodPost)

	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var sub monitoring.Submission
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if sub.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	outcome, err := s.screener.Screen(r.Context(), sub)
	if err != nil {
		logrus.Errorf("Screening failed for %s: %v", sub.UserID, err)
		writeError(w, http.StatusInternalServerError, "screening failed")
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	summary, err := s.screener.UserSummary(r.Context(), userID)
	if err != nil {
		logrus.Errorf("Summary failed for %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) trend(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	trend, err := s.screener.UserTrend(r.Context(), userID)
	if err != nil {
		logrus.Errorf("Trend failed for %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load trend")
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	history, err := s.screener.UserHistory(r.Context(), userID)
	if err != nil {
		logrus.Errorf("History failed for %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if history == nil {
		history = []models.AnalysisResult{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

func (s *Server) notifications(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	limit := defaultInboxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > maximumInboxLimit {
			parsed = maximumInboxLimit
		}
		limit = parsed
	}
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	list, err := s.inbox.List(r.Context(), userID, limit, unreadOnly)
	if err != nil {
		logrus.Errorf("Listing notifications failed for %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load notifications")
		return
	}
	unread, err := s.inbox.UnreadCount(r.Context(), userID)
	if err != nil {
		logrus.Errorf("Counting notifications failed for %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load notifications")
		return
	}
	if list == nil {
		list = []models.Notification{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": list,
		"unread_count":  unread,
	})
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	notificationID := mux.Vars(r)["id"]
	recipientID := r.URL.Query().Get("recipient_id")
	if recipientID == "" {
		writeError(w, http.StatusBadRequest, "recipient_id is required")
		return
	}

	err := s.inbox.MarkRead(r.Context(), notificationID, recipientID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "notification not found")
	case err != nil:
		logrus.Errorf("Marking notification %s read failed: %v", notificationID, err)
		writeError(w, http.StatusInternalServerError, "failed to update notification")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
