package models

import "time"

// Role identifies a staff audience for alerts
type Role string

const (
	RoleTeacher   Role = "teacher"
	RoleCounselor Role = "counselor"
	RoleAdmin     Role = "admin"
)

// Priority is the urgency attached to an alert or notification
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

// Channel is a delivery path for an alert
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
)

// Alert and notification types
const (
	AlertTypeCritical     = "critical_wellness_alert"
	AlertTypeHighConcern  = "high_concern_alert"
	AlertTypeMonitor      = "monitor_alert"
	NotificationTypeCheer = "wellness_encouragement"
	EmailTypeDailySummary = "daily_wellness_summary"
)

// AlertPayload carries what staff need to act on an alert
type AlertPayload struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Level       Level  `json:"level"`
	Preview     string `json:"preview"`
	Context     string `json:"context"`
	Link        string `json:"link"`
}

// AlertInstruction is a routed, role-scoped notification request
type AlertInstruction struct {
	RecipientRole Role         `json:"recipient_role"`
	Priority      Priority     `json:"priority"`
	Channels      []Channel    `json:"channels"`
	AlertType     string       `json:"alert_type"`
	Title         string       `json:"title"`
	Message       string       `json:"message"`
	Payload       AlertPayload `json:"payload"`
}

// HasChannel reports whether the instruction requests delivery on c
func (a AlertInstruction) HasChannel(c Channel) bool {
	for _, ch := range a.Channels {
		if ch == c {
			return true
		}
	}
	return false
}

// StaffMember is a recipient resolved from a role
type StaffMember struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Notification is an in-app notification record
type Notification struct {
	ID             string    `json:"notification_id"`
	RecipientID    string    `json:"recipient_id"`
	RecipientEmail string    `json:"-"`
	Type           string    `json:"type"`
	Priority       Priority  `json:"priority"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Tips           []string  `json:"tips,omitempty"`
	RelatedID      string    `json:"related_id,omitempty"`
	StudentID      string    `json:"student_id,omitempty"`
	StudentName    string    `json:"student_name,omitempty"`
	Level          Level     `json:"level,omitempty"`
	Preview        string    `json:"preview,omitempty"`
	Link           string    `json:"link,omitempty"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"timestamp"`
}
