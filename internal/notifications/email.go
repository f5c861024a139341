package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/acadwell/wellness-bot/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

const alertEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Student Wellness Alert</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .preview { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; border-left: 4px solid {{.Color}}; }
        .button { background: {{.Color}}; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block; }
    </style>
</head>
<body>
    <h2 style="color: {{.Color}};">{{.LevelText}}: Student Wellness Alert</h2>
    <p>Hello {{.RecipientName}},</p>
    <p>Our monitoring system flagged content from <strong>{{.Alert.StudentName}}</strong> ({{.Alert.Context}}) that may need your attention.</p>
    {{if .Alert.Preview}}
    <div class="preview">{{.Alert.Preview}}</div>
    {{end}}
    {{if .Alert.Link}}
    <p><a class="button" href="{{.Alert.Link}}" target="_blank">View Student Wellness</a></p>
    {{end}}
    <hr>
    <p style="color: #666; font-size: 12px;">AcadWell Wellness Monitoring System</p>
</body>
</html>
`

const summaryEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Daily Wellness Summary</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #3b82f6; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Daily Wellness Summary</h1>
        <p>{{.Summary.Date}}</p>
    </div>
    <p>Hello {{.RecipientName}},</p>
    <div class="summary">
        <p><strong style="color: #dc2626;">Critical: {{.Summary.CriticalStudents}} checks</strong></p>
        <p><strong style="color: #ea580c;">Concerning: {{.Summary.ConcerningStudents}} checks</strong></p>
        <p><strong style="color: #3b82f6;">Total Students Monitored: {{.Summary.UniqueStudents}}</strong></p>
        <p>Total wellness checks: {{.Summary.TotalChecks}}</p>
    </div>
    {{if .Link}}
    <p><a href="{{.Link}}" target="_blank">Open the wellness dashboard</a></p>
    {{end}}
    <hr>
    <p style="color: #666; font-size: 12px;">AcadWell Wellness Monitoring System</p>
</body>
</html>
`

var (
	alertEmail   = template.Must(template.New("alert").Parse(alertEmailTemplate))
	summaryEmail = template.Must(template.New("summary").Parse(summaryEmailTemplate))
)

// SendEmail renders and sends the email described by req
func (s *Service) SendEmail(ctx context.Context, req EmailRequest) error {
	if s.sender == nil {
		return ErrEmailNotConfigured
	}
	if req.To == "" {
		return fmt.Errorf("email request has no recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, htmlBody, textBody, err := s.compose(req)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.EmailFrom)
	m.SetHeader("To", req.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logrus.Infof("Sent %s email to %s", req.Type, req.To)
	return nil
}

func (s *Service) compose(req EmailRequest) (subject, htmlBody, textBody string, err error) {
	name := req.RecipientName
	if name == "" {
		name = "there"
	}

	switch req.Type {
	case models.AlertTypeCritical, models.AlertTypeHighConcern:
		if req.Alert == nil {
			return "", "", "", fmt.Errorf("%s email needs an alert payload", req.Type)
		}
		levelText := levelLabel(req.Alert.Level)
		subject = fmt.Sprintf("%s: Wellness Alert for %s", levelText, req.Alert.StudentName)
		htmlBody, err = render(alertEmail, map[string]interface{}{
			"RecipientName": name,
			"LevelText":     levelText,
			"Color":         template.CSS(levelColor(req.Alert.Level)),
			"Alert":         req.Alert,
		})
		textBody = alertText(name, levelText, req.Alert)

	case models.EmailTypeDailySummary:
		if req.Summary == nil {
			return "", "", "", fmt.Errorf("daily summary email needs a summary")
		}
		subject = fmt.Sprintf("Daily Wellness Summary - %s", req.Summary.Date)
		link := strings.TrimRight(s.config.DashboardBaseURL, "/") + "/wellness"
		htmlBody, err = render(summaryEmail, map[string]interface{}{
			"RecipientName": name,
			"Summary":       req.Summary,
			"Link":          link,
		})
		textBody = summaryText(name, req.Summary, link)

	default:
		return "", "", "", fmt.Errorf("unsupported email type %q", req.Type)
	}

	if err != nil {
		return "", "", "", fmt.Errorf("failed to build email HTML: %w", err)
	}
	return subject, htmlBody, textBody, nil
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func alertText(name, levelText string, p *models.AlertPayload) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("%s: Student Wellness Alert\n\n", levelText))
	text.WriteString(fmt.Sprintf("Hello %s,\n\n", name))
	text.WriteString(fmt.Sprintf("Content from %s (%s) may need your attention.\n", p.StudentName, p.Context))
	if p.Preview != "" {
		text.WriteString(fmt.Sprintf("\nPreview: %s\n", p.Preview))
	}
	if p.Link != "" {
		text.WriteString(fmt.Sprintf("\nView: %s\n", p.Link))
	}
	text.WriteString("\n---\nAcadWell Wellness Monitoring System\n")

	return text.String()
}

func summaryText(name string, sum *models.DailySummary, link string) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Daily Wellness Summary - %s\n\n", sum.Date))
	text.WriteString(fmt.Sprintf("Hello %s,\n\n", name))
	text.WriteString(fmt.Sprintf("Critical: %d checks\n", sum.CriticalStudents))
	text.WriteString(fmt.Sprintf("Concerning: %d checks\n", sum.ConcerningStudents))
	text.WriteString(fmt.Sprintf("Total Students Monitored: %d\n", sum.UniqueStudents))
	text.WriteString(fmt.Sprintf("Total wellness checks: %d\n", sum.TotalChecks))
	text.WriteString(fmt.Sprintf("\nDashboard: %s\n", link))
	text.WriteString("\n---\nAcadWell Wellness Monitoring System\n")

	return text.String()
}

func levelLabel(level models.Level) string {
	if level == models.LevelRed {
		return "CRITICAL"
	}
	return "HIGH CONCERN"
}

func levelColor(level models.Level) string {
	switch level {
	case models.LevelRed:
		return "#dc2626"
	case models.LevelOrange:
		return "#ea580c"
	case models.LevelYellow:
		return "#ca8a04"
	default:
		return "#16a34a"
	}
}
