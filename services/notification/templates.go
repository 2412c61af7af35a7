package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// SessionDurationMinutes is the advertised length of a counselling session.
const SessionDurationMinutes = 45

const (
	kindConfirmation = "confirmation"
	kindReminder     = "reminder"
)

type emailData struct {
	AppName         string
	Heading         string
	CounterpartRole string
	CounterpartName string
	DateLabel       string
	TimeLabel       string
	Timezone        string
	Duration        int
	SessionType     string
	Topic           string
	Online          bool
	JoinLink        string
	Location        string
	ManageLink      string
	SupportEmail    string
}

var subjectTemplates = map[string]map[string]*texttemplate.Template{
	kindConfirmation: {
		RecipientStudent:   mustText("confirm-student-subject", `Session confirmed: {{.DateLabel}} at {{.TimeLabel}}`),
		RecipientTherapist: mustText("confirm-therapist-subject", `New session confirmed with {{.CounterpartName}}: {{.DateLabel}} at {{.TimeLabel}}`),
	},
	kindReminder: {
		RecipientStudent:   mustText("remind-student-subject", `Reminder: your session on {{.DateLabel}} at {{.TimeLabel}}`),
		RecipientTherapist: mustText("remind-therapist-subject", `Reminder: session with {{.CounterpartName}} on {{.DateLabel}} at {{.TimeLabel}}`),
	},
}

var textBody = mustText("body-text", `{{.Heading}}

Date: {{.DateLabel}}
Time: {{.TimeLabel}} ({{.Timezone}})
Duration: {{.Duration}} minutes
Session type: {{.SessionType}}
Topic: {{.Topic}}
{{if .Online}}Join link: {{if .JoinLink}}{{.JoinLink}}{{else}}will be shared before the session{{end}}{{else}}Location: {{if .Location}}{{.Location}}{{else}}Location TBA{{end}}{{end}}
{{.CounterpartRole}}: {{.CounterpartName}}
{{if .ManageLink}}
Manage booking: {{.ManageLink}}
{{end}}
Questions? Write to {{.SupportEmail}}.
`)

var htmlBody = htmltemplate.Must(htmltemplate.New("body-html").Option("missingkey=error").Parse(`<!doctype html>
<html>
  <body style="font-family:Arial,Helvetica,sans-serif;color:#111827;">
    <h2>{{.Heading}}</h2>
    <table>
      <tr><td><strong>Date:</strong></td><td>{{.DateLabel}}</td></tr>
      <tr><td><strong>Time:</strong></td><td>{{.TimeLabel}} <span style="color:#6b7280;">({{.Timezone}})</span></td></tr>
      <tr><td><strong>Duration:</strong></td><td>{{.Duration}} minutes</td></tr>
      <tr><td><strong>Session type:</strong></td><td>{{.SessionType}}</td></tr>
      <tr><td><strong>Topic:</strong></td><td>{{.Topic}}</td></tr>
      {{if .Online}}
      <tr><td><strong>Online:</strong></td><td>{{if .JoinLink}}<a href="{{.JoinLink}}">Join link</a>{{else}}Link will be shared before the session{{end}}</td></tr>
      {{else}}
      <tr><td><strong>Location:</strong></td><td>{{if .Location}}{{.Location}}{{else}}Location TBA{{end}}</td></tr>
      {{end}}
      <tr><td><strong>{{.CounterpartRole}}:</strong></td><td>{{.CounterpartName}}</td></tr>
    </table>
    {{if and .Online .JoinLink}}<p><a href="{{.JoinLink}}" style="padding:12px 18px;background:#3B82F6;color:#ffffff;text-decoration:none;">Join Session</a></p>{{end}}
    {{if .ManageLink}}<p><a href="{{.ManageLink}}">Manage booking</a></p>{{end}}
    <p style="color:#6b7280;">Questions? Write to <a href="mailto:{{.SupportEmail}}">{{.SupportEmail}}</a>.</p>
  </body>
</html>
`))

func mustText(name, body string) *texttemplate.Template {
	return texttemplate.Must(texttemplate.New(name).Option("missingkey=error").Parse(body))
}

// buildEmail renders the subject, text and HTML parts for one recipient.
func buildEmail(kind, role string, n BookingNotice, appName, supportEmail string) (EmailMessage, error) {
	data := emailData{
		AppName:      appName,
		DateLabel:    n.DateLabel,
		TimeLabel:    n.TimeLabel,
		Timezone:     orDefault(n.Timezone, "UTC"),
		Duration:     SessionDurationMinutes,
		SessionType:  n.SessionType,
		Topic:        orDefault(n.Topic, "General"),
		Online:       n.Online,
		JoinLink:     n.JoinLink,
		Location:     n.Location,
		ManageLink:   n.ManageLink,
		SupportEmail: supportEmail,
	}

	msg := EmailMessage{}
	switch role {
	case RecipientTherapist:
		data.CounterpartRole = "Client"
		data.CounterpartName = orDefault(n.StudentName, "Student")
		msg.To, msg.ToName = n.TherapistEmail, n.TherapistName
	default:
		data.CounterpartRole = "Therapist"
		data.CounterpartName = orDefault(n.TherapistName, "Therapist")
		msg.To, msg.ToName = n.StudentEmail, n.StudentName
	}
	if kind == kindReminder {
		data.Heading = "Your session starts soon"
	} else {
		data.Heading = "Your session is confirmed"
	}

	subjects, ok := subjectTemplates[kind]
	if !ok {
		return EmailMessage{}, fmt.Errorf("notification: unknown email kind %q", kind)
	}
	var err error
	if msg.Subject, err = render(subjects[role], data); err != nil {
		return EmailMessage{}, err
	}
	if msg.Body, err = render(textBody, data); err != nil {
		return EmailMessage{}, err
	}
	var buf bytes.Buffer
	if err := htmlBody.Execute(&buf, data); err != nil {
		return EmailMessage{}, fmt.Errorf("notification: render html: %w", err)
	}
	msg.HTML = buf.String()
	return msg, nil
}

func render(t *texttemplate.Template, data emailData) (string, error) {
	if t == nil {
		return "", fmt.Errorf("notification: missing template")
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notification: render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
