package mailer

import (
	"errors"
	"strings"
)

var ErrEmptyJob = errors.New("email job has no recipient")

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template (with Data) or Subject/Text/HTML must be set; Text is
// the fallback body when HTML is empty.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "otp_verification"
	Data     map[string]any `json:"data,omitempty"`
}

// Normalize trims the recipient and makes sure template data knows it.
func (j *EmailJob) Normalize() error {
	j.To = strings.TrimSpace(j.To)
	if j.To == "" {
		return ErrEmptyJob
	}
	j.Template = strings.ToLower(strings.TrimSpace(j.Template))
	if j.Template == "" {
		return nil
	}
	if j.Data == nil {
		j.Data = map[string]any{}
	}
	if v, ok := j.Data["Email"].(string); !ok || v == "" {
		j.Data["Email"] = j.To
	}
	return nil
}
