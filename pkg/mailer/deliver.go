package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/oksasatya/otp-auth-service/pkg/mailer/templates"
)

var ErrUnknownTemplate = errors.New("unknown email template")

// Deliver renders job (when it names a template) and hands it to sender.
func Deliver(ctx context.Context, sender Sender, job EmailJob) error {
	if err := job.Normalize(); err != nil {
		return err
	}
	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		if !templates.Exists(job.Template) {
			return fmt.Errorf("%w: %q", ErrUnknownTemplate, job.Template)
		}
		s, t, h, err := templates.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("render %s: %w", job.Template, err)
		}
		subject, text, html = s, t, h
	}
	return sender.Send(ctx, job.To, subject, text, html)
}
