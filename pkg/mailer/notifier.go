package mailer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otp-auth-service/config"
	"github.com/oksasatya/otp-auth-service/pkg/mailer/templates"
)

// Publisher puts a JSON payload on the email queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// OTPJob builds the otp_verification job for one recipient.
func OTPJob(cfg *config.Config, to, code, displayName string, issuedAt time.Time, validity time.Duration) EmailJob {
	return EmailJob{
		To:       to,
		Template: templates.OTPVerification,
		Data: templates.NewOTPVerificationData(cfg, displayName, to, code,
			templates.WithTime(issuedAt), templates.WithValidity(issuedAt, validity)),
	}
}

// QueueNotifier hands codes to cmd/email_worker through RabbitMQ.
type QueueNotifier struct {
	pub      Publisher
	cfg      *config.Config
	validity time.Duration
	now      func() time.Time
}

func NewQueueNotifier(pub Publisher, cfg *config.Config, validity time.Duration) *QueueNotifier {
	return &QueueNotifier{pub: pub, cfg: cfg, validity: validity, now: time.Now}
}

func (n *QueueNotifier) SendOTP(ctx context.Context, to, code, displayName string) error {
	return n.pub.PublishJSON(ctx, OTPJob(n.cfg, to, code, displayName, n.now(), n.validity))
}

// DirectNotifier renders and sends through Mailgun within the request.
type DirectNotifier struct {
	sender   Sender
	cfg      *config.Config
	validity time.Duration
	now      func() time.Time
}

func NewDirectNotifier(sender Sender, cfg *config.Config, validity time.Duration) *DirectNotifier {
	return &DirectNotifier{sender: sender, cfg: cfg, validity: validity, now: time.Now}
}

func (n *DirectNotifier) SendOTP(ctx context.Context, to, code, displayName string) error {
	return Deliver(ctx, n.sender, OTPJob(n.cfg, to, code, displayName, n.now(), n.validity))
}

// LogNotifier writes the code to the log instead of mailing it.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendOTP(_ context.Context, to, code, displayName string) error {
	n.logger.WithFields(logrus.Fields{"to": to, "name": displayName, "otp": code}).
		Warn("mail delivery disabled; otp logged")
	return nil
}
