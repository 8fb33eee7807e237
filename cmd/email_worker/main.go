package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otp-auth-service/config"
	"github.com/oksasatya/otp-auth-service/pkg/helpers"
	"github.com/oksasatya/otp-auth-service/pkg/mailer"
)

const sendTimeout = 15 * time.Second

type verdict int

const (
	ack verdict = iota
	drop
	retry
)

// handle decides what happens to one queued message. Malformed or
// undeliverable jobs are dropped; a failed send is retried once through redelivery.
func handle(ctx context.Context, sender mailer.Sender, body []byte, redelivered bool, logger *logrus.Logger) verdict {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		logger.WithError(err).Warn("bad message")
		return drop
	}

	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	err := mailer.Deliver(c, sender, job)
	switch {
	case err == nil:
		logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sent")
		return ack
	case errors.Is(err, mailer.ErrEmptyJob), errors.Is(err, mailer.ErrUnknownTemplate):
		logger.WithError(err).Warn("undeliverable message")
		return drop
	case redelivered:
		logger.WithError(err).WithField("to", job.To).Error("send failed twice, dropping")
		return drop
	default:
		logger.WithError(err).WithField("to", job.To).Warn("send failed, requeueing")
		return retry
	}
}

func settle(msg amqp.Delivery, v verdict) {
	switch v {
	case ack:
		_ = msg.Ack(false)
	case drop:
		_ = msg.Nack(false, false)
	case retry:
		_ = msg.Nack(false, true)
	}
}

// serve settles deliveries until msgs closes, then closes the returned channel.
func serve(ctx context.Context, msgs <-chan amqp.Delivery, sender mailer.Sender, logger *logrus.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			settle(msg, handle(ctx, sender, msg.Body, msg.Redelivered, logger))
		}
	}()
	return done
}

type consumer interface {
	StopConsuming() error
}

// drain cancels the consumer and waits for in-flight messages to settle.
// It reports false when the wait hit the timeout.
func drain(q consumer, done <-chan struct{}, timeout time.Duration, logger *logrus.Logger) bool {
	if err := q.StopConsuming(); err != nil {
		logger.WithError(err).Warn("cancel consumer")
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	q, err := helpers.DialRabbitQueue(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		logger.Fatalf("amqp: %v", err)
	}
	defer q.Close()

	msgs, err := q.Consume(16)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := serve(ctx, msgs, mg, logger)

	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
	select {
	case <-stop:
		logger.Info("shutting down")
		if !drain(q, done, sendTimeout, logger) {
			logger.Warn("in-flight messages did not settle before timeout")
		}
	case <-done:
		logger.Warn("delivery channel closed by broker")
	}
}
