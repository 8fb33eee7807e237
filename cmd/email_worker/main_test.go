package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/otp-auth-service/pkg/mailer"
)

type stubSender struct {
	calls int
	err   error
}

func (s *stubSender) Send(context.Context, string, string, string, string) error {
	s.calls++
	return s.err
}

func jobBody(t *testing.T, job mailer.EmailJob) []byte {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func TestHandle(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	otp := mailer.EmailJob{To: "ada@example.com", Template: "otp_verification", Data: map[string]any{"Code": "042017"}}

	tests := []struct {
		name        string
		body        []byte
		sendErr     error
		redelivered bool
		want        verdict
		wantCalls   int
	}{
		{"sent", jobBody(t, otp), nil, false, ack, 1},
		{"garbage", []byte("{not json"), nil, false, drop, 0},
		{"no recipient", jobBody(t, mailer.EmailJob{Subject: "x"}), nil, false, drop, 0},
		{"unknown template", jobBody(t, mailer.EmailJob{To: "a@b.c", Template: "nope"}), nil, false, drop, 0},
		{"send failure first time", jobBody(t, otp), errors.New("503"), false, retry, 1},
		{"send failure redelivered", jobBody(t, otp), errors.New("503"), true, drop, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &stubSender{err: tt.sendErr}
			got := handle(context.Background(), s, tt.body, tt.redelivered, logger)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, s.calls)
		})
	}
}

type recordingAcker struct {
	mu    sync.Mutex
	acked []uint64
}

func (a *recordingAcker) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *recordingAcker) Nack(uint64, bool, bool) error { return nil }
func (a *recordingAcker) Reject(uint64, bool) error     { return nil }

// closingConsumer closes the delivery channel when cancelled, like the broker does.
type closingConsumer struct {
	msgs chan amqp.Delivery
}

func (c closingConsumer) StopConsuming() error {
	close(c.msgs)
	return nil
}

func TestDrain_ReturnsOnceDeliveriesSettle(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	acker := &recordingAcker{}
	msgs := make(chan amqp.Delivery, 1)
	msgs <- amqp.Delivery{
		Acknowledger: acker,
		DeliveryTag:  7,
		Body:         jobBody(t, mailer.EmailJob{To: "ada@example.com", Template: "otp_verification", Data: map[string]any{"Code": "042017"}}),
	}

	done := serve(context.Background(), msgs, &stubSender{}, logger)

	began := time.Now()
	assert.True(t, drain(closingConsumer{msgs: msgs}, done, 5*time.Second, logger))
	assert.Less(t, time.Since(began), time.Second)
	assert.Equal(t, []uint64{7}, acker.acked)
}

type stuckConsumer struct{}

func (stuckConsumer) StopConsuming() error { return nil }

func TestDrain_TimesOut(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	done := make(chan struct{})
	assert.False(t, drain(stuckConsumer{}, done, 10*time.Millisecond, logger))
}
