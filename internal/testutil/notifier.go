package testutil

import (
	"context"
	"sync"
)

// SentOTP is one captured notification.
type SentOTP struct {
	To          string
	Code        string
	DisplayName string
}

// RecordingNotifier captures every code it is asked to deliver.
type RecordingNotifier struct {
	mu   sync.Mutex
	Sent []SentOTP
	Err  error
}

func (n *RecordingNotifier) SendOTP(_ context.Context, to, code, displayName string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, SentOTP{To: to, Code: code, DisplayName: displayName})
	return nil
}

// Last returns the most recent notification.
func (n *RecordingNotifier) Last() (SentOTP, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Sent) == 0 {
		return SentOTP{}, false
	}
	return n.Sent[len(n.Sent)-1], true
}
