package notifier

import (
	"sync"

	model "auction-engine/internal/models"
	"auction-engine/utils"
)

// Notifier is the fire-and-forget notification sink. Delivery failure must
// never affect the bid or closing state that triggered the notification.
type Notifier interface {
	Notify(userID string, kind model.NotificationKind, payload map[string]any)
}

// LogNotifier writes every notification to the structured log. It stands in
// for the real delivery channel (email, websocket) the engine does not own.
type LogNotifier struct{}

// NewLogNotifier creates a log-backed notification sink
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs the notification
func (n *LogNotifier) Notify(userID string, kind model.NotificationKind, payload map[string]any) {
	fields := map[string]any{
		"user_id": userID,
		"kind":    string(kind),
	}
	for k, v := range payload {
		fields[k] = v
	}
	utils.Info("notification", fields)
}

// Notification is a recorded delivery, kept by RecordingNotifier for assertions
type Notification struct {
	UserID  string
	Kind    model.NotificationKind
	Payload map[string]any
}

// RecordingNotifier captures notifications in memory. Intended for tests.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

// NewRecordingNotifier creates an in-memory recording sink
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

// Notify records the notification
func (n *RecordingNotifier) Notify(userID string, kind model.NotificationKind, payload map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Notification{UserID: userID, Kind: kind, Payload: payload})
}

// Sent returns a copy of everything delivered so far
func (n *RecordingNotifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}

// SentTo returns notifications of one kind delivered to one user
func (n *RecordingNotifier) SentTo(userID string, kind model.NotificationKind) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Notification
	for _, sent := range n.sent {
		if sent.UserID == userID && sent.Kind == kind {
			out = append(out, sent)
		}
	}
	return out
}
