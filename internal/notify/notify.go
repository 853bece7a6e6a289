// Package notify carries user-facing notifications (the storefront's toasts)
// from state modules to whatever renders them.
package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is a single message shown to the user.
type Notification struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(n Notification)
}

// Success sends a success notification to n.
func Success(n Notifier, title, message string) {
	n.Notify(Notification{Level: LevelSuccess, Title: title, Message: message})
}

// Info sends an informational notification to n.
func Info(n Notifier, title, message string) {
	n.Notify(Notification{Level: LevelInfo, Title: title, Message: message})
}

// Error sends an error notification to n.
func Error(n Notifier, title, message string) {
	n.Notify(Notification{Level: LevelError, Title: title, Message: message})
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(Notification) {}

// Recorder buffers notifications until they are drained.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// Drain returns the buffered notifications and empties the buffer.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.items
	r.items = nil
	if items == nil {
		return []Notification{}
	}
	return items
}

// Logged wraps next so every notification is also written to log.
func Logged(next Notifier, log *zap.Logger) Notifier {
	return loggedNotifier{next: next, log: log}
}

type loggedNotifier struct {
	next Notifier
	log  *zap.Logger
}

func (l loggedNotifier) Notify(n Notification) {
	fields := []zap.Field{zap.String("title", n.Title), zap.String("message", n.Message)}
	if n.Level == LevelError {
		l.log.Warn("user notification", fields...)
	} else {
		l.log.Debug("user notification", fields...)
	}
	l.next.Notify(n)
}
