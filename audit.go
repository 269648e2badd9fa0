package clinauth

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Audit action names emitted by the engine.
const (
	auditRegisterSuccess = "register.success"
	auditRegisterFailure = "register.failure"
	auditLoginSuccess    = "login.success"
	auditLoginFailure    = "login.failure"
	auditLoginLocked     = "login.locked"
	auditRefreshSuccess  = "refresh.success"
	auditRefreshFailure  = "refresh.failure"
	auditRefreshReuse    = "refresh.reuse"
	auditLogout          = "logout"
	auditLogoutAll       = "logout.all"
	auditAuthzAllowed    = "authorize.allowed"
	auditAuthzDenied     = "authorize.denied"
	auditTokenInvalid    = "token.invalid"
	auditPasswordChange  = "password.change"
)

// Outcome values recorded on audit events.
const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeFailure = "failure"
)

// AuditEvent is one structured security-timeline record.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	UserID    string            `json:"user_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Resource  string            `json:"resource,omitempty"`
	Outcome   string            `json:"outcome"`
	IP        string            `json:"ip,omitempty"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives audit events. Delivery is fire-and-forget: a slow or
// failing sink never changes an auth outcome.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent)
}

// NoOpSink discards all events.
type NoOpSink struct{}

func (NoOpSink) Record(context.Context, AuditEvent) {}

// ChannelSink buffers events on a channel for the host application to drain.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan AuditEvent, buffer)}
}

func (s *ChannelSink) Record(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the sink's channel for consumers.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line to an [io.Writer].
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Record(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
