package audit

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Event represents an audit event.
type Event interface {
	// MessageID identifies the event type, e.g. "authn" or "access".
	MessageID() string
	// Message is the human-readable summary line.
	Message() string
	// Succeeded reports whether the audited operation succeeded.
	// Failed operations are logged at warn level.
	Succeeded() bool
	// Fields returns the structured attributes of the event.
	Fields() map[string]interface{}
}

// Logger writes audit events as structured JSON lines.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger creates an audit logger writing to w.
func NewLogger(w io.Writer) *Logger {
	hostname, _ := os.Hostname()
	zl := zerolog.New(w).With().
		Timestamp().
		Str("app", "piivault").
		Str("host", hostname).
		Int("pid", os.Getpid()).
		Logger()
	return &Logger{zl: zl}
}

// Log writes an audit event.
func (l *Logger) Log(event Event) {
	entry := l.zl.Info()
	if !event.Succeeded() {
		entry = l.zl.Warn()
	}
	entry.
		Str("msgid", event.MessageID()).
		Fields(event.Fields()).
		Msg(event.Message())
}

// DefaultLogger is the process-wide audit logger.
var DefaultLogger = NewLogger(os.Stdout)

// DefaultStore persists events to the audit database when
// AUDIT_DATABASE_URL is set.
var DefaultStore *Store

var (
	auditEnabled  = true
	enabledMu     sync.RWMutex
	storeInitOnce sync.Once
)

// IsEnabled returns whether audit logging is enabled.
func IsEnabled() bool {
	enabledMu.RLock()
	defer enabledMu.RUnlock()
	return auditEnabled
}

// SetEnabled allows programmatic control of audit logging. The server sets
// this from the audit_enabled config attribute at startup.
func SetEnabled(enabled bool) {
	enabledMu.Lock()
	auditEnabled = enabled
	enabledMu.Unlock()
}

// Log writes an event to the default logger and store (if audit is enabled).
func Log(event Event) {
	if !IsEnabled() {
		return
	}
	DefaultLogger.Log(event)

	storeInitOnce.Do(func() {
		var err error
		DefaultStore, err = NewStore()
		if err != nil {
			// audit DB is optional
			fmt.Fprintf(os.Stderr, "audit: failed to connect to audit database: %v\n", err)
		}
	})

	if DefaultStore != nil {
		if err := DefaultStore.Save(event); err != nil {
			fmt.Fprintf(os.Stderr, "audit: failed to save event: %v\n", err)
		}
	}
}
