package backend

import (
	"context"
	"time"

	"roommates/internal/notify"
	"roommates/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the wired store and notifier with their cleanup.
type BackendResult struct {
	Store    storage.Store
	Notifier notify.Notifier
	// Queue is non-nil in queued notification mode.
	Queue   Pinger
	Cleanup CleanupFunc
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// JSON file store
	DataDirectory string

	// SQLite store
	SQLiteDBPath string

	// Notifications
	SMTP         notify.SMTPConfig
	MailEnabled  bool
	EmailLogPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	RandomUserURL     string
	RandomUserTimeout time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	JSONBackend   BackendType = "json"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case JSONBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
