package notify

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// EmailLog appends one "<RFC3339 timestamp> - <status>" line per send attempt.
type EmailLog struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewEmailLog(path string) *EmailLog {
	return &EmailLog{path: path, now: time.Now}
}

// Append writes status to the log. An empty path disables the log.
func (l *EmailLog) Append(status string) error {
	if l == nil || l.path == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open email log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s - %s\n", l.now().UTC().Format(time.RFC3339), status)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write email log: %w", err)
	}
	return nil
}
