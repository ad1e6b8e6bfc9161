package simulation

import (
	"fmt"
	"log"
	"sync"
)

// EventLog is the append-only sink a single simulation writes its pool
// transitions to.  Entries are kept in memory so the API can return them;
// when a mirror logger is supplied every entry is also written there with
// the given prefix.
type EventLog struct {
	mu      sync.Mutex
	entries []string
	mirror  *log.Logger
	prefix  string
}

// NewEventLog returns an empty log.  mirror may be nil.
func NewEventLog(mirror *log.Logger, prefix string) *EventLog {
	return &EventLog{mirror: mirror, prefix: prefix}
}

// Printf formats and appends one entry.
func (l *EventLog) Printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	l.mu.Lock()
	l.entries = append(l.entries, line)
	l.mu.Unlock()
	if l.mirror != nil {
		l.mirror.Printf("%s%s", l.prefix, line)
	}
}

// Entries returns a copy of everything logged so far, oldest first.
func (l *EventLog) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}
