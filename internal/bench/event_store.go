package bench

import (
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/jetbench/internal/monitoring"
)

// EventStore holds the decoded events of a run. It is read-only once loaded.
type EventStore struct {
	name   string
	events []Event
}

// NewEventStore wraps already decoded events.
func NewEventStore(name string, events []Event) *EventStore {
	return &EventStore{name: name, events: events}
}

// LoadEvents reads events from src until it is exhausted, fails, or maxEvents
// events have been read. A negative maxEvents reads everything.
//
// A failure before the first event is returned as ErrSourceRead. A later
// failure keeps the events read so far and is only logged.
func LoadEvents(src Source, name string, maxEvents int) (*EventStore, error) {
	store := &EventStore{name: name}
	for maxEvents < 0 || len(store.events) < maxEvents {
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(store.events) == 0 {
				return nil, fmt.Errorf("%w from %s: %w", ErrSourceRead, name, err)
			}
			monitoring.Warnf("stopped reading %s after %d events: %v", name, len(store.events), err)
			break
		}
		store.events = append(store.events, ev)
	}
	monitoring.Logf("Read %d events from %s", len(store.events), name)
	return store, nil
}

// Name returns the name the events were loaded from.
func (s *EventStore) Name() string { return s.name }

// Len returns the number of events.
func (s *EventStore) Len() int { return len(s.events) }

// Event returns event i (0-based).
func (s *EventStore) Event(i int) Event { return s.events[i] }

// Particles returns the total particle count over all events.
func (s *EventStore) Particles() int {
	n := 0
	for _, ev := range s.events {
		n += len(ev)
	}
	return n
}
