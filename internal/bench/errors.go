package bench

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks invalid, missing or conflicting run options.
	// These are detected before any event is read.
	ErrConfiguration = errors.New("configuration error")

	// ErrSelectionCount is returned when zero or several of ptmin, dijmax
	// and njets are given.
	ErrSelectionCount = errors.New("exactly one jet selection is required")

	// ErrSourceRead is returned when the event source fails before producing
	// a single event.
	ErrSourceRead = errors.New("failed to read events")

	// ErrInsufficientJets is returned by a njets selection when the event
	// never had that many jets. The runner reports it per event and carries on.
	ErrInsufficientJets = errors.New("insufficient jets for exclusive selection")

	// ErrDumpOpen is returned when the dump destination cannot be created.
	ErrDumpOpen = errors.New("failed to open dump output")

	// ErrEmptyEventSet is returned when statistics would be normalized by
	// zero events.
	ErrEmptyEventSet = errors.New("no events to normalize by")

	// ErrNoTrials is returned when there are no trial timings to aggregate.
	ErrNoTrials = errors.New("no trial timings")
)

// ConfigError describes a configuration problem. It matches ErrConfiguration
// and, when set, the more specific Err.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string { return e.Msg }

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}

func configErrorf(err error, format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...), Err: err}
}
