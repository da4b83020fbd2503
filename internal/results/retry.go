package results

import (
	"strings"
	"time"
)

const (
	maxBusyRetries  = 5
	baseBusyBackoff = 10 * time.Millisecond
)

// isSQLiteBusy reports whether err is a lock conflict worth retrying.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs fn, retrying with exponential backoff while SQLite reports
// the database as locked. Other errors are returned immediately.
func retryOnBusy(fn func() error) error {
	var err error
	delay := baseBusyBackoff
	for attempt := 0; attempt < maxBusyRetries; attempt++ {
		if err = fn(); !isSQLiteBusy(err) {
			return err
		}
		if attempt < maxBusyRetries-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}
