package sqlite

import (
	"strings"
	"time"

	"github.com/banshee-data/motiongrid/internal/monitoring"
)

const (
	retryAttempts = 5
	retryBaseWait = 10 * time.Millisecond
)

// isSQLiteBusy reports whether err looks like SQLITE_BUSY contention.
// The driver surfaces these as plain errors, so we match on message.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs fn, retrying with linear backoff while it returns a
// busy error. Non-busy errors fail immediately.
func retryOnBusy(fn func() error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		err = fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
		monitoring.Logf("sqlite busy, retrying (%d/%d): %v", attempt+1, retryAttempts, err)
		time.Sleep(retryBaseWait * time.Duration(attempt+1))
	}
	return err
}
