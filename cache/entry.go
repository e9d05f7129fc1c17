package cache

import (
	"encoding/json"
	"time"
)

// Entry is the persisted cache envelope. Expiry and Timestamp are Unix
// milliseconds.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Expiry    int64           `json:"expiry"`
	Timestamp int64           `json:"timestamp"`
}

// Expired reports whether now is strictly after the entry's expiry.
func (e Entry) Expired(now time.Time) bool {
	return now.UnixMilli() > e.Expiry
}

// Age returns how long ago the entry was written.
func (e Entry) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-e.Timestamp) * time.Millisecond
}
