package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Naming strategies for stored uploads.
const (
	NamingTimestamp = "timestamp"
	NamingUnique    = "unique"
)

// Namer produces the volume file name for an upload arriving at t.
type Namer func(t time.Time) string

// TimestampName is "<unix-seconds>.csv". Uploads within the same second get
// the same name and the later write replaces the earlier one.
func TimestampName(t time.Time) string {
	return fmt.Sprintf("%d.csv", t.Unix())
}

// UniqueName is "<unix-seconds>-<8 hex chars>.csv".
func UniqueName(t time.Time) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("%d-%s.csv", t.Unix(), id[:8])
}

// NamerFor returns the Namer for a strategy name.
func NamerFor(strategy string) (Namer, error) {
	switch strategy {
	case "", NamingTimestamp:
		return TimestampName, nil
	case NamingUnique:
		return UniqueName, nil
	}
	return nil, fmt.Errorf("unknown naming strategy %q", strategy)
}
