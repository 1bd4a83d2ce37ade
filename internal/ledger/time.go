package ledger

import "time"

// The ledger epoch starts at 2000-01-01T00:00:00Z rather than the Unix epoch.
const epochOffset int64 = 946684800

// ToLedgerTime converts a wall clock time to seconds since the ledger epoch.
func ToLedgerTime(t time.Time) uint32 {
	return uint32(t.Unix() - epochOffset)
}

// FromLedgerTime converts seconds since the ledger epoch to a wall clock time.
func FromLedgerTime(t uint32) time.Time {
	return time.Unix(int64(t)+epochOffset, 0).UTC()
}
