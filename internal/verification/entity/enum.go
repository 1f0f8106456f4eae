package entity

// KeyStatus is the lifecycle state of an API key.
type KeyStatus int

const (
	// KeyStatusUnknown is the zero value for unrecognized stored data.
	KeyStatusUnknown KeyStatus = iota
	// KeyStatusActive allows the key to authorize and issue codes.
	KeyStatusActive
	// KeyStatusPaused blocks authorization without destroying the record.
	KeyStatusPaused
)

// String returns the persisted representation of the status.
func (s KeyStatus) String() string {
	switch s {
	case KeyStatusActive:
		return "active"
	case KeyStatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// KeyStatusFromString parses a persisted status value.
func KeyStatusFromString(s string) KeyStatus {
	switch s {
	case "active":
		return KeyStatusActive
	case "paused":
		return KeyStatusPaused
	default:
		return KeyStatusUnknown
	}
}
