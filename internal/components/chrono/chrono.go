package chrono

import "time"

// DefaultTimezone is the region the monitored vendor publishes prices in.
const DefaultTimezone = "America/Argentina/Buenos_Aires"

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in Location().
	Now() time.Time
	Location() *time.Location
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct {
	location *time.Location
}

// NewStandardTime is the constructor of StandardTime, an empty timezone falls back to DefaultTimezone.
func NewStandardTime(timezone string) (StandardTime, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return StandardTime{}, err
	}
	return StandardTime{location: location}, nil
}

func (s StandardTime) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardTime) Location() *time.Location {
	return s.location
}

// FixedTime always returns the same instant, it exists for tests and replays.
type FixedTime struct {
	Instant time.Time
}

func (f FixedTime) Now() time.Time {
	return f.Instant
}

func (f FixedTime) Location() *time.Location {
	return f.Instant.Location()
}
