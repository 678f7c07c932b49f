package domain

// Availability is the derived reachability of a store.
type Availability int

// Availability states. The zero value is AvailabilityUnknown.
const (
	AvailabilityUnknown Availability = iota
	AvailabilityAvailable
	AvailabilityUnavailable
)

// IsAvailable returns true only for AvailabilityAvailable.
func (a Availability) IsAvailable() bool {
	return a == AvailabilityAvailable
}

// String returns the string representation.
func (a Availability) String() string {
	switch a {
	case AvailabilityAvailable:
		return "available"
	case AvailabilityUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// AvailabilityFrom converts a boolean signal into an Availability.
func AvailabilityFrom(ok bool) Availability {
	if ok {
		return AvailabilityAvailable
	}
	return AvailabilityUnavailable
}
