package models

import "fmt"

// Lifetime is the sharing policy for an injectable type's instances.
type Lifetime int

const (
	// LifetimeSingleton shares one instance process-wide. This is the
	// default policy when no marker or override applies.
	LifetimeSingleton Lifetime = iota

	// LifetimeScoped shares one instance per logical unit of work.
	LifetimeScoped

	// LifetimeTransient creates a new instance per request.
	LifetimeTransient
)

// String returns the string representation of the lifetime
func (l Lifetime) String() string {
	switch l {
	case LifetimeSingleton:
		return "singleton"
	case LifetimeScoped:
		return "scoped"
	case LifetimeTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// ParseLifetime converts a string to a Lifetime
func ParseLifetime(s string) (Lifetime, error) {
	switch s {
	case "singleton", "Singleton":
		return LifetimeSingleton, nil
	case "scoped", "Scoped":
		return LifetimeScoped, nil
	case "transient", "Transient":
		return LifetimeTransient, nil
	default:
		return 0, fmt.Errorf("unknown lifetime: %s", s)
	}
}

// Outlives reports whether l is strictly longer-lived than other under the
// total order singleton > scoped > transient. A consumer whose lifetime
// outlives its target's captures that target (a captive dependency).
func (l Lifetime) Outlives(other Lifetime) bool {
	return l < other
}

// MarshalText implements encoding.TextMarshaler
func (l Lifetime) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (l *Lifetime) UnmarshalText(text []byte) error {
	parsed, err := ParseLifetime(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
