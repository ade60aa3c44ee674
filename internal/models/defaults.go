package models

// Partial data tolerance: provider records are never rejected for missing
// nested fields. Every display default lives here.
const (
	Placeholder  = "N/A"
	DefaultClock = "00:00"
)

// OrPlaceholder substitutes Placeholder for a missing display value.
func OrPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

func orClock(s string) string {
	if s == "" {
		return DefaultClock
	}
	return s
}
