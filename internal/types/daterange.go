// README: Date range value object for trips and bookings.
package types

import "strings"

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// ParseDateRange splits free-form trip dates like "2026-09-01 to 2026-09-05"
// into start and end. Text without a recognizable separator lands in Start.
func ParseDateRange(s string) DateRange {
	s = strings.TrimSpace(s)
	if s == "" {
		return DateRange{}
	}
	for _, sep := range []string{" to ", " - ", " until ", " through "} {
		if i := strings.Index(s, sep); i > 0 {
			return DateRange{
				Start: strings.TrimSpace(s[:i]),
				End:   strings.TrimSpace(s[i+len(sep):]),
			}
		}
	}
	return DateRange{Start: s}
}

func (r DateRange) IsZero() bool {
	return r.Start == "" && r.End == ""
}

func (r DateRange) String() string {
	if r.End == "" {
		return r.Start
	}
	return r.Start + " to " + r.End
}
