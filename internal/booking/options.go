// internal/booking/options.go
package booking

import (
	"fmt"
	"strings"
)

var (
	VisitDays      = []string{"Tomorrow", "Day after", "Sat/Sun"}
	TimeWindows    = []string{"Morning (10-12)", "Afternoon (1-3)", "Evening (4-6)", "Night (6-8)"}
	PaymentMethods = []string{"GPay / PhonePe UPI", "Cards / NetBanking"}
)

const subdivisionCount = 8

// Subdivisions lists the area choices for a listing location: its first
// word followed by "1st Phase" through "8th Phase".
func Subdivisions(location string) []string {
	area := location
	if i := strings.IndexByte(location, ' '); i >= 0 {
		area = location[:i]
	}
	out := make([]string, 0, subdivisionCount)
	for n := 1; n <= subdivisionCount; n++ {
		out = append(out, fmt.Sprintf("%s %s Phase", area, ordinal(n)))
	}
	return out
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	}
	return fmt.Sprintf("%dth", n)
}

func oneOf(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
