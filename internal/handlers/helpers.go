package handlers

import "strconv"

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// amount renders a price for user-facing messages, trimming trailing
// zeros the way the clients expect ("499" not "499.000000").
func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
