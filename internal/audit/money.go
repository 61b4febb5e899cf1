package audit

import (
	"strings"
)

// ParseCents parses a display-precision monetary string ("$45.00", "4.5",
// "1,204.10", "-3.00") into integer cents. Receipt values stay strings until
// this point; cents arithmetic avoids float drift in the reconciliation rule.
func ParseCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return 0, false
	}
	if len(frac) > 2 {
		return 0, false
	}
	for len(frac) < 2 {
		frac += "0"
	}
	// 15 digits of cents stays far inside int64; anything longer is not a
	// receipt amount and would overflow the accumulator below
	if len(whole)+len(frac) > 15 {
		return 0, false
	}

	var cents int64
	for _, r := range whole + frac {
		if r < '0' || r > '9' {
			return 0, false
		}
		cents = cents*10 + int64(r-'0')
	}
	if neg {
		cents = -cents
	}
	return cents, true
}
