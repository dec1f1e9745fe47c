package punishment

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Permanent is the duration token for a punishment that never expires.
const Permanent = "permanent"

// Periods are the durations offered to moderators, smallest first.
var Periods = []string{
	"5m", "15m", "30m", "1h", "2h", "6h", "12h",
	"1d", "3d", "7d", "14d", "30d", Permanent,
}

// ParseDuration parses a duration token like "30m", "2h", "7d" or
// "permanent". For "permanent" it returns (0, true, nil).
func ParseDuration(s string) (time.Duration, bool, error) {
	if s == Permanent {
		return 0, true, nil
	}
	if len(s) < 2 {
		return 0, false, fmt.Errorf("invalid duration: %q", s)
	}
	amount, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil || amount <= 0 {
		return 0, false, fmt.Errorf("invalid duration: %q", s)
	}
	switch s[len(s)-1] {
	case 's':
		return time.Duration(amount) * time.Second, false, nil
	case 'm':
		return time.Duration(amount) * time.Minute, false, nil
	case 'h':
		return time.Duration(amount) * time.Hour, false, nil
	case 'd':
		return time.Duration(amount) * 24 * time.Hour, false, nil
	}
	return 0, false, fmt.Errorf("invalid duration unit in %q", s)
}

// ExpirationFrom converts a duration token into an epoch-millisecond
// expiration relative to now. A permanent token yields nil.
func ExpirationFrom(now time.Time, s string) (*int64, error) {
	d, permanent, err := ParseDuration(s)
	if err != nil {
		return nil, err
	}
	if permanent {
		return nil, nil
	}
	exp := now.Add(d).UnixMilli()
	return &exp, nil
}

// FormatRemaining renders a remaining duration the way moderators see it,
// e.g. "3 days 2 hours 5 minutes".
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0 seconds"
	}
	days := int64(d / (24 * time.Hour))
	hours := int64(d/time.Hour) % 24
	minutes := int64(d/time.Minute) % 60
	seconds := int64(d/time.Second) % 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%d days ", days)
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%d hours ", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%d minutes ", minutes)
	}
	if seconds > 0 {
		fmt.Fprintf(&b, "%d seconds", seconds)
	}
	return strings.TrimSpace(b.String())
}

// DescribeExpiration renders an expiration for audit details: "permanently"
// for nil, otherwise "for <remaining>" measured from now.
func DescribeExpiration(now time.Time, expiration *int64) string {
	if expiration == nil {
		return "permanently"
	}
	return "for " + FormatRemaining(time.Duration(*expiration-now.UnixMilli())*time.Millisecond)
}
