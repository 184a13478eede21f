package security

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/Rrens/task-manager/internal/domain"
)

var durationPattern = regexp.MustCompile(`^(\d+)([mhd])$`)

var durationUnits = map[string]time.Duration{
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// ParseDuration parses token lifetimes such as "15m", "2h" or "7d".
// Only a positive integer followed by a single m/h/d unit is accepted.
func ParseDuration(s string) (time.Duration, error) {
	match := durationPattern.FindStringSubmatch(s)
	if match == nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidDuration, s)
	}

	value, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidDuration, s)
	}
	if value == 0 {
		return 0, fmt.Errorf("%w: %q must be positive", domain.ErrInvalidDuration, s)
	}

	unit := durationUnits[match[2]]
	if value > int64(1<<63-1)/int64(unit) {
		return 0, fmt.Errorf("%w: %q overflows", domain.ErrInvalidDuration, s)
	}

	return time.Duration(value) * unit, nil
}
