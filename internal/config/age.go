package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// maxAgeDays is the largest day count that still fits in a time.Duration.
const maxAgeDays = int64(1<<63-1) / int64(day)

// ParseAge reads a retention age such as "7d" or "36h". An empty value
// yields fallback.
func ParseAge(value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid age %q", value)
		}
		if n > maxAgeDays {
			return 0, fmt.Errorf("age %q exceeds %d days", value, maxAgeDays)
		}
		return time.Duration(n) * day, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("invalid age %q", value)
	}
	return parsed, nil
}
