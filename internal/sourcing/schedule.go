package sourcing

import (
	"regexp"
	"strconv"
	"time"
)

// DefaultInterval is used when a campaign schedule cannot be parsed.
const DefaultInterval = 6 * time.Hour

var everyNHours = regexp.MustCompile(`^0 \*/(\d+) \* \* \*$`)

// ParseEvery turns a campaign schedule into a repeat interval. Only the
// "every N hours" cron form ("0 */6 * * *") is honored; anything else,
// including an empty schedule, falls back to DefaultInterval.
func ParseEvery(schedule string) time.Duration {
	m := everyNHours.FindStringSubmatch(schedule)
	if m == nil {
		return DefaultInterval
	}
	hours, err := strconv.Atoi(m[1])
	if err != nil || hours < 1 {
		return DefaultInterval
	}
	return time.Duration(hours) * time.Hour
}
