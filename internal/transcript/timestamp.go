package transcript

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})[,.](\d{3})$`)
	rangePattern = regexp.MustCompile(`^(\S+)\s*-->\s*(\S+?)(?:\s+.*)?$`)
)

// ParseTimestamp parses an HH:MM:SS,mmm clock value. A dot is accepted as the
// millisecond separator.
func ParseTimestamp(value string) (time.Duration, error) {
	m := clockPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, fmt.Errorf("malformed timestamp %q", value)
	}

	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	millis, _ := strconv.Atoi(m[4])
	if minutes > 59 || seconds > 59 {
		return 0, fmt.Errorf("malformed timestamp %q", value)
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// ParseTimeRange parses a "start --> end" line
func ParseTimeRange(line string) (start, end time.Duration, err error) {
	m := rangePattern.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, fmt.Errorf("malformed timestamp line %q", line)
	}
	if start, err = ParseTimestamp(m[1]); err != nil {
		return 0, 0, err
	}
	if end, err = ParseTimestamp(m[2]); err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, fmt.Errorf("end %s is not after start %s", m[2], m[1])
	}
	return start, end, nil
}

// IsTimeRange reports whether line looks like a timestamp line
func IsTimeRange(line string) bool {
	return rangePattern.MatchString(line)
}
