package transcript

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// CollisionPolicy decides how several markers inside one timestamp block
// share the block's interval
type CollisionPolicy string

const (
	// CollisionShared gives every marker the full block interval
	CollisionShared CollisionPolicy = "shared"
	// CollisionSplit divides the interval in proportion to text length
	CollisionSplit CollisionPolicy = "split"
	// CollisionReject treats a multi-marker block as a validation error
	CollisionReject CollisionPolicy = "reject"
)

// ParseCollisionPolicy parses a policy name, defaulting to shared when empty
func ParseCollisionPolicy(name string) (CollisionPolicy, error) {
	switch CollisionPolicy(strings.ToLower(strings.TrimSpace(name))) {
	case "", CollisionShared:
		return CollisionShared, nil
	case CollisionSplit:
		return CollisionSplit, nil
	case CollisionReject:
		return CollisionReject, nil
	default:
		return "", fmt.Errorf("unknown collision policy %q (expected shared, split or reject)", name)
	}
}

// splitInterval divides [start, end) into contiguous parts weighted by the
// rune length of each text. The last part always ends exactly at end.
func splitInterval(start, end time.Duration, texts []string) [][2]time.Duration {
	weights := make([]int64, len(texts))
	var total int64
	for i, text := range texts {
		weights[i] = int64(utf8.RuneCountInString(text))
		if weights[i] == 0 {
			weights[i] = 1
		}
		total += weights[i]
	}

	span := int64(end - start)
	parts := make([][2]time.Duration, len(texts))
	var cumulative int64
	cursor := start
	for i, w := range weights {
		cumulative += w
		next := start + time.Duration(span*cumulative/total)
		if i == len(weights)-1 {
			next = end
		}
		parts[i] = [2]time.Duration{cursor, next}
		cursor = next
	}
	return parts
}
