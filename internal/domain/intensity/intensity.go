// Package intensity turns free-text workload estimates into coarse tiers.
package intensity

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Tier is a coarse workload classification.
type Tier string

// Tiers.
const (
	Unknown Tier = "unknown"
	Light   Tier = "light"
	Medium  Tier = "medium"
	Heavy   Tier = "heavy"
)

// Tier thresholds in hours. Part of the matching contract, not tunable.
const (
	lightMax  = 3
	mediumMax = 8
)

var (
	digitRuns = regexp.MustCompile(`\d+`)

	// Range separators folded onto a plain hyphen before extraction.
	separators = strings.NewReplacer("–", "-", "—", "-", "‒", "-", "−", "-")
)

// ParseHours extracts a representative hour count from text such as
// "3–5 hours", "2-3 hrs" or "10". With several numbers the mean is returned,
// rounded half to even. ok is false when the text holds no digits.
func ParseHours(raw string) (hours int, ok bool) {
	text := separators.Replace(strings.ToLower(raw))
	runs := digitRuns.FindAllString(text, -1)
	if len(runs) == 0 {
		return 0, false
	}

	sum := 0.0
	n := 0
	for _, r := range runs {
		v, err := strconv.ParseFloat(r, 64)
		if err != nil || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	if n == 1 {
		return clampInt(sum), true
	}
	return clampInt(math.RoundToEven(sum / float64(n))), true
}

// Bucket classifies hours into a tier; ok=false yields Unknown.
func Bucket(hours int, ok bool) Tier {
	switch {
	case !ok:
		return Unknown
	case hours <= lightMax:
		return Light
	case hours <= mediumMax:
		return Medium
	default:
		return Heavy
	}
}

// Classify is ParseHours followed by Bucket.
func Classify(raw string) Tier {
	return Bucket(ParseHours(raw))
}

func clampInt(v float64) int {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}
