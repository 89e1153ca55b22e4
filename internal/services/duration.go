package services

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/desertthunder/foxhole/internal/shared"
)

var isoDuration = regexp.MustCompile(`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// units in the order of the capture groups; years and months use 365 and 30 days
var isoUnits = [...]time.Duration{
	365 * 24 * time.Hour,
	30 * 24 * time.Hour,
	7 * 24 * time.Hour,
	24 * time.Hour,
	time.Hour,
	time.Minute,
	time.Second,
}

// ParseDuration parses the ISO-8601 durations used in video contentDetails, e.g. "PT1H2M3S".
func ParseDuration(s string) (time.Duration, error) {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || s[len(s)-1] == 'T' {
		return 0, fmt.Errorf("%w: duration %q", shared.ErrInvalidInput, s)
	}

	var d time.Duration
	for i, unit := range isoUnits {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("%w: duration %q", shared.ErrInvalidInput, s)
		}
		d += time.Duration(n) * unit
	}
	return d, nil
}
