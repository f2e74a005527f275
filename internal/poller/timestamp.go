package poller

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// compareTS orders Slack timestamps ("seconds.micros") numerically without
// going through float64.
func compareTS(a, b string) int {
	as, af := splitTS(a)
	bs, bf := splitTS(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

func splitTS(ts string) (int64, int64) {
	secPart, fracPart, _ := strings.Cut(strings.TrimSpace(ts), ".")
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return 0, 0
	}

	if len(fracPart) > 6 {
		fracPart = fracPart[:6]
	}
	fracPart += strings.Repeat("0", 6-len(fracPart))
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return sec, 0
	}
	return sec, frac
}

func formatTS(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/int(time.Microsecond))
}
