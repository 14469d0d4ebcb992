package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

const (
	// epoch values with more than this many integer digits are milliseconds
	secondsDigits = 10
	// 9999-12-31T23:59:59.999Z; anything larger is not a real order time
	maxEpochMillis = 253402300799999
)

// resolveDate walks timeFields and returns the first parseable timestamp in
// UTC, or now when none parses.
func (n *Normalizer) resolveDate(raw map[string]interface{}, now time.Time, rec *recorder) time.Time {
	for _, k := range timeFields {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		t, err := parseTimestamp(v, n.location())
		if err != nil {
			rec.notef("date: cannot parse %s=%v: %v", k, v, err)
			continue
		}
		return t.UTC()
	}
	rec.notef("date: no usable timestamp, using current time")
	return now.UTC()
}

func parseTimestamp(v interface{}, loc *time.Location) (time.Time, error) {
	switch x := v.(type) {
	case json.Number:
		return parseEpochString(x.String())
	case float64:
		return fromEpoch(x)
	case int, int32, int64:
		return fromEpoch(cast.ToFloat64(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, fmt.Errorf("empty timestamp")
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return parseEpochString(s)
		}
		t, err := cast.ToTimeInDefaultLocationE(s, loc)
		if err != nil {
			return time.Time{}, err
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func parseEpochString(s string) (time.Time, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	return fromEpoch(f)
}

// fromEpoch treats values up to ten integer digits as seconds and longer ones
// as milliseconds.
func fromEpoch(f float64) (time.Time, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 || f > maxEpochMillis {
		return time.Time{}, fmt.Errorf("invalid epoch %v", f)
	}
	digits := len(strconv.FormatInt(int64(f), 10))
	if digits > secondsDigits {
		return time.UnixMilli(int64(f)), nil
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)), nil
}
