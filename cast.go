package mold

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order when a string is coerced to a date.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// floater is implemented by json.Number style values.
type floater interface {
	Float64() (float64, error)
}

// ToString coerces v to a string. Nil becomes the empty string.
func ToString(v any) string {
	if isNullish(v) {
		return ""
	}

	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return formatFloat(s, 64)
	case float32:
		return formatFloat(float64(s), 32)
	case time.Time:
		return s.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return s.String()
	case error:
		return s.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatFloat(rv.Float(), 64)
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64, bits int) string {
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// ToNumber coerces v to a finite float64. Finite numbers are preserved,
// numeric strings are parsed, and anything unparsable (including NaN and
// infinities) becomes 0.
func ToNumber(v any) float64 {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func toFloat(v any) (float64, bool) {
	if isNullish(v) {
		return 0, true
	}

	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		return parseNumber(n)
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case time.Time:
		return float64(n.UnixMilli()), true
	case floater:
		f, err := n.Float64()
		return f, err == nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.String:
		return parseNumber(rv.String())
	case reflect.Bool:
		if rv.Bool() {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// parseNumber follows numeric-literal rules for strings: surrounding space is
// ignored, the empty string is 0 and 0x/0o/0b prefixes are honored.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	if len(s) > 2 && s[0] == '0' {
		if i, err := strconv.ParseInt(s, 0, 64); err == nil {
			return float64(i), true
		}
	}
	return 0, false
}

// toInt64 returns v as an exact integer when v is an integer or an integral
// decimal string, so large identifiers survive without float rounding.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

// toUint64 is toInt64 for unsigned targets: unsigned values and decimal
// strings up to math.MaxUint64 are exact, negative integers are 0.
func toUint64(v any) (uint64, bool) {
	if s, ok := v.(string); ok {
		u, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
		return u, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i := rv.Int(); i > 0 {
			return uint64(i), true
		}
		return 0, true
	}
	return 0, false
}

// ToBoolean coerces v to a bool. "true" and 1 are true, "false" and 0 are
// false; anything else follows truthiness (non-empty string, non-zero number,
// non-nil value).
func ToBoolean(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		switch b {
		case "true":
			return true
		case "false":
			return false
		}
		return b != ""
	}

	if isNullish(v) {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return ToBoolean(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		f, _ := toFloat(v)
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// ToDate coerces v to a time. Dates are preserved, strings are parsed with
// the RFC3339 family and plain date layouts, numbers are Unix milliseconds.
// The second result is false when v could not be interpreted; callers decide
// the fallback.
func ToDate(v any) (time.Time, bool) {
	if isNullish(v) {
		return time.Time{}, false
	}
	if t, ok := asTime(v); ok {
		return t, true
	}

	switch d := v.(type) {
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case nil, bool:
		return time.Time{}, false
	}

	if ms, ok := toInt64(v); ok {
		return time.UnixMilli(ms).UTC(), true
	}
	if f, ok := toFloat(v); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	return time.Time{}, false
}
