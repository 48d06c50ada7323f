package processing

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ObjectPlaceholder is returned by ToSafeString for values that cannot be serialized.
const ObjectPlaceholder = "[Object]"

// isoLayout mirrors the millisecond UTC form used by JavaScript's toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	htmlTags   = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, _2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ToSafeString converts an arbitrary feed field into a string. It never fails:
// nil becomes "", scalars use their canonical form and composite values are
// JSON-encoded, falling back to ObjectPlaceholder.
func ToSafeString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return formatNumber(v, 64)
	case float32:
		return formatNumber(float64(v), 32)
	case json.Number:
		return v.String()
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if v == nil || v.IsZero() {
			return ""
		}
		return v.UTC().Format(time.RFC3339Nano)
	case []byte:
		return string(v)
	case fmt.Stringer:
		if isNilPointer(v) {
			return ""
		}
		return v.String()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return ToSafeString(rv.Elem().Interface())
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		raw, err := json.Marshal(value)
		if err != nil {
			return ObjectPlaceholder
		}
		return string(raw)
	case reflect.String:
		return rv.String()
	}
	return fmt.Sprint(value)
}

// ToSafeISODate normalizes a feed date to the ISO-8601 UTC form, or "" when the
// value is empty or not a recognizable instant.
func ToSafeISODate(value any) string {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(isoLayout)
	case *time.Time:
		if v == nil || v.IsZero() {
			return ""
		}
		return v.UTC().Format(isoLayout)
	}

	raw := strings.TrimSpace(ToSafeString(value))
	if raw == "" {
		return ""
	}
	ts, ok := parseDate(raw)
	if !ok {
		return ""
	}
	return ts.UTC().Format(isoLayout)
}

// StripHTML removes tag spans, collapses whitespace runs and trims the result.
func StripHTML(value any) string {
	text := ToSafeString(value)
	if text == "" {
		return ""
	}
	text = htmlTags.ReplaceAllString(text, " ")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// FirstNonEmpty returns the first value whose safe string form is non-empty,
// or nil when none is.
func FirstNonEmpty(values ...any) any {
	for _, v := range values {
		if ToSafeString(v) != "" {
			return v
		}
	}
	return nil
}

// rfc822Zones holds the named zones RFC 822 allows besides UT/GMT. time.Parse
// gives any abbreviation it cannot resolve locally a zero offset.
var rfc822Zones = map[string]int{
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		ts, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if ts.Year() < 1 || ts.Year() > 9999 {
			return time.Time{}, false
		}
		if strings.Contains(layout, "MST") {
			return resolveZone(ts)
		}
		return ts, true
	}
	return time.Time{}, false
}

// resolveZone fixes up a time parsed from a zone abbreviation. Unknown
// abbreviations are rejected rather than read as UTC.
func resolveZone(ts time.Time) (time.Time, bool) {
	name, offset := ts.Zone()
	if offset != 0 {
		return ts, true
	}
	abbr := strings.ToUpper(name)
	switch abbr {
	case "", "GMT", "UTC", "UT", "Z":
		return ts, true
	}
	offset, ok := rfc822Zones[abbr]
	if !ok {
		return time.Time{}, false
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(),
		ts.Nanosecond(), time.FixedZone(abbr, offset)), true
}

// formatNumber prints floats the way JavaScript's Number#toString does:
// plain decimals for 1e-6 <= |f| < 1e21, exponent form otherwise.
func formatNumber(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, bits)
	}

	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, bits), "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mantissa + "e" + sign + digits
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
