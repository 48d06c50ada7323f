package processing_test

import (
	"math"
	"testing"
	"time"

	"github.com/DeafMist/rss-article-fetcher/internal/processing"
	"github.com/stretchr/testify/require"
)

type titled struct {
	Name string `json:"name"`
}

func TestToSafeString(t *testing.T) {
	var nilTime *time.Time

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "nil", input: nil, want: ""},
		{name: "string", input: "hello", want: "hello"},
		{name: "empty string", input: "", want: ""},
		{name: "int", input: 42, want: "42"},
		{name: "float", input: 1.5, want: "1.5"},
		{name: "whole float", input: float64(100), want: "100"},
		{name: "large float", input: 1e21, want: "1e+21"},
		{name: "below large threshold", input: 1e20, want: "100000000000000000000"},
		{name: "tiny float", input: 1e-7, want: "1e-7"},
		{name: "small float", input: 0.000001, want: "0.000001"},
		{name: "negative exponent mantissa", input: -2.5e-8, want: "-2.5e-8"},
		{name: "bool", input: true, want: "true"},
		{name: "map", input: map[string]any{"a": 1}, want: `{"a":1}`},
		{name: "slice", input: []string{"x", "y"}, want: `["x","y"]`},
		{name: "struct", input: titled{Name: "feed"}, want: `{"name":"feed"}`},
		{name: "nil pointer", input: nilTime, want: ""},
		{name: "unserializable", input: map[string]any{"n": math.NaN()}, want: processing.ObjectPlaceholder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.ToSafeString(tt.input))
		})
	}
}

func TestToSafeStringFallsBackToPrint(t *testing.T) {
	require.NotEmpty(t, processing.ToSafeString(make(chan int)))
}

func TestToSafeStringIdempotentOnStrings(t *testing.T) {
	for _, in := range []string{"", "plain", "<b>markup</b>", "  spaced  ", "ünïcødé"} {
		once := processing.ToSafeString(in)
		require.Equal(t, once, processing.ToSafeString(once))
	}
}

func TestToSafeISODate(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "nil", input: nil, want: ""},
		{name: "empty", input: "", want: ""},
		{name: "garbage", input: "not a date", want: ""},
		{name: "rfc3339", input: "2024-01-15T10:00:00Z", want: "2024-01-15T10:00:00.000Z"},
		{name: "offset", input: "2024-01-15T12:30:00+02:00", want: "2024-01-15T10:30:00.000Z"},
		{name: "rfc1123 gmt", input: "Mon, 15 Jan 2024 10:00:00 GMT", want: "2024-01-15T10:00:00.000Z"},
		{name: "rfc1123z", input: "Mon, 15 Jan 2024 10:00:00 +0100", want: "2024-01-15T09:00:00.000Z"},
		{name: "single digit day", input: "Fri, 5 Jan 2024 08:00:00 +0000", want: "2024-01-05T08:00:00.000Z"},
		{name: "date only", input: "2024-01-15", want: "2024-01-15T00:00:00.000Z"},
		{name: "millis kept", input: "2024-01-15T10:00:00.250Z", want: "2024-01-15T10:00:00.250Z"},
		{name: "time value", input: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), want: "2024-01-15T10:00:00.000Z"},
		{name: "number", input: 12345, want: ""},
		{name: "rfc822 est", input: "Mon, 15 Jan 2024 10:00:00 EST", want: "2024-01-15T15:00:00.000Z"},
		{name: "rfc822 pdt", input: "Mon, 15 Jul 2024 10:00:00 PDT", want: "2024-07-15T17:00:00.000Z"},
		{name: "rfc822 pst no weekday", input: "15 Jan 2024 10:00:00 PST", want: "2024-01-15T18:00:00.000Z"},
		{name: "unknown zone", input: "Mon, 15 Jan 2024 10:00:00 ZZZ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.ToSafeISODate(tt.input))
		})
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "nil", input: nil, want: ""},
		{name: "plain", input: "hello world", want: "hello world"},
		{name: "tags", input: "<p>Hello <b>world</b></p>", want: "Hello world"},
		{name: "collapse whitespace", input: "foo\n\n<br/>bar\t baz", want: "foo bar baz"},
		{name: "only tags", input: "<p></p>", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.StripHTML(tt.input))
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	require.Equal(t, "b", processing.FirstNonEmpty(nil, "", "b", "c"))
	require.Equal(t, 7, processing.FirstNonEmpty("", 7))
	require.Nil(t, processing.FirstNonEmpty(nil, ""))
}

func TestBuildArticleID(t *testing.T) {
	id1 := processing.BuildArticleID("src-1", "https://example.com/a", "guid-1", "Title")
	id2 := processing.BuildArticleID("src-1", "https://example.com/a", "other", "Other")
	require.NotEmpty(t, id1)
	require.Equal(t, id1, id2)

	require.NotEqual(t, id1, processing.BuildArticleID("src-2", "https://example.com/a", "", ""))
	require.NotEmpty(t, processing.BuildArticleID("src-1", "", "guid-1", ""))
	require.Empty(t, processing.BuildArticleID("src-1", " ", "", ""))
}
