package http

import (
	"testing"
	"time"
)

func TestParseIntDefault(t *testing.T) {
	cases := []struct {
		in   string
		def  int
		want int
	}{
		{"", 25, 25},
		{"42", 25, 42},
		{"-3", 25, -3},
		{"4.5", 25, 25},
		{"abc", 25, 25},
	}
	for _, c := range cases {
		if got := ParseIntDefault(c.in, c.def); got != c.want {
			t.Errorf("ParseIntDefault(%q, %d) = %d, want %d", c.in, c.def, got, c.want)
		}
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	cases := []struct {
		name string
		in   string
		ok   bool
		want time.Time
	}{
		{"rfc3339", "2025-03-14T09:26:53Z", true, want},
		{"rfc3339 nano", "2025-03-14T09:26:53.000000001Z", true, want.Add(time.Nanosecond)},
		{"unix seconds", "1741944413", true, want},
		{"unix milliseconds", "1741944413000", true, want},
		{"empty", "", false, time.Time{}},
		{"garbage", "yesterday", false, time.Time{}},
		{"negative unix", "-5", false, time.Time{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := ParseTime(c.in)
			if ok != c.ok {
				t.Fatalf("ParseTime(%q) ok = %v, want %v", c.in, ok, c.ok)
			}
			if ok && !got.Equal(c.want) {
				t.Errorf("ParseTime(%q) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}
