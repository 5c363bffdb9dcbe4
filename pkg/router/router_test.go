package router

import "testing"

func TestParseBodyLimit(t *testing.T) {
	cases := map[string]int{
		"8M":      8 * 1024 * 1024,
		"512K":    512 * 1024,
		"1G":      1024 * 1024 * 1024,
		"1024":    1024,
		" 2m ":    2 * 1024 * 1024,
		"":        8 * 1024 * 1024,
		"garbage": 8 * 1024 * 1024,
		"-5M":     8 * 1024 * 1024,
	}
	for in, want := range cases {
		if got := parseBodyLimit(in); got != want {
			t.Errorf("parseBodyLimit(%q) = %d, want %d", in, got, want)
		}
	}
}
