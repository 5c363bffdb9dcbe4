package log

import "testing"

func TestMaskNumber(t *testing.T) {
	cases := map[string]string{
		"628123456789": "62812345xxxx",
		"1234":         "xxxx",
		"123":          "123",
		"":             "",
	}
	for in, want := range cases {
		if got := MaskNumber(in); got != want {
			t.Errorf("MaskNumber(%q) = %q, want %q", in, got, want)
		}
	}
}
