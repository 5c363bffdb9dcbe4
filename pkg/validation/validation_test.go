package validation

import "testing"

func TestValidatePhone(t *testing.T) {
	valid := []string{"628123456789", "+628123456789", "15551234567", "491234"}
	for _, phone := range valid {
		if err := ValidatePhone(phone); err != nil {
			t.Errorf("ValidatePhone(%q) unexpected error: %v", phone, err)
		}
	}

	invalid := []string{"", "0812345678", "abc123", "123", "62-812-345"}
	for _, phone := range invalid {
		if err := ValidatePhone(phone); err == nil {
			t.Errorf("ValidatePhone(%q) should fail", phone)
		}
	}
}

func TestSanitizeNumber(t *testing.T) {
	cases := map[string]string{
		"+62 812-3456":         "628123456",
		"628123456":            "628123456",
		"62812@s.whatsapp.net": "62812",
		"":                     "",
	}
	for in, want := range cases {
		if got := SanitizeNumber(in); got != want {
			t.Errorf("SanitizeNumber(%q) = %q, want %q", in, got, want)
		}
	}
}
