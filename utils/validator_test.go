package utils

import "testing"

func TestSanitizeInput(t *testing.T) {
	if got := SanitizeInput("  Charizard\x00 Base Set  "); got != "Charizard Base Set" {
		t.Errorf("unexpected sanitized value %q", got)
	}
}

func TestFormatUID(t *testing.T) {
	if got := FormatUID(42); got != "CG-000042" {
		t.Errorf("unexpected uid format %q", got)
	}
	if got := FormatUID(1234567); got != "CG-1234567" {
		t.Errorf("unexpected uid format %q", got)
	}
}
