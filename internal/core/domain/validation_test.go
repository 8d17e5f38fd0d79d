package domain

import "testing"

func TestIsValidPlayerName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"p1", true},
		{"alice_01", true},
		{"bob.smith-2", true},
		{"", false},
		{"this-name-is-definitely-too-long", false},
		{"has space", false},
		{"semi;colon", false},
	}

	for _, tt := range tests {
		if got := IsValidPlayerName(tt.name); got != tt.valid {
			t.Errorf("IsValidPlayerName(%q) = %v; want %v", tt.name, got, tt.valid)
		}
	}
}

func TestFlagFormatValidation(t *testing.T) {
	v := DefaultValidator{}

	if err := v.FlagFormat(""); err == nil {
		t.Error("expected error for empty flag_format")
	}
	if err := v.FlagFormat(`[`); err == nil {
		t.Error("expected error for invalid regex")
	}
	if err := v.FlagFormat(`[A-Z0-9]{31}=`); err != nil {
		t.Errorf("unexpected error for valid regex: %v", err)
	}
}
