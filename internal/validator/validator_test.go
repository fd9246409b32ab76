package validator

import "testing"

func TestValidatePIN(t *testing.T) {
	cases := []struct {
		pin  string
		want error
	}{
		{"8305", nil},
		{"73019", nil},
		{"830517", nil},
		{"12a4", ErrPinNotDigits},
		{"12 4", ErrPinNotDigits},
		{"123", ErrPinLength},
		{"1234567", ErrPinLength},
		{"7777", ErrPinRepeated},
		{"55555", ErrPinRepeated},
		{"3456", ErrPinSequential},
		{"6543", ErrPinSequential},
		{"123456", ErrPinSequential},
		{"654321", ErrPinSequential},
		{"0000", ErrPinRepeated},
		{"2580", ErrPinCommon},
		{"1122", ErrPinCommon},
		{"6969", ErrPinCommon},
	}
	for _, tc := range cases {
		if got := ValidatePIN(tc.pin); got != tc.want {
			t.Fatalf("ValidatePIN(%q) = %v, want %v", tc.pin, got, tc.want)
		}
	}
}

func TestValidatePINBlocklistAfterStructuralRules(t *testing.T) {
	// 1234 is both sequential and blocklisted; the structural rule reports first.
	if got := ValidatePIN("1234"); got != ErrPinSequential {
		t.Fatalf("ValidatePIN(1234) = %v, want %v", got, ErrPinSequential)
	}
}
