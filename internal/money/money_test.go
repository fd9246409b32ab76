package money

import (
	"strings"
	"testing"
	"time"
)

func TestParseMinor(t *testing.T) {
	cases := []struct {
		input string
		want  int64
		err   error
	}{
		{"100", 10000, nil},
		{"100.5", 10050, nil},
		{"100.55", 10055, nil},
		{"0.01", 1, nil},
		{"-2.50", -250, nil},
		{"+3", 300, nil},
		{".75", 75, nil},
		{"", 0, ErrInvalidAmount},
		{"abc", 0, ErrInvalidAmount},
		{"1.234", 0, ErrTooManyDecimals},
		{"1.2x", 0, ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseMinor(tc.input)
		if err != tc.err {
			t.Fatalf("ParseMinor(%q) error = %v, want %v", tc.input, err, tc.err)
		}
		if got != tc.want {
			t.Fatalf("ParseMinor(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestFormatMinor(t *testing.T) {
	if got := FormatMinor(10050); got != "100.50" {
		t.Fatalf("FormatMinor(10050) = %q", got)
	}
	if got := FormatMinor(-250); got != "-2.50" {
		t.Fatalf("FormatMinor(-250) = %q", got)
	}
	if got := FormatMinor(5); got != "0.05" {
		t.Fatalf("FormatMinor(5) = %q", got)
	}
}

func TestMaskAccountNumber(t *testing.T) {
	if got := MaskAccountNumber("1234567890"); got != "******7890" {
		t.Fatalf("MaskAccountNumber = %q", got)
	}
	if got := MaskAccountNumber("7890"); got != "7890" {
		t.Fatalf("short numbers should be left alone, got %q", got)
	}
}

func TestNewReferenceUniqueWithinMillisecond(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		ref := NewReference(now)
		if !strings.HasPrefix(ref, "TXN-") {
			t.Fatalf("unexpected reference shape %q", ref)
		}
		if _, dup := seen[ref]; dup {
			t.Fatalf("duplicate reference %q", ref)
		}
		seen[ref] = struct{}{}
	}
}
