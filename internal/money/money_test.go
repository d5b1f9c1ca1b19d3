package money

import "testing"

func TestParseMinor(t *testing.T) {
	cases := []struct {
		input string
		want  int64
		err   error
	}{
		{"100", 10000, nil},
		{"100.00", 10000, nil},
		{"-100.01", -10001, nil},
		{"0.5", 50, nil},
		{"+.25", 25, nil},
		{"", 0, ErrInvalidAmount},
		{"-", 0, ErrInvalidAmount},
		{"+", 0, ErrInvalidAmount},
		{".", 0, ErrInvalidAmount},
		{"-.", 0, ErrInvalidAmount},
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
	if got := FormatMinor(10001); got != "100.01" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := FormatMinor(-5); got != "-0.05" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := FormatMinor(0); got != "0.00" {
		t.Fatalf("unexpected format: %s", got)
	}
}
