package service

import "testing"

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name     string
		input    int64
		expected string
	}{
		{name: "zero", input: 0, expected: "0 Bytes"},
		{name: "sub kilobyte", input: 512, expected: "512 Bytes"},
		{name: "exact kilobyte", input: 1024, expected: "1 KB"},
		{name: "trailing zeros trimmed", input: 1536, expected: "1.5 KB"},
		{name: "two decimals kept", input: 150000, expected: "146.48 KB"},
		{name: "exact megabyte", input: 1 << 20, expected: "1 MB"},
		{name: "exact gigabyte", input: 1 << 30, expected: "1 GB"},
		{name: "clamped to largest unit", input: 5 << 40, expected: "5120 GB"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatBytes(tc.input); got != tc.expected {
				t.Fatalf("FormatBytes(%d) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}
