package ui

import (
	"testing"
	"time"
)

func TestHumanizeDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Millisecond, "now"},
		{42 * time.Second, "42s"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
	}
	for _, tt := range tests {
		if got := humanizeDuration(tt.in); got != tt.want {
			t.Fatalf("humanizeDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "-"},
		{65 * time.Second, "1:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.in); got != tt.want {
			t.Fatalf("formatElapsed(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShortRevision(t *testing.T) {
	if got := shortRevision(""); got != "-" {
		t.Fatalf("shortRevision(empty) = %q, want -", got)
	}
	if got := shortRevision("0123456789abcdef"); got != "0123456789" {
		t.Fatalf("shortRevision = %q, want 10 chars", got)
	}
}

func TestCell_PadsAndTruncates(t *testing.T) {
	if got := cell("ab", 4); got != "ab  " {
		t.Fatalf("cell pad = %q", got)
	}
	if got := cell("abcdef", 4); got != "abc…" {
		t.Fatalf("cell truncate = %q", got)
	}
	if got := cell("abc", 0); got != "" {
		t.Fatalf("cell zero width = %q", got)
	}
}
