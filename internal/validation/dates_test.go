package validation

import "testing"

func TestIsValidStayRange(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  string
		checkOut string
		want     bool
	}{
		{"valid range", "2026-09-10", "2026-09-12", true},
		{"single night", "2026-09-10", "2026-09-11", true},
		{"same day", "2026-09-10", "2026-09-10", false},
		{"inverted range", "2026-09-12", "2026-09-10", false},
		{"bad check-in format", "10.09.2026", "2026-09-12", false},
		{"bad check-out format", "2026-09-10", "12-09-2026", false},
		{"empty dates", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidStayRange(tt.checkIn, tt.checkOut); got != tt.want {
				t.Fatalf("IsValidStayRange(%q, %q) = %v, want %v", tt.checkIn, tt.checkOut, got, tt.want)
			}
		})
	}
}
