package repository

import "testing"

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from  string
		to    string
		valid bool
	}{
		{"waiting", "notified", true},
		{"waiting", "cancelled", true},
		{"waiting", "no_show", true},
		{"waiting", "completed", false},
		{"notified", "completed", true},
		{"notified", "no_show", true},
		{"notified", "cancelled", false},
		{"notified", "notified", false},
		{"completed", "notified", false},
		{"cancelled", "notified", false},
		{"no_show", "completed", false},
		{"waiting", "unknown", false},
		{"unknown", "notified", false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.from, tt.to); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestEstimateWaitMinutes(t *testing.T) {
	cases := []struct {
		position uint32
		avg      uint32
		want     uint32
	}{
		{1, 10, 10},
		{2, 10, 20},
		{3, 10, 30},
		{5, 7, 35},
		{1, 1, 1},
		{0, 10, 0},
	}

	for _, tt := range cases {
		if got := EstimateWaitMinutes(tt.position, tt.avg); got != tt.want {
			t.Fatalf("EstimateWaitMinutes(%d, %d)=%d, want %d", tt.position, tt.avg, got, tt.want)
		}
	}
}
