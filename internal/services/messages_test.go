package services

import "testing"

func TestClampHistoryLimit(t *testing.T) {
	cases := []struct {
		name  string
		limit int64
		want  int64
	}{
		{"zero defaults", 0, 50},
		{"negative defaults", -5, 50},
		{"minimum kept", 1, 1},
		{"default kept", 50, 50},
		{"maximum kept", 100, 100},
		{"oversized capped", 500, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := clampHistoryLimit(tc.limit); got != tc.want {
				t.Errorf("clampHistoryLimit(%d) = %d, want %d", tc.limit, got, tc.want)
			}
		})
	}
}
