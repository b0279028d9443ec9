package use_cases

import "testing"

func TestDescriptionBudget(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    int
	}{
		{"zero", 0, 0},
		{"negative", -1, 0},
		{"below midpoint", 3.9, 0},
		{"at midpoint rounds up", 4.0, 1},
		{"one unit exact", 8.0, 1},
		{"just under two-unit midpoint", 19.9, 2},
		{"two-unit midpoint rounds up", 20.0, 3},
		{"exact multiple", 28.0, 4}, // 3 full units + 4s remainder
		{"long chunk", 65.0, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := descriptionBudget(tt.seconds); got != tt.want {
				t.Errorf("descriptionBudget(%v) = %d, want %d", tt.seconds, got, tt.want)
			}
		})
	}
}
