package core

import "testing"

func TestFormatResults(t *testing.T) {
	tests := []struct {
		name     string
		results  []KeyStatistics
		expected string
	}{
		{
			name:     "empty",
			expected: "{}",
		},
		{
			name: "two keys",
			results: []KeyStatistics{
				{Key: "A", Stats: Statistics{Min: 10, Max: 20, Mean: 15, Count: 2}},
				{Key: "B", Stats: Statistics{Min: 5, Max: 5, Mean: 5, Count: 1}},
			},
			expected: "{A=10.0/15.0/20.0, B=5.0/5.0/5.0}",
		},
		{
			name: "rounding to one digit",
			results: []KeyStatistics{
				{Key: "Oslo", Stats: Statistics{Min: -12.34, Max: 30.06, Mean: 5.6666, Count: 3}},
			},
			expected: "{Oslo=-12.3/5.7/30.1}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatResults(tt.results); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
