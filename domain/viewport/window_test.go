package viewport_test

import (
	"testing"

	"github.com/felixgeelhaar/keyscope/domain/viewport"
)

func TestCompute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		totalCount     int
		itemExtent     float64
		viewportExtent float64
		scrollOffset   float64
		overscan       int
		want           viewport.Window
	}{
		{
			name:           "mid-list window with overscan",
			totalCount:     10000,
			itemExtent:     20,
			viewportExtent: 400,
			scrollOffset:   1000,
			overscan:       3,
			want:           viewport.Window{StartIndex: 47, EndIndex: 73, OffsetExtent: 940},
		},
		{
			name:           "top of list clamps start to zero",
			totalCount:     100,
			itemExtent:     20,
			viewportExtent: 400,
			scrollOffset:   0,
			overscan:       3,
			want:           viewport.Window{StartIndex: 0, EndIndex: 26, OffsetExtent: 0},
		},
		{
			name:           "bottom of list clamps end to total",
			totalCount:     30,
			itemExtent:     20,
			viewportExtent: 400,
			scrollOffset:   10000,
			overscan:       3,
			want:           viewport.Window{StartIndex: 30, EndIndex: 30, OffsetExtent: 600},
		},
		{
			name:           "fewer items than the viewport holds",
			totalCount:     5,
			itemExtent:     20,
			viewportExtent: 400,
			scrollOffset:   0,
			overscan:       3,
			want:           viewport.Window{StartIndex: 0, EndIndex: 5, OffsetExtent: 0},
		},
		{
			name:           "negative scroll offset is treated as zero",
			totalCount:     100,
			itemExtent:     20,
			viewportExtent: 400,
			scrollOffset:   -50,
			overscan:       0,
			want:           viewport.Window{StartIndex: 0, EndIndex: 20, OffsetExtent: 0},
		},
		{
			name:           "fractional viewport rounds the visible count up",
			totalCount:     100,
			itemExtent:     30,
			viewportExtent: 400,
			scrollOffset:   0,
			overscan:       0,
			want:           viewport.Window{StartIndex: 0, EndIndex: 14, OffsetExtent: 0},
		},
		{
			name:       "empty list",
			totalCount: 0,
			itemExtent: 20,
			want:       viewport.Window{},
		},
		{
			name:       "non-positive item extent",
			totalCount: 100,
			itemExtent: 0,
			want:       viewport.Window{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := viewport.Compute(tt.totalCount, tt.itemExtent, tt.viewportExtent, tt.scrollOffset, tt.overscan)
			if got != tt.want {
				t.Errorf("Compute() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeIsPure(t *testing.T) {
	t.Parallel()

	// Same inputs, same window, however often it runs.
	first := viewport.Compute(10000, 20, 400, 1000, 3)
	for i := 0; i < 100; i++ {
		if got := viewport.Compute(10000, 20, 400, 1000, 3); got != first {
			t.Fatalf("Compute() varied across calls: %+v vs %+v", got, first)
		}
	}
}
