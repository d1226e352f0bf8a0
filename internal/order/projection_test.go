package order

import "testing"

func TestPOLineRemaining(t *testing.T) {
	cases := []struct {
		name     string
		quantity float64
		received float64
		want     float64
	}{
		{"nothing received", 10, 0, 10},
		{"partially received", 10, 4, 6},
		{"fully received", 10, 10, 0},
		{"over received clamps to zero", 10, 12, 0},
		{"zero quantity", 0, 0, 0},
		{"fractional", 2.5, 1.25, 1.25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := POLineState{Quantity: tc.quantity, Received: tc.received}.Remaining()
			if got != tc.want {
				t.Errorf("Remaining(%v,%v) = %v, want %v", tc.quantity, tc.received, got, tc.want)
			}
		})
	}
}

func TestSOLineRemaining(t *testing.T) {
	cases := []struct {
		name      string
		quantity  float64
		allocated float64
		shipped   float64
		want      float64
	}{
		{"untouched", 10, 0, 0, 10},
		{"partially allocated", 10, 3, 0, 7},
		{"allocated and shipped", 10, 3, 4, 3},
		{"fully covered", 10, 5, 5, 0},
		{"over covered clamps to zero", 10, 8, 5, 0},
		{"zero quantity never negative", 0, 2, 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := SOLineState{Quantity: tc.quantity, Allocated: tc.allocated, Shipped: tc.shipped}
			if got := l.Remaining(); got != tc.want {
				t.Errorf("Remaining() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStockAvailable(t *testing.T) {
	if got := StockAvailable(100, 30); got != 70 {
		t.Errorf("expected 70, got %v", got)
	}
	if got := StockAvailable(10, 15); got != 0 {
		t.Errorf("over-allocated stock should report 0 available, got %v", got)
	}
}

func TestFloatDriftAvoided(t *testing.T) {
	// 0.1 + 0.2 style drift must not leak into remaining-demand math.
	l := SOLineState{Quantity: 0.3, Allocated: 0.1, Shipped: 0.2}
	if got := l.Remaining(); got != 0 {
		t.Errorf("expected exact 0 remaining, got %v", got)
	}
}
