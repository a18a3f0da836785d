package money

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func TestApplyPercent(t *testing.T) {
	tests := []struct {
		name      string
		baseCents int64
		percent   string
		want      int64
	}{
		{"8 percent of $100", 10000, "8", 800},
		{"10 percent of $150", 15000, "10", 1500},
		{"zero base", 0, "8", 0},
		{"zero percent", 10000, "0", 0},
		{"rounds half up", 1050, "5", 53},    // 52.5 -> 53
		{"rounds down below half", 1049, "5", 52}, // 52.45 -> 52
		{"fractional rate", 9999, "8.25", 825}, // 824.9175 -> 825
		{"one cent base", 1, "50", 1},          // 0.5 -> 1
		{"sales tax 6.5 percent", 2499, "6.5", 162}, // 162.435 -> 162
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			percent, err := decimal.NewFromString(tt.percent)
			if err != nil {
				t.Fatalf("bad percent %q: %v", tt.percent, err)
			}

			got := ApplyPercent(tt.baseCents, percent)
			if got != tt.want {
				t.Errorf("ApplyPercent(%d, %s) = %d, want %d", tt.baseCents, tt.percent, got, tt.want)
			}
		})
	}
}

func TestMulDecimal(t *testing.T) {
	tests := []struct {
		name   string
		cents  int64
		factor string
		want   int64
	}{
		{"whole hours", 9500, "2", 19000},
		{"half hour", 9500, "0.5", 4750},
		{"tenth of hour rounds", 9999, "0.1", 1000}, // 999.9 -> 1000
		{"zero factor", 9500, "0", 0},
		{"quarter hour", 12000, "1.25", 15000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factor, err := decimal.NewFromString(tt.factor)
			if err != nil {
				t.Fatalf("bad factor %q: %v", tt.factor, err)
			}

			got := MulDecimal(tt.cents, factor)
			if got != tt.want {
				t.Errorf("MulDecimal(%d, %s) = %d, want %d", tt.cents, tt.factor, got, tt.want)
			}
		})
	}
}

func TestDistribute(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		n     int
		want  []int64
	}{
		{"even split", 300, 3, []int64{100, 100, 100}},
		{"remainder to first parts", 100, 3, []int64{34, 33, 33}},
		{"two way odd cent", 101, 2, []int64{51, 50}},
		{"single part", 999, 1, []int64{999}},
		{"zero total", 0, 4, []int64{0, 0, 0, 0}},
		{"negative total", -100, 3, []int64{-34, -33, -33}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distribute(tt.total, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("Distribute(%d, %d) length = %d, want %d", tt.total, tt.n, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Distribute(%d, %d)[%d] = %d, want %d", tt.total, tt.n, i, got[i], tt.want[i])
				}
			}
		})
	}

	if got := Distribute(100, 0); got != nil {
		t.Errorf("Distribute(100, 0) = %v, want nil", got)
	}
}

// TestDistributeReconciles asserts the core invariant under randomized
// inputs: the parts always sum back to the original total.
func TestDistributeReconciles(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 1000; i++ {
		total := rng.Int63n(10_000_000) - 5_000_000
		n := rng.Intn(20) + 1

		parts := Distribute(total, n)

		var sum int64
		for _, p := range parts {
			sum += p
		}
		if sum != total {
			t.Fatalf("Distribute(%d, %d) parts sum to %d", total, n, sum)
		}

		// No two parts may differ by more than one cent.
		for _, p := range parts {
			diff := parts[0] - p
			if diff < -1 || diff > 1 {
				t.Fatalf("Distribute(%d, %d) uneven parts: %v", total, n, parts)
			}
		}
	}
}
