package domain

import "testing"

func TestDecayWeights(t *testing.T) {
	weights := DecayWeights(0.8, 4)
	if len(weights) != 4 {
		t.Fatalf("expected 4 weights, got %d", len(weights))
	}
	expected := []float64{1, 0.8, 0.64, 0.512}
	for i, w := range weights {
		if diff := w - expected[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("weight[%d] = %v, expected %v", i, w, expected[i])
		}
	}
	for i := 1; i < len(weights); i++ {
		if weights[i] >= weights[i-1] {
			t.Errorf("weights must strictly decrease, got %v at %d after %v", weights[i], i, weights[i-1])
		}
	}
	if DecayWeights(0.8, 0) != nil {
		t.Error("expected nil weights for empty chain")
	}
}

func TestSplitPoolThreeLevels(t *testing.T) {
	amounts := SplitPool(300, 0.8, 3)
	expected := []int64{123, 98, 79}
	if len(amounts) != len(expected) {
		t.Fatalf("expected %d amounts, got %d", len(expected), len(amounts))
	}
	for i, a := range amounts {
		if a != expected[i] {
			t.Errorf("amount[%d] = %d, expected %d", i, a, expected[i])
		}
	}
}

func TestSplitPoolSingleReferrerTakesAll(t *testing.T) {
	amounts := SplitPool(300, 0.8, 1)
	if len(amounts) != 1 || amounts[0] != 300 {
		t.Fatalf("a lone referrer gets the full pool, got %v", amounts)
	}
}

func TestSplitPoolConservesEveryMinorUnit(t *testing.T) {
	cases := []struct {
		pool  int64
		ratio float64
		n     int
	}{
		{300, 0.8, 2},
		{300, 0.8, 7},
		{500, 0.8, 3},
		{500, 0.5, 5},
		{1, 0.8, 3},
		{999, 0.9, 10},
		{100000, 0.8, 50},
	}
	for _, tc := range cases {
		amounts := SplitPool(tc.pool, tc.ratio, tc.n)
		if len(amounts) != tc.n {
			t.Fatalf("pool=%d n=%d: got %d amounts", tc.pool, tc.n, len(amounts))
		}
		var sum int64
		for i, a := range amounts {
			if a < 0 {
				t.Errorf("pool=%d n=%d: negative amount %d at %d", tc.pool, tc.n, a, i)
			}
			sum += a
		}
		if sum != tc.pool {
			t.Errorf("pool=%d ratio=%v n=%d: amounts sum to %d", tc.pool, tc.ratio, tc.n, sum)
		}
	}
}

func TestSplitPoolNearestLevelsNeverEarnLess(t *testing.T) {
	amounts := SplitPool(500, 0.8, 6)
	for i := 1; i < len(amounts); i++ {
		if amounts[i] > amounts[i-1] {
			t.Errorf("level %d earns %d, more than level %d's %d", i+1, amounts[i], i, amounts[i-1])
		}
	}
}

func TestSplitPoolDegenerateInputs(t *testing.T) {
	if SplitPool(0, 0.8, 3) != nil {
		t.Error("zero pool must distribute nothing")
	}
	if SplitPool(300, 0.8, 0) != nil {
		t.Error("empty chain must distribute nothing")
	}
	if SplitPool(-10, 0.8, 3) != nil {
		t.Error("negative pool must distribute nothing")
	}
}
