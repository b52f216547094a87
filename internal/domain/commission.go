package domain

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

type CommissionStatus string

const (
	CommissionStatusPending CommissionStatus = "pending"
	CommissionStatusPaid    CommissionStatus = "paid"
)

// Commission is one ancestor's share of a settled order's reward pool.
// The (OrderID, UserID) pair is unique: re-running distribution for an
// order can never produce a second row for the same ancestor.
type Commission struct {
	CommissionID uuid.UUID        `json:"commission_id"`
	UserID       uuid.UUID        `json:"user_id"`
	OrderID      uuid.UUID        `json:"order_id"`
	Level        int              `json:"level"`
	Weight       float64          `json:"weight"`
	Amount       int64            `json:"amount"`
	Status       CommissionStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	PaidAt       *time.Time       `json:"paid_at,omitempty"`
}

// DecayWeights returns the raw geometric weights r^(i-1) for chain
// positions 1..n, nearest referrer first.
func DecayWeights(ratio float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	weights := make([]float64, n)
	w := 1.0
	for i := 0; i < n; i++ {
		weights[i] = w
		w *= ratio
	}
	return weights
}

// SplitPool divides pool minor units across n chain positions using
// geometric decay re-normalized over the actual chain length. The
// denominator is the sum over the real chain, not the infinite-series
// limit, so a single referrer with no upstream receives the whole pool.
//
// Amounts are assigned by largest remainder: every position gets the
// floor of its exact share, and the leftover minor units go one each to
// the positions with the largest fractional parts, ties and ordering
// favoring the position nearest the buyer. The returned amounts always
// sum to exactly pool.
func SplitPool(pool int64, ratio float64, n int) []int64 {
	if pool <= 0 || n <= 0 {
		return nil
	}
	weights := DecayWeights(ratio, n)
	var denom float64
	for _, w := range weights {
		denom += w
	}

	amounts := make([]int64, n)
	fractions := make([]float64, n)
	var assigned int64
	for i, w := range weights {
		exact := float64(pool) * w / denom
		floor := math.Floor(exact)
		amounts[i] = int64(floor)
		fractions[i] = exact - floor
		assigned += amounts[i]
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fractions[order[a]] > fractions[order[b]]
	})
	for i, remainder := 0, pool-assigned; remainder > 0 && i < n; i++ {
		amounts[order[i]]++
		remainder--
	}
	return amounts
}
