package scoring

import (
	"math"

	"github.com/pavelanni/bandscore/internal/model"
)

// RoundHalf rounds x to the nearest 0.5, halves rounding up.
func RoundHalf(x float64) float64 {
	return math.Floor(x*2+0.5) / 2
}

// Aggregate averages the non-zero bands and rounds to the nearest 0.5.
// A zero band means "not yet scored" and is skipped. It returns 0 when no
// band is left.
func Aggregate(bands ...float64) float64 {
	var sum float64
	n := 0
	for _, b := range bands {
		if b == 0 {
			continue
		}
		sum += b
		n++
	}
	if n == 0 {
		return 0
	}
	return RoundHalf(sum / float64(n))
}

// WritingOverall weights task 2 double task 1.
func WritingOverall(task1, task2 float64) float64 {
	return RoundHalf((task1 + 2*task2) / 3)
}

// CriteriaBand is the rounded mean of the four writing criteria.
func CriteriaBand(c model.CriteriaScores) float64 {
	var sum float64
	vals := c.Values()
	for _, v := range vals {
		sum += v
	}
	return RoundHalf(sum / float64(len(vals)))
}

// ValidBand reports whether b lies in 0..9 on a 0.5 step.
func ValidBand(b float64) bool {
	if math.IsNaN(b) || b < 0 || b > 9 {
		return false
	}
	return b*2 == math.Trunc(b*2)
}

// ClampBand forces an arbitrary number onto the band scale.
func ClampBand(b float64) float64 {
	if math.IsNaN(b) || b < 0 {
		return 0
	}
	if b > 9 {
		return 9
	}
	return RoundHalf(b)
}
