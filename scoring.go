package norah

import (
	"math"
	"time"
)

// --- Recency ---

// recencyHorizonDays is where linear recency decay reaches zero.
const recencyHorizonDays = 30.0

// RecencyScore computes the linear decay of a clue's freshness.
//
//	recency = max(0, 1 - ageDays/30)
//
// Clues dated in the future count as fresh (1.0).
func RecencyScore(ageDays float64) float64 {
	r := 1 - ageDays/recencyHorizonDays
	return math.Max(0, math.Min(1, r))
}

// --- Confidence ---

// Confidence blends the clue count with their average recency.
//
//	confidence = min(1, clueCount/10 × avgRecency)
//
// Monotonic in clueCount for a fixed avgRecency, always within [0, 1].
func Confidence(clueCount int, avgRecency float64) float64 {
	if clueCount <= 0 || avgRecency <= 0 {
		return 0
	}
	c := float64(clueCount) / 10.0 * avgRecency
	return math.Min(1, c)
}

// --- TF-IDF ---

// TFIDF scores a term by corpus frequency and inverse document frequency.
//
//	score = tf × log(totalDocs / df)
func TFIDF(tf, df, totalDocs int) float64 {
	if tf == 0 || df == 0 || totalDocs == 0 {
		return 0
	}
	return float64(tf) * math.Log(float64(totalDocs)/float64(df))
}

// DaysSince computes fractional days between a past time and now.
func DaysSince(t, now time.Time) float64 {
	return now.Sub(t).Hours() / 24.0
}

func average(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
