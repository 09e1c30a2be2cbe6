package norah

import (
	"encoding/base64"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	topKeywords  = 8
	maxDecodings = 5
	caesarShift  = 3
)

// Analyze runs the text heuristics for intent over the context's clues.
// The result depends only on its inputs.
func Analyze(intent Intent, ic IntelContext, now time.Time) Analysis {
	var a Analysis

	a.Keywords = ExtractKeywords(ic.UserClues, topKeywords)

	if intent == IntentClassify || intent == IntentPatterns {
		a.Clusters = BucketClues(ic.UserClues, a.Keywords)
	}

	if intent == IntentDecode {
		a.Decoded = DecodeClues(ic.UserClues, maxDecodings)
	}

	a.Recency = make([]float64, len(ic.UserClues))
	for i, c := range ic.UserClues {
		a.Recency[i] = RecencyScore(DaysSince(c.CreatedAt, now))
	}
	a.Confidence = Confidence(len(ic.UserClues), average(a.Recency))

	return a
}

// --- Keywords ---

// ExtractKeywords returns the top n terms by TF-IDF across the clues.
// Ties keep the order in which terms first appeared.
func ExtractKeywords(clues []Clue, n int) []string {
	if len(clues) == 0 || n <= 0 {
		return nil
	}

	tf := make(map[string]int)
	df := make(map[string]int)
	var order []string

	for _, c := range clues {
		seen := make(map[string]bool)
		for _, tok := range clueTokens(c) {
			if _, ok := tf[tok]; !ok {
				order = append(order, tok)
			}
			tf[tok]++
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	type termScore struct {
		term  string
		score float64
	}
	scoredTerms := make([]termScore, len(order))
	for i, term := range order {
		scoredTerms[i] = termScore{term, TFIDF(tf[term], df[term], len(clues))}
	}
	sort.SliceStable(scoredTerms, func(i, j int) bool {
		return scoredTerms[i].score > scoredTerms[j].score
	})

	if len(scoredTerms) > n {
		scoredTerms = scoredTerms[:n]
	}
	out := make([]string, len(scoredTerms))
	for i, ts := range scoredTerms {
		out[i] = ts.term
	}
	return out
}

// --- Bucketing ---

// BucketClues splits clues into at most two groups of clue texts.
//
// This is a heuristic bucketing step, not clustering: each clue's keyword
// count is compared against half of the first clue's count. Clues above the
// threshold land in the first group, the rest in the second. Empty groups
// are dropped.
func BucketClues(clues []Clue, keywords []string) [][]string {
	if len(clues) == 0 {
		return nil
	}

	sums := make([]int, len(clues))
	for i, c := range clues {
		counts := make(map[string]int)
		for _, tok := range clueTokens(c) {
			counts[tok]++
		}
		for _, kw := range keywords {
			sums[i] += counts[kw]
		}
	}

	threshold := float64(sums[0]) / 2
	var high, low []string
	for i, c := range clues {
		if float64(sums[i]) > threshold {
			high = append(high, c.Text)
		} else {
			low = append(low, c.Text)
		}
	}

	var groups [][]string
	if len(high) > 0 {
		groups = append(groups, high)
	}
	if len(low) > 0 {
		groups = append(groups, low)
	}
	return groups
}

// --- Decoding ---

var nonBase64Re = regexp.MustCompile(`[^A-Za-z0-9+/=]`)

// DecodeClues tries each toy decoder on every clue text, in order, and
// keeps at most limit successful attempts overall.
func DecodeClues(clues []Clue, limit int) []Decoding {
	decoders := []struct {
		method string
		fn     func(string) (string, bool)
	}{
		{"base64", decodeBase64},
		{"caesar", decodeCaesar},
		{"reverse", decodeReverse},
		{"ascii", decodeDecimalASCII},
	}

	var out []Decoding
	for _, c := range clues {
		for _, d := range decoders {
			if len(out) >= limit {
				return out
			}
			if res, ok := d.fn(c.Text); ok {
				out = append(out, Decoding{Method: d.method, Source: c.Text, Output: res})
			}
		}
	}
	return out
}

func decodeBase64(s string) (string, bool) {
	filtered := nonBase64Re.ReplaceAllString(s, "")
	if filtered == "" || len(filtered)%4 != 0 {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(filtered)
	if err != nil || len(raw) == 0 {
		return "", false
	}
	for _, b := range raw {
		if b < 0x20 || b > 0x7e {
			return "", false
		}
	}
	return string(raw), true
}

// decodeCaesar shifts ASCII letters back by caesarShift.
func decodeCaesar(s string) (string, bool) {
	changed := false
	out := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			changed = true
			return 'a' + (r-'a'+26-caesarShift)%26
		case r >= 'A' && r <= 'Z':
			changed = true
			return 'A' + (r-'A'+26-caesarShift)%26
		}
		return r
	}, s)
	return out, changed
}

func decodeReverse(s string) (string, bool) {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) < 2 {
		return "", false
	}
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes), true
}

// decodeDecimalASCII reads space-separated decimal codes like "67 73 65 79".
func decodeDecimalASCII(s string) (string, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", false
	}
	var sb strings.Builder
	for _, f := range fields {
		for _, r := range f {
			if !unicode.IsDigit(r) {
				return "", false
			}
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 0x20 || n > 0x7e {
			return "", false
		}
		sb.WriteByte(byte(n))
	}
	return sb.String(), true
}
