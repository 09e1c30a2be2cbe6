package norah

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var hedges = []string{
	"Probabilmente",
	"A mio avviso",
	"Da quanto vedo",
	"Se i dati non mentono",
	"Con buona approssimazione",
	"Secondo la mia lettura",
}

var markers = []string{
	"Inoltre",
	"Detto questo",
	"Allo stesso tempo",
	"Non a caso",
	"In più",
	"D'altra parte",
}

var closers = []string{
	"Resto in ascolto, agente.",
	"Il prossimo passo è tuo.",
	"Tieni gli occhi aperti.",
	"Ogni dettaglio conta.",
	"La caccia continua.",
	"Fammi sapere cosa trovi.",
	"Sono qui quando serve.",
}

// TimeBucket returns floor(unixSeconds / size), the time component of a seed.
func TimeBucket(now time.Time, size time.Duration) int64 {
	secs := int64(size / time.Second)
	if secs <= 0 {
		secs = 1
	}
	return now.Unix() / secs
}

// SeedFrom derives the deterministic seed for one request.
//
//	seed = Σrunes(agentCode) + Σrunes(clue IDs) + bucket + len(intent) + len(state)
//
// Identical inputs within the same bucket always give the same seed.
func SeedFrom(ic IntelContext, intent Intent, state SessionState, bucket int64) int {
	seed := runeSum(ic.AgentCode)
	for _, c := range ic.UserClues {
		seed += runeSum(c.ID)
	}
	seed += int(bucket)
	seed += len(intent) + len(state)
	return seed
}

func runeSum(s string) int {
	n := 0
	for _, r := range s {
		n += int(r)
	}
	return n
}

// Pick returns items[|seed| mod len(items)]. It panics on an empty slice.
func Pick[T any](items []T, seed int) T {
	return items[absMod(seed, len(items))]
}

func absMod(seed, n int) int {
	m := seed % n
	if m < 0 {
		m = -m
	}
	return m
}

func PickHedge(seed int) string  { return Pick(hedges, seed) }
func PickMarker(seed int) string { return Pick(markers, seed) }
func PickCloser(seed int) string { return Pick(closers, seed) }

// AddVariety applies the seed-driven stylistic touches to text:
//   - seed%3 == 0: a hedge opens the first sentence
//   - seed%2 == 0: a discourse marker opens the middle sentence
//   - ". " at rune offset i with (i+seed)%5 == 0 gains an em-dash pause
//
// A closing line is always appended.
func AddVariety(text string, seed int) string {
	sentences := strings.Split(text, ". ")

	if absMod(seed, 3) == 0 && sentences[0] != "" {
		sentences[0] = PickHedge(seed) + ", " + lowerFirst(sentences[0])
	}
	if absMod(seed, 2) == 0 && len(sentences) >= 2 {
		mid := len(sentences) / 2
		sentences[mid] = PickMarker(seed) + ", " + lowerFirst(sentences[mid])
	}

	out := insertPauses(strings.Join(sentences, ". "), seed)
	return strings.TrimSpace(out) + " " + PickCloser(seed+2)
}

// insertPauses turns ". " into ". — " where the period's rune offset plus
// seed is divisible by 5.
func insertPauses(text string, seed int) string {
	runes := []rune(text)
	var sb strings.Builder
	sb.Grow(len(text) + 16)
	for i, r := range runes {
		sb.WriteRune(r)
		if r == '.' && i+1 < len(runes) && runes[i+1] == ' ' && absMod(i+seed, 5) == 0 {
			sb.WriteString(" —")
		}
	}
	return sb.String()
}

// lowerFirst lower-cases the first rune unless the first word looks like
// an acronym or code (second rune upper-case or a digit).
func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return s
	}
	if next, _ := utf8.DecodeRuneInString(s[size:]); unicode.IsUpper(next) || unicode.IsDigit(next) || next == '-' {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
