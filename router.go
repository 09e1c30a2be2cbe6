package norah

import "strings"

const (
	analyzeThreshold = 3 // clues needed to leave the collect phase
	adviseThreshold  = 8
)

// KeywordRouter classifies messages with fixed keyword lists.
// Implements IntentClassifier.
type KeywordRouter struct {
	signals map[Intent][]string
}

// NewKeywordRouter creates the default Italian/English router.
func NewKeywordRouter() *KeywordRouter {
	return &KeywordRouter{signals: map[Intent][]string{
		IntentAbout: {
			"chi sei", "cosa sei", "presentati", "cosa fai", "come ti chiami",
			"who are you", "what are you", "about you",
		},
		IntentClassify: {
			"classifica", "categorizza", "raggruppa", "ordina gli indizi",
			"dividi", "classify", "categorize", "group",
		},
		IntentPatterns: {
			"pattern", "schema", "ricorrent", "ricorrenz", "collegament",
			"connession", "in comune", "trova", "links", "common",
		},
		IntentDecode: {
			"decodifica", "decifra", "cifrario", "codice", "codificat",
			"base64", "cesare", "decode", "decrypt", "cipher",
		},
		IntentProbability: {
			"probabilit", "possibilità", "quanto manca", "quanto sono vicin",
			"percentual", "chance", "odds", "how close",
		},
		IntentMentor: {
			"aiuto", "aiutami", "consiglio", "suggerimento", "come funziona",
			"cosa devo fare", "da dove inizio", "help", "advice", "hint",
		},
	}}
}

// Classify returns the first intent (in Intents order) whose keywords match.
// Without a match it defaults to patterns once the agent has 3 clues, else mentor.
func (r *KeywordRouter) Classify(input string, ic IntelContext) Intent {
	lower := strings.ToLower(strings.TrimSpace(input))

	for _, intent := range Intents {
		if containsAny(lower, r.signals[intent]) {
			return intent
		}
	}

	if len(ic.UserClues) >= analyzeThreshold {
		return IntentPatterns
	}
	return IntentMentor
}

// DetectIntent classifies input with the default router.
func DetectIntent(input string, ic IntelContext) Intent {
	return defaultRouter.Classify(input, ic)
}

var defaultRouter = NewKeywordRouter()

// NextState derives the session state from the clue count alone.
// current and input are accepted for interface stability but do not
// influence the transition: the machine has no history.
func NextState(current SessionState, input string, ic IntelContext) SessionState {
	n := len(ic.UserClues)
	switch {
	case n < analyzeThreshold:
		return StateCollect
	case n < adviseThreshold:
		return StateAnalyze
	default:
		return StateAdvise
	}
}

// IsIntentValid reports whether intent may be served in state.
// about and mentor are always allowed; everything else needs analyze or later.
func IsIntentValid(intent Intent, state SessionState) bool {
	switch intent {
	case IntentAbout, IntentMentor:
		return true
	}
	return state != StateCollect
}

// cluesNeeded is how many more clues unlock analysis (never below 1).
func cluesNeeded(ic IntelContext) int {
	n := analyzeThreshold - len(ic.UserClues)
	if n < 1 {
		n = 1
	}
	return n
}
