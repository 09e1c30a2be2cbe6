package norah

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Guardrail rule names, reported in Verdict.Rule and metrics.
const (
	RuleSpoiler = "spoiler"
	RuleNoClues = "no-clues"
	RuleTooLong = "too-long"
	RuleUnclear = "unclear"
)

const (
	maxInputLen = 500
	minInputLen = 3
)

// Verdict is the outcome of the guardrail filter.
type Verdict struct {
	Blocked bool
	Text    string
	Rule    string
}

var spoilerSignals = []string{
	"dove si trova", "dov'è", "dove è", "dove sta", "dimmi dove",
	"coordinate", "coordinata", "latitudine", "longitudine", "gps",
	"posizione esatta", "posizione del premio", "indirizzo",
	"soluzione", "risposta esatta", "dammi la risposta",
	"where is", "location", "coordinates", "solution", "exact address",
}

var hiddenClueSignals = []string{
	"altri indizi", "più indizi", "nuovi indizi", "indizi nascosti",
	"indizio nascosto", "indizi segreti", "sblocca indizi",
	"more clues", "hidden clues", "secret clues",
}

// Refusals must never contain digits so nothing reads as a coordinate.
var spoilerRefusals = []string{
	"non posso rivelare posizioni o soluzioni: il protocollo AION protegge l'integrità della caccia. Posso però aiutarti ad analizzare gli indizi che hai.",
	"questa informazione è classificata. Il mio compito è affinare il tuo ragionamento, non sostituirlo. Chiedimi di cercare pattern negli indizi.",
	"le coordinate restano sigillate fino alla fine della missione. Lavoriamo sugli indizi: è lì che si nasconde la strada.",
	"richiesta respinta dal protocollo di sicurezza. Nessun agente riceve la soluzione in anticipo, ma posso guidarti passo dopo passo.",
}

const (
	noCluesText = "🧭 Non hai ancora nessun indizio da analizzare. Usa il Buzz sulla mappa per sbloccare il tuo primo indizio, poi torna da me: inizieremo l'analisi insieme."
	tooLongText = "✂️ Il messaggio è troppo lungo. Riassumi la tua richiesta in poche frasi, ad esempio \"trova pattern negli indizi\"."
	unclearText = "🤔 Non ho capito la richiesta. Prova con frasi come \"classifica gli indizi\", \"trova pattern\" oppure \"decodifica questo indizio\"."
)

// Enforce runs the guardrail rules in order; the first match wins.
// A blocked verdict's Text is the final reply.
func Enforce(input string, ic IntelContext, now time.Time) Verdict {
	lower := strings.ToLower(input)

	if containsAny(lower, spoilerSignals) {
		return Verdict{Blocked: true, Rule: RuleSpoiler, Text: spoilerRefusal(ic.AgentCode, now)}
	}

	if len(ic.UserClues) == 0 && containsAny(lower, hiddenClueSignals) {
		return Verdict{Blocked: true, Rule: RuleNoClues, Text: noCluesText}
	}

	if utf8.RuneCountInString(input) > maxInputLen {
		return Verdict{Blocked: true, Rule: RuleTooLong, Text: tooLongText}
	}

	trimmed := strings.TrimSpace(input)
	if utf8.RuneCountInString(trimmed) < minInputLen || !hasLetter(trimmed) {
		return Verdict{Blocked: true, Rule: RuleUnclear, Text: unclearText}
	}

	return Verdict{}
}

// spoilerRefusal picks a refusal by (first rune of agent code + unix minute) mod N.
func spoilerRefusal(agentCode string, now time.Time) string {
	first := 0
	if r, _ := utf8.DecodeRuneInString(agentCode); r != utf8.RuneError {
		first = int(r)
	}
	minute := int(now.Unix() / 60)
	variant := Pick(spoilerRefusals, first+minute)
	return "🔒 **Agente " + agentCode + "**, " + variant
}

func containsAny(s string, signals []string) bool {
	for _, sig := range signals {
		if strings.Contains(s, sig) {
			return true
		}
	}
	return false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
