package norah

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// --- Tokenization ---

var punctRe = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// stopWords are dropped before scoring. Tokens of 3 runes or fewer are
// dropped anyway, so only longer function words need listing.
var stopWords = map[string]bool{
	// Italian
	"alla": true, "alle": true, "allo": true, "anche": true, "come": true,
	"con": true, "dalla": true, "dalle": true, "dello": true, "della": true,
	"delle": true, "degli": true, "dove": true, "essere": true, "nella": true,
	"nelle": true, "negli": true, "nello": true, "perché": true, "però": true,
	"questo": true, "questa": true, "questi": true, "queste": true, "quello": true,
	"quella": true, "quando": true, "sono": true, "sulla": true, "sulle": true,
	"tutto": true, "tutti": true, "tutte": true, "ogni": true, "oppure": true,
	"ancora": true, "molto": true, "sempre": true, "dopo": true, "prima": true,
	"mentre": true, "cosa": true, "hanno": true, "stato": true, "stata": true,
	// English
	"this": true, "that": true, "with": true, "from": true, "have": true,
	"there": true, "their": true, "which": true, "where": true, "when": true,
	"what": true, "will": true, "your": true, "into": true, "about": true,
	"they": true, "them": true, "then": true, "than": true, "were": true,
	"been": true, "would": true, "could": true, "should": true,
}

// Tokenize lower-cases text, strips punctuation, and drops short and stop words.
func Tokenize(text string) []string {
	clean := punctRe.ReplaceAllString(strings.ToLower(text), " ")
	var tokens []string
	for _, tok := range strings.Fields(clean) {
		if utf8.RuneCountInString(tok) <= 3 || stopWords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// clueTokens tokenizes a clue's title and text together.
func clueTokens(c Clue) []string {
	return Tokenize(c.Title + " " + c.Text)
}
