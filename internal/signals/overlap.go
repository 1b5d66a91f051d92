package signals

import (
	"math"
	"strings"
	"unicode"
)

// neutralOverlap is returned whenever the intent text cannot be scored
// meaningfully.
const neutralOverlap = 0.5

// Tokens this short or on the stop list carry no intent signal.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "into": true, "please": true, "can": true,
	"could": true, "would": true, "you": true, "your": true, "all": true,
	"file": true, "files": true, "some": true, "want": true, "need": true,
	"help": true, "then": true, "them": true, "have": true, "are": true,
	"what": true, "how": true, "about": true, "using": true, "use": true,
}

// OverlapScore measures lexical overlap between the stated user intent and
// the tool-chain corpus, in [0,1].
//
// The tokenizer is Latin-script oriented: intents shorter than 5 characters
// or more than 30% non-ASCII score a neutral 0.5 rather than being penalized
// for using another script.
func OverlapScore(intent, corpus string) float64 {
	if len(intent) < 5 || nonASCIIRatio(intent) > 0.30 {
		return neutralOverlap
	}

	intentTokens := tokenize(intent)
	if len(intentTokens) == 0 {
		return neutralOverlap
	}

	corpusSet := make(map[string]bool)
	for _, tok := range tokenize(corpus) {
		corpusSet[tok] = true
	}

	found := 0
	for _, tok := range intentTokens {
		if corpusSet[tok] {
			found++
		}
	}

	return math.Round(float64(found)/float64(len(intentTokens))*100) / 100
}

// tokenize lowercases, maps non-alphanumerics to whitespace, splits, and
// drops short tokens and stop words.
func tokenize(text string) []string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	var tokens []string
	for _, tok := range strings.Fields(mapped) {
		if len(tok) <= 2 || stopWords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func nonASCIIRatio(s string) float64 {
	if s == "" {
		return 0
	}
	total, nonASCII := 0, 0
	for _, r := range s {
		total++
		if r > unicode.MaxASCII {
			nonASCII++
		}
	}
	return float64(nonASCII) / float64(total)
}
