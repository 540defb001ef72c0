// Command strusidx-bench drives the engine package from the command line:
// indexing text files, running ranked queries, and inspecting the
// statistics log. This file holds the analyzer stage that turns raw
// document text into the (value, position) pairs StorageTransaction.AddTerm
// expects under the single "word" term type: stemming, when enabled,
// replaces the indexed surface with its stem rather than indexing both, so
// one document position never produces more than one forward-index entry.
package main

import (
	"strings"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"
)

// Token is one analyzed, indexable occurrence: its final surface form
// (already stemmed, if enabled) and its 1-based ordinal position within the
// document.
type Token struct {
	Text string
	Pos  uint32
}

// AnalyzerConfig controls the tokenizer pipeline. Unlike the stopword list
// below, which is fixed, every other stage can be toggled per invocation
// (the bench CLI exposes MinWordLength and Stem as flags).
type AnalyzerConfig struct {
	MinWordLength int
	Stem          bool
}

// DefaultAnalyzerConfig matches typical English free-text indexing: drop
// single-character tokens, stem everything.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{MinWordLength: 2, Stem: true}
}

// Analyze splits text into word boundaries, lowercases, drops stopwords and
// short tokens, and (optionally) stems each survivor, numbering the
// surviving tokens by their ordinal position in the filtered stream — the
// same position space AddTerm's pos argument and the proximity weighting
// context both assume.
func Analyze(text string, cfg AnalyzerConfig) []Token {
	words := tokenize(text)
	var out []Token
	pos := uint32(1)
	for _, w := range words {
		w = strings.ToLower(w)
		if len([]rune(w)) < cfg.MinWordLength {
			continue
		}
		if isStopword(w) {
			continue
		}
		if cfg.Stem {
			w = snowballeng.Stem(w, false)
		}
		out = append(out, Token{Text: w, Pos: pos})
		pos++
	}
	return out
}

// tokenize splits on anything that isn't a letter or digit, mirroring a
// plain word-boundary analyzer (no punctuation or whitespace survives as a
// token).
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func isStopword(w string) bool {
	_, ok := englishStopwords[w]
	return ok
}

var englishStopwords = map[string]struct{}{
	"a": {}, "about": {}, "above": {}, "after": {}, "again": {}, "against": {},
	"all": {}, "am": {}, "an": {}, "and": {}, "any": {}, "are": {}, "aren't": {},
	"as": {}, "at": {}, "be": {}, "because": {}, "been": {}, "before": {},
	"being": {}, "below": {}, "between": {}, "both": {}, "but": {}, "by": {},
	"can't": {}, "cannot": {}, "could": {}, "couldn't": {}, "did": {},
	"didn't": {}, "do": {}, "does": {}, "doesn't": {}, "doing": {}, "don't": {},
	"down": {}, "during": {}, "each": {}, "few": {}, "for": {}, "from": {},
	"further": {}, "had": {}, "hadn't": {}, "has": {}, "hasn't": {}, "have": {},
	"haven't": {}, "having": {}, "he": {}, "he'd": {}, "he'll": {}, "he's": {},
	"her": {}, "here": {}, "here's": {}, "hers": {}, "herself": {}, "him": {},
	"himself": {}, "his": {}, "how": {}, "how's": {}, "i": {}, "i'd": {},
	"i'll": {}, "i'm": {}, "i've": {}, "if": {}, "in": {}, "into": {}, "is": {},
	"isn't": {}, "it": {}, "it's": {}, "its": {}, "itself": {}, "let's": {},
	"me": {}, "more": {}, "most": {}, "mustn't": {}, "my": {}, "myself": {},
	"no": {}, "nor": {}, "not": {}, "of": {}, "off": {}, "on": {}, "once": {},
	"only": {}, "or": {}, "other": {}, "ought": {}, "our": {}, "ours": {},
	"ourselves": {}, "out": {}, "over": {}, "own": {}, "same": {}, "shan't": {},
	"she": {}, "she'd": {}, "she'll": {}, "she's": {}, "should": {},
	"shouldn't": {}, "so": {}, "some": {}, "such": {}, "than": {}, "that": {},
	"that's": {}, "the": {}, "their": {}, "theirs": {}, "them": {},
	"themselves": {}, "then": {}, "there": {}, "there's": {}, "these": {},
	"they": {}, "they'd": {}, "they'll": {}, "they're": {}, "they've": {},
	"this": {}, "those": {}, "through": {}, "to": {}, "too": {}, "under": {},
	"until": {}, "up": {}, "very": {}, "was": {}, "wasn't": {}, "we": {},
	"we'd": {}, "we'll": {}, "we're": {}, "we've": {}, "were": {}, "weren't": {},
	"what": {}, "what's": {}, "when": {}, "when's": {}, "where": {},
	"where's": {}, "which": {}, "while": {}, "who": {}, "who's": {},
	"whom": {}, "why": {}, "why's": {}, "with": {}, "won't": {}, "would": {},
	"wouldn't": {}, "you": {}, "you'd": {}, "you'll": {}, "you're": {},
	"you've": {}, "your": {}, "yours": {}, "yourself": {}, "yourselves": {},
}
