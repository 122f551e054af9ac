// Package text turns free-text activity descriptions into deduplicated stems.
package text

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kljensen/snowball"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MinLength and MaxLength bound the accepted input, in characters
	MinLength = 3
	MaxLength = 2000

	// minTokenLength drops articles and short function words before stemming
	minTokenLength = 3
)

// ErrInvalidInputLength is returned for text outside [MinLength, MaxLength]
var ErrInvalidInputLength = errors.New("invalid input length")

var (
	nonWord    = regexp.MustCompile(`[^\w\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// stopwords are French function words, stored without diacritics
var stopwords = map[string]struct{}{
	"le": {}, "la": {}, "les": {}, "un": {}, "une": {}, "des": {}, "de": {}, "du": {},
	"et": {}, "ou": {}, "a": {}, "avec": {}, "pour": {}, "par": {}, "sur": {}, "dans": {},
	"sans": {}, "sous": {}, "je": {}, "tu": {}, "il": {}, "elle": {}, "nous": {}, "vous": {},
	"ils": {}, "elles": {}, "ce": {}, "ca": {}, "qui": {}, "que": {}, "quoi": {}, "est": {},
	"sont": {}, "etre": {}, "avoir": {}, "faire": {}, "dire": {}, "aller": {}, "venir": {},
}

// Validate checks the input length rule shared by every analyzer
func Validate(s string) error {
	n := utf8.RuneCountInString(s)
	if n < MinLength {
		return fmt.Errorf("%w: %d characters, minimum is %d", ErrInvalidInputLength, n, MinLength)
	}
	if n > MaxLength {
		return fmt.Errorf("%w: %d characters, maximum is %d", ErrInvalidInputLength, n, MaxLength)
	}
	return nil
}

// Normalizer lowercases, folds, tokenizes and stems text
type Normalizer struct {
	language string
}

// NewNormalizer creates a normalizer stemming with the French snowball stemmer
func NewNormalizer() *Normalizer {
	return &Normalizer{language: "french"}
}

// Normalize returns the deduplicated stems of s in first-seen order.
// The result may be empty; callers treat that as "no signal".
func (n *Normalizer) Normalize(s string) []string {
	tokens := Tokenize(Fold(s))

	seen := make(map[string]bool, len(tokens))
	stems := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) < minTokenLength {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		stem := n.Stem(token)
		if !seen[stem] {
			seen[stem] = true
			stems = append(stems, stem)
		}
	}
	return stems
}

// Stem stems a single folded token, returning it unchanged if stemming fails
func (n *Normalizer) Stem(token string) string {
	stemmed, err := snowball.Stem(token, n.language, true)
	if err != nil || stemmed == "" {
		return token
	}
	return stemmed
}

// Key folds and stems a keyword term so it compares equal to Normalize output
func (n *Normalizer) Key(term string) string {
	words := Tokenize(Fold(term))
	for i, w := range words {
		words[i] = n.Stem(w)
	}
	return strings.Join(words, " ")
}

// Fold lowercases s, strips combining diacritics and replaces punctuation with spaces
func Fold(s string) string {
	s = strings.ToLower(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.Predicate(isCombiningMark)))
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = nonWord.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokenize splits folded text on whitespace
func Tokenize(s string) []string {
	return strings.Fields(s)
}

// DetectLanguage returns "fr" when folded text contains French function words, else "other"
func DetectLanguage(s string) string {
	hits := 0
	for _, token := range Tokenize(Fold(s)) {
		if _, ok := stopwords[token]; ok {
			hits++
		}
	}
	if hits >= 2 {
		return "fr"
	}
	return "other"
}

// isCombiningMark matches the Combining Diacritical Marks block
func isCombiningMark(r rune) bool {
	return r >= 0x0300 && r <= 0x036F
}
