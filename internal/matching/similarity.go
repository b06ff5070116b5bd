package matching

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	lev "github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Comparator scores two non-empty field values in [0,1]. Implementations
// must be symmetric and return 1.0 for values equal after normalization.
type Comparator interface {
	// Normalize returns the comparable form of a raw value; "" means not comparable
	Normalize(raw string) string
	// Similarity scores two normalized values
	Similarity(a, b string) float64
}

// DefaultComparators are the comparators used for the default match fields
var DefaultComparators = map[string]Comparator{
	"name":  NameComparator{},
	"email": EmailComparator{},
	"phone": PhoneComparator{},
}

var (
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	nonDigit    = regexp.MustCompile(`\D+`)
)

// NameComparator compares personal names regardless of case, accents,
// punctuation and token order, so "Smith, Jon" equals "Jon Smith".
type NameComparator struct{}

func (NameComparator) Normalize(raw string) string {
	tokens := strings.Fields(foldText(raw))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func (NameComparator) Similarity(a, b string) float64 {
	return diceCoefficient(a, b)
}

// EmailComparator compares addresses case-insensitively
type EmailComparator struct{}

func (EmailComparator) Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func (EmailComparator) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return diceCoefficient(foldText(a), foldText(b))
}

// PhoneComparator compares the digits of two phone numbers by edit distance.
// An 11-digit number with a leading 1 is treated as its 10-digit form.
type PhoneComparator struct{}

func (PhoneComparator) Normalize(raw string) string {
	digits := nonDigit.ReplaceAllString(raw, "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return digits
}

func (PhoneComparator) Similarity(a, b string) float64 {
	return levenshteinRatio(a, b)
}

// TextComparator is the fallback for match fields without a dedicated
// comparator: folded text scored by bigram overlap.
type TextComparator struct{}

func (TextComparator) Normalize(raw string) string {
	return foldText(raw)
}

func (TextComparator) Similarity(a, b string) float64 {
	return diceCoefficient(a, b)
}

// foldText lower-cases, strips accents, turns punctuation into spaces and
// collapses whitespace.
func foldText(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = punctuation.ReplaceAllString(folded, " ")
	return strings.Join(strings.Fields(folded), " ")
}

// diceCoefficient is the Sørensen–Dice coefficient over character bigrams
// of the two strings with spaces removed. Strings shorter than two
// characters only score 1.0 when identical.
func diceCoefficient(a, b string) float64 {
	a = strings.ReplaceAll(a, " ", "")
	b = strings.ReplaceAll(b, " ", "")
	if a == b {
		if a == "" {
			return 0
		}
		return 1.0
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	bigrams := make(map[string]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		bigrams[string(ra[i:i+2])]++
	}

	intersection := 0
	for i := 0; i < len(rb)-1; i++ {
		bg := string(rb[i : i+2])
		if bigrams[bg] > 0 {
			bigrams[bg]--
			intersection++
		}
	}

	return 2.0 * float64(intersection) / float64(len(ra)-1+len(rb)-1)
}

// unitEdits charges a substitution one edit, like an insertion or deletion
var unitEdits = lev.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: lev.IdenticalRunes,
}

// levenshteinRatio converts edit distance to a similarity in [0,1]
func levenshteinRatio(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	distance := lev.DistanceForStrings(ra, rb, unitEdits)
	maxLen := max(len(ra), len(rb))
	return 1.0 - float64(distance)/float64(maxLen)
}
