// Package match implements the free-text answer matcher used by the
// collective-list and hot-button rounds. Guesses are normalized (case,
// diacritics, umlaut transliteration, whitespace) and compared against an
// item's canonical text and aliases, exactly first and then by edit-distance
// similarity above a threshold.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
)

// minFuzzyLen is the shortest normalized string that may fuzzy-match.
// Shorter tokens ("c", "go", "c#") only ever match exactly; promoting them
// by similarity produces false hits between near-identical short names.
const minFuzzyLen = 3

// Type classifies a match result.
type Type string

const (
	MatchExact          Type = "exact"
	MatchFuzzy          Type = "fuzzy"
	MatchAlreadyGuessed Type = "already_guessed"
	MatchNone           Type = "none"
)

// Result is the outcome of one CheckAnswer call.
type Result struct {
	Type       Type
	Item       *model.ListItem
	Confidence float64
}

var umlauts = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize folds a string into its comparison form: lower case, umlauts
// transliterated, remaining diacritics stripped, whitespace collapsed, and
// all punctuation removed except the symbols that distinguish real answers
// (+ # & .).
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = umlauts.Replace(s)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case r == '+' || r == '#' || r == '&' || r == '.':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// Similarity returns 1 - dist/max(len) over the normalized forms, in [0,1].
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// CheckAnswer compares a guess against the not-yet-guessed items. An exact
// normalized hit on canonical text or an alias always wins, regardless of
// length. Otherwise the best candidate at or above threshold is returned as
// a fuzzy match; on equal similarity the earlier item in the list wins, so
// results are deterministic. An exact hit on an already-guessed item is
// reported as MatchAlreadyGuessed so the caller can treat the repeat as a
// miss.
func CheckAnswer(input string, items []model.ListItem, guessed map[string]bool, threshold float64) Result {
	in := Normalize(input)
	if in == "" {
		return Result{Type: MatchNone}
	}

	// Exact pass over everything, guessed items included.
	for i := range items {
		item := &items[i]
		for _, cand := range candidates(item) {
			if in == cand {
				if guessed[item.ID] {
					return Result{Type: MatchAlreadyGuessed, Item: item, Confidence: 1}
				}
				return Result{Type: MatchExact, Item: item, Confidence: 1}
			}
		}
	}

	if len([]rune(in)) < minFuzzyLen {
		return Result{Type: MatchNone}
	}

	best := Result{Type: MatchNone}
	for i := range items {
		item := &items[i]
		if guessed[item.ID] {
			continue
		}
		for _, cand := range candidates(item) {
			if len([]rune(cand)) < minFuzzyLen {
				continue
			}
			if sim := Similarity(in, cand); sim >= threshold && sim > best.Confidence {
				best = Result{Type: MatchFuzzy, Item: item, Confidence: sim}
			}
		}
	}
	return best
}

// CheckSingle fuzzy-checks a free-text answer against one canonical answer
// and its aliases, for the hot-button round.
func CheckSingle(input, answer string, aliases []string, threshold float64) (bool, float64) {
	item := model.ListItem{ID: "answer", Display: answer, Aliases: aliases}
	res := CheckAnswer(input, []model.ListItem{item}, nil, threshold)
	return res.Type == MatchExact || res.Type == MatchFuzzy, res.Confidence
}

func candidates(item *model.ListItem) []string {
	out := make([]string, 0, 1+len(item.Aliases))
	out = append(out, Normalize(item.Display))
	for _, a := range item.Aliases {
		out = append(out, Normalize(a))
	}
	return out
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
