package itinerary

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FACorreiaa/wanderplan/internal/api/textnorm"
	"github.com/FACorreiaa/wanderplan/internal/types"
)

const (
	minTermRunes     = 4
	longNameRunes    = 15
	minNameWordRunes = 5
	contextRunes     = 80
)

// CueSet holds the phrases that classify the text around a place mention.
// Ambient cues ("itinerario", "programa") count as positive; leave the list
// empty to require an explicit programming verb.
type CueSet struct {
	Negative []string
	Positive []string
	Ambient  []string
}

var DefaultCues = CueSet{
	Negative: []string{
		"no ", "sin ", "excluir", "excluimos", "excluido", "excluida", "evitar", "evitamos",
		"no incluyo", "no incluí", "no incluye", "no incluimos", "excepto", "salvo ",
		"descartamos", "descartado", "descartada", "no hay", "falta", "omitimos", "omitido",
		"en lugar de", "en vez de", "cerrado", "cerrada",
	},
	Positive: []string{
		"visitar", "visita", "recorrer", "recorrido", "conocer", "explorar", "disfrutar",
		"pasear", "paseo", "excursión", "tour", "almorzar en", "almuerzo en", "cenar en",
		"cena en", "desayunar en", "desayuno en", "merendar en", "ir a", "ir al", "llegar a",
		"día en", "mañana en", "tarde en", "noche en", "actividad", "comenzar en", "terminar en",
	},
	Ambient: []string{"itinerario", "programa"},
}

// UsageExtractor finds which pool publications an itinerary text programs.
// It is safe for concurrent use.
type UsageExtractor struct {
	negative []string
	positive []string
}

func NewUsageExtractor(cues CueSet) *UsageExtractor {
	e := &UsageExtractor{}
	for _, c := range cues.Negative {
		e.negative = append(e.negative, textnorm.Fold(c))
	}
	for _, c := range cues.Positive {
		e.positive = append(e.positive, textnorm.Fold(c))
	}
	for _, c := range cues.Ambient {
		e.positive = append(e.positive, textnorm.Fold(c))
	}
	return e
}

// Extract returns the ids of pool publications referenced positively in text,
// in pool order.
func (e *UsageExtractor) Extract(text string, pool []types.Publication) []int64 {
	folded := textnorm.Fold(text)
	used := make([]int64, 0)
	for _, p := range pool {
		if e.isUsed(folded, p) {
			used = append(used, p.ID)
		}
	}
	return used
}

func (e *UsageExtractor) isUsed(folded string, p types.Publication) bool {
	for _, term := range SearchTerms(p.PlaceName) {
		for _, at := range wordOccurrences(folded, term) {
			lo, hi := contextWindow(folded, at, at+len(term), contextRunes)
			if containsCue(folded, lo, hi, e.negative) {
				continue
			}
			if containsCue(folded, lo, hi, e.positive) {
				return true
			}
		}
	}
	return false
}

// SearchTerms returns the folded name when it has at least four runes and, for
// names longer than fifteen runes, each word of five or more runes.
func SearchTerms(placeName string) []string {
	name := textnorm.Normalize(placeName)
	terms := make([]string, 0, 4)
	seen := map[string]struct{}{}
	add := func(t string) {
		if utf8.RuneCountInString(t) < minTermRunes {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	add(name)
	if utf8.RuneCountInString(name) > longNameRunes {
		words := strings.FieldsFunc(name, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			if utf8.RuneCountInString(w) >= minNameWordRunes {
				add(w)
			}
		}
	}
	return terms
}

// wordOccurrences returns the byte offsets of term in s that start and end on
// a word boundary.
func wordOccurrences(s, term string) []int {
	if term == "" {
		return nil
	}
	var out []int
	for from := 0; from <= len(s)-len(term); {
		i := strings.Index(s[from:], term)
		if i < 0 {
			break
		}
		at := from + i
		if boundaryBefore(s, at) && boundaryAfter(s, at+len(term)) {
			out = append(out, at)
		}
		_, size := utf8.DecodeRuneInString(s[at:])
		from = at + size
	}
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

// contextWindow widens [start,end) by n runes on each side.
func contextWindow(s string, start, end, n int) (int, int) {
	lo := start
	for k := 0; k < n && lo > 0; k++ {
		_, size := utf8.DecodeLastRuneInString(s[:lo])
		lo -= size
	}
	hi := end
	for k := 0; k < n && hi < len(s); k++ {
		_, size := utf8.DecodeRuneInString(s[hi:])
		hi += size
	}
	return lo, hi
}

// containsCue reports whether any cue starts on a word boundary inside
// s[lo:hi] and fits in the window.
func containsCue(s string, lo, hi int, cues []string) bool {
	window := s[lo:hi]
	for _, cue := range cues {
		for from := 0; from <= len(window)-len(cue); {
			i := strings.Index(window[from:], cue)
			if i < 0 {
				break
			}
			if boundaryBefore(s, lo+from+i) {
				return true
			}
			_, size := utf8.DecodeRuneInString(window[from+i:])
			from += i + size
		}
	}
	return false
}
