// Package search ranks vault notes against a free-text query by raw keyword
// occurrence counts.
package search

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bbalet/stopwords"

	"devotional-voice/internal/domain"
)

const (
	excerptLead   = 50
	excerptLength = 300
	ellipsis      = "..."
)

var separators = regexp.MustCompile(`[\s,.!?;:'"()\[\]{}]+`)

// Korean particles and auxiliary verbs that carry no topic.
var stopWords = map[string]struct{}{
	"은": {}, "는": {}, "이": {}, "가": {}, "을": {}, "를": {},
	"에": {}, "의": {}, "와": {}, "과": {}, "로": {}, "으로": {},
	"에서": {}, "하다": {}, "되다": {}, "있다": {}, "없다": {},
}

// Scorer is an immutable search configuration.
type Scorer struct {
	// StopwordLanguage optionally names an ISO 639-1 language whose
	// stop words are dropped in addition to the Korean particle list.
	StopwordLanguage string
}

// Search scores documents against query with the default Scorer.
func Search(query string, documents []domain.Document, topK int) []domain.SearchResult {
	return Scorer{}.Search(query, documents, topK)
}

// Search returns at most topK documents that contain at least one keyword of
// query, highest score first. Documents with equal scores keep their input order.
func (s Scorer) Search(query string, documents []domain.Document, topK int) []domain.SearchResult {
	keywords := s.Keywords(query)
	if len(keywords) == 0 || topK <= 0 {
		return nil
	}

	var results []domain.SearchResult
	for _, doc := range documents {
		score := Score(doc.Text, keywords)
		if score == 0 {
			continue
		}
		results = append(results, domain.SearchResult{
			Document: doc,
			Score:    score,
			Excerpt:  Excerpt(doc.Text, keywords),
		})
	}

	slices.SortStableFunc(results, func(a, b domain.SearchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Keywords extracts the lower-cased, de-duplicated query terms in first-seen order.
func (s Scorer) Keywords(query string) []string {
	words := separators.Split(query, -1)
	keywords := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))

	for _, word := range words {
		if utf8.RuneCountInString(word) <= 1 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		word = strings.ToLower(word)
		if s.isLanguageStopword(word) {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	return keywords
}

// StopwordLanguages lists the ISO 639-1 codes that have a stop-word list.
var StopwordLanguages = []string{
	"ar", "bg", "cs", "da", "de", "el", "en", "es", "fa", "fi", "fr", "hu", "id", "it",
	"ja", "km", "lv", "nl", "no", "pl", "pt", "ro", "ru", "sk", "sv", "th", "tr",
}

// SupportsStopwordLanguage reports whether code names a known stop-word list.
func SupportsStopwordLanguage(code string) bool {
	return slices.Contains(StopwordLanguages, code)
}

// isLanguageStopword only consults the word list for purely alphabetic
// words, since cleaning also strips digits and punctuation. Unknown
// languages never match.
func (s Scorer) isLanguageStopword(word string) bool {
	if !SupportsStopwordLanguage(s.StopwordLanguage) {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) && !unicode.IsMark(r) {
			return false
		}
	}
	return strings.TrimSpace(stopwords.CleanString(word, s.StopwordLanguage, false)) == ""
}

// Score sums the case-insensitive occurrence counts of every keyword in text.
func Score(text string, keywords []string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		score += strings.Count(lower, strings.ToLower(kw))
	}
	return score
}

// Excerpt cuts a window around the first keyword found in text, starting a
// little before the hit. Offsets count characters, not bytes.
func Excerpt(text string, keywords []string) string {
	lower := strings.ToLower(text)

	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		at := strings.Index(lower, strings.ToLower(kw))
		if at == -1 {
			continue
		}

		runes := []rune(text)
		idx := utf8.RuneCountInString(lower[:at])
		start := max(0, idx-excerptLead)
		end := min(len(runes), idx+excerptLength)
		return ellipsis + strings.TrimSpace(string(runes[start:end])) + ellipsis
	}

	runes := []rune(text)
	return strings.TrimSpace(string(runes[:min(len(runes), excerptLength)])) + ellipsis
}
