// Package script prepares narration scripts for speech synthesis.
package script

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"
)

// Chunk splits text into pieces of at most maxRunes characters, breaking
// between sentences where possible and between words otherwise. A
// non-positive maxRunes returns the trimmed text as a single chunk.
func Chunk(text string, maxRunes int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, sentence := range sentences(text) {
		for _, piece := range splitLong(sentence, maxRunes) {
			n := utf8.RuneCountInString(piece)
			if currentLen > 0 && currentLen+1+n > maxRunes {
				flush()
			}
			if currentLen > 0 {
				current.WriteByte(' ')
				currentLen++
			}
			current.WriteString(piece)
			currentLen += n
		}
	}
	flush()

	return chunks
}

func sentences(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return []string{text}
	}

	var out []string
	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

// splitLong breaks a sentence longer than maxRunes at the last space that
// fits, or hard at maxRunes when there is none.
func splitLong(sentence string, maxRunes int) []string {
	var out []string
	runes := []rune(sentence)

	for len(runes) > maxRunes {
		cut := maxRunes
		for i := maxRunes; i > 0; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		if head := strings.TrimSpace(string(runes[:cut])); head != "" {
			out = append(out, head)
		}
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}

	if rest := string(runes); rest != "" {
		out = append(out, rest)
	}
	return out
}
