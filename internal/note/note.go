// Package note renders devotional sections into markdown notes and reads
// narration scripts back out of them.
package note

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"devotional-voice/internal/domain"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	audioNameLayout = "20060102_150405"
)

var scriptBlock = regexp.MustCompile(`(?s)%%TTS-SCRIPT:(.*?)%%`)

// Render formats a devotional as a section to append to a note. The narration
// script is kept in a hidden comment so it can be read aloud later.
func Render(d domain.Devotional, references []domain.SearchResult, at time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n\n---\n## 📖 묵상 (%s)\n\n%s", at.Format(timestampLayout), d.Markdown)

	if len(references) > 0 {
		b.WriteString("\n\n### 📚 참조 노트\n")
		for _, r := range references {
			fmt.Fprintf(&b, "- [[%s]]\n", r.Document.Name())
		}
	}

	if d.TTSScript != "" {
		fmt.Fprintf(&b, "\n\n%%%%TTS-SCRIPT:%s%%%%", d.TTSScript)
	}

	b.WriteString("\n")
	return b.String()
}

// ExtractScript returns the first embedded narration script in content.
func ExtractScript(content string) (string, bool) {
	m := scriptBlock.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	script := strings.TrimSpace(m[1])
	return script, script != ""
}

func AudioFileName(at time.Time) string {
	return "Devotional_Audio_" + at.Format(audioNameLayout) + ".wav"
}

func AudioEmbed(fileName string) string {
	return "\n\n![[" + fileName + "]]"
}
