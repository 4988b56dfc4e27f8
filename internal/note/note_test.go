package note_test

import (
	"strings"
	"testing"
	"time"

	"devotional-voice/internal/domain"
	"devotional-voice/internal/note"
)

var fixedTime = time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)

func TestRender(t *testing.T) {
	d := domain.Devotional{Markdown: "## 오늘의 묵상\n본문", TTSScript: "사랑하는 여러분"}
	refs := []domain.SearchResult{
		{Document: domain.Document{ID: "journal/first.md"}},
		{Document: domain.Document{ID: "second.md"}},
	}

	got := note.Render(d, refs, fixedTime)

	want := "\n\n---\n## 📖 묵상 (2024-03-05 07:08:09)\n\n## 오늘의 묵상\n본문" +
		"\n\n### 📚 참조 노트\n- [[first]]\n- [[second]]\n" +
		"\n\n%%TTS-SCRIPT:사랑하는 여러분%%\n"
	if got != want {
		t.Errorf("Render:\ngot  %q\nwant %q", got, want)
	}
}

func TestRender_NoReferencesNoScript(t *testing.T) {
	got := note.Render(domain.Devotional{Markdown: "body"}, nil, fixedTime)

	if strings.Contains(got, "참조 노트") {
		t.Error("unexpected reference section")
	}
	if strings.Contains(got, "TTS-SCRIPT") {
		t.Error("unexpected script block")
	}
	if !strings.HasSuffix(got, "body\n") {
		t.Errorf("got %q", got)
	}
}

func TestExtractScript(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		ok      bool
	}{
		{"single line", "intro\n%%TTS-SCRIPT: hello %%\n", "hello", true},
		{"multi line", "%%TTS-SCRIPT:line one\nline two%%", "line one\nline two", true},
		{"first wins", "%%TTS-SCRIPT:a%% %%TTS-SCRIPT:b%%", "a", true},
		{"blank", "%%TTS-SCRIPT:   %%", "", false},
		{"absent", "no script here", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := note.ExtractScript(tt.content)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ExtractScript = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRenderExtractRoundTrip(t *testing.T) {
	section := note.Render(domain.Devotional{Markdown: "m", TTSScript: "첫 줄.\n둘째 줄."}, nil, fixedTime)

	got, ok := note.ExtractScript("# Note\n" + section)
	if !ok || got != "첫 줄.\n둘째 줄." {
		t.Errorf("round trip: got (%q, %v)", got, ok)
	}
}

func TestAudioFileName(t *testing.T) {
	if got := note.AudioFileName(fixedTime); got != "Devotional_Audio_20240305_070809.wav" {
		t.Errorf("AudioFileName = %q", got)
	}
	if got := note.AudioEmbed("a.wav"); got != "\n\n![[a.wav]]" {
		t.Errorf("AudioEmbed = %q", got)
	}
}
