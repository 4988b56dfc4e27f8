// Package prompt builds the devotional generation prompt and parses the
// model's JSON answer.
package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"devotional-voice/internal/domain"
)

const DefaultTemplate = `당신은 탁월한 영성을 지닌 신학자이자, 청중의 마음을 위로하는 설교자입니다.

사용자의 묵상 내용과 관련 노트를 바탕으로, 깊이 있는 신학적 통찰과 따뜻한 목회적 적용이 담긴 묵상글을 작성해 주세요.
반드시 아래 JSON 형식으로 출력해야 합니다.

## 출력 형식 (JSON)
{
  "markdown": "## 오늘의 묵상\n[깊이 있는 본문 해석]\n\n### 적용\n[구체적인 삶의 적용]\n\n### 기도\n[영성 있는 기도문]",
  "ttsScript": "(차분하고 호소력 짙은 어조로) 사랑하는 여러분, 오늘의 묵상을 나눕니다. ... (본문의 핵심 메시지를 구어체로 풀어서) ... 그렇다면 이것을 우리 삶에 어떻게 적용할 수 있을까요? ... (적용점 제시) ... 이제 함께 기도하겠습니다. ... (기도문 낭독) ... 예수님의 이름으로 기도드립니다. 아멘."
}

## 작성 지침
1. **Markdown 본문**:
   - 신학적 깊이가 있어야 하며, 본문의 맥락을 정확히 짚어야 함.
   - 적용은 막연하지 않고 구체적이어야 함.

2. **TTS 대본 (ttsScript)**:
   - **어조**: 라디오 심야 방송 진행자처럼 따뜻하고 차분하며, 듣는 이의 감정을 어루만지는 톤.
   - **섹션 구분**: "오늘의 묵상 본문입니다", "잠시 우리 삶을 돌아봅시다", "함께 기도드리겠습니다"와 같은 자연스러운 연결 멘트를 반드시 포함할 것.
   - **문체**: 딱딱한 문어체가 아닌, 바로 옆에서 이야기해주는 듯한 부드러운 구어체 사용. 이모지나 특수문자는 제거.
   - 쉼표(,)와 마침표(.)를 적절히 사용하여 호흡을 조절할 것.

3. 언어: 한국어`

const (
	noReferences     = "관련 노트가 없습니다."
	failedMarkdown   = "묵상글 생성 실패"
	closingDirective = "위 내용을 바탕으로 JSON 형식의 묵상글을 작성해 주세요."
)

var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// BuildContext renders the related notes for the prompt.
func BuildContext(results []domain.SearchResult) string {
	if len(results) == 0 {
		return noReferences
	}

	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("### 관련 노트 %d: %s\n%s", i+1, r.Document.Name(), r.Excerpt)
	}
	return strings.Join(blocks, "\n\n")
}

// Build assembles the full prompt. An empty template selects DefaultTemplate.
func Build(template, input string, results []domain.SearchResult) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}

	return fmt.Sprintf("%s\n\n## 사용자 묵상 내용\n%s\n\n## 사용자의 기존 노트 (참고용)\n%s\n\n%s",
		template, input, BuildContext(results), closingDirective)
}

type answer struct {
	Markdown  string `json:"markdown"`
	TTSScript string `json:"ttsScript"`
}

// ParseResponse decodes the model output, unwrapping a markdown code fence
// when present. Output that is not JSON becomes the markdown body with no
// narration script.
func ParseResponse(raw string) domain.Devotional {
	cleaned := strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(cleaned); m != nil && m[1] != "" {
		cleaned = strings.TrimSpace(m[1])
	}

	var a answer
	if err := json.Unmarshal([]byte(cleaned), &a); err != nil {
		return domain.Devotional{Markdown: raw}
	}

	if a.Markdown == "" {
		a.Markdown = failedMarkdown
	}
	return domain.Devotional{Markdown: a.Markdown, TTSScript: a.TTSScript}
}
