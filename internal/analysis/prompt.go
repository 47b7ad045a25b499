package analysis

import (
	"fmt"
	"strings"
)

// buildAnalysisPrompt is deterministic for a given utterance, speaker, and
// context window. The reply contract is the JSON shape in schema.go.
func buildAnalysisPrompt(text, speaker string, recent []ContextEntry) string {
	speaker = strings.TrimSpace(speaker)
	if speaker == "" {
		speaker = "Unknown"
	}

	var builder strings.Builder
	builder.WriteString("당신은 회의 분석 전문가입니다. 다음 회의 발언을 분석하여 구조화된 인사이트를 제공해주세요.\n\n")

	if len(recent) > 0 {
		builder.WriteString("최근 대화 맥락:\n")
		for _, entry := range recent {
			fmt.Fprintf(&builder, "[%s] %s\n", entry.Speaker, entry.Text)
		}
		builder.WriteString("\n")
	}

	fmt.Fprintf(&builder, "발언자: %s\n", speaker)
	fmt.Fprintf(&builder, "발언 내용: %q\n\n", text)

	builder.WriteString(`다음 JSON 형식으로 응답해주세요:
{
    "content_type": "해당 발언의 유형 (discussion, action_item, decision, question, off_topic)",
    "key_points": ["핵심 포인트 1", "핵심 포인트 2"],
    "insights": [
        {
            "type": "key_point|decision|action_item|question|concern",
            "content": "구체적인 인사이트 내용",
            "importance": "high|medium|low",
            "confidence": 0.85
        }
    ],
    "action_items": [
        {
            "description": "구체적인 액션 아이템",
            "assignee": "담당자 (명시되지 않은 경우 null)",
            "due_date": "마감일 (YYYY-MM-DD 형식, 명시되지 않은 경우 null)",
            "priority": "high|medium|low",
            "confidence": 0.90
        }
    ],
    "sentiment": "positive|neutral|negative",
    "urgency_level": "high|medium|low",
    "follow_up_needed": true/false,
    "related_topics": ["관련 주제1", "관련 주제2"],
    "summary": "이 발언의 핵심 요약 (1-2문장)"
}

분석 기준:
1. 액션 아이템: "~해야 한다", "~하겠다", "~까지 완료" 등의 표현
2. 의사결정: "결정했다", "선택하자", "~로 하자" 등의 표현
3. 핵심 포인트: 중요한 정보나 논의 사항
4. 질문: 답변이 필요한 내용
5. 긴급도: 시간적 압박이나 우선순위 언급

반드시 유효한 JSON 형식으로만 응답하세요. 추가 설명은 하지 마세요.
`)
	return builder.String()
}
