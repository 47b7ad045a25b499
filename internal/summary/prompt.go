package summary

import (
	"fmt"
	"strings"

	"roundtable.local/projects/insight-gateway/internal/meeting"
)

func buildSummaryPrompt(view meeting.View) string {
	var transcript strings.Builder
	for _, entry := range view.Transcript {
		fmt.Fprintf(&transcript, "[%s] %s: %s\n", entry.SpokenAt.Format("15:04:05"), entry.Speaker, entry.Text)
	}

	insightsText := "No specific insights captured."
	if len(view.Insights) > 0 {
		var b strings.Builder
		for _, insight := range view.Insights {
			fmt.Fprintf(&b, "- %s\n", insight.Content)
		}
		insightsText = strings.TrimRight(b.String(), "\n")
	}

	itemsText := "No action items identified."
	if len(view.ActionItems) > 0 {
		var b strings.Builder
		for _, item := range view.ActionItems {
			assignee := item.Assignee
			if assignee == "" {
				assignee = "미정"
			}
			dueDate := item.DueDate
			if dueDate == "" {
				dueDate = "미정"
			}
			fmt.Fprintf(&b, "- %s (담당자: %s, 기한: %s)\n", item.Description, assignee, dueDate)
		}
		itemsText = strings.TrimRight(b.String(), "\n")
	}

	participantsText := "참석자 정보 없음"
	if len(view.Participants) > 0 {
		participantsText = strings.Join(view.Participants, ", ")
	}

	duration := "정보없음"
	if view.DurationEstimateMinutes > 0 {
		duration = fmt.Sprintf("%d", view.DurationEstimateMinutes)
	}

	return fmt.Sprintf(`다음 회의 내용을 바탕으로 종합적인 회의 요약 보고서를 작성해주세요.

**회의 정보:**
- 회의 ID: %s
- 참석자: %s
- 소요시간: %s분
- 총 인사이트: %d개
- 총 액션아이템: %d개

**회의 전체 대화록:**
%s

**주요 인사이트:**
%s

**액션 아이템:**
%s

위 정보를 종합하여 다음 구조로 회의 요약 보고서를 JSON 형식으로 작성해주세요:

{
    "executive_summary": "회의의 핵심 내용을 2-3문장으로 요약",
    "key_decisions": [
        {
            "decision": "결정된 사항",
            "rationale": "결정 이유",
            "impact": "예상 영향"
        }
    ],
    "discussion_highlights": [
        {
            "topic": "논의 주제",
            "summary": "논의 내용 요약",
            "participants": ["관련 참석자들"]
        }
    ],
    "action_items_summary": [
        {
            "category": "카테고리 (예: 개발, 디자인, 기획)",
            "items": [
                {
                    "task": "할 일",
                    "assignee": "담당자",
                    "due_date": "기한",
                    "priority": "우선순위"
                }
            ]
        }
    ],
    "next_steps": [
        "다음 단계로 취해야 할 구체적인 행동들"
    ],
    "risks_and_concerns": [
        {
            "risk": "위험 요소",
            "severity": "심각도 (high/medium/low)",
            "mitigation": "완화 방안"
        }
    ],
    "follow_up_meeting": {
        "needed": true/false,
        "suggested_date": "제안 날짜 또는 null",
        "agenda_items": ["다음 회의에서 논의할 항목들"]
    },
    "meeting_effectiveness": {
        "score": "1-10점 사이의 회의 효율성 점수",
        "strengths": ["회의의 강점들"],
        "improvements": ["개선 사항들"]
    }
}

**중요:** 응답은 반드시 유효한 JSON 형식이어야 합니다. 마크다운 코드 블록 없이 순수 JSON만 반환해주세요.`,
		view.MeetingID, participantsText, duration, len(view.Insights), len(view.ActionItems),
		strings.TrimRight(transcript.String(), "\n"), insightsText, itemsText)
}
