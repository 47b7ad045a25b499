package summary

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatText     Format = "txt"
)

// Export renders a report in the requested format and suggests a filename.
func Export(report *Report, format Format) (content string, filename string, err error) {
	switch format {
	case FormatMarkdown:
		return formatMarkdown(report), fmt.Sprintf("meeting_summary_%s.md", report.MeetingID), nil
	case FormatJSON:
		encoded, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return "", "", fmt.Errorf("encode report: %w", err)
		}
		return string(encoded), fmt.Sprintf("meeting_summary_%s.json", report.MeetingID), nil
	case FormatText:
		return formatText(report), fmt.Sprintf("meeting_summary_%s.txt", report.MeetingID), nil
	default:
		return "", "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatMarkdown(report *Report) string {
	body := report.Body
	var b strings.Builder

	fmt.Fprintf(&b, "# 회의 요약 보고서\n\n")
	fmt.Fprintf(&b, "## 기본 정보\n")
	fmt.Fprintf(&b, "- **회의 ID**: %s\n", report.MeetingID)
	fmt.Fprintf(&b, "- **생성일시**: %s\n", report.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(&b, "- **참석자**: %s\n", strings.Join(report.Participants, ", "))
	fmt.Fprintf(&b, "- **소요시간**: %d분\n", report.DurationMinutes)

	fmt.Fprintf(&b, "\n## 📋 요약\n%s\n", body.ExecutiveSummary)

	fmt.Fprintf(&b, "\n## 🎯 주요 결정사항\n")
	for _, decision := range body.KeyDecisions {
		fmt.Fprintf(&b, "\n### %s\n", decision.Decision)
		fmt.Fprintf(&b, "- **이유**: %s\n", decision.Rationale)
		fmt.Fprintf(&b, "- **예상 영향**: %s\n", decision.Impact)
	}

	fmt.Fprintf(&b, "\n## 💬 논의 하이라이트\n")
	for _, highlight := range body.DiscussionHighlights {
		fmt.Fprintf(&b, "\n### %s\n%s\n", highlight.Topic, highlight.Summary)
		fmt.Fprintf(&b, "- **관련 참석자**: %s\n", strings.Join(highlight.Participants, ", "))
	}

	fmt.Fprintf(&b, "\n## ✅ 액션 아이템\n")
	for _, category := range body.ActionItemsSummary {
		fmt.Fprintf(&b, "\n### %s\n", category.Category)
		for _, item := range category.Items {
			fmt.Fprintf(&b, "- **%s**\n", item.Task)
			fmt.Fprintf(&b, "  - 담당자: %s\n", item.Assignee)
			fmt.Fprintf(&b, "  - 기한: %s\n", item.DueDate)
			fmt.Fprintf(&b, "  - 우선순위: %s\n", item.Priority)
		}
	}

	fmt.Fprintf(&b, "\n## 🚀 다음 단계\n")
	for _, step := range body.NextSteps {
		fmt.Fprintf(&b, "- %s\n", step)
	}

	fmt.Fprintf(&b, "\n## ⚠️ 위험 요소 및 우려사항\n")
	for _, risk := range body.RisksAndConcerns {
		fmt.Fprintf(&b, "- **%s** (심각도: %s)\n", risk.Risk, risk.Severity)
		fmt.Fprintf(&b, "  - 완화방안: %s\n", risk.Mitigation)
	}

	if body.FollowUpMeeting.Needed {
		suggested := body.FollowUpMeeting.SuggestedDate
		if suggested == "" {
			suggested = "TBD"
		}
		fmt.Fprintf(&b, "\n## 📅 후속 회의\n")
		fmt.Fprintf(&b, "- **필요성**: 예\n")
		fmt.Fprintf(&b, "- **제안 날짜**: %s\n", suggested)
		fmt.Fprintf(&b, "- **안건**:\n")
		for _, item := range body.FollowUpMeeting.AgendaItems {
			fmt.Fprintf(&b, "  - %s\n", item)
		}
	}

	fmt.Fprintf(&b, "\n## 📊 회의 효율성\n")
	fmt.Fprintf(&b, "- **점수**: %.0f/10\n", float64(body.MeetingEffectiveness.Score))
	fmt.Fprintf(&b, "- **강점**:\n")
	for _, strength := range body.MeetingEffectiveness.Strengths {
		fmt.Fprintf(&b, "  - %s\n", strength)
	}
	fmt.Fprintf(&b, "- **개선사항**:\n")
	for _, improvement := range body.MeetingEffectiveness.Improvements {
		fmt.Fprintf(&b, "  - %s\n", improvement)
	}

	return b.String()
}

func formatText(report *Report) string {
	body := report.Body
	var b strings.Builder

	fmt.Fprintf(&b, "회의 요약 보고서\n====================\n\n")
	fmt.Fprintf(&b, "기본 정보:\n")
	fmt.Fprintf(&b, "- 회의 ID: %s\n", report.MeetingID)
	fmt.Fprintf(&b, "- 생성일시: %s\n", report.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(&b, "- 참석자: %s\n", strings.Join(report.Participants, ", "))
	fmt.Fprintf(&b, "- 소요시간: %d분\n", report.DurationMinutes)

	fmt.Fprintf(&b, "\n요약:\n%s\n", body.ExecutiveSummary)

	fmt.Fprintf(&b, "\n주요 결정사항:\n")
	for i, decision := range body.KeyDecisions {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, decision.Decision)
		fmt.Fprintf(&b, "   이유: %s\n", decision.Rationale)
		fmt.Fprintf(&b, "   예상 영향: %s\n", decision.Impact)
	}

	fmt.Fprintf(&b, "\n액션 아이템:\n")
	for _, category := range body.ActionItemsSummary {
		fmt.Fprintf(&b, "\n[%s]\n", category.Category)
		for _, item := range category.Items {
			fmt.Fprintf(&b, "- %s (담당: %s, 기한: %s)\n", item.Task, item.Assignee, item.DueDate)
		}
	}

	return b.String()
}
