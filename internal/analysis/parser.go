package analysis

import (
	"encoding/json"
	"strings"
)

const (
	defaultContentType = "discussion"
	defaultSentiment   = "neutral"
	defaultLevel       = "medium"
)

// Parse extracts a StructuredAnalysis from a free-form reply. The reply may
// be bare JSON or JSON wrapped in prose and code fences. Parse never calls
// the network and parsing the same input twice yields identical output.
func Parse(raw string) (StructuredAnalysis, error) {
	payload := strings.TrimSpace(ExtractFenced(raw))
	if payload == "" {
		return StructuredAnalysis{}, &ParseError{Reason: "empty reply"}
	}
	if !strings.HasPrefix(payload, "{") {
		return StructuredAnalysis{}, &ParseError{Reason: "reply is not a JSON object"}
	}

	var out StructuredAnalysis
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return StructuredAnalysis{}, &ParseError{Reason: "invalid json", Err: err}
	}

	normalize(&out)
	return out, nil
}

// ExtractFenced returns the inner content of the first code fence in raw,
// or raw itself when no fence is present.
func ExtractFenced(raw string) string {
	if idx := strings.Index(raw, "```json"); idx >= 0 {
		start := idx + len("```json")
		end := strings.Index(raw[start:], "```")
		if end < 0 {
			return raw[start:]
		}
		return raw[start : start+end]
	}
	if idx := strings.Index(raw, "```"); idx >= 0 {
		start := idx + len("```")
		end := strings.LastIndex(raw, "```")
		if end <= start {
			return raw[start:]
		}
		inner := raw[start:end]
		// Drop a language tag on the opening fence line.
		if nl := strings.IndexByte(inner, '\n'); nl >= 0 && !strings.ContainsAny(inner[:nl], "{}") {
			inner = inner[nl+1:]
		}
		return inner
	}
	return raw
}

func normalize(a *StructuredAnalysis) {
	if strings.TrimSpace(a.ContentType) == "" {
		a.ContentType = defaultContentType
	}
	a.Sentiment = oneOf(a.Sentiment, defaultSentiment, "positive", "neutral", "negative")
	a.UrgencyLevel = oneOf(a.UrgencyLevel, defaultLevel, "high", "medium", "low")

	if a.KeyPoints == nil {
		a.KeyPoints = []string{}
	}
	if a.RelatedTopics == nil {
		a.RelatedTopics = []string{}
	}

	insights := make([]ExtractedInsight, 0, len(a.Insights))
	for _, insight := range a.Insights {
		insight.Content = strings.TrimSpace(insight.Content)
		if insight.Content == "" {
			continue
		}
		insight.Type = oneOf(insight.Type, string(insightKeyPoint),
			"key_point", "decision", "action_item", "question", "concern")
		insight.Importance = oneOf(insight.Importance, defaultLevel, "high", "medium", "low")
		insight.Confidence = clampConfidence(insight.Confidence)
		insights = append(insights, insight)
	}
	a.Insights = insights

	items := make([]ExtractedActionItem, 0, len(a.ActionItems))
	for _, item := range a.ActionItems {
		item.Description = strings.TrimSpace(item.Description)
		if item.Description == "" {
			continue
		}
		item.Assignee = strings.TrimSpace(item.Assignee)
		item.DueDate = strings.TrimSpace(item.DueDate)
		item.Priority = oneOf(item.Priority, defaultLevel, "high", "medium", "low")
		item.Confidence = clampConfidence(item.Confidence)
		items = append(items, item)
	}
	a.ActionItems = items
}

const insightKeyPoint = "key_point"

func oneOf(raw, fallback string, allowed ...string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	for _, candidate := range allowed {
		if value == candidate {
			return value
		}
	}
	return fallback
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
