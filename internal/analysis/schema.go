package analysis

// StructuredAnalysis is the schema the reasoning service is prompted to
// reply with. The parser normalizes every decoded value into this shape
// with the documented defaults filled in.
type StructuredAnalysis struct {
	ContentType    string                `json:"content_type"`
	KeyPoints      []string              `json:"key_points"`
	Insights       []ExtractedInsight    `json:"insights"`
	ActionItems    []ExtractedActionItem `json:"action_items"`
	Sentiment      string                `json:"sentiment"`
	UrgencyLevel   string                `json:"urgency_level"`
	FollowUpNeeded bool                  `json:"follow_up_needed"`
	RelatedTopics  []string              `json:"related_topics"`
	Summary        string                `json:"summary"`
}

type ExtractedInsight struct {
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	Importance string  `json:"importance"`
	Confidence float64 `json:"confidence"`
}

type ExtractedActionItem struct {
	Description string  `json:"description"`
	Assignee    string  `json:"assignee"`
	DueDate     string  `json:"due_date"`
	Priority    string  `json:"priority"`
	Confidence  float64 `json:"confidence"`
}
