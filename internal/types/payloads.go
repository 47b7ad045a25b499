package types

// Inbound payloads.

type TextInputPayload struct {
	Text      string `json:"text"`
	Speaker   string `json:"speaker,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type ConfirmActionItemPayload struct {
	ItemID        string                   `json:"item_id"`
	Confirmed     bool                     `json:"confirmed"`
	Modifications *ActionItemModifications `json:"modifications,omitempty"`
}

type ActionItemModifications struct {
	Assignee *string `json:"assignee,omitempty"`
	DueDate  *string `json:"due_date,omitempty"`
	Priority *string `json:"priority,omitempty"`
}

type UserTypingPayload struct {
	User     string `json:"user"`
	IsTyping bool   `json:"is_typing"`
}

type PingPayload struct {
	Timestamp string `json:"timestamp,omitempty"`
}

// Outbound payloads. Domain objects (insights, action items, analysis
// outcomes) travel as-is in the `any` fields; this package stays a leaf.

type ConnectionEstablishedPayload struct {
	MeetingID string `json:"meeting_id"`
	Message   string `json:"message"`
}

type TextReceivedPayload struct {
	EntryID   string `json:"entry_id"`
	Text      string `json:"text"`
	Speaker   string `json:"speaker"`
	Timestamp string `json:"timestamp"`
}

type AnalysisResultPayload struct {
	EntryID      string `json:"entry_id"`
	Speaker      string `json:"speaker"`
	OriginalText string `json:"original_text"`
	Analysis     any    `json:"analysis"`
}

type RealTimeInsightPayload struct {
	EntryID  string `json:"entry_id"`
	Analysis any    `json:"analysis"`
}

type ActionItemDetectedPayload struct {
	Item                 any  `json:"item"`
	RequiresConfirmation bool `json:"requires_confirmation"`
}

type ActionItemConfirmedPayload struct {
	Item any `json:"item"`
}

type ParticipantJoinedPayload struct {
	MeetingID        string `json:"meeting_id"`
	ParticipantCount int    `json:"participant_count"`
}

type ParticipantLeftPayload struct {
	MeetingID        string `json:"meeting_id"`
	ParticipantCount int    `json:"participant_count"`
}

type RecordingPayload struct {
	Message string `json:"message"`
}

type PongPayload struct {
	Timestamp string `json:"timestamp,omitempty"`
}

type ErrorPayload struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}
