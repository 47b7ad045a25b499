// Package summary turns a finished meeting's transcript, insights, and
// action items into a structured report through the language model.
package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"roundtable.local/projects/insight-gateway/internal/analysis"
	"roundtable.local/projects/insight-gateway/internal/meeting"
)

var ErrEmptyReply = errors.New("empty summary reply")

// Completer is satisfied by the analysis client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	logger    *log.Logger
	completer Completer
}

func NewService(logger *log.Logger, completer Completer) *Service {
	return &Service{logger: logger, completer: completer}
}

// Report wraps the model-produced body with meeting metadata.
type Report struct {
	MeetingID        string     `json:"meeting_id"`
	GeneratedAt      time.Time  `json:"generated_at"`
	Participants     []string   `json:"participants"`
	DurationMinutes  int        `json:"duration_minutes,omitempty"`
	Body             ReportBody `json:"summary"`
	TotalInsights    int        `json:"total_insights"`
	TotalActionItems int        `json:"total_action_items"`
	TranscriptLength int        `json:"transcript_length"`
}

type ReportBody struct {
	ExecutiveSummary     string          `json:"executive_summary"`
	KeyDecisions         []Decision      `json:"key_decisions"`
	DiscussionHighlights []Highlight     `json:"discussion_highlights"`
	ActionItemsSummary   []ItemCategory  `json:"action_items_summary"`
	NextSteps            []string        `json:"next_steps"`
	RisksAndConcerns     []Risk          `json:"risks_and_concerns"`
	FollowUpMeeting      FollowUpMeeting `json:"follow_up_meeting"`
	MeetingEffectiveness Effectiveness   `json:"meeting_effectiveness"`
}

type Decision struct {
	Decision  string `json:"decision"`
	Rationale string `json:"rationale"`
	Impact    string `json:"impact"`
}

type Highlight struct {
	Topic        string   `json:"topic"`
	Summary      string   `json:"summary"`
	Participants []string `json:"participants"`
}

type ItemCategory struct {
	Category string         `json:"category"`
	Items    []SummarizedItem `json:"items"`
}

type SummarizedItem struct {
	Task     string `json:"task"`
	Assignee string `json:"assignee"`
	DueDate  string `json:"due_date"`
	Priority string `json:"priority"`
}

type Risk struct {
	Risk       string `json:"risk"`
	Severity   string `json:"severity"`
	Mitigation string `json:"mitigation"`
}

type FollowUpMeeting struct {
	Needed        bool     `json:"needed"`
	SuggestedDate string   `json:"suggested_date,omitempty"`
	AgendaItems   []string `json:"agenda_items"`
}

type Effectiveness struct {
	Score        Score    `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// Score tolerates the model returning the effectiveness score as either a
// JSON number or a quoted string.
type Score float64

func (s *Score) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("parse effectiveness score %q: %w", raw, err)
	}
	*s = Score(value)
	return nil
}

// Generate builds a report for the meeting as captured in view.
func (s *Service) Generate(ctx context.Context, view meeting.View) (*Report, error) {
	prompt := buildSummaryPrompt(view)

	reply, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("summary completion: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return nil, ErrEmptyReply
	}

	cleaned := strings.TrimSpace(analysis.ExtractFenced(reply))
	var body ReportBody
	if err := json.Unmarshal([]byte(cleaned), &body); err != nil {
		return nil, fmt.Errorf("decode summary reply: %w", err)
	}

	transcriptLength := 0
	for _, entry := range view.Transcript {
		transcriptLength += len(entry.Text)
	}

	report := &Report{
		MeetingID:        view.MeetingID,
		GeneratedAt:      time.Now().UTC(),
		Participants:     view.Participants,
		DurationMinutes:  view.DurationEstimateMinutes,
		Body:             body,
		TotalInsights:    len(view.Insights),
		TotalActionItems: len(view.ActionItems),
		TranscriptLength: transcriptLength,
	}
	s.logger.Printf("summary generated meeting_id=%s decisions=%d score=%.1f", view.MeetingID, len(body.KeyDecisions), float64(body.MeetingEffectiveness.Score))
	return report, nil
}
