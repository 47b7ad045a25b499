package store

import (
	"strings"
	"time"

	"roundtable.local/projects/insight-gateway/internal/meeting"
)

type meetingRow struct {
	MeetingID        string     `gorm:"primaryKey;size:191"`
	Title            string     `gorm:"size:255;not null"`
	Participants     string     `gorm:"type:text"`
	Status           string     `gorm:"size:32;not null"`
	DurationEstimate int        `gorm:"not null;default:0"`
	CreatedAt        time.Time  `gorm:"not null"`
	EndedAt          *time.Time `gorm:"index"`
}

func (meetingRow) TableName() string {
	return "meetings"
}

func meetingRowFrom(rec meeting.Record) meetingRow {
	row := meetingRow{
		MeetingID:        rec.MeetingID,
		Title:            rec.Title,
		Participants:     strings.Join(rec.Participants, "\n"),
		Status:           string(rec.Status),
		DurationEstimate: rec.DurationEstimateMinutes,
		CreatedAt:        rec.CreatedAt,
	}
	if rec.EndedAt != nil {
		ended := *rec.EndedAt
		row.EndedAt = &ended
	}
	return row
}

func (r meetingRow) toRecord() meeting.Record {
	rec := meeting.Record{
		MeetingID:               r.MeetingID,
		Title:                   r.Title,
		Status:                  meeting.Status(r.Status),
		DurationEstimateMinutes: r.DurationEstimate,
		CreatedAt:               r.CreatedAt,
	}
	if r.Participants != "" {
		rec.Participants = strings.Split(r.Participants, "\n")
	}
	if r.EndedAt != nil {
		ended := *r.EndedAt
		rec.EndedAt = &ended
	}
	return rec
}

type entryRow struct {
	EntryID   string    `gorm:"primaryKey;size:64"`
	MeetingID string    `gorm:"size:191;index:idx_entries_meeting_sequence,priority:1"`
	Sequence  int64     `gorm:"not null;uniqueIndex:idx_entries_meeting_sequence,priority:2"`
	Speaker   string    `gorm:"size:191;not null"`
	Text      string    `gorm:"type:text;not null"`
	SpokenAt  time.Time `gorm:"not null"`
}

func (entryRow) TableName() string {
	return "transcript_entries"
}

func entryRowFrom(entry meeting.TranscriptEntry) entryRow {
	return entryRow{
		EntryID:   entry.EntryID,
		MeetingID: entry.MeetingID,
		Sequence:  entry.Sequence,
		Speaker:   entry.Speaker,
		Text:      entry.Text,
		SpokenAt:  entry.SpokenAt,
	}
}

func (r entryRow) toRecord() meeting.TranscriptEntry {
	return meeting.TranscriptEntry{
		EntryID:   r.EntryID,
		MeetingID: r.MeetingID,
		Sequence:  r.Sequence,
		Speaker:   r.Speaker,
		Text:      r.Text,
		SpokenAt:  r.SpokenAt,
	}
}

type insightRow struct {
	InsightID     string    `gorm:"primaryKey;size:64"`
	MeetingID     string    `gorm:"size:191;index"`
	Type          string    `gorm:"size:32;not null"`
	Content       string    `gorm:"type:text;not null"`
	Confidence    float64   `gorm:"not null"`
	Speaker       string    `gorm:"size:191"`
	SourceEntryID string    `gorm:"size:64"`
	LowConfidence bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (insightRow) TableName() string {
	return "insights"
}

func insightRowFrom(insight meeting.Insight) insightRow {
	return insightRow{
		InsightID:     insight.InsightID,
		MeetingID:     insight.MeetingID,
		Type:          string(insight.Type),
		Content:       insight.Content,
		Confidence:    insight.Confidence,
		Speaker:       insight.Speaker,
		SourceEntryID: insight.SourceEntryID,
		LowConfidence: insight.LowConfidence,
		CreatedAt:     insight.CreatedAt,
	}
}

func (r insightRow) toRecord() meeting.Insight {
	return meeting.Insight{
		InsightID:     r.InsightID,
		MeetingID:     r.MeetingID,
		Type:          meeting.InsightType(r.Type),
		Content:       r.Content,
		Confidence:    r.Confidence,
		Speaker:       r.Speaker,
		SourceEntryID: r.SourceEntryID,
		LowConfidence: r.LowConfidence,
		CreatedAt:     r.CreatedAt,
	}
}

type actionItemRow struct {
	ItemID        string    `gorm:"primaryKey;size:64"`
	MeetingID     string    `gorm:"size:191;index"`
	Description   string    `gorm:"type:text;not null"`
	Assignee      string    `gorm:"size:191"`
	DueDate       string    `gorm:"size:32"`
	Priority      string    `gorm:"size:16;not null"`
	Status        string    `gorm:"size:16;not null"`
	Confidence    float64   `gorm:"not null"`
	SourceEntryID string    `gorm:"size:64"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (actionItemRow) TableName() string {
	return "action_items"
}

func actionItemRowFrom(item meeting.ActionItem) actionItemRow {
	return actionItemRow{
		ItemID:        item.ItemID,
		MeetingID:     item.MeetingID,
		Description:   item.Description,
		Assignee:      item.Assignee,
		DueDate:       item.DueDate,
		Priority:      string(item.Priority),
		Status:        string(item.Status),
		Confidence:    item.Confidence,
		SourceEntryID: item.SourceEntryID,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

func (r actionItemRow) toRecord() meeting.ActionItem {
	return meeting.ActionItem{
		ItemID:        r.ItemID,
		MeetingID:     r.MeetingID,
		Description:   r.Description,
		Assignee:      r.Assignee,
		DueDate:       r.DueDate,
		Priority:      meeting.Priority(r.Priority),
		Status:        meeting.ActionItemStatus(r.Status),
		Confidence:    r.Confidence,
		SourceEntryID: r.SourceEntryID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
