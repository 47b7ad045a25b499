package analysis

import (
	"context"
	"log"
	"strings"
	"time"

	"roundtable.local/projects/insight-gateway/internal/ids"
	"roundtable.local/projects/insight-gateway/internal/meeting"
)

// DefaultActionItemThreshold is the extraction confidence at or above which
// an action item is materialized.
const DefaultActionItemThreshold = 0.6

// Analyzer is the single-call boundary the orchestrator drives. *Client
// satisfies it; tests substitute fakes.
type Analyzer interface {
	Analyze(ctx context.Context, text, speaker string, recent []ContextEntry) (StructuredAnalysis, error)
}

// Orchestrator coordinates retry and fallback policy around the analyzer
// and classifies results into insights and action items.
type Orchestrator struct {
	logger    *log.Logger
	analyzer  Analyzer
	threshold float64
}

func NewOrchestrator(logger *log.Logger, analyzer Analyzer, threshold float64) *Orchestrator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultActionItemThreshold
	}
	return &Orchestrator{
		logger:    logger,
		analyzer:  analyzer,
		threshold: threshold,
	}
}

// Analyze runs the policy for one transcript entry:
//   - empty text skips analysis entirely (validated precondition, not a failure);
//   - service errors and malformed replies get one immediate retry;
//   - timeouts, transport failures, and second failures degrade to a
//     deterministic fallback outcome — no placeholder action item is invented.
func (o *Orchestrator) Analyze(ctx context.Context, entry meeting.TranscriptEntry, recent []ContextEntry) meeting.AnalysisOutcome {
	if strings.TrimSpace(entry.Text) == "" {
		return emptyOutcome(entry.EntryID)
	}

	parsed, err := o.callModel(ctx, entry.Text, entry.Speaker, recent)
	if err != nil {
		kind := KindOf(err)
		o.logger.Printf("analysis fallback meeting_id=%s entry_id=%s kind=%s err=%v", entry.MeetingID, entry.EntryID, kind, err)
		outcome := emptyOutcome(entry.EntryID)
		outcome.Degraded = true
		outcome.FailureKind = string(kind)
		return outcome
	}

	return o.classify(entry, parsed)
}

// AnalyzeText runs the same retry policy for an utterance outside any
// meeting and returns the parsed reply unclassified. Used by the ad-hoc
// analysis endpoint.
func (o *Orchestrator) AnalyzeText(ctx context.Context, text, speaker string) (StructuredAnalysis, error) {
	return o.callModel(ctx, text, speaker, nil)
}

// callModel makes one analyzer call with a single immediate retry on
// service errors and malformed replies.
func (o *Orchestrator) callModel(ctx context.Context, text, speaker string, recent []ContextEntry) (StructuredAnalysis, error) {
	parsed, err := o.analyzer.Analyze(ctx, text, speaker, recent)
	if err != nil && retryable(err) {
		o.logger.Printf("analysis retry speaker=%s kind=%s err=%v", speaker, KindOf(err), err)
		parsed, err = o.analyzer.Analyze(ctx, text, speaker, recent)
	}
	return parsed, err
}

func retryable(err error) bool {
	switch KindOf(err) {
	case FailureService, FailureMalformed:
		return true
	default:
		return false
	}
}

func emptyOutcome(entryID string) meeting.AnalysisOutcome {
	return meeting.AnalysisOutcome{
		EntryID:     entryID,
		Insights:    []meeting.Insight{},
		ActionItems: []meeting.ActionItem{},
	}
}

// classify maps a validated reply onto domain records. Extractions of type
// action_item at or above the threshold become pending action items; every
// below-threshold extraction is retained as a low-confidence insight,
// never silently dropped.
func (o *Orchestrator) classify(entry meeting.TranscriptEntry, parsed StructuredAnalysis) meeting.AnalysisOutcome {
	now := time.Now().UTC()
	outcome := emptyOutcome(entry.EntryID)
	outcome.Summary = parsed.Summary
	outcome.Sentiment = parsed.Sentiment
	outcome.Urgency = parsed.UrgencyLevel
	outcome.FollowUpNeeded = parsed.FollowUpNeeded

	for _, extracted := range parsed.Insights {
		if extracted.Type == string(meeting.InsightActionItem) && extracted.Confidence >= o.threshold {
			outcome.ActionItems = append(outcome.ActionItems, o.newActionItem(entry, meeting.ActionItem{
				Description: extracted.Content,
				Priority:    meeting.ParsePriority(extracted.Importance),
				Confidence:  extracted.Confidence,
			}, now))
			continue
		}
		outcome.Insights = append(outcome.Insights, meeting.Insight{
			InsightID:     "insight_" + ids.Short(),
			MeetingID:     entry.MeetingID,
			Type:          meeting.InsightType(extracted.Type),
			Content:       extracted.Content,
			Confidence:    extracted.Confidence,
			Speaker:       entry.Speaker,
			SourceEntryID: entry.EntryID,
			LowConfidence: extracted.Confidence < o.threshold,
			CreatedAt:     now,
		})
	}

	for _, extracted := range parsed.ActionItems {
		if extracted.Confidence >= o.threshold {
			outcome.ActionItems = append(outcome.ActionItems, o.newActionItem(entry, meeting.ActionItem{
				Description: extracted.Description,
				Assignee:    extracted.Assignee,
				DueDate:     extracted.DueDate,
				Priority:    meeting.ParsePriority(extracted.Priority),
				Confidence:  extracted.Confidence,
			}, now))
			continue
		}
		outcome.Insights = append(outcome.Insights, meeting.Insight{
			InsightID:     "insight_" + ids.Short(),
			MeetingID:     entry.MeetingID,
			Type:          meeting.InsightActionItem,
			Content:       extracted.Description,
			Confidence:    extracted.Confidence,
			Speaker:       entry.Speaker,
			SourceEntryID: entry.EntryID,
			LowConfidence: true,
			CreatedAt:     now,
		})
	}

	return outcome
}

func (o *Orchestrator) newActionItem(entry meeting.TranscriptEntry, item meeting.ActionItem, now time.Time) meeting.ActionItem {
	item.ItemID = "ai_" + ids.Short()
	item.MeetingID = entry.MeetingID
	item.Status = meeting.ActionItemPending
	if item.Priority == "" {
		item.Priority = meeting.PriorityMedium
	}
	item.SourceEntryID = entry.EntryID
	item.CreatedAt = now
	item.UpdatedAt = now
	return item
}
