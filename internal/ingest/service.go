// Package ingest is the write path of the gateway: it accepts utterances,
// keeps per-meeting ordering, drives analysis, and publishes the resulting
// events to connected clients and subscribers.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"roundtable.local/projects/insight-gateway/internal/analysis"
	"roundtable.local/projects/insight-gateway/internal/dispatch"
	"roundtable.local/projects/insight-gateway/internal/meeting"
	"roundtable.local/projects/insight-gateway/internal/metrics"
	"roundtable.local/projects/insight-gateway/internal/registry"
	"roundtable.local/projects/insight-gateway/internal/store"
	"roundtable.local/projects/insight-gateway/internal/summary"
	"roundtable.local/projects/insight-gateway/internal/types"
)

var (
	ErrEmptyText   = errors.New("text is empty")
	ErrTextTooLong = errors.New("text too long")
)

const (
	greetingMessage         = "연결되었습니다. 회의를 시작하세요!"
	recordingStartedMessage = "녹음이 시작되었습니다."
	recordingStoppedMessage = "녹음이 중지되었습니다."
)

// Settings are the tunables the service reads from configuration.
type Settings struct {
	// ContextWindow is how many prior transcript entries accompany each
	// analysis request.
	ContextWindow int
	// MaxTextBytes rejects oversized utterances before they reach a worker.
	MaxTextBytes int
}

func (s Settings) withDefaults() Settings {
	if s.ContextWindow <= 0 {
		s.ContextWindow = 10
	}
	if s.MaxTextBytes <= 0 {
		s.MaxTextBytes = 4096
	}
	return s
}

type Service struct {
	logger       *log.Logger
	registry     *registry.Registry
	orchestrator *analysis.Orchestrator
	meetings     *meeting.Manager
	store        store.Store
	dispatcher   *dispatch.Dispatcher
	metrics      *metrics.Collector
	summaries    *summary.Service
	sched        *Scheduler
	settings     Settings
}

func NewService(
	logger *log.Logger,
	reg *registry.Registry,
	orchestrator *analysis.Orchestrator,
	meetings *meeting.Manager,
	st store.Store,
	dispatcher *dispatch.Dispatcher,
	collector *metrics.Collector,
	summaries *summary.Service,
	sched *Scheduler,
	settings Settings,
) *Service {
	return &Service{
		logger:       logger,
		registry:     reg,
		orchestrator: orchestrator,
		meetings:     meetings,
		store:        st,
		dispatcher:   dispatcher,
		metrics:      collector,
		summaries:    summaries,
		sched:        sched,
		settings:     settings.withDefaults(),
	}
}

// CreateMeeting registers a new active meeting and persists its header.
func (s *Service) CreateMeeting(ctx context.Context, meetingID, title string, participants []string, durationEstimate int) (meeting.Record, error) {
	agg := s.meetings.Create(meetingID, title, participants, durationEstimate)
	rec := agg.Header()
	if err := s.store.SaveMeeting(ctx, rec); err != nil {
		return meeting.Record{}, fmt.Errorf("persist meeting: %w", err)
	}
	s.metrics.Inc(metrics.MeetingsCreated)
	s.metrics.SetGauge(metrics.MeetingsActive, int64(s.meetings.ActiveCount()))
	return rec, nil
}

// GetMeeting returns a point-in-time view, reviving the aggregate from the
// store when it is not live in memory.
func (s *Service) GetMeeting(ctx context.Context, meetingID string) (meeting.View, error) {
	agg, err := s.lookup(ctx, meetingID)
	if err != nil {
		return meeting.View{}, err
	}
	return agg.Snapshot(), nil
}

// EndMeeting transitions the meeting to its terminal state. In-flight
// analysis results arriving afterwards are discarded.
func (s *Service) EndMeeting(ctx context.Context, meetingID string) (meeting.View, error) {
	agg, err := s.lookup(ctx, meetingID)
	if err != nil {
		return meeting.View{}, err
	}
	if err := agg.End(time.Now()); err != nil {
		return meeting.View{}, err
	}
	if err := s.store.SaveMeeting(ctx, agg.Header()); err != nil {
		s.logger.Printf("persist ended meeting failed meeting_id=%s err=%v", meetingID, err)
	}
	s.sched.Release(meetingID)
	s.metrics.Inc(metrics.MeetingsCompleted)
	s.metrics.SetGauge(metrics.MeetingsActive, int64(s.meetings.ActiveCount()))
	s.logger.Printf("meeting ended meeting_id=%s", meetingID)
	return agg.Snapshot(), nil
}

// GenerateSummary produces the meeting report and records the effectiveness
// score on the aggregate.
func (s *Service) GenerateSummary(ctx context.Context, meetingID string) (*summary.Report, error) {
	agg, err := s.lookup(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	report, err := s.summaries.Generate(ctx, agg.Snapshot())
	if err != nil {
		return nil, err
	}
	if score := float64(report.Body.MeetingEffectiveness.Score); score > 0 {
		agg.SetEfficiencyScore(score)
	}
	s.metrics.Inc(metrics.SummariesGenerated)
	return report, nil
}

// HandleTextInput validates one utterance and schedules it on the meeting's
// worker. Ordering within a meeting follows enqueue order.
func (s *Service) HandleTextInput(ctx context.Context, meetingID string, payload types.TextInputPayload) error {
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return ErrEmptyText
	}
	if len(text) > s.settings.MaxTextBytes {
		return ErrTextTooLong
	}

	agg, err := s.lookup(ctx, meetingID)
	if err != nil {
		return err
	}
	if agg.Status() != meeting.StatusActive {
		return meeting.ErrMeetingEnded
	}

	speaker := payload.Speaker
	return s.sched.Enqueue(meetingID, func(jobCtx context.Context) {
		s.process(jobCtx, agg, speaker, text)
	})
}

// process appends the utterance, persists it, echoes it to the room, and
// hands analysis off to its own goroutine so the next utterance is not
// blocked behind a slow model call.
func (s *Service) process(ctx context.Context, agg *meeting.Aggregate, speaker, text string) {
	recent := agg.RecentEntries(s.settings.ContextWindow)

	entry, err := agg.Append(speaker, text, time.Now())
	if err != nil {
		s.logger.Printf("append rejected meeting_id=%s err=%v", agg.ID(), err)
		return
	}
	s.metrics.Inc(metrics.TextAnalyses)

	if err := s.store.SaveEntry(ctx, entry); err != nil {
		s.logger.Printf("persist entry failed meeting_id=%s entry_id=%s err=%v", agg.ID(), entry.EntryID, err)
	}

	s.publish(types.ServerMessage{
		Type:       types.MessageTypeTextReceived,
		MeetingID:  agg.ID(),
		OccurredAt: entry.SpokenAt,
		Data: types.TextReceivedPayload{
			EntryID:   entry.EntryID,
			Text:      entry.Text,
			Speaker:   entry.Speaker,
			Timestamp: entry.SpokenAt.Format(time.RFC3339),
		},
	})

	window := make([]analysis.ContextEntry, 0, len(recent))
	for _, prior := range recent {
		window = append(window, analysis.ContextEntry{Speaker: prior.Speaker, Text: prior.Text})
	}
	go s.analyzeEntry(context.Background(), agg, entry, window)
}

func (s *Service) analyzeEntry(ctx context.Context, agg *meeting.Aggregate, entry meeting.TranscriptEntry, recent []analysis.ContextEntry) {
	s.metrics.Inc(metrics.AnalysisCalls)
	outcome := s.orchestrator.Analyze(ctx, entry, recent)

	if outcome.Degraded {
		s.metrics.Inc(metrics.AnalysisErrors)
		s.publish(types.ServerMessage{
			Type:       types.MessageTypeError,
			MeetingID:  agg.ID(),
			OccurredAt: time.Now().UTC(),
			Data: types.ErrorPayload{
				Code:       outcome.FailureKind,
				Message:    "분석 서비스가 일시적으로 응답하지 않습니다. 발언은 기록되었습니다.",
				RetryAfter: 5,
			},
		})
		return
	}

	if err := agg.Apply(outcome); err != nil {
		s.logger.Printf("late analysis discarded meeting_id=%s entry_id=%s err=%v", agg.ID(), entry.EntryID, err)
		return
	}

	for _, insight := range outcome.Insights {
		if err := s.store.SaveInsight(ctx, insight); err != nil {
			s.logger.Printf("persist insight failed meeting_id=%s insight_id=%s err=%v", agg.ID(), insight.InsightID, err)
		}
	}
	for _, item := range outcome.ActionItems {
		if err := s.store.SaveActionItem(ctx, item); err != nil {
			s.logger.Printf("persist action item failed meeting_id=%s item_id=%s err=%v", agg.ID(), item.ItemID, err)
		}
	}
	s.metrics.Add(metrics.InsightsGenerated, int64(len(outcome.Insights)))
	s.metrics.Add(metrics.ActionItemsGenerated, int64(len(outcome.ActionItems)))

	now := time.Now().UTC()
	s.publish(types.ServerMessage{
		Type:       types.MessageTypeAnalysisResult,
		MeetingID:  agg.ID(),
		OccurredAt: now,
		Data: types.AnalysisResultPayload{
			EntryID:      entry.EntryID,
			Speaker:      entry.Speaker,
			OriginalText: entry.Text,
			Analysis:     outcome,
		},
	})
	if len(outcome.Insights) > 0 {
		s.publish(types.ServerMessage{
			Type:       types.MessageTypeRealTimeInsight,
			MeetingID:  agg.ID(),
			OccurredAt: now,
			Data: types.RealTimeInsightPayload{
				EntryID:  entry.EntryID,
				Analysis: outcome.Insights,
			},
		})
	}
	for _, item := range outcome.ActionItems {
		s.publish(types.ServerMessage{
			Type:       types.MessageTypeActionItemDetected,
			MeetingID:  agg.ID(),
			OccurredAt: now,
			Data: types.ActionItemDetectedPayload{
				Item:                 item,
				RequiresConfirmation: true,
			},
		})
	}
}

// ConfirmActionItem applies a user's confirm/reject verdict and announces
// the result to the room.
func (s *Service) ConfirmActionItem(ctx context.Context, meetingID string, payload types.ConfirmActionItemPayload) (meeting.ActionItem, error) {
	agg, err := s.lookup(ctx, meetingID)
	if err != nil {
		return meeting.ActionItem{}, err
	}

	var mods meeting.Modifications
	if m := payload.Modifications; m != nil {
		mods.Assignee = m.Assignee
		mods.DueDate = m.DueDate
		if m.Priority != nil {
			priority := meeting.ParsePriority(*m.Priority)
			mods.Priority = &priority
		}
	}

	item, err := agg.ConfirmActionItem(payload.ItemID, payload.Confirmed, mods)
	if err != nil {
		return meeting.ActionItem{}, err
	}
	if err := s.store.SaveActionItem(ctx, item); err != nil {
		s.logger.Printf("persist action item failed meeting_id=%s item_id=%s err=%v", meetingID, item.ItemID, err)
	}

	s.publish(types.ServerMessage{
		Type:       types.MessageTypeActionItemConfirmed,
		MeetingID:  meetingID,
		OccurredAt: time.Now().UTC(),
		Data:       types.ActionItemConfirmedPayload{Item: item},
	})
	return item, nil
}

// AnalyzeText runs a one-off analysis outside any meeting, under the same
// retry policy as the websocket path. Used by the ad-hoc HTTP endpoint.
func (s *Service) AnalyzeText(ctx context.Context, text, speaker string) (analysis.StructuredAnalysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return analysis.StructuredAnalysis{}, ErrEmptyText
	}
	if len(text) > s.settings.MaxTextBytes {
		return analysis.StructuredAnalysis{}, ErrTextTooLong
	}
	s.metrics.Inc(metrics.AnalysisCalls)
	parsed, err := s.orchestrator.AnalyzeText(ctx, text, speaker)
	if err != nil {
		s.metrics.Inc(metrics.AnalysisErrors)
		return analysis.StructuredAnalysis{}, err
	}
	return parsed, nil
}

// StartRecording announces that a client began streaming audio-derived text.
func (s *Service) StartRecording(meetingID string) {
	s.publish(types.ServerMessage{
		Type:       types.MessageTypeRecordingStarted,
		MeetingID:  meetingID,
		OccurredAt: time.Now().UTC(),
		Data:       types.RecordingPayload{Message: recordingStartedMessage},
	})
}

func (s *Service) StopRecording(meetingID string) {
	s.publish(types.ServerMessage{
		Type:       types.MessageTypeRecordingStopped,
		MeetingID:  meetingID,
		OccurredAt: time.Now().UTC(),
		Data:       types.RecordingPayload{Message: recordingStoppedMessage},
	})
}

// Connect joins a websocket connection to a meeting, creating the meeting
// on first contact, and greets the client.
func (s *Service) Connect(ctx context.Context, meetingID string, conn registry.Conn) error {
	agg, err := s.lookup(ctx, meetingID)
	if errors.Is(err, meeting.ErrNotFound) {
		if _, err := s.CreateMeeting(ctx, meetingID, "", nil, 0); err != nil {
			return err
		}
		agg, err = s.meetings.Get(meetingID)
		if err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	s.registry.Join(agg.ID(), conn)
	s.metrics.SetGauge(metrics.WebsocketConnections, int64(s.registry.TotalConnections()))

	now := time.Now().UTC()
	if err := s.registry.Send(conn, types.ServerMessage{
		Type:       types.MessageTypeConnectionEstablished,
		MeetingID:  agg.ID(),
		OccurredAt: now,
		Data: types.ConnectionEstablishedPayload{
			MeetingID: agg.ID(),
			Message:   greetingMessage,
		},
	}); err != nil {
		return err
	}

	s.registry.BroadcastExcept(agg.ID(), conn.ID(), types.ServerMessage{
		Type:       types.MessageTypeParticipantJoined,
		MeetingID:  agg.ID(),
		OccurredAt: now,
		Data: types.ParticipantJoinedPayload{
			MeetingID:        agg.ID(),
			ParticipantCount: s.registry.Size(agg.ID()),
		},
	})
	return nil
}

// Disconnect removes the connection and tells the room.
func (s *Service) Disconnect(meetingID string, conn registry.Conn) {
	s.registry.Leave(conn)
	s.metrics.SetGauge(metrics.WebsocketConnections, int64(s.registry.TotalConnections()))

	s.registry.Broadcast(meetingID, types.ServerMessage{
		Type:       types.MessageTypeParticipantLeft,
		MeetingID:  meetingID,
		OccurredAt: time.Now().UTC(),
		Data: types.ParticipantLeftPayload{
			MeetingID:        meetingID,
			ParticipantCount: s.registry.Size(meetingID),
		},
	})
}

// RelayTyping forwards a typing indicator to everyone but the sender.
// Typing state is ephemeral and never persisted.
func (s *Service) RelayTyping(meetingID, senderConnID string, payload types.UserTypingPayload) {
	s.registry.BroadcastExcept(meetingID, senderConnID, types.ServerMessage{
		Type:       types.MessageTypeUserTyping,
		MeetingID:  meetingID,
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	})
}

// SendPersonal delivers a message to one connection only.
func (s *Service) SendPersonal(conn registry.Conn, msg types.ServerMessage) error {
	return s.registry.Send(conn, msg)
}

// FlushAll persists every live meeting header. Called on shutdown; entries,
// insights, and items are already persisted incrementally.
func (s *Service) FlushAll(ctx context.Context) {
	for _, agg := range s.meetings.All() {
		if err := s.store.SaveMeeting(ctx, agg.Header()); err != nil {
			s.logger.Printf("flush meeting failed meeting_id=%s err=%v", agg.ID(), err)
		}
	}
}

// lookup returns the live aggregate, reviving it from the store on a miss.
func (s *Service) lookup(ctx context.Context, meetingID string) (*meeting.Aggregate, error) {
	agg, err := s.meetings.Get(meetingID)
	if err == nil {
		return agg, nil
	}

	loaded, loadErr := s.store.LoadMeeting(ctx, meetingID)
	if loadErr != nil {
		if errors.Is(loadErr, store.ErrNotFound) {
			return nil, meeting.ErrNotFound
		}
		return nil, fmt.Errorf("load meeting: %w", loadErr)
	}
	agg = meeting.Restore(loaded.Record, loaded.Entries, loaded.Insights, loaded.ActionItems)
	s.meetings.Adopt(agg)
	s.logger.Printf("meeting revived from store meeting_id=%s entries=%d", meetingID, len(loaded.Entries))
	return agg, nil
}

func (s *Service) publish(msg types.ServerMessage) {
	s.registry.Broadcast(msg.MeetingID, msg)
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(context.Background(), msg)
	}
}
