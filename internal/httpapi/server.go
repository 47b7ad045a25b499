package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"roundtable.local/projects/insight-gateway/internal/ingest"
	"roundtable.local/projects/insight-gateway/internal/meeting"
	"roundtable.local/projects/insight-gateway/internal/metrics"
	"roundtable.local/projects/insight-gateway/internal/summary"
)

const maxRequestBytes int64 = 1 << 20

type server struct {
	logger  *log.Logger
	ingest  *ingest.Service
	metrics *metrics.Collector
}

func NewServer(logger *log.Logger, addr string, ingestService *ingest.Service, collector *metrics.Collector) *http.Server {
	h := &server{
		logger:  logger,
		ingest:  ingestService,
		metrics: collector,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /metrics", h.handleMetrics)
	mux.HandleFunc("POST /api/meetings", h.handleCreateMeeting)
	mux.HandleFunc("GET /api/meetings/{id}", h.handleGetMeeting)
	mux.HandleFunc("POST /api/meetings/{id}/end", h.handleEndMeeting)
	mux.HandleFunc("GET /api/meetings/{id}/summary", h.handleSummary)
	mux.HandleFunc("POST /api/analyze/text", h.handleAnalyzeText)
	mux.HandleFunc("GET /ws/{id}", h.handleWebsocket)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"uptime_seconds": int64(s.metrics.Uptime().Seconds()),
	})
}

func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_, _ = io.WriteString(w, s.metrics.PrometheusText())
}

type createMeetingBody struct {
	MeetingID               string   `json:"meeting_id"`
	Title                   string   `json:"title"`
	Participants            []string `json:"participants"`
	DurationEstimateMinutes int      `json:"duration_estimate_minutes"`
}

func (s *server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req createMeetingBody
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}
	if dec.More() {
		http.Error(w, "invalid json: trailing content", http.StatusBadRequest)
		return
	}

	rec, err := s.ingest.CreateMeeting(r.Context(), req.MeetingID, req.Title, req.Participants, req.DurationEstimateMinutes)
	if err != nil {
		http.Error(w, "failed to create meeting", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	view, err := s.ingest.GetMeeting(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *server) handleEndMeeting(w http.ResponseWriter, r *http.Request) {
	view, err := s.ingest.EndMeeting(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	report, err := s.ingest.GenerateSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, meeting.ErrNotFound) {
			s.writeError(w, err)
			return
		}
		s.logger.Printf("summary failed meeting_id=%s err=%v", r.PathValue("id"), err)
		http.Error(w, "failed to generate summary", http.StatusBadGateway)
		return
	}

	format := strings.TrimSpace(r.URL.Query().Get("format"))
	if format == "" || format == string(summary.FormatJSON) {
		writeJSON(w, http.StatusOK, report)
		return
	}

	content, filename, err := summary.Export(report, summary.Format(format))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	contentType := "text/plain; charset=utf-8"
	if summary.Format(format) == summary.FormatMarkdown {
		contentType = "text/markdown; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = io.WriteString(w, content)
}

type analyzeTextBody struct {
	Text    string `json:"text"`
	Speaker string `json:"speaker"`
}

func (s *server) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req analyzeTextBody
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}

	parsed, err := s.ingest.AnalyzeText(r.Context(), req.Text, req.Speaker)
	if err != nil {
		if errors.Is(err, ingest.ErrEmptyText) || errors.Is(err, ingest.ErrTextTooLong) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Printf("ad-hoc analysis failed err=%v", err)
		http.Error(w, "analysis failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, meeting.ErrNotFound):
		http.Error(w, "meeting not found", http.StatusNotFound)
	case errors.Is(err, meeting.ErrMeetingEnded):
		http.Error(w, "meeting already ended", http.StatusConflict)
	case errors.Is(err, meeting.ErrInvalidTransition):
		http.Error(w, "invalid action item transition", http.StatusConflict)
	case errors.Is(err, ingest.ErrEmptyText), errors.Is(err, ingest.ErrTextTooLong):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ingest.ErrMeetingQueueFull):
		http.Error(w, "meeting queue full", http.StatusTooManyRequests)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func isWebSocketOriginAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	parsedOrigin, err := url.Parse(origin)
	if err != nil || strings.TrimSpace(parsedOrigin.Host) == "" {
		return false
	}
	return strings.EqualFold(parsedOrigin.Host, r.Host)
}
