package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func geminiReply(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + jsonQuote(text) + `}]}}]}`
}

func jsonQuote(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	return `"` + replacer.Replace(s) + `"`
}

func TestAnalyzeSuccess(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(geminiReply(sampleReply)))
	}))
	defer server.Close()

	client := NewClient("test-key", WithEndpoint(server.URL), WithModel("gemini-2.5-flash"))
	parsed, err := client.Analyze(context.Background(), "let's ship friday", "anna", []ContextEntry{{Speaker: "ben", Text: "how is the rollout going?"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Summary != "rollout planning" {
		t.Fatalf("unexpected summary: %s", parsed.Summary)
	}
	if gotPath != "/models/gemini-2.5-flash:generateContent" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("unexpected api key header: %s", gotKey)
	}
}

func TestAnalyzeServiceErrorKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend overloaded","status":"INTERNAL"}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithEndpoint(server.URL))
	_, err := client.Analyze(context.Background(), "text", "anna", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if kind := KindOf(err); kind != FailureService {
		t.Fatalf("expected service_error, got %s", kind)
	}
	if !strings.Contains(err.Error(), "backend overloaded") {
		t.Fatalf("expected upstream message in error, got %v", err)
	}
}

func TestAnalyzeTimeoutKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(geminiReply(sampleReply)))
	}))
	defer server.Close()

	client := NewClient("test-key", WithEndpoint(server.URL), WithTimeout(50*time.Millisecond))
	_, err := client.Analyze(context.Background(), "text", "anna", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if kind := KindOf(err); kind != FailureTimeout {
		t.Fatalf("expected timeout, got %s", kind)
	}
}

func TestAnalyzeTransportKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := NewClient("test-key", WithEndpoint(server.URL))
	_, err := client.Analyze(context.Background(), "text", "anna", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if kind := KindOf(err); kind != FailureTransport {
		t.Fatalf("expected transport_error, got %s", kind)
	}
}

func TestAnalyzeMalformedKinds(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"invalid envelope", `not json`},
		{"no candidates", `{"candidates":[]}`},
		{"empty text", geminiReply("   ")},
		{"prose reply", geminiReply("I cannot analyze that.")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient("test-key", WithEndpoint(server.URL))
			_, err := client.Analyze(context.Background(), "text", "anna", nil)
			if err == nil {
				t.Fatalf("expected error")
			}
			if kind := KindOf(err); kind != FailureMalformed {
				t.Fatalf("expected malformed_reply, got %s", kind)
			}
		})
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := NewClient("  ")
	_, err := client.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatalf("expected error without api key")
	}
	if kind := KindOf(err); kind != FailureService {
		t.Fatalf("expected service_error, got %s", kind)
	}
}

func TestCompleteConcatenatesParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello "},{"text":"world"}]}}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithEndpoint(server.URL))
	got, err := client.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello world" {
		t.Fatalf("unexpected text: %q", got)
	}
}
