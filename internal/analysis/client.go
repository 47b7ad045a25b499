package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	defaultEndpoint        = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel           = "gemini-2.5-flash"
	defaultCallTimeout     = 8 * time.Second
	defaultMaxOutputTokens = 2048
	maxReplyBytes          = 1 << 20
)

type Option func(*Client)

// Client wraps a single call to the external reasoning service. It carries
// a hard per-call timeout and classifies every failure; retry policy lives
// in the orchestrator.
type Client struct {
	apiKey          string
	endpoint        string
	model           string
	timeout         time.Duration
	maxOutputTokens int
	httpClient      *http.Client
}

func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:          strings.TrimSpace(apiKey),
		endpoint:        defaultEndpoint,
		model:           defaultModel,
		timeout:         defaultCallTimeout,
		maxOutputTokens: defaultMaxOutputTokens,
		httpClient:      &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(endpoint); trimmed != "" {
			c.endpoint = trimmed
		}
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(model); trimmed != "" {
			c.model = trimmed
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// ContextEntry is one prior utterance included in the prompt's rolling
// context window.
type ContextEntry struct {
	Speaker string
	Text    string
}

// Analyze builds the analysis prompt for one utterance plus its context
// window, performs the call, and parses the reply. The returned error is
// always an *Error.
func (c *Client) Analyze(ctx context.Context, text, speaker string, recent []ContextEntry) (StructuredAnalysis, error) {
	raw, err := c.Complete(ctx, buildAnalysisPrompt(text, speaker, recent))
	if err != nil {
		return StructuredAnalysis{}, err
	}
	parsed, err := Parse(raw)
	if err != nil {
		return StructuredAnalysis{}, &Error{Kind: FailureMalformed, Err: err}
	}
	return parsed, nil
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type geminiErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Complete issues one generateContent call under the client's timeout and
// returns the raw reply text. Also used by the summary service.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", &Error{Kind: FailureService, Err: errors.New("api key is required")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenConfig{
			// Low temperature keeps the JSON contract stable.
			Temperature:     0.3,
			MaxOutputTokens: c.maxOutputTokens,
			TopK:            1,
			TopP:            0.8,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &Error{Kind: FailureTransport, Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: FailureTransport, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", &Error{Kind: FailureTimeout, Err: err}
		}
		return "", &Error{Kind: FailureTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Kind: FailureService, Err: serviceError(resp)}
	}

	var parsed geminiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxReplyBytes)).Decode(&parsed); err != nil {
		return "", &Error{Kind: FailureMalformed, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &Error{Kind: FailureMalformed, Err: errors.New("no candidates in response")}
	}

	var builder strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		builder.WriteString(part.Text)
	}
	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", &Error{Kind: FailureMalformed, Err: errors.New("empty candidate text")}
	}
	return text, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func serviceError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	message := strings.TrimSpace(string(body))
	if len(body) > 0 {
		var envelope geminiErrorEnvelope
		if err := json.Unmarshal(body, &envelope); err == nil && strings.TrimSpace(envelope.Error.Message) != "" {
			message = envelope.Error.Message
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("api status %d: %s", resp.StatusCode, message)
}
