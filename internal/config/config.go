package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultHTTPAddr = ":8080"
const (
	defaultDBDriver            = "sqlite"
	defaultDBDSN               = "insight-gateway.db"
	defaultGeminiEndpoint      = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel         = "gemini-2.5-flash"
	defaultAnalysisTimeout     = 8 * time.Second
	defaultContextWindow       = 10
	defaultActionItemThreshold = 0.6
	defaultMeetingQueueSize    = 256
	defaultSweepInterval       = 30 * time.Second
	defaultMaxTextBytes        = 4096
)

type Config struct {
	HTTPAddr              string
	DBDriver              string
	DBDSN                 string
	GeminiAPIKey          string
	GeminiEndpoint        string
	GeminiModel           string
	AnalysisTimeout       time.Duration
	AnalysisContextWindow int
	ActionItemThreshold   float64
	MeetingQueueSize      int
	SweepInterval         time.Duration
	MaxTextBytes          int
	WebhookURLs           []string
}

func FromEnv() Config {
	addr := strings.TrimSpace(os.Getenv("ROUNDTABLE_HTTP_ADDR"))
	if addr == "" {
		addr = defaultHTTPAddr
	}

	driver := strings.TrimSpace(os.Getenv("ROUNDTABLE_DB_DRIVER"))
	if driver == "" {
		driver = defaultDBDriver
	}
	dsn := strings.TrimSpace(os.Getenv("ROUNDTABLE_DB_DSN"))
	if dsn == "" {
		dsn = defaultDBDSN
	}

	apiKey := strings.TrimSpace(os.Getenv("ROUNDTABLE_GEMINI_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	endpoint := strings.TrimSpace(os.Getenv("ROUNDTABLE_GEMINI_ENDPOINT"))
	if endpoint == "" {
		endpoint = defaultGeminiEndpoint
	}
	model := strings.TrimSpace(os.Getenv("ROUNDTABLE_GEMINI_MODEL"))
	if model == "" {
		model = defaultGeminiModel
	}

	var webhookURLs []string
	for _, raw := range strings.Split(os.Getenv("ROUNDTABLE_WEBHOOK_URLS"), ",") {
		if url := strings.TrimSpace(raw); url != "" {
			webhookURLs = append(webhookURLs, url)
		}
	}

	return Config{
		HTTPAddr:              addr,
		DBDriver:              strings.ToLower(driver),
		DBDSN:                 dsn,
		GeminiAPIKey:          apiKey,
		GeminiEndpoint:        endpoint,
		GeminiModel:           model,
		AnalysisTimeout:       parseDurationEnv("ROUNDTABLE_ANALYSIS_TIMEOUT", defaultAnalysisTimeout),
		AnalysisContextWindow: parseIntEnv("ROUNDTABLE_ANALYSIS_CONTEXT_WINDOW", defaultContextWindow),
		ActionItemThreshold:   parseFloatEnv("ROUNDTABLE_ACTION_ITEM_THRESHOLD", defaultActionItemThreshold),
		MeetingQueueSize:      parseIntEnv("ROUNDTABLE_MEETING_QUEUE_SIZE", defaultMeetingQueueSize),
		SweepInterval:         parseDurationEnv("ROUNDTABLE_SWEEP_INTERVAL", defaultSweepInterval),
		MaxTextBytes:          parseIntEnv("ROUNDTABLE_MAX_TEXT_BYTES", defaultMaxTextBytes),
		WebhookURLs:           webhookURLs,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("ROUNDTABLE_HTTP_ADDR must not be empty")
	}
	switch strings.ToLower(strings.TrimSpace(c.DBDriver)) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("ROUNDTABLE_DB_DRIVER must be sqlite or postgres")
	}
	if strings.TrimSpace(c.DBDSN) == "" {
		return fmt.Errorf("ROUNDTABLE_DB_DSN must not be empty")
	}
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return fmt.Errorf("ROUNDTABLE_GEMINI_API_KEY must not be empty")
	}
	if c.AnalysisTimeout <= 0 {
		return fmt.Errorf("ROUNDTABLE_ANALYSIS_TIMEOUT must be > 0")
	}
	if c.AnalysisContextWindow <= 0 {
		return fmt.Errorf("ROUNDTABLE_ANALYSIS_CONTEXT_WINDOW must be > 0")
	}
	if c.ActionItemThreshold <= 0 || c.ActionItemThreshold > 1 {
		return fmt.Errorf("ROUNDTABLE_ACTION_ITEM_THRESHOLD must be in (0, 1]")
	}
	if c.MeetingQueueSize <= 0 {
		return fmt.Errorf("ROUNDTABLE_MEETING_QUEUE_SIZE must be > 0")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("ROUNDTABLE_SWEEP_INTERVAL must be > 0")
	}
	if c.MaxTextBytes <= 0 {
		return fmt.Errorf("ROUNDTABLE_MAX_TEXT_BYTES must be > 0")
	}
	return nil
}

func parseDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseFloatEnv(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
