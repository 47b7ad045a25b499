package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"roundtable.local/projects/insight-gateway/internal/analysis"
	"roundtable.local/projects/insight-gateway/internal/config"
	"roundtable.local/projects/insight-gateway/internal/dispatch"
	"roundtable.local/projects/insight-gateway/internal/httpapi"
	"roundtable.local/projects/insight-gateway/internal/ingest"
	"roundtable.local/projects/insight-gateway/internal/meeting"
	"roundtable.local/projects/insight-gateway/internal/metrics"
	"roundtable.local/projects/insight-gateway/internal/registry"
	"roundtable.local/projects/insight-gateway/internal/store"
	"roundtable.local/projects/insight-gateway/internal/subscribers"
	logging "roundtable.local/projects/insight-gateway/internal/subscribers/logging"
	"roundtable.local/projects/insight-gateway/internal/subscribers/webhook"
	"roundtable.local/projects/insight-gateway/internal/summary"
)

func main() {
	logger := log.New(os.Stdout, "insight-gateway ", log.Ldate|log.Ltime|log.Lmicroseconds|log.LUTC)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Printf("dotenv load warning: %v", err)
	}

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	st, err := store.NewGormStore(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatalf("failed to initialize store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Printf("store close error: %v", err)
		}
	}()

	subs := []subscribers.Subscriber{logging.New(logger)}
	for idx, webhookURL := range cfg.WebhookURLs {
		subs = append(subs, webhook.New(webhookSubscriberName(idx, webhookURL), webhookURL, logger))
	}
	dispatcher := dispatch.New(logger, subs)

	collector := metrics.NewCollector()
	reg := registry.New(logger)

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go reg.StartSweeper(sweepCtx, cfg.SweepInterval)

	client := analysis.NewClient(cfg.GeminiAPIKey,
		analysis.WithEndpoint(cfg.GeminiEndpoint),
		analysis.WithModel(cfg.GeminiModel),
		analysis.WithTimeout(cfg.AnalysisTimeout),
	)
	orchestrator := analysis.NewOrchestrator(logger, client, cfg.ActionItemThreshold)
	summaries := summary.NewService(logger, client)

	meetings := meeting.NewManager(logger)
	sched := ingest.NewScheduler(logger, cfg.MeetingQueueSize)
	service := ingest.NewService(logger, reg, orchestrator, meetings, st, dispatcher, collector, summaries, sched, ingest.Settings{
		ContextWindow: cfg.AnalysisContextWindow,
		MaxTextBytes:  cfg.MaxTextBytes,
	})

	srv := httpapi.NewServer(logger, cfg.HTTPAddr, service, collector)
	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server crashed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("server shutdown error: %v", err)
	}
	reg.CloseAll()
	service.FlushAll(ctx)
}

func webhookSubscriberName(index int, webhookURL string) string {
	parsed, err := url.Parse(webhookURL)
	if err == nil {
		host := strings.TrimSpace(parsed.Host)
		if host != "" {
			return host
		}
	}
	return fmt.Sprintf("webhook-%d", index+1)
}
