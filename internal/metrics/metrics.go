// Package metrics keeps process-local counters and gauges for the gateway
// and renders them in Prometheus text exposition format.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	MeetingsCreated      = "meetings_created"
	MeetingsCompleted    = "meetings_completed"
	AnalysisCalls        = "analysis_calls"
	AnalysisErrors       = "analysis_errors"
	TextAnalyses         = "text_analyses"
	ActionItemsGenerated = "action_items_generated"
	InsightsGenerated    = "insights_generated"
	SummariesGenerated   = "summaries_generated"

	MeetingsActive       = "meetings_active"
	WebsocketConnections = "websocket_connections"
)

var counterHelp = map[string]string{
	MeetingsCreated:      "Total meetings created.",
	MeetingsCompleted:    "Total meetings ended.",
	AnalysisCalls:        "Total analysis requests sent to the language model.",
	AnalysisErrors:       "Total analysis requests that ended degraded.",
	TextAnalyses:         "Total transcript entries analyzed.",
	ActionItemsGenerated: "Total action items extracted.",
	InsightsGenerated:    "Total insights extracted.",
	SummariesGenerated:   "Total meeting summaries generated.",
}

var gaugeHelp = map[string]string{
	MeetingsActive:       "Meetings currently active.",
	WebsocketConnections: "Websocket connections currently open.",
}

type Collector struct {
	mu       sync.Mutex
	started  time.Time
	counters map[string]int64
	gauges   map[string]int64
}

func NewCollector() *Collector {
	return &Collector{
		started:  time.Now(),
		counters: make(map[string]int64),
		gauges:   make(map[string]int64),
	}
}

func (c *Collector) Inc(name string) {
	c.Add(name, 1)
}

func (c *Collector) Add(name string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name] += delta
}

func (c *Collector) SetGauge(name string, value int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[name] = value
}

func (c *Collector) Uptime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.started)
}

// Snapshot returns a copy of all counters and gauges.
func (c *Collector) Snapshot() (counters map[string]int64, gauges map[string]int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	counters = make(map[string]int64, len(c.counters))
	for name, value := range c.counters {
		counters[name] = value
	}
	gauges = make(map[string]int64, len(c.gauges))
	for name, value := range c.gauges {
		gauges[name] = value
	}
	return counters, gauges
}

// PrometheusText renders every metric with a roundtable_ prefix, sorted by
// name so the output is stable.
func (c *Collector) PrometheusText() string {
	counters, gauges := c.Snapshot()

	var builder strings.Builder

	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		full := "roundtable_" + name + "_total"
		if help, ok := counterHelp[name]; ok {
			fmt.Fprintf(&builder, "# HELP %s %s\n", full, help)
		}
		fmt.Fprintf(&builder, "# TYPE %s counter\n", full)
		fmt.Fprintf(&builder, "%s %d\n", full, counters[name])
	}

	names = names[:0]
	for name := range gauges {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		full := "roundtable_" + name
		if help, ok := gaugeHelp[name]; ok {
			fmt.Fprintf(&builder, "# HELP %s %s\n", full, help)
		}
		fmt.Fprintf(&builder, "# TYPE %s gauge\n", full)
		fmt.Fprintf(&builder, "%s %d\n", full, gauges[name])
	}

	fmt.Fprintf(&builder, "# TYPE roundtable_uptime_seconds gauge\n")
	fmt.Fprintf(&builder, "roundtable_uptime_seconds %d\n", int64(c.Uptime().Seconds()))

	return builder.String()
}
