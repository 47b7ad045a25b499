package metrics

import (
	"strings"
	"testing"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()
	c.Inc(MeetingsCreated)
	c.Inc(MeetingsCreated)
	c.Add(InsightsGenerated, 3)

	counters, _ := c.Snapshot()
	if counters[MeetingsCreated] != 2 {
		t.Fatalf("expected 2 meetings created, got %d", counters[MeetingsCreated])
	}
	if counters[InsightsGenerated] != 3 {
		t.Fatalf("expected 3 insights, got %d", counters[InsightsGenerated])
	}
}

func TestCollectorGauges(t *testing.T) {
	c := NewCollector()
	c.SetGauge(WebsocketConnections, 4)
	c.SetGauge(WebsocketConnections, 2)

	_, gauges := c.Snapshot()
	if gauges[WebsocketConnections] != 2 {
		t.Fatalf("gauge must hold last set value, got %d", gauges[WebsocketConnections])
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c := NewCollector()
	c.Inc(AnalysisCalls)

	counters, _ := c.Snapshot()
	counters[AnalysisCalls] = 99

	fresh, _ := c.Snapshot()
	if fresh[AnalysisCalls] != 1 {
		t.Fatalf("snapshot mutation leaked into collector: %d", fresh[AnalysisCalls])
	}
}

func TestPrometheusText(t *testing.T) {
	c := NewCollector()
	c.Inc(MeetingsCreated)
	c.Add(ActionItemsGenerated, 5)
	c.SetGauge(MeetingsActive, 1)

	text := c.PrometheusText()

	for _, want := range []string{
		"# HELP roundtable_meetings_created_total Total meetings created.",
		"# TYPE roundtable_meetings_created_total counter",
		"roundtable_meetings_created_total 1",
		"roundtable_action_items_generated_total 5",
		"# TYPE roundtable_meetings_active gauge",
		"roundtable_meetings_active 1",
		"# TYPE roundtable_uptime_seconds gauge",
		"roundtable_uptime_seconds ",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}

	// Counters are sorted by name, so action items render before meetings.
	if strings.Index(text, "roundtable_action_items_generated_total") > strings.Index(text, "roundtable_meetings_created_total") {
		t.Fatalf("metrics not sorted:\n%s", text)
	}
}

func TestPrometheusTextEmptyCollector(t *testing.T) {
	c := NewCollector()
	text := c.PrometheusText()
	if !strings.Contains(text, "roundtable_uptime_seconds") {
		t.Fatalf("uptime must always render:\n%s", text)
	}
}
