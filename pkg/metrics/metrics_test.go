package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCounter(t *testing.T) {
	c := NewCounter("test_counter", "test help")
	if c.Value() != 0 {
		t.Error("fresh counter should be zero")
	}

	c.Inc()
	c.Add(4)
	if c.Value() != 5 {
		t.Errorf("expected 5, got %d", c.Value())
	}
	if c.Name() != "test_counter" || c.Type() != TypeCounter {
		t.Error("counter metadata mismatch")
	}
}

func TestCounter_Concurrent(t *testing.T) {
	c := NewCounter("concurrent_counter", "")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()

	if c.Value() != 10000 {
		t.Errorf("expected 10000, got %d", c.Value())
	}
}

func TestGauge(t *testing.T) {
	g := NewGauge("test_gauge", "test help")

	g.Set(10)
	g.Inc()
	g.Dec()
	g.Add(-5)
	if g.Value() != 5 {
		t.Errorf("expected 5, got %d", g.Value())
	}

	g.SetUint64(42)
	if g.Value() != 42 {
		t.Errorf("expected 42, got %d", g.Value())
	}
}

func TestHistogram(t *testing.T) {
	h := NewHistogram("test_histogram", "", []float64{0.1, 1.0, 10.0})

	h.Observe(0.05)
	h.Observe(0.5)
	h.Observe(5.0)
	h.Observe(50.0)

	snap := h.Snapshot()
	if snap.Count != 4 {
		t.Errorf("expected count 4, got %d", snap.Count)
	}
	if snap.Sum != 55.55 {
		t.Errorf("expected sum 55.55, got %g", snap.Sum)
	}

	// One observation landed in each bucket; the largest exceeded them all
	for i, want := range []uint64{1, 1, 1} {
		if snap.Buckets[i].Count != want {
			t.Errorf("bucket %d: expected %d, got %d", i, want, snap.Buckets[i].Count)
		}
	}
}

func TestHistogram_ObserveDuration(t *testing.T) {
	h := NewHistogram("duration_histogram", "", nil)
	h.ObserveDuration(5 * time.Millisecond)

	snap := h.Snapshot()
	if snap.Count != 1 {
		t.Errorf("expected count 1, got %d", snap.Count)
	}
}

func TestMetrics_Registry(t *testing.T) {
	m := NewMetrics()

	if m.Get("ledger_instructions_executed_total") == nil {
		t.Error("instructions counter not registered")
	}
	if m.Get("no_such_metric") != nil {
		t.Error("expected nil for unknown metric")
	}
	if len(m.All()) == 0 {
		t.Error("registry should not be empty")
	}
}

func TestMetrics_Format(t *testing.T) {
	m := NewMetrics()
	m.InstructionsExecuted.Add(3)
	m.AccountsCount.Set(7)

	output := m.Format()

	for _, want := range []string{
		"# HELP ledger_instructions_executed_total",
		"# TYPE ledger_instructions_executed_total counter",
		"ledger_instructions_executed_total 3",
		"# TYPE ledger_accounts_count gauge",
		"ledger_accounts_count 7",
		"# TYPE ledger_instruction_duration_seconds histogram",
		"ledger_instruction_duration_seconds_bucket{le=\"+Inf\"} 0",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestMetrics_FormatHistogramCumulative(t *testing.T) {
	m := NewMetrics()
	m.InstructionDuration.Observe(0.00001)
	m.InstructionDuration.Observe(0.00001)
	m.InstructionDuration.Observe(0.9)

	output := m.Format()
	if !strings.Contains(output, "ledger_instruction_duration_seconds_bucket{le=\"1\"} 3") {
		t.Errorf("largest bucket should hold the cumulative count:\n%s", output)
	}
	if !strings.Contains(output, "ledger_instruction_duration_seconds_count 3") {
		t.Error("count line missing")
	}
}

func TestMetrics_RecordInstruction(t *testing.T) {
	m := NewMetrics()

	m.RecordInstruction(0, true, time.Millisecond)
	m.RecordInstruction(1, true, time.Millisecond)
	m.RecordInstruction(2, true, time.Millisecond)
	m.RecordInstruction(2, true, time.Millisecond)
	m.RecordInstruction(5, false, time.Millisecond)

	if m.InstructionsExecuted.Value() != 4 {
		t.Errorf("expected 4 executed, got %d", m.InstructionsExecuted.Value())
	}
	if m.InstructionsFailed.Value() != 1 {
		t.Errorf("expected 1 failed, got %d", m.InstructionsFailed.Value())
	}
	if m.MintsInitialized.Value() != 1 {
		t.Errorf("expected 1 mint, got %d", m.MintsInitialized.Value())
	}
	if m.TokenAccountsOpened.Value() != 1 {
		t.Errorf("expected 1 account, got %d", m.TokenAccountsOpened.Value())
	}
	if m.TransfersTotal.Value() != 2 {
		t.Errorf("expected 2 transfers, got %d", m.TransfersTotal.Value())
	}
	if m.InstructionDuration.Snapshot().Count != 5 {
		t.Error("every instruction should be observed in the duration histogram")
	}
}

func TestDefaultMetrics_Singleton(t *testing.T) {
	if DefaultMetrics() != DefaultMetrics() {
		t.Error("default metrics should be a singleton")
	}
}
