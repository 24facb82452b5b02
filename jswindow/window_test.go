package jswindow

import "testing"

func TestDataLayerCreatesEmptyQueue(t *testing.T) {
	w := New()
	w.DataLayer("dataLayer")
	if got := w.Len("dataLayer"); got != 0 {
		t.Fatalf("expected empty queue, got length %d", got)
	}
	value, err := w.Eval("Array.isArray(window.dataLayer)")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if value != true {
		t.Fatalf("expected dataLayer to be an array, got %v", value)
	}
}

func TestDataLayerPreservesExistingQueue(t *testing.T) {
	w := New()
	if err := w.Run(`window.dataLayer = [{event: "boot"}];`); err != nil {
		t.Fatalf("run: %v", err)
	}
	w.DataLayer("dataLayer").Push(map[string]any{"event": "gtm.js"})

	entries, err := w.Snapshot("dataLayer")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected existing entry plus push, got %v", entries)
	}
	first := entries[0].(map[string]any)
	if first["event"] != "boot" {
		t.Fatalf("existing entry replaced: %v", entries)
	}
	second := entries[1].(map[string]any)
	if second["event"] != "gtm.js" {
		t.Fatalf("unexpected pushed entry: %v", second)
	}
}

func TestPushKeepsNumbersNumeric(t *testing.T) {
	w := New()
	w.DataLayer("dl").Push(map[string]any{"gtm.start": int64(1700000000000), "event": "gtm.js"})

	value, err := w.Eval(`typeof dl[0]["gtm.start"]`)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if value != "number" {
		t.Fatalf("expected number, got %v", value)
	}
}

func TestRunReportsScriptErrors(t *testing.T) {
	w := New()
	if err := w.Run("this is not javascript"); err == nil {
		t.Fatalf("expected syntax error")
	}
}

func TestLenMissingGlobal(t *testing.T) {
	if got := New().Len("nothing"); got != 0 {
		t.Fatalf("expected zero for missing global, got %d", got)
	}
}
