package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeFunction, false},
		{LevelDetail, ScopeFunction, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Fatalf("%s/%s: got %v", tt.level, tt.scope, got)
		}
	}
}

func TestStartNestsUnderContextSpan(t *testing.T) {
	ring := NewRingTracer(16, LevelDetail)
	ctx := WithTracer(context.Background(), ring)

	outer, ctx := Start(ctx, ScopePass, "check_bodies")
	inner, _ := Start(ctx, ScopeFunction, "fn main")
	inner.WithExtra("exprs", "3").End("")
	skipped, _ := Start(ctx, ScopeNode, "expr")
	skipped.End("")
	outer.End("ok")

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("events = %+v", events)
	}
	if events[1].ParentID != outer.ID() || events[1].Name != "fn main" {
		t.Fatalf("inner begin = %+v", events[1])
	}
	if events[2].Extra["exprs"] != "3" {
		t.Fatalf("extra lost: %+v", events[2])
	}
	if events[3].Kind != KindSpanEnd || events[3].Detail != "ok" {
		t.Fatalf("outer end = %+v", events[3])
	}
	for i, ev := range events {
		if ev.Seq != uint64(i+1) {
			t.Fatalf("seq[%d] = %d", i, ev.Seq)
		}
	}
}

func TestRingWraps(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(ring, ScopeNode, name, "", 0)
	}
	events := ring.Snapshot()
	if len(events) != 2 || events[0].Name != "b" || events[1].Name != "c" {
		t.Fatalf("events = %+v", events)
	}
}

func TestStreamFormats(t *testing.T) {
	var text, nd bytes.Buffer
	multi := NewMultiTracer(LevelPhase,
		NewStreamTracer(&text, LevelPhase, FormatText),
		NewStreamTracer(&nd, LevelPhase, FormatNDJSON),
	)
	Begin(multi, ScopePass, "specialize", 0).WithExtra("b", "2").WithExtra("a", "1").End("done")

	if !strings.Contains(text.String(), "← specialize (done) {a=1, b=2}") {
		t.Fatalf("text:\n%s", text.String())
	}
	lines := strings.Split(strings.TrimSpace(nd.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("ndjson:\n%s", nd.String())
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev["kind"] != "end" || ev["scope"] != "pass" || ev["name"] != "specialize" {
		t.Fatalf("event = %v", ev)
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("tr=%v err=%v", tr, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected parse error")
	}
	if f, _ := ParseFormat("auto", "out.ndjson"); f != FormatNDJSON {
		t.Fatalf("format = %v", f)
	}
}
