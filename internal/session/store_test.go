package session

import (
	"fmt"
	"testing"
	"time"
)

func TestStore_LazyCreationAndGet(t *testing.T) {
	st := NewStore(10, 5, nil)

	if s := st.Get("missing"); s != nil {
		t.Error("Get should not create sessions")
	}

	s := st.GetOrCreate("s1", "run-1")
	if s == nil {
		t.Fatal("expected session")
	}
	if again := st.GetOrCreate("s1", "run-other"); again != s {
		t.Error("GetOrCreate must return the same session for the same key")
	}
	if st.Len() != 1 {
		t.Errorf("expected 1 session, got %d", st.Len())
	}
}

func TestStore_EvictsOldestAtCapacity(t *testing.T) {
	st := NewStore(200, 5, nil)

	base := time.Now()
	for i := 0; i < 200; i++ {
		s := st.GetOrCreate(fmt.Sprintf("session-%d", i), "run")
		s.StartedAt = base.Add(time.Duration(i) * time.Second)
	}
	if st.Len() != 200 {
		t.Fatalf("expected 200 sessions, got %d", st.Len())
	}

	// The 201st distinct key evicts the session with the smallest StartedAt.
	st.GetOrCreate("session-200", "run")

	if st.Len() != 200 {
		t.Errorf("expected 200 sessions after eviction, got %d", st.Len())
	}
	if st.Get("session-0") != nil {
		t.Error("expected oldest session (session-0) to be evicted")
	}
	if st.Get("session-200") == nil {
		t.Error("expected new session to be tracked")
	}
}

func TestStore_Clear(t *testing.T) {
	st := NewStore(10, 5, nil)
	st.GetOrCreate("s1", "run")
	st.Clear("s1")
	if st.Get("s1") != nil {
		t.Error("expected cleared session to be gone")
	}
	st.Clear("never-existed") // must not panic
}

func TestSession_IntentFirstWriteWins(t *testing.T) {
	st := NewStore(10, 5, nil)
	s := st.GetOrCreate("s1", "run")

	s.RegisterIntent("refactor the auth package")
	s.RegisterIntent("completely different request")

	view := s.Snapshot()
	if view.UserIntent != "refactor the auth package" {
		t.Errorf("intent overwritten: %q", view.UserIntent)
	}
	// Both registrations land in the recent-message ring.
	if len(view.RecentMessages) != 2 {
		t.Errorf("expected 2 recent messages, got %d", len(view.RecentMessages))
	}
}

func TestSession_RecentMessageRing(t *testing.T) {
	st := NewStore(10, 5, nil)
	s := st.GetOrCreate("s1", "run")

	for i := 0; i < 8; i++ {
		s.AppendMessage(fmt.Sprintf("message %d", i))
	}

	view := s.Snapshot()
	if len(view.RecentMessages) != 5 {
		t.Fatalf("expected ring of 5, got %d", len(view.RecentMessages))
	}
	if view.RecentMessages[0] != "message 3" || view.RecentMessages[4] != "message 7" {
		t.Errorf("ring holds wrong window: %v", view.RecentMessages)
	}

	last := view.LastMessages(3)
	if len(last) != 3 || last[0] != "message 5" {
		t.Errorf("LastMessages(3) = %v", last)
	}
}

func TestSession_SeqStrictlyIncreasing(t *testing.T) {
	st := NewStore(10, 50, nil)
	s := st.GetOrCreate("s1", "run")

	prev := uint64(0)
	for i := 0; i < 20; i++ {
		seq := s.ReserveSeq()
		if seq <= prev {
			t.Fatalf("sequence not strictly increasing: %d after %d", seq, prev)
		}
		prev = seq
	}
}

func TestSession_ChainCapFIFO(t *testing.T) {
	st := NewStore(10, 3, nil)
	s := st.GetOrCreate("s1", "run")

	for i := 0; i < 5; i++ {
		s.AppendEntry(ChainEntry{Seq: s.ReserveSeq(), ToolName: fmt.Sprintf("tool-%d", i)})
	}

	view := s.Snapshot()
	if len(view.Chain) != 3 {
		t.Fatalf("expected chain capped at 3, got %d", len(view.Chain))
	}
	if view.Chain[0].ToolName != "tool-2" || view.Chain[2].ToolName != "tool-4" {
		t.Errorf("FIFO eviction kept wrong entries: %+v", view.Chain)
	}
}

func TestSession_IntentTruncated(t *testing.T) {
	st := NewStore(10, 5, nil)
	s := st.GetOrCreate("s1", "run")

	long := make([]rune, 900)
	for i := range long {
		long[i] = 'x'
	}
	s.RegisterIntent(string(long))

	if got := len([]rune(s.Snapshot().UserIntent)); got != maxIntentLen {
		t.Errorf("expected intent truncated to %d runes, got %d", maxIntentLen, got)
	}
}

func TestClassifyResult(t *testing.T) {
	big := make([]byte, largeResultSize+1)
	for i := range big {
		big[i] = 'a'
	}

	tests := []struct {
		name    string
		outcome Outcome
		content string
		size    int
		want    ResultCategory
	}{
		{"error wins", OutcomeError, string(big), len(big), ResultError},
		{"timeout is error", OutcomeTimeout, "x", 1, ResultError},
		{"large text", OutcomeSuccess, string(big), len(big), ResultTextLarge},
		{"small text", OutcomeSuccess, "hello", 5, ResultTextSmall},
		{"empty", OutcomeSuccess, "", 0, ResultEmpty},
		{"binary", OutcomeSuccess, "PK\x00\x03", 4, ResultBinary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyResult(tt.outcome, tt.content, tt.size); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSanitizeParams(t *testing.T) {
	long := make([]rune, 300)
	for i := range long {
		long[i] = 'y'
	}

	out := SanitizeParams(map[string]any{
		"file_path": "/tmp/x",
		"api_key":   "sk-live-abcdef",
		"Token":     "xyz",
		"count":     42,
		"payload":   string(long),
	})

	if out["file_path"] != "/tmp/x" {
		t.Errorf("plain value altered: %q", out["file_path"])
	}
	if out["api_key"] != "***" || out["Token"] != "***" {
		t.Errorf("secret values not masked: %q / %q", out["api_key"], out["Token"])
	}
	if out["count"] != "42" {
		t.Errorf("non-string value not rendered: %q", out["count"])
	}
	if len([]rune(out["payload"])) != 200 {
		t.Errorf("long value not truncated: %d runes", len([]rune(out["payload"])))
	}

	if SanitizeParams(nil) != nil {
		t.Error("nil params should sanitize to nil")
	}
}
