// Package monitor owns the before/after tool-call entry points. A before
// event runs classify → accumulate → signal → decide synchronously; the only
// suspension point is the remote assessment call, which runs under a hard
// deadline and fails open. Local accumulation happens before escalation and
// is never rolled back by a cancelled or failed remote call.
package monitor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/triage-ai/sentinel/internal/assess"
	"github.com/triage-ai/sentinel/internal/classify"
	"github.com/triage-ai/sentinel/internal/creds"
	"github.com/triage-ai/sentinel/internal/session"
	"github.com/triage-ai/sentinel/internal/signals"
	"github.com/triage-ai/sentinel/internal/storage"
	"go.uber.org/zap"
)

// Version is reported to the assessment service as client metadata.
const Version = "0.3.0"

// Decision is a block verdict surfaced to the host. A nil *Decision means
// allow.
type Decision struct {
	Reason     string  `json:"reason"`
	RiskLevel  string  `json:"risk_level,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Source     string  `json:"source"` // "fast_path" or "remote"
}

// Config controls local policy.
type Config struct {
	// BlockingEnabled gates every block decision, local or remote. When
	// false the monitor observes and logs only.
	BlockingEnabled bool
	SessionCap      int
	ChainCap        int
}

// Monitor is the decision engine. Cross-session calls proceed concurrently;
// mutations to one session's state are serialized by the session's own lock.
type Monitor struct {
	cfg      Config
	sessions *session.Store
	client   *assess.Client // nil disables escalation
	creds    creds.Provider
	events   storage.EventWriter
	logger   *zap.Logger
}

// New wires a monitor. client may be nil (local-only operation); events may
// be nil to disable telemetry.
func New(cfg Config, client *assess.Client, provider creds.Provider, events storage.EventWriter, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if provider == nil {
		provider = creds.Static{}
	}
	return &Monitor{
		cfg:      cfg,
		sessions: session.NewStore(cfg.SessionCap, cfg.ChainCap, logger),
		client:   client,
		creds:    provider,
		events:   events,
		logger:   logger,
	}
}

// Sessions exposes the owned session store (explicit clearing, tests).
func (m *Monitor) Sessions() *session.Store { return m.sessions }

// RegisterIntent sets the canonical intent on first write and always appends
// the text to the session's recent-message ring.
func (m *Monitor) RegisterIntent(sessionKey, runID, text string) {
	m.sessions.GetOrCreate(sessionKey, runID).RegisterIntent(text)
}

// ClearSession drops all state for a session. Driven by an external
// end-of-conversation signal; the monitor never infers session end.
func (m *Monitor) ClearSession(sessionKey string) {
	m.sessions.Clear(sessionKey)
}

// BeforeToolCall classifies the call, folds it into session state, computes
// local signals, and decides. Unambiguous attack patterns block on the fast
// path without contacting the assessment service; ambiguous-but-concerning
// calls escalate under the client's deadline and fail open.
func (m *Monitor) BeforeToolCall(ctx context.Context, sessionKey, runID, toolName string, params map[string]any) *Decision {
	start := time.Now()

	cls := classify.ToolCall(toolName, params)
	sess := m.sessions.GetOrCreate(sessionKey, runID)
	view := sess.Absorb(cls)
	sig := signals.Compute(cls, view)

	decision := m.decide(ctx, sess, view, cls, sig, params)
	m.writeEvent(sessionKey, runID, toolName, "before", sig, decision, time.Since(start))
	return decision
}

func (m *Monitor) decide(ctx context.Context, sess *session.Session, view session.View, cls *classify.Classification, sig signals.Local, params map[string]any) *Decision {
	// Fast path: both patterns are unambiguous enough to skip the remote
	// round-trip entirely.
	if m.cfg.BlockingEnabled {
		if sig.Patterns.ReadThenExfil {
			return &Decision{
				Reason:     fmt.Sprintf("sensitive file access followed by network contact to %s matches a data exfiltration pattern", joinSorted(view.ExternalDomains)),
				RiskLevel:  "high",
				Confidence: 0.9,
				Source:     "fast_path",
			}
		}
		if sig.Patterns.ShellEscapeAttempt {
			return &Decision{
				Reason:     fmt.Sprintf("shell command for %q contains chaining or substitution metacharacters: possible command injection", cls.ToolName),
				RiskLevel:  "high",
				Confidence: 0.85,
				Source:     "fast_path",
			}
		}
	}

	if !sig.Concerning(cls) {
		return nil
	}

	credentials := m.creds.Credentials()
	if m.client == nil || credentials == nil {
		// No collaborator configured: local-only degrade, allow.
		return nil
	}

	verdict := m.client.Assess(ctx, m.buildRequest(sess, view, cls, sig, params, credentials), credentials.APIKey)
	if verdict == nil {
		return nil // fail open
	}

	if verdict.Action == assess.ActionBlock && m.cfg.BlockingEnabled {
		reason := verdict.Explanation
		if reason == "" {
			reason = "remote assessment flagged this tool chain as " + verdict.RiskLevel + " risk"
		}
		return &Decision{
			Reason:     reason,
			RiskLevel:  verdict.RiskLevel,
			Confidence: verdict.Confidence,
			Source:     "remote",
		}
	}
	if verdict.Action == assess.ActionBlock || verdict.Action == assess.ActionAlert {
		// A remote verdict never escalates beyond local policy.
		m.logger.Warn("remote verdict not enforced by local policy",
			zap.String("session_key", sess.Key),
			zap.String("action", string(verdict.Action)),
			zap.String("risk_level", verdict.RiskLevel),
			zap.String("explanation", verdict.Explanation),
		)
	}
	return nil
}

// buildRequest assembles the assessment payload: the finalized chain plus an
// optimistic pending projection of the in-flight call, the signal snapshot,
// and the last 3 recent messages. The pending projection consumes its own
// sequence number; the finalized entry appended later gets a fresh one.
func (m *Monitor) buildRequest(sess *session.Session, view session.View, cls *classify.Classification, sig signals.Local, params map[string]any, credentials *creds.Credentials) *assess.Request {
	pending := session.PendingEntry(sess.ReserveSeq(), cls.ToolName, session.SanitizeParams(params))
	chain := append(append([]session.ChainEntry(nil), view.Chain...), pending)

	return &assess.Request{
		AgentID:        credentials.AgentID,
		SessionKey:     sess.Key,
		RunID:          sess.RunID,
		UserIntent:     view.UserIntent,
		ToolChain:      chain,
		LocalSignals:   sig,
		RecentMessages: view.LastMessages(3),
		Metadata: assess.Metadata{
			ClientVersion: Version,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			RequestID:     uuid.New().String(),
		},
	}
}

// AfterToolCall finalizes the chain record for a finished call. A no-op when
// the session is unknown.
func (m *Monitor) AfterToolCall(sessionKey, toolName string, params map[string]any, outcome session.Outcome, result string, durationMs int64) {
	sess := m.sessions.Get(sessionKey)
	if sess == nil {
		return
	}

	sizeBytes := len(result)
	entry := session.ChainEntry{
		Seq:             sess.ReserveSeq(),
		ToolName:        toolName,
		SanitizedParams: session.SanitizeParams(params),
		Outcome:         outcome,
		DurationMs:      durationMs,
		ResultCategory:  session.ClassifyResult(outcome, result, sizeBytes),
		ResultSizeBytes: sizeBytes,
	}
	sess.AppendEntry(entry)

	m.writeEvent(sessionKey, sess.RunID, toolName, "after", signals.Local{}, nil, time.Duration(durationMs)*time.Millisecond)
}

func (m *Monitor) writeEvent(sessionKey, runID, toolName, phase string, sig signals.Local, decision *Decision, latency time.Duration) {
	if m.events == nil {
		return
	}
	ev := &storage.MonitorEvent{
		EventID:    uuid.New().String(),
		Timestamp:  time.Now().UTC(),
		SessionKey: sessionKey,
		RunID:      runID,
		ToolName:   toolName,
		Phase:      phase,
		Decision:   "allow",
		RiskTags:   sig.RiskTags,
		LatencyMs:  float32(latency) / float32(time.Millisecond),
	}
	if decision != nil {
		ev.Decision = "block"
		ev.Reason = decision.Reason
		ev.DecisionSource = decision.Source
	}
	m.events.Write(ev)
}

func joinSorted(items []string) string {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}
