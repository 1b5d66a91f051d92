// Package assess is the HTTP client for the remote risk-assessment service.
// Every failure mode (timeout, network error, non-2xx status, malformed or
// unsuccessful body) degrades to "no verdict" so tool execution is never
// stalled by the collaborator; the local fast path already covers the
// unambiguous attack patterns.
package assess

import (
	"github.com/triage-ai/sentinel/internal/session"
	"github.com/triage-ai/sentinel/internal/signals"
)

// Request is the assessment payload for one in-flight tool call.
type Request struct {
	AgentID        string               `json:"agent_id"`
	SessionKey     string               `json:"session_key"`
	RunID          string               `json:"run_id"`
	UserIntent     string               `json:"user_intent,omitempty"`
	ToolChain      []session.ChainEntry `json:"tool_chain"`
	LocalSignals   signals.Local        `json:"local_signals"`
	RecentMessages []string             `json:"recent_messages,omitempty"`
	Metadata       Metadata             `json:"metadata"`
}

// Metadata identifies the client build and request time.
type Metadata struct {
	ClientVersion string `json:"client_version"`
	Timestamp     string `json:"timestamp"`
	RequestID     string `json:"request_id"`
}

// Action is the remote verdict's requested enforcement.
type Action string

const (
	ActionAllow Action = "allow"
	ActionAlert Action = "alert"
	ActionBlock Action = "block"
)

// Verdict is the assessment service's judgment of the tool chain.
type Verdict struct {
	BehaviorID    string    `json:"behavior_id"`
	RiskLevel     string    `json:"risk_level"`
	AnomalyTypes  []string  `json:"anomaly_types,omitempty"`
	Confidence    float64   `json:"confidence"`
	Action        Action    `json:"action"`
	Explanation   string    `json:"explanation,omitempty"`
	AffectedTools []string  `json:"affected_tools,omitempty"`
	Findings      []Finding `json:"findings,omitempty"`
}

// Finding is one structured observation attached to a verdict.
type Finding struct {
	RiskType    string `json:"risk_type"`
	RiskContent string `json:"risk_content,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// response is the wire envelope.
type response struct {
	Success bool     `json:"success"`
	Verdict *Verdict `json:"verdict,omitempty"`
}
