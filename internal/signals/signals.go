// Package signals derives a local risk snapshot from the current call's
// classification plus the session's accumulated state. Computation is
// deterministic and does no I/O; each signal is an independent OR-condition.
package signals

import (
	"strings"

	"github.com/triage-ai/sentinel/internal/classify"
	"github.com/triage-ai/sentinel/internal/session"
)

// Risk tags attached to a signal snapshot.
const (
	TagReadThenExfil      = "SENSITIVE_READ_THEN_EXFIL"
	TagMultiCredAccess    = "MULTI_CRED_ACCESS"
	TagShellAfterWebFetch = "SHELL_EXEC_AFTER_WEB_FETCH"
	TagIntentMismatch     = "INTENT_ACTION_MISMATCH"
)

// mismatchThreshold is the overlap score below which contacted external
// domains are considered off-intent.
const mismatchThreshold = 0.15

// Patterns are the boolean behavior flags in a snapshot. CrossAgentDataFlow
// is always false at this layer; an outer collaborator that tracks
// cross-agent identity populates it.
type Patterns struct {
	ReadThenExfil      bool `json:"read_then_exfil"`
	CredentialAccess   bool `json:"credential_access"`
	ShellEscapeAttempt bool `json:"shell_escape_attempt"`
	CrossAgentDataFlow bool `json:"cross_agent_data_flow"`
}

// Local is a snapshot of session-local risk signals for one call.
type Local struct {
	SensitivePathsAccessed   []classify.PathCategory `json:"sensitive_paths_accessed"`
	ExternalDomainsContacted []string                `json:"external_domains_contacted"`
	Patterns                 Patterns                `json:"patterns"`
	IntentToolOverlapScore   float64                 `json:"intent_tool_overlap_score"`
	RiskTags                 []string                `json:"risk_tags"`
}

// Compute derives the local signals for the current call. The view must be a
// snapshot taken after the call's classification was absorbed into the
// session, so accumulated sets already reflect prior ∪ current.
func Compute(cls *classify.Classification, view session.View) Local {
	sig := Local{
		SensitivePathsAccessed:   view.SensitivePaths,
		ExternalDomainsContacted: view.ExternalDomains,
	}

	sig.IntentToolOverlapScore = OverlapScore(view.UserIntent, chainCorpus(cls, view))

	// Sensitive read earlier in the session, network contact now. The read
	// and the contact need not be adjacent.
	if view.HasSensitiveRead && cls.ExternalDomain != "" {
		sig.Patterns.ReadThenExfil = true
		sig.RiskTags = append(sig.RiskTags, TagReadThenExfil)
	}

	if len(view.CredentialCats) > 0 {
		sig.Patterns.CredentialAccess = true
	}
	if len(view.CredentialCats) >= 2 {
		sig.RiskTags = append(sig.RiskTags, TagMultiCredAccess)
	}

	if view.ShellAfterWebFetch || (cls.IsShell && view.WebFetchOccurred) {
		sig.RiskTags = append(sig.RiskTags, TagShellAfterWebFetch)
	}

	if len(view.ExternalDomains) > 0 && sig.IntentToolOverlapScore < mismatchThreshold {
		sig.RiskTags = append(sig.RiskTags, TagIntentMismatch)
	}

	// Reflects only the current call, never the session history.
	sig.Patterns.ShellEscapeAttempt = cls.ShellEscapeDetected

	return sig
}

// Concerning reports whether the snapshot (or the call itself) warrants
// escalation to the remote assessment service.
func (l Local) Concerning(cls *classify.Classification) bool {
	return len(l.RiskTags) > 0 ||
		l.Patterns.ReadThenExfil ||
		l.Patterns.CredentialAccess ||
		l.Patterns.ShellEscapeAttempt ||
		len(cls.SensitivePathCategories) > 0 ||
		cls.ExternalDomain != ""
}

// chainCorpus joins the session's tool-chain text with the current call for
// overlap scoring: tool names, sanitized parameter values, and the current
// call's path and domain.
func chainCorpus(cls *classify.Classification, view session.View) string {
	var b strings.Builder
	for _, entry := range view.Chain {
		b.WriteString(entry.ToolName)
		b.WriteByte(' ')
		for _, v := range entry.SanitizedParams {
			b.WriteString(v)
			b.WriteByte(' ')
		}
	}
	b.WriteString(cls.ToolName)
	b.WriteByte(' ')
	b.WriteString(cls.PathParam)
	b.WriteByte(' ')
	b.WriteString(cls.ExternalDomain)
	return b.String()
}
