package api

import (
	"net/http"

	"github.com/triage-ai/sentinel/internal/scan"
	"github.com/triage-ai/sentinel/internal/session"
	"go.uber.org/zap"
)

// handleBefore implements POST /v1/hooks/before.
func (d *Dependencies) handleBefore(w http.ResponseWriter, r *http.Request) {
	var req BeforeRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.SessionKey == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "session_key is required"})
		return
	}
	if req.ToolName == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "tool_name is required"})
		return
	}

	agent := agentFromContext(r.Context())
	if agent != nil {
		d.Logger.Debug("before hook",
			zap.String("agent", agent.Name),
			zap.String("tool_name", req.ToolName),
		)
	}

	decision := d.Monitor.BeforeToolCall(r.Context(), req.SessionKey, req.RunID, req.ToolName, req.Params)
	if decision == nil {
		writeJSON(w, http.StatusOK, BeforeResponse{Allow: true})
		return
	}

	// The registry can mark an agent observe-only; its block decisions are
	// logged but not enforced.
	if agent != nil && !agent.BlockingEnabled {
		d.Logger.Warn("block decision suppressed for observe-only agent",
			zap.String("agent", agent.Name),
			zap.String("tool_name", req.ToolName),
			zap.String("reason", decision.Reason),
		)
		writeJSON(w, http.StatusOK, BeforeResponse{Allow: true})
		return
	}
	writeJSON(w, http.StatusOK, BeforeResponse{
		Allow:      false,
		Reason:     decision.Reason,
		RiskLevel:  decision.RiskLevel,
		Confidence: decision.Confidence,
		Source:     decision.Source,
	})
}

// handleAfter implements POST /v1/hooks/after. Always 204: the after hook
// records telemetry and never influences execution.
func (d *Dependencies) handleAfter(w http.ResponseWriter, r *http.Request) {
	var req AfterRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.SessionKey == "" || req.ToolName == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "session_key and tool_name are required"})
		return
	}

	outcome := session.Outcome(req.Outcome)
	switch outcome {
	case session.OutcomeSuccess, session.OutcomeError, session.OutcomeTimeout:
	default:
		outcome = session.OutcomeSuccess
	}

	d.Monitor.AfterToolCall(req.SessionKey, req.ToolName, req.Params, outcome, req.Result, req.DurationMs)
	w.WriteHeader(http.StatusNoContent)
}

// handleIntent implements POST /v1/hooks/intent.
func (d *Dependencies) handleIntent(w http.ResponseWriter, r *http.Request) {
	var req IntentRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.SessionKey == "" || req.Text == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "session_key and text are required"})
		return
	}

	d.Monitor.RegisterIntent(req.SessionKey, req.RunID, req.Text)
	w.WriteHeader(http.StatusNoContent)
}

// handleClearSession implements DELETE /v1/sessions/{session_key}.
func (d *Dependencies) handleClearSession(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("session_key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "session_key is required"})
		return
	}
	d.Monitor.ClearSession(key)
	w.WriteHeader(http.StatusNoContent)
}

// handleScan implements POST /v1/scan: the stateless injection scanner, with
// optional redaction.
func (d *Dependencies) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "text is required"})
		return
	}

	result := scan.Scan(req.Text)
	resp := ScanResponse{Detected: result.Detected}
	for _, m := range result.Matches {
		resp.Matches = append(resp.Matches, ScanMatchResp{
			Label:       m.Label,
			Category:    m.Category.String(),
			Confidence:  m.Confidence.String(),
			MatchedText: m.MatchedText,
		})
	}

	if req.Redact {
		red := scan.Redact(req.Text)
		resp.Redacted = red.Text
		for _, f := range red.Findings {
			resp.Findings = append(resp.Findings, ScanFindingResp{
				RiskType:    f.RiskType.String(),
				RiskContent: f.RiskContent,
				Reason:      f.Reason,
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
