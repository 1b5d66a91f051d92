package api

// ErrorResp is the uniform error envelope.
type ErrorResp struct {
	Detail string `json:"detail"`
}

// BeforeRequest is the payload for POST /v1/hooks/before.
type BeforeRequest struct {
	SessionKey string         `json:"session_key"`
	RunID      string         `json:"run_id,omitempty"`
	ToolName   string         `json:"tool_name"`
	Params     map[string]any `json:"params,omitempty"`
}

// BeforeResponse carries the monitor's decision. Allow=true means the host
// may proceed.
type BeforeResponse struct {
	Allow      bool    `json:"allow"`
	Reason     string  `json:"reason,omitempty"`
	RiskLevel  string  `json:"risk_level,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Source     string  `json:"source,omitempty"`
}

// AfterRequest is the payload for POST /v1/hooks/after. Telemetry only; no
// decision is returned.
type AfterRequest struct {
	SessionKey string         `json:"session_key"`
	ToolName   string         `json:"tool_name"`
	Params     map[string]any `json:"params,omitempty"`
	Outcome    string         `json:"outcome"` // success, error, timeout
	Result     string         `json:"result,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

// IntentRequest is the payload for POST /v1/hooks/intent.
type IntentRequest struct {
	SessionKey string `json:"session_key"`
	RunID      string `json:"run_id,omitempty"`
	Text       string `json:"text"`
}

// ScanRequest is the payload for POST /v1/scan.
type ScanRequest struct {
	Text   string `json:"text"`
	Redact bool   `json:"redact,omitempty"`
}

// ScanMatchResp is one scanner match in a scan response.
type ScanMatchResp struct {
	Label       string `json:"label"`
	Category    string `json:"category"`
	Confidence  string `json:"confidence"`
	MatchedText string `json:"matched_text"`
}

// ScanFindingResp is one redactor finding in a scan response.
type ScanFindingResp struct {
	RiskType    string `json:"risk_type"`
	RiskContent string `json:"risk_content"`
	Reason      string `json:"reason"`
}

// ScanResponse is the outcome of POST /v1/scan.
type ScanResponse struct {
	Detected bool              `json:"detected"`
	Matches  []ScanMatchResp   `json:"matches,omitempty"`
	Redacted string            `json:"redacted,omitempty"`
	Findings []ScanFindingResp `json:"findings,omitempty"`
}
