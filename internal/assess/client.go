package assess

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout caps how long one assessment call may suspend the
	// tool pipeline.
	DefaultTimeout = 3 * time.Second

	assessPath      = "/v1/agent/assess"
	maxResponseSize = 1 << 20
)

// responseSchema validates the wire envelope before a verdict is trusted.
// A body that does not conform is treated the same as a network failure.
const responseSchema = `{
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": {"type": "boolean"},
    "verdict": {
      "type": "object",
      "required": ["action"],
      "properties": {
        "behavior_id": {"type": "string"},
        "risk_level": {"type": "string"},
        "anomaly_types": {"type": "array", "items": {"type": "string"}},
        "confidence": {"type": "number", "minimum": 0, "maximum": 1},
        "action": {"enum": ["allow", "alert", "block"]},
        "explanation": {"type": "string"},
        "affected_tools": {"type": "array", "items": {"type": "string"}},
        "findings": {"type": "array"}
      }
    }
  }
}`

// Operator guidance for auth/billing statuses. Logged once per process.
var statusGuidance = map[int]string{
	http.StatusUnauthorized:    "assessment API key rejected; re-register the agent or rotate the key",
	http.StatusPaymentRequired: "assessment plan quota exhausted; upgrade or wait for the quota window to reset",
	http.StatusForbidden:       "agent is not authorized for assessment; check the agent registration",
}

// Client posts assessment requests to the remote service. The API key is
// supplied per call, so credentials registered after startup take effect
// without a rebuild.
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	schema     *jsonschema.Schema
	logger     *zap.Logger

	loggedStatuses sync.Map // map[int]bool — each distinct status logged once per process
	loggedNetErr   sync.Once
}

// NewClient builds an assessment client. The timeout is a hard deadline per
// call; zero selects DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(responseSchema))
	if err != nil {
		return nil, fmt.Errorf("parse response schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("response.json", doc); err != nil {
		return nil, fmt.Errorf("add response schema: %w", err)
	}
	sch, err := compiler.Compile("response.json")
	if err != nil {
		return nil, fmt.Errorf("compile response schema: %w", err)
	}

	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		schema:     sch,
		logger:     logger,
	}, nil
}

// Assess submits the tool chain for remote judgment. It returns nil on every
// failure mode; callers fail open on a nil verdict. The call is cancellable
// via ctx and is additionally bounded by the client's hard deadline.
func (c *Client) Assess(ctx context.Context, req *Request, apiKey string) *Verdict {
	body, err := json.Marshal(req)
	if err != nil {
		c.logger.Warn("assessment request marshal failed", zap.Error(err))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+assessPath, bytes.NewReader(body))
	if err != nil {
		c.logger.Warn("assessment request build failed", zap.Error(err))
		return nil
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Timeouts and connection errors are expected in degraded
		// environments; log the first one only.
		c.loggedNetErr.Do(func() {
			c.logger.Warn("assessment service unreachable, failing open", zap.Error(err))
		})
		return nil
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logStatusOnce(resp.StatusCode)
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil
	}

	return c.parseVerdict(raw)
}

// parseVerdict validates the envelope against the schema and decodes it.
// Malformed or unsuccessful bodies yield no verdict.
func (c *Client) parseVerdict(raw []byte) *Verdict {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		c.logger.Warn("assessment response is not valid JSON")
		return nil
	}
	if err := c.schema.Validate(doc); err != nil {
		c.logger.Warn("assessment response failed schema validation", zap.Error(err))
		return nil
	}

	var env response
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	if !env.Success {
		return nil
	}
	return env.Verdict
}

// logStatusOnce logs a distinct HTTP status at most once per process
// lifetime.
func (c *Client) logStatusOnce(status int) {
	if _, loaded := c.loggedStatuses.LoadOrStore(status, true); loaded {
		return
	}
	fields := []zap.Field{zap.Int("status", status)}
	if guidance, ok := statusGuidance[status]; ok {
		fields = append(fields, zap.String("guidance", guidance))
	}
	c.logger.Warn("assessment service returned non-2xx, failing open", fields...)
}
