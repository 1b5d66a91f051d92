package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// hookInput is the JSON payload host runtimes pipe into lifecycle hooks.
type hookInput struct {
	HookEventName string         `json:"hook_event_name"`
	SessionID     string         `json:"session_id"`
	RunID         string         `json:"run_id"`
	ToolName      string         `json:"tool_name"`
	ToolInput     map[string]any `json:"tool_input"`
	ToolResponse  string         `json:"tool_response"`
	Outcome       string         `json:"outcome"`
	DurationMs    int64          `json:"duration_ms"`
	Prompt        string         `json:"prompt"`
}

var hookCmd = &cobra.Command{
	Use:   "hook [before|after|intent]",
	Short: "Host lifecycle hook adapter",
	Long: `Reads a host-runtime hook JSON payload from stdin and forwards it to
the running sentinel sidecar. A block decision is signaled with exit
code 2 and the reason on stderr; every failure mode (sidecar down,
malformed input) fails open with exit code 0 so a broken monitor never
stalls the agent.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"before", "after", "intent"},
	RunE:      hookCommand,
}

var serverURL string

func init() {
	hookCmd.Flags().StringVar(&serverURL, "server", envOr("SENTINEL_SERVER_URL", "http://127.0.0.1:8085"), "sidecar base URL")
	rootCmd.AddCommand(hookCmd)
}

func hookCommand(_ *cobra.Command, args []string) error {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil // fail open
	}
	var input hookInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil // fail open
	}
	if input.SessionID == "" {
		return nil
	}

	switch args[0] {
	case "before":
		return forwardBefore(input)
	case "after":
		forward("/v1/hooks/after", map[string]any{
			"session_key": input.SessionID,
			"tool_name":   input.ToolName,
			"params":      input.ToolInput,
			"outcome":     outcomeOr(input.Outcome),
			"result":      input.ToolResponse,
			"duration_ms": input.DurationMs,
		})
	case "intent":
		if input.Prompt != "" {
			forward("/v1/hooks/intent", map[string]any{
				"session_key": input.SessionID,
				"run_id":      input.RunID,
				"text":        input.Prompt,
			})
		}
	}
	return nil
}

// forwardBefore relays the before event and translates a block decision into
// exit code 2 with the reason on stderr, the convention agent runtimes use to
// refuse a tool call.
func forwardBefore(input hookInput) error {
	body := map[string]any{
		"session_key": input.SessionID,
		"run_id":      input.RunID,
		"tool_name":   input.ToolName,
		"params":      input.ToolInput,
	}
	resp := forward("/v1/hooks/before", body)
	if resp == nil {
		return nil // sidecar unreachable: fail open
	}

	var decision struct {
		Allow  bool   `json:"allow"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(resp, &decision); err != nil || decision.Allow {
		return nil
	}

	fmt.Fprintln(os.Stderr, decision.Reason)
	os.Exit(2)
	return nil
}

// forward POSTs JSON to the sidecar and returns the response body, or nil on
// any failure.
func forward(path string, body map[string]any) []byte {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil
	}

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(http.MethodPost, serverURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	if key := os.Getenv("SENTINEL_HOOK_API_KEY"); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil
	}
	return raw
}

func outcomeOr(outcome string) string {
	switch outcome {
	case "success", "error", "timeout":
		return outcome
	default:
		return "success"
	}
}

func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
