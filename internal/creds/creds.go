// Package creds supplies the outbound assessment credentials. A nil
// credential set is a valid state: it disables escalation entirely and the
// monitor runs local-only.
package creds

import (
	"encoding/json"
	"os"
)

// Credentials authenticate this agent to the assessment service.
type Credentials struct {
	APIKey  string `json:"api_key"`
	AgentID string `json:"agent_id"`
}

// Provider yields the current credentials, or nil when none are registered.
type Provider interface {
	Credentials() *Credentials
}

// EnvProvider reads credentials from SENTINEL_API_KEY / SENTINEL_AGENT_ID.
type EnvProvider struct{}

func (EnvProvider) Credentials() *Credentials {
	key := os.Getenv("SENTINEL_API_KEY")
	agent := os.Getenv("SENTINEL_AGENT_ID")
	if key == "" || agent == "" {
		return nil
	}
	return &Credentials{APIKey: key, AgentID: agent}
}

// FileProvider reads a JSON credentials file written by the registration
// flow. A missing or unreadable file yields nil.
type FileProvider struct {
	Path string
}

func (p FileProvider) Credentials() *Credentials {
	raw, err := os.ReadFile(p.Path)
	if err != nil {
		return nil
	}
	var c Credentials
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil
	}
	if c.APIKey == "" || c.AgentID == "" {
		return nil
	}
	return &c
}

// Static wraps fixed credentials; useful for tests and single-tenant
// deployments.
type Static struct {
	Creds *Credentials
}

func (s Static) Credentials() *Credentials { return s.Creds }

// Chain returns the first non-nil credentials from the given providers.
type Chain []Provider

func (c Chain) Credentials() *Credentials {
	for _, p := range c {
		if creds := p.Credentials(); creds != nil {
			return creds
		}
	}
	return nil
}
