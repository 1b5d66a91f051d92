package storage

import "time"

// EventWriter is the interface for writing monitor telemetry.
// Write() must NEVER block the caller.
type EventWriter interface {
	Write(event *MonitorEvent)
	Close()
}

// MonitorEvent records one before/after hook decision.
type MonitorEvent struct {
	EventID        string
	Timestamp      time.Time
	SessionKey     string
	RunID          string
	ToolName       string
	Phase          string // "before" or "after"
	Decision       string // "allow" or "block"
	DecisionSource string // "fast_path" or "remote", empty for allow
	Reason         string
	RiskTags       []string
	LatencyMs      float32
}
