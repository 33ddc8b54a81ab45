package model

import "time"

// Level is the severity of a log event.
type Level string

const (
	LevelDebug     Level = "debug"
	LevelInfo      Level = "info"
	LevelNotice    Level = "notice"
	LevelWarning   Level = "warning"
	LevelError     Level = "error"
	LevelCritical  Level = "critical"
	LevelAlert     Level = "alert"
	LevelEmergency Level = "emergency"
)

// Levels lists every accepted severity, lowest first.
var Levels = []Level{
	LevelDebug,
	LevelInfo,
	LevelNotice,
	LevelWarning,
	LevelError,
	LevelCritical,
	LevelAlert,
	LevelEmergency,
}

// RawRequest is the inbound HTTP request forwarded verbatim to dispatch sinks.
// Headers keep every value in arrival order, keyed by canonical name.
type RawRequest struct {
	Method  string              `json:"method"`
	Path    string              `json:"path"`
	Query   string              `json:"query,omitempty"`
	Headers map[string][]string `json:"headers,omitempty"`
	Body    string              `json:"body"`
}

// Meta is attached by the front door to every durably stored event.
type Meta struct {
	UUID          string    `json:"uuid"`
	AccountID     *int64    `json:"account_id,omitempty"`
	EnvironmentID *int64    `json:"environment_id,omitempty"`
	ReceivedAt    time.Time `json:"received_at"`
}

// Record is the document written to durable sinks: the validated event
// (strings already truncated) plus front-door metadata.
type Record struct {
	Data map[string]any `json:"data"`
	Meta Meta           `json:"meta"`
}
