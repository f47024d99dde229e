package model

// Branding tags every interaction event with the platform name.
const Branding = "CareerTrojan"

// InteractionEvent is one append-only record of a user or system action.
// Once written to the log it is never modified or deleted.
type InteractionEvent struct {
	EventID         string         `json:"event_id"`
	Timestamp       string         `json:"timestamp"`
	UserID          *string        `json:"user_id"`
	ActionType      string         `json:"action_type"`
	InputArtifacts  []string       `json:"input_artifacts"`
	OutputArtifacts []string       `json:"output_artifacts"`
	DeltaSummary    map[string]any `json:"delta_summary"`
	Branding        string         `json:"branding"`
}

// EventParams carries the caller-supplied fields of an interaction event.
// EventID and Timestamp are assigned by the logger.
type EventParams struct {
	ActionType      string
	UserID          *string
	InputArtifacts  []string
	OutputArtifacts []string
	DeltaSummary    map[string]any
}

// MasqueradeAudit records an admin impersonating another user. The record
// must be durable before any masquerade grant is issued.
type MasqueradeAudit struct {
	AdminUser  string
	TargetUser string
}
