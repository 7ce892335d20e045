package domain

import "time"

// EventType names a telemetry event emitted by the engine.
type EventType string

const (
	EventChoiceApply EventType = "choice_apply"
	EventNodeEnter   EventType = "node_enter"
	EventActEnter    EventType = "act_enter"
	EventRestartAct  EventType = "restart_act"
	EventGoto        EventType = "goto"
)

// TrackEvent is the fire-and-forget payload handed to telemetry sinks.
type TrackEvent struct {
	Timestamp  time.Time      `json:"timestamp"`
	Event      EventType      `json:"event"`
	RunID      string         `json:"run_id"`
	ScenarioID string         `json:"scenario_id"`
	ActID      string         `json:"act_id"`
	NodeID     string         `json:"node_id"`
	Data       map[string]any `json:"data,omitempty"`
}
