// Package runtime implements the traversal engine: a state machine over a
// compiled graph whose states are the node types line, choice, goto and end.
//
// The engine never jumps on its own. A goto node is shown like a line and the
// host calls Advance to follow it. Every transition persists the new position
// through a ports.ProgressStore (when configured), emits telemetry, and
// notifies subscribers with a domain.Snapshot.
package runtime
