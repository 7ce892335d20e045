package compiler

import "fmt"

// Warning codes reported by Compile.
const (
	WarnNotADocument   = "not_a_document"
	WarnDecodeFailed   = "decode_failed"
	WarnDuplicateID    = "duplicate_id"
	WarnIDCollision    = "id_collision"
	WarnDanglingTarget = "dangling_target"
	WarnInvalidStart   = "invalid_start"
	WarnInvalidActID   = "invalid_act_id"
	WarnEmptyScenario  = "empty_scenario"
	WarnInvalidMeter   = "invalid_meter"
	WarnDefaultMeters  = "default_meters"
)

// Warning is a compile diagnostic. Warnings never prevent a graph from being
// produced.
type Warning struct {
	Code    string `json:"code"`
	NodeID  string `json:"nodeId,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.NodeID == "" {
		return fmt.Sprintf("[%s] %s", w.Code, w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Code, w.NodeID, w.Message)
}
