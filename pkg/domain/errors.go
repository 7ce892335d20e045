package domain

import "errors"

// ErrProgressNotFound is returned when no progress is stored for a scenario act.
var ErrProgressNotFound = errors.New("progress not found")

// ErrScenarioNotFound is returned when a source has no document for an id.
var ErrScenarioNotFound = errors.New("scenario not found")

// ErrLoadFailed marks transport or decoding failures while fetching a scenario.
// The UI is expected to offer a retry when it sees this error.
var ErrLoadFailed = errors.New("scenario load failed")

// ErrInvalidChoice is returned when a choice index is out of range or the
// current node does not offer choices.
var ErrInvalidChoice = errors.New("invalid choice")

// ErrUnknownNode is returned when a goto targets an id missing from the graph.
var ErrUnknownNode = errors.New("unknown node")

// ErrTerminal is returned when advancing from a node that has no way forward.
var ErrTerminal = errors.New("terminal node")
