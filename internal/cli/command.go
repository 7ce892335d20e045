package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/storyboard"
	"github.com/aretw0/storyboard/pkg/domain"
)

// Command limits. A text line is a verb plus at most one argument; a JSON
// line is one small object.
const (
	MaxCommandSize  = 512
	MaxNodeIDSize   = 128
	maxChoiceDigits = 4
)

var (
	ErrCommandTooLarge = errors.New("command exceeds maximum size")
	ErrInvalidUTF8     = errors.New("command contains invalid UTF-8")
	ErrInvalidNodeID   = errors.New("invalid node id")
)

// Command is one player instruction. In JSON mode commands are read as
// {"op": "advance"|"choose"|"goto"|"reset"|"quit", "index": n, "nodeId": id}.
// Choice indices are zero-based in JSON and one-based in text mode.
type Command struct {
	Op     string `json:"op"`
	Index  *int   `json:"index,omitempty"`
	NodeID string `json:"nodeId,omitempty"`
}

// Command ops.
const (
	OpAdvance = "advance"
	OpChoose  = "choose"
	OpGoto    = "goto"
	OpReset   = "reset"
	OpQuit    = "quit"
)

var errQuit = errors.New("quit")

// Apply executes cmd on the session.
func Apply(ctx context.Context, session *storyboard.Session, cmd Command) (domain.Snapshot, error) {
	switch cmd.Op {
	case OpAdvance, "":
		return session.Advance(ctx)
	case OpChoose:
		if cmd.Index == nil {
			return session.Snapshot(ctx), fmt.Errorf("choose needs an index")
		}
		return session.Choose(ctx, *cmd.Index)
	case OpGoto:
		return session.Goto(ctx, cmd.NodeID)
	case OpReset:
		return session.ResetAct(ctx), nil
	case OpQuit:
		return session.Snapshot(ctx), errQuit
	default:
		return session.Snapshot(ctx), fmt.Errorf("unknown op %q", cmd.Op)
	}
}

// ParseTextCommand reads a text-mode line: empty to advance, a choice
// number, "g <id>" to jump, "r" to restart the act and "q" to quit.
// Control characters are dropped before parsing.
func ParseTextCommand(line string) (Command, error) {
	if len(line) > MaxCommandSize {
		return Command{}, fmt.Errorf("%w: size=%d limit=%d", ErrCommandTooLarge, len(line), MaxCommandSize)
	}
	if !utf8.ValidString(line) {
		return Command{}, ErrInvalidUTF8
	}
	fields := strings.Fields(strings.Map(dropControl, line))
	if len(fields) == 0 {
		return Command{Op: OpAdvance}, nil
	}

	verb, args := strings.ToLower(fields[0]), fields[1:]
	switch verb {
	case "q", "quit", "exit":
		return Command{Op: OpQuit}, noArgs(verb, args)
	case "r", "reset", "restart":
		return Command{Op: OpReset}, noArgs(verb, args)
	case "g", "goto":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%s takes one node id", verb)
		}
		id, err := ParseNodeID(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Op: OpGoto, NodeID: id}, nil
	}

	if len(verb) > maxChoiceDigits {
		return Command{}, fmt.Errorf("unrecognised input %q", truncate(verb))
	}
	n, err := strconv.Atoi(verb)
	if err != nil || n < 1 {
		return Command{}, fmt.Errorf("unrecognised input %q", verb)
	}
	if err := noArgs(verb, args); err != nil {
		return Command{}, err
	}
	index := n - 1
	return Command{Op: OpChoose, Index: &index}, nil
}

// ParseJSONCommand decodes one NDJSON command line.
func ParseJSONCommand(line string) (Command, error) {
	if len(line) > MaxCommandSize {
		return Command{}, fmt.Errorf("%w: size=%d limit=%d", ErrCommandTooLarge, len(line), MaxCommandSize)
	}
	var cmd Command
	if err := json.Unmarshal([]byte(line), &cmd); err != nil {
		return Command{}, err
	}
	if cmd.Op == OpGoto || cmd.NodeID != "" {
		id, err := ParseNodeID(cmd.NodeID)
		if err != nil {
			return Command{}, err
		}
		cmd.NodeID = id
	}
	return cmd, nil
}

// ParseNodeID accepts an id of printable, non-space runes.
func ParseNodeID(id string) (string, error) {
	switch {
	case id == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidNodeID)
	case len(id) > MaxNodeIDSize:
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInvalidNodeID, len(id), MaxNodeIDSize)
	case !utf8.ValidString(id):
		return "", ErrInvalidUTF8
	}
	for _, r := range id {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return "", fmt.Errorf("%w: %q", ErrInvalidNodeID, truncate(id))
		}
	}
	return id, nil
}

// readCommand reads one line, keeping memory bounded by MaxCommandSize.
// An oversized line is consumed whole and reported as ErrCommandTooLarge.
// Like ReadString, a final unterminated line comes back with io.EOF.
func readCommand(r *bufio.Reader) (string, error) {
	var (
		buf      []byte
		oversize bool
	)
	for {
		chunk, err := r.ReadSlice('\n')
		if !oversize && len(buf)+len(chunk) <= MaxCommandSize {
			buf = append(buf, chunk...)
		} else {
			oversize = true
			buf = nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if oversize && (err == nil || errors.Is(err, io.EOF)) {
			return "", ErrCommandTooLarge
		}
		return string(buf), err
	}
}

func noArgs(verb string, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%s takes no arguments", verb)
	}
	return nil
}

func dropControl(r rune) rune {
	if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
		return -1
	}
	return r
}

func truncate(s string) string {
	const keep = 16
	if len(s) <= keep {
		return s
	}
	return s[:keep] + "..."
}
