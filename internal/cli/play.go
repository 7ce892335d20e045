package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/storyboard"
	"github.com/aretw0/storyboard/internal/presentation/tui"
	"github.com/aretw0/storyboard/internal/runtime"
	"github.com/aretw0/storyboard/pkg/domain"
)

// PlayOptions configures one play loop.
type PlayOptions struct {
	Scenario string
	Act      string
	// Fresh deletes stored progress of the act before playing.
	Fresh bool
	// JSON switches to NDJSON commands on In and snapshots on Out.
	JSON bool
	// Interactive enables the banner and markdown rendering.
	Interactive bool

	In  io.Reader
	Out io.Writer
}

// RunPlay loads the scenario and drives a session until the player quits
// or input ends.
func RunPlay(ctx context.Context, app *App, opts PlayOptions) error {
	in := NewInterruptibleReader(opts.In, ctx.Done())
	reader := bufio.NewReader(in)

	sc, err := app.Player.Load(ctx, opts.Scenario)
	for err != nil {
		if opts.JSON {
			_ = json.NewEncoder(opts.Out).Encode(jsonError{Error: err.Error()})
			return err
		}
		if !opts.Interactive || !offerRetry(reader, opts.Out, err) {
			return err
		}
		sc, err = app.Player.Load(ctx, opts.Scenario)
	}
	for _, w := range sc.Warnings {
		app.Logger.Debug("compile warning", "warning", w.String())
	}

	actID := opts.Act
	if _, ok := sc.Graph.Act(actID); !ok && len(sc.Graph.Acts) > 0 {
		actID = sc.Graph.Acts[0].ID
	}
	if opts.Fresh {
		if err := app.Player.Reset(ctx, sc.ID, actID); err != nil {
			app.Logger.Warn("failed to reset progress", "scenario", sc.ID, "act", actID, "err", err)
		}
	}

	session, err := app.Player.Play(ctx, sc, actID)
	if err != nil {
		return err
	}

	if opts.JSON {
		err = playJSON(ctx, session, reader, opts.Out)
	} else {
		err = playText(ctx, sc, session, reader, opts)
	}
	if errors.Is(err, errQuit) {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func prompt(snap domain.Snapshot) string {
	switch {
	case snap.Terminal:
		return "[r] restart act  [q] quit > "
	case len(snap.Choices) > 0:
		return fmt.Sprintf("choose 1-%d > ", len(snap.Choices))
	default:
		return "[enter] continue > "
	}
}

// offerRetry reports whether the player asked to load the scenario again.
func offerRetry(reader *bufio.Reader, out io.Writer, cause error) bool {
	printSystemMessage(out, "%v", cause)
	fmt.Fprint(out, "[enter] retry  [q] quit > ")
	line, err := readCommand(reader)
	if err != nil {
		return false
	}
	cmd, err := ParseTextCommand(line)
	return err == nil && cmd.Op == OpAdvance
}

func playText(ctx context.Context, sc *storyboard.Scenario, session *storyboard.Session, reader *bufio.Reader, opts PlayOptions) error {
	out := opts.Out
	formatter := tui.NewFormatter(sc.Graph.Meters, opts.Interactive)
	if opts.Interactive {
		tui.PrintBanner(out, storyboard.Version)
	}
	if !session.Persistent() {
		printSystemMessage(out, "Progress will not be saved.")
	}

	snap := session.Snapshot(ctx)
	render := true
	for {
		if render {
			fmt.Fprintln(out)
			fmt.Fprint(out, formatter.Format(snap))
		}
		fmt.Fprint(out, prompt(snap))

		line, err := readCommand(reader)
		if errors.Is(err, ErrCommandTooLarge) {
			printSystemMessage(out, "%v", err)
			render = false
			continue
		}
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			fmt.Fprintln(out)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		cmd, perr := ParseTextCommand(line)
		if perr != nil {
			printSystemMessage(out, "%v", perr)
			render = false
			continue
		}
		if snap.Terminal && cmd.Op == OpAdvance {
			render = false
			continue
		}

		next, err := Apply(ctx, session, cmd)
		var invalid *runtime.InvalidOperationError
		switch {
		case errors.Is(err, errQuit):
			printSystemMessage(out, "Stopped at '%s' node.", next.NodeID)
			return errQuit
		case errors.As(err, &invalid):
			printSystemMessage(out, "%v", invalid.Err)
			render = false
		case err != nil:
			printSystemMessage(out, "%v", err)
			render = false
		default:
			snap = next
			render = true
		}
	}
}

type jsonError struct {
	Error    string           `json:"error"`
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
}

func playJSON(ctx context.Context, session *storyboard.Session, reader *bufio.Reader, out io.Writer) error {
	enc := json.NewEncoder(out)

	if err := enc.Encode(session.Snapshot(ctx)); err != nil {
		return err
	}
	for {
		line, err := readCommand(reader)
		if errors.Is(err, ErrCommandTooLarge) {
			if encErr := enc.Encode(jsonError{Error: err.Error()}); encErr != nil {
				return encErr
			}
			continue
		}
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, perr := ParseJSONCommand(line)
		var syntax *json.SyntaxError
		switch {
		case errors.As(perr, &syntax):
			return fmt.Errorf("invalid command: %w", perr)
		case perr != nil:
			if encErr := enc.Encode(jsonError{Error: perr.Error()}); encErr != nil {
				return encErr
			}
			continue
		}

		snap, err := Apply(ctx, session, cmd)
		if errors.Is(err, errQuit) {
			return errQuit
		}
		if err != nil {
			if encErr := enc.Encode(jsonError{Error: err.Error(), Snapshot: &snap}); encErr != nil {
				return encErr
			}
			continue
		}
		if err := enc.Encode(snap); err != nil {
			return err
		}
	}
}
