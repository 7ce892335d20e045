package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var errNoStore = errors.New("progress persistence is disabled")

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect and clear stored progress",
}

var progressListCmd = &cobra.Command{
	Use:     "ls [scenario]",
	Aliases: []string{"list"},
	Short:   "List stored progress entries",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		store := app.Player.Progress()
		if store == nil {
			return errNoStore
		}
		var scenario string
		if len(args) > 0 {
			scenario = args[0]
		}
		entries, err := store.List(ctx, scenario)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCENARIO\tACT\tNODE")
		for _, e := range entries {
			node := "?"
			if p, err := store.Load(ctx, e.ScenarioID, e.ActID); err == nil {
				node = p.NodeID
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.ScenarioID, e.ActID, node)
		}
		return w.Flush()
	},
}

var progressInspectCmd = &cobra.Command{
	Use:   "inspect <scenario> <act>",
	Short: "Print one stored progress entry as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		store := app.Player.Progress()
		if store == nil {
			return errNoStore
		}
		p, err := store.Load(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

var progressRemoveCmd = &cobra.Command{
	Use:     "rm <scenario> <act>",
	Aliases: []string{"reset"},
	Short:   "Restart an act from its baseline",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Player.Reset(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "progress for %s/%s reset\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
	progressCmd.AddCommand(progressListCmd, progressInspectCmd, progressRemoveCmd)
}
