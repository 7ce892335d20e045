package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [scenario...]",
	Short: "Report compile warnings",
	Long: `Compiles the named scenarios (all indexed scenarios when none are given)
and prints every repair the compiler made. With --strict any warning fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")
		ctx := cmd.Context()

		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ids := args
		if len(ids) == 0 {
			refs, err := app.Player.Index(ctx)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				ids = append(ids, ref.ID)
			}
		}

		out := cmd.OutOrStdout()
		var failed, warned int
		for _, id := range ids {
			sc, err := app.Player.Load(ctx, id)
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", id, err)
				failed++
				continue
			}
			if len(sc.Warnings) == 0 {
				fmt.Fprintf(out, "%s: ok (%d nodes, %d acts)\n", id, len(sc.Graph.Nodes), len(sc.Graph.Acts))
				continue
			}
			warned++
			fmt.Fprintf(out, "%s: %d warning(s)\n", id, len(sc.Warnings))
			for _, w := range sc.Warnings {
				fmt.Fprintf(out, "  %s\n", w)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d scenario(s) failed to load", failed)
		}
		if strict && warned > 0 {
			return fmt.Errorf("%d scenario(s) have warnings", warned)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Exit with an error when any warning is reported")
}
