package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/storyboard/internal/presentation/graph"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var graphCmd = &cobra.Command{
	Use:   "graph <scenario>",
	Short: "Export the scenario graph",
	Long: `Compiles a scenario and prints a Mermaid diagram (graph TD) with one
subgraph per act. With --act, the stored progress of that act is overlaid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		act, _ := cmd.Flags().GetString("act")
		ctx := cmd.Context()

		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		sc, err := app.Player.Load(ctx, args[0])
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if act != "" && app.Player.Progress() != nil {
			p, err := app.Player.Progress().Load(ctx, sc.ID, act)
			switch {
			case err == nil:
				overlay = &graph.Overlay{CurrentNode: p.NodeID, VisitedNodes: []string{p.NodeID}}
			case !errors.Is(err, domain.ErrProgressNotFound):
				return err
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(sc.Graph, overlay))
		return nil
	},
}

var compileCmd = &cobra.Command{
	Use:   "compile <scenario>",
	Short: "Print the canonical compiled graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		ctx := cmd.Context()

		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		sc, err := app.Player.Load(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch format {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(sc.Graph)
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(sc.Graph); err != nil {
				return err
			}
			return enc.Close()
		default:
			return fmt.Errorf("unknown format %q (want json or yaml)", format)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(compileCmd)
	graphCmd.Flags().String("act", "", "Overlay the stored progress of this act")
	compileCmd.Flags().String("format", "json", "Output format: json or yaml")
}
