package main

import (
	"os"

	"github.com/aretw0/storyboard/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var playCmd = &cobra.Command{
	Use:   "play <scenario>",
	Short: "Play a scenario in the terminal",
	Long: `Plays a scenario act by act, resuming stored progress.

Text mode: press Enter to continue, type a number to pick a choice,
"g <node>" to jump, "r" to restart the act and "q" to quit.

JSON mode (--json) reads one command per line, for example
{"op":"choose","index":0}, and writes one snapshot per line.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		act, _ := cmd.Flags().GetString("act")
		fresh, _ := cmd.Flags().GetBool("fresh")
		jsonMode, _ := cmd.Flags().GetBool("json")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		err = cli.RunPlay(ctx, app, cli.PlayOptions{
			Scenario:    args[0],
			Act:         act,
			Fresh:       fresh,
			JSON:        jsonMode,
			Interactive: !jsonMode && term.IsTerminal(int(os.Stdin.Fd())),
			In:          os.Stdin,
			Out:         cmd.OutOrStdout(),
		})
		return cli.HandleExecutionError(err)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().String("act", "", "Act to play (defaults to the first act)")
	playCmd.Flags().Bool("fresh", false, "Discard stored progress for the act before playing")
	playCmd.Flags().Bool("json", false, "Use the NDJSON protocol on stdin/stdout")
}
