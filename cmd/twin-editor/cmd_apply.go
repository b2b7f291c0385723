package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plc-visualizer/twin-editor/internal/command"
	"github.com/plc-visualizer/twin-editor/internal/parser"
	"github.com/plc-visualizer/twin-editor/internal/state"
)

func applyCmd() *cobra.Command {
	var output string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "apply <file> <command>...",
		Short: "Run editor commands against a layout file",
		Long: "Runs each command (add, move, set, delete, connect) in order against the layout " +
			"and writes the result back to the file, or to --output when given. " +
			"The output format follows the target file extension.",
		Example: `  twin-editor apply plant.json "add agv name=AGV-7 x=120 y=80" "connect AGV-7 SC1"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := parser.GetGlobalRegistry()
			doc, err := registry.DecodeFile(args[0])
			if err != nil {
				return fmt.Errorf("apply: %w", err)
			}

			store := state.NewStore()
			h := state.NewHistory(store)
			h.Load(doc)

			for _, input := range args[1:] {
				id, err := command.Run(h, input)
				if err != nil {
					return fmt.Errorf("apply %q: %w", input, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", input, id)
			}

			if dryRun {
				return nil
			}
			target := args[0]
			if output != "" {
				target = output
			}
			if err := registry.EncodeFile(target, store.Serialize()); err != nil {
				return fmt.Errorf("apply: %w", err)
			}
			printSummary(cmd, target, store.Serialize())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result here instead of overwriting the input")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run the commands without writing any file")
	return cmd
}
