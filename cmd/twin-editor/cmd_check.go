package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/parser"
	"github.com/plc-visualizer/twin-editor/internal/state"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Decode a layout file and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := parser.GetGlobalRegistry().DecodeFile(args[0])
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}
			printSummary(cmd, args[0], doc)
			return nil
		},
	}
}

func printSummary(cmd *cobra.Command, path string, doc models.Document) {
	out := cmd.OutOrStdout()

	counts := make(map[models.DeviceType]int)
	for _, e := range doc.Elements {
		counts[e.Type]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	store := state.NewStore()
	store.BulkReplace(state.SnapshotOf(doc))

	fmt.Fprintf(out, "%s\n", path)
	fmt.Fprintf(out, "  elements: %d\n", len(doc.Elements))
	for _, t := range types {
		fmt.Fprintf(out, "    %-16s %d\n", t, counts[models.DeviceType(t)])
	}
	fmt.Fprintf(out, "  routes:   %d\n", len(doc.Routes))
	fmt.Fprintf(out, "  alerts:   %d\n", len(store.Alerts()))
	fmt.Fprintf(out, "  grid:     %g (snap=%t, show=%t)\n",
		doc.Settings.GridSize, doc.Settings.SnapToGrid, doc.Settings.ShowGrid)
}
