package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lumen-ml/lumen/modelzoo"
)

var modelsCmd = &cobra.Command{
	Use:   "models [name]",
	Short: "Browse the model catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		rows := make([][]string, 0)
		for _, name := range modelzoo.Names() {
			m, _ := modelzoo.Lookup(name)
			rows = append(rows, []string{
				m.Name,
				fmt.Sprint(m.ImageShape),
				fmt.Sprintf("[%g, %g]", m.ImageValueRange[0], m.ImageValueRange[1]),
				strconv.Itoa(len(m.Layers)),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"model", "input shape", "value range", "layers"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
		return nil
	}

	m, ok := modelzoo.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown model %q; available: %v", args[0], modelzoo.Names())
	}
	fmt.Fprintf(out, "graph:  %s\n", m.GraphDefURL)
	if m.LabelsURL != "" {
		fmt.Fprintf(out, "labels: %s\n", m.LabelsURL)
	}
	fmt.Fprintf(out, "input:  %s %v in [%g, %g]\n",
		m.InputName, m.ImageShape, m.ImageValueRange[0], m.ImageValueRange[1])

	rows := make([][]string, 0, len(m.Layers))
	for _, layer := range m.Layers {
		rows = append(rows, []string{layer.Name, strconv.Itoa(layer.Depth)})
	}
	fmt.Fprintln(out, renderTable([]string{"layer", "depth"}, rows,
		[]columnAlignment{alignLeft, alignRight}))
	return nil
}
