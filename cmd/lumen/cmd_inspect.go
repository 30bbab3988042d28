package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lumen-ml/lumen/internal/fetch"
	"github.com/lumen-ml/lumen/internal/graphdef"
	"github.com/lumen-ml/lumen/internal/load"
	"github.com/lumen-ml/lumen/internal/tensor"
)

var inspectFlags struct {
	purge  bool
	bypass bool
	size   []int
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <url>",
	Short: "Decode a resource and summarize it",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.BoolVar(&inspectFlags.purge, "purge", false, "Drop any cached entry before fetching")
	f.BoolVar(&inspectFlags.bypass, "bypass", false, "Fetch without touching the cache")
	f.IntSliceVar(&inspectFlags.size, "size", nil, "Resize images to width,height")
	inspectCmd.MarkFlagsMutuallyExclusive("purge", "bypass")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}

	opts := []load.Option{load.WithCache(cacheDirective(inspectFlags.purge, inspectFlags.bypass))}
	if len(inspectFlags.size) > 0 {
		opts = append(opts, load.WithSize(inspectFlags.size...))
	}

	v, err := e.loader.Load(cmd.Context(), load.URL(args[0]), opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch v := v.(type) {
	case *tensor.Dense:
		fmt.Fprintln(out, renderTable(
			[]string{"shape", "dtype", "bytes"},
			[][]string{{fmt.Sprint(v.Shape()), v.DType().String(), strconv.Itoa(v.ByteSize())}},
			nil))
	case map[string]*tensor.Dense:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			arr := v[name]
			rows = append(rows, []string{name, fmt.Sprint(arr.Shape()), arr.DType().String()})
		}
		fmt.Fprintln(out, renderTable([]string{"member", "shape", "dtype"}, rows, nil))
	case *graphdef.GraphDef:
		counts := v.OpCounts()
		ops := make([]string, 0, len(counts))
		for op := range counts {
			ops = append(ops, op)
		}
		sort.Strings(ops)
		rows := make([][]string, 0, len(ops))
		for _, op := range ops {
			rows = append(rows, []string{op, strconv.Itoa(counts[op])})
		}
		fmt.Fprintf(out, "%d nodes\n", len(v.Nodes))
		fmt.Fprintln(out, renderTable([]string{"op", "count"},
			rows, []columnAlignment{alignLeft, alignRight}))
	case []string:
		fmt.Fprintf(out, "%d lines\n", len(v))
		for i, line := range v {
			if i == 10 {
				fmt.Fprintf(out, "... %d more\n", len(v)-i)
				break
			}
			fmt.Fprintln(out, line)
		}
	case string:
		fmt.Fprintln(out, v)
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return nil
}

func cacheDirective(purge, bypass bool) fetch.Directive {
	switch {
	case purge:
		return fetch.Purge
	case bypass:
		return fetch.Bypass
	default:
		return fetch.UseExisting
	}
}
