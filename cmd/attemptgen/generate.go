package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/TFMV/attemptgen/pkg/params"
)

type generateOptions struct {
	count  int
	params bool
}

// paramJSON is one bound parameter as printed by generate --params.
type paramJSON struct {
	Index  int    `json:"index"`
	Column string `json:"column"`
	Value  any    `json:"value"`
}

func newGenerateCommand(a *app) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print generated payment attempts as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generate(a, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&opts.count, "count", "n", 1, "Number of records to generate")
	cmd.Flags().BoolVar(&opts.params, "params", false, "Print the ordered parameter list instead of the record")
	return cmd
}

func generate(a *app, opts *generateOptions, out io.Writer) error {
	if opts.count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", opts.count)
	}
	r, _ := a.rand()
	f := a.factory()
	for i := 0; i < opts.count; i++ {
		rec, err := f.New(r)
		if err != nil {
			return err
		}
		var v any = rec
		if opts.params {
			list, err := params.Encode(&rec, nil)
			if err != nil {
				return err
			}
			values := list.Values()
			view := make([]paramJSON, len(list))
			for j, p := range list {
				view[j] = paramJSON{Index: p.Index, Column: p.Column, Value: values[j]}
			}
			v = view
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, string(data)); err != nil {
			return err
		}
	}
	return nil
}
