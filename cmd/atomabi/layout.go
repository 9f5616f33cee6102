package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/opd-ai/atomgo/abi"
	"github.com/spf13/cobra"
)

// LayoutReport is the result of checking one mirrored struct.
type LayoutReport struct {
	Layout abi.Layout `json:"layout"`
	Match  bool       `json:"match"`
	Error  string     `json:"error,omitempty"`
}

// NewLayoutCommand creates the layout command.
func NewLayoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Check Go struct mirrors against the native headers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(rootOpts, cmd.OutOrStdout())
		},
	}
}

func collectLayouts() ([]LayoutReport, int) {
	var reports []LayoutReport
	mismatches := 0
	for _, e := range abi.Catalog() {
		r := LayoutReport{Layout: abi.Describe(e.Value), Match: true}
		if err := abi.Verify(e.Value, e.Native); err != nil {
			r.Match = false
			r.Error = err.Error()
			mismatches++
		}
		reports = append(reports, r)
	}
	return reports, mismatches
}

func runLayout(opts *RootOptions, w io.Writer) error {
	reports, mismatches := collectLayouts()

	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			fmt.Fprint(w, r.Layout.String())
			if r.Match {
				fmt.Fprintln(w, "  native: ok")
			} else {
				fmt.Fprintf(w, "  native: %s\n", r.Error)
			}
		}
		fmt.Fprintf(w, "%d structs, %d mismatches\n", len(reports), mismatches)
	}

	if mismatches > 0 {
		return fmt.Errorf("%d struct layouts differ from the native headers", mismatches)
	}
	return nil
}
