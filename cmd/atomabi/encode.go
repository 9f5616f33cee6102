package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/opd-ai/atomgo/argstring"
	"github.com/opd-ai/atomgo/limits"
	"github.com/spf13/cobra"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	Encoding string
	NFC      bool
	Field    string
}

// EncodeReport describes how one string crosses the boundary.
type EncodeReport struct {
	Text       string `json:"text"`
	Encoding   string `json:"encoding"`
	Field      string `json:"field"`
	Limit      int    `json:"limit"`
	BufferSize int    `json:"buffer_size"`
	Length     int    `json:"length"`
	Bytes      string `json:"bytes"`
}

var fieldNames = map[string]limits.Field{
	"free":             limits.FieldFree,
	"name":             limits.FieldName,
	"output_port_name": limits.FieldOutputPortName,
	"path":             limits.FieldPath,
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{}

	cmd := &cobra.Command{
		Use:   "encode <text>",
		Short: "Show the native bytes for a string argument",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(rootOpts, opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Encoding, "encoding", "utf-8", "target encoding (utf-8|shift_jis)")
	cmd.Flags().BoolVar(&opts.NFC, "nfc", false, "normalize to NFC before encoding")
	cmd.Flags().StringVar(&opts.Field, "field", "free", "field limit to check (free|name|output_port_name|path)")
	return cmd
}

func buildEncodeReport(opts *EncodeOptions, text string) (*EncodeReport, error) {
	encoding, err := argstring.ParseEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	field, ok := fieldNames[opts.Field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", limits.ErrUnknownField, opts.Field)
	}
	limit, _ := field.Limit()

	enc := argstring.NewEncoder(argstring.WithEncoding(encoding), argstring.WithNFC(opts.NFC))
	arg, err := enc.Encode(nil, text, field)
	if err != nil {
		return nil, err
	}
	return &EncodeReport{
		Text:       text,
		Encoding:   encoding.String(),
		Field:      field.String(),
		Limit:      limit,
		BufferSize: enc.BufferSize(text),
		Length:     arg.Len(),
		Bytes:      fmt.Sprintf("% x", append(arg.Bytes(), 0)),
	}, nil
}

func runEncode(rootOpts *RootOptions, opts *EncodeOptions, text string, w io.Writer) error {
	report, err := buildEncodeReport(opts, text)
	if err != nil {
		return err
	}
	if rootOpts.Format == "json" {
		return json.NewEncoder(w).Encode(report)
	}
	fmt.Fprintf(w, "encoding:    %s\n", report.Encoding)
	fmt.Fprintf(w, "field:       %s (limit %d)\n", report.Field, report.Limit)
	fmt.Fprintf(w, "buffer size: %d\n", report.BufferSize)
	fmt.Fprintf(w, "length:      %d\n", report.Length)
	fmt.Fprintf(w, "bytes:       %s\n", report.Bytes)
	return nil
}
