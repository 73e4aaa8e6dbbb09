package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-filter/internal/adapters/storage"
	"github.com/jsamuelsen/quote-filter/internal/app"
	"github.com/jsamuelsen/quote-filter/internal/domain"
)

type convertOptions struct {
	input  string
	from   string
	output string
	to     []string
}

// convertTarget is one --to entry, a format with a destination path.
type convertTarget struct {
	format string
	path   string
	buf    bytes.Buffer
}

func newConvertCmd(root *rootOptions) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [input]",
		Short: "Re-encode a cleaned quote collection",
		Long: `Decode a cleaned quote collection once and encode it into one or more
storage formats (csv, bytes, bytesz, msgpack).

Targets are written only after the whole input decoded and verified, so a
failed conversion leaves no partial output behind.`,
		Example: `  quotefilter convert cleaned.csv --to msgpack=quotes.mp --to bytesz=quotes.gz
  quotefilter convert quotes.mp --from msgpack --to csv=-`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.input = args[0]
			}

			env, err := bootstrap(cmd.Context(), root, nil)
			if err != nil {
				return err
			}
			defer env.close()

			return runConvert(cmd, env, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", stdio, "input path or - for stdin")
	flags.StringVar(&opts.from, "from", storage.FormatCSV, "input format")
	flags.StringArrayVar(&opts.to, "to", nil, "target as format=path, repeatable; path - is stdout")
	flags.StringVarP(&opts.output, "output", "o", "", "single target path, encoded in pipeline.format")

	return cmd
}

func runConvert(cmd *cobra.Command, env *environment, opts *convertOptions) error {
	targets, err := parseTargets(opts, env.cfg.Pipeline.Format)
	if err != nil {
		return err
	}

	in, err := openInput(cmd.Context(), env, opts.input, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer in.Close()

	converter := app.NewConverter(env.logger, storage.Codecs(env.delimiter())...)

	req := app.ConvertRequest{From: opts.from, Input: in}
	for _, t := range targets {
		req.Targets = append(req.Targets, app.ConvertTarget{Format: t.format, Output: &t.buf})
	}

	n, err := converter.Convert(cmd.Context(), req)
	if err != nil {
		return err
	}

	for _, t := range targets {
		if err := writeTarget(t, cmd.OutOrStdout()); err != nil {
			return err
		}
	}

	_, _ = summaryColor.Fprintf(cmd.ErrOrStderr(), "converted %d quotes from %s into %d target(s)\n", n, opts.from, len(targets))

	return nil
}

// parseTargets reads --to entries, falling back to --output in the
// configured format.
func parseTargets(opts *convertOptions, defaultFormat string) ([]*convertTarget, error) {
	if len(opts.to) == 0 {
		if opts.output == "" {
			return nil, domain.NewValidationError("to", "no target given, pass --to format=path or --output")
		}
		return []*convertTarget{{format: defaultFormat, path: opts.output}}, nil
	}

	targets := make([]*convertTarget, 0, len(opts.to))
	for _, entry := range opts.to {
		format, path, ok := strings.Cut(entry, "=")
		if !ok || format == "" || path == "" {
			return nil, domain.NewValidationErrorWithValue("to", "want format=path", entry)
		}
		targets = append(targets, &convertTarget{format: format, path: path})
	}

	return targets, nil
}

func writeTarget(t *convertTarget, stdout io.Writer) error {
	if t.path == stdio {
		_, err := t.buf.WriteTo(stdout)
		return err
	}

	if err := os.WriteFile(t.path, t.buf.Bytes(), 0o644); err != nil { //nolint:gosec // output files are meant to be readable
		return fmt.Errorf("writing %s target: %w", t.format, err)
	}

	return nil
}
