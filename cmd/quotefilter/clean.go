package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-filter/internal/adapters/clients"
	"github.com/jsamuelsen/quote-filter/internal/adapters/storage"
	"github.com/jsamuelsen/quote-filter/internal/adapters/tabular"
	"github.com/jsamuelsen/quote-filter/internal/app"
	"github.com/jsamuelsen/quote-filter/internal/domain"
	"github.com/jsamuelsen/quote-filter/internal/platform/config"
	"github.com/jsamuelsen/quote-filter/internal/ports"
)

const stdio = "-"

var (
	summaryColor = color.New(color.FgGreen, color.Bold)
	droppedColor = color.New(color.FgYellow)
)

type cleanOptions struct {
	input           string
	output          string
	format          string
	delimiter       string
	crlf            bool
	forbiddenTags   []string
	maxAuthorSpaces int
	quiet           bool
}

func newCleanCmd(root *rootOptions) *cobra.Command {
	opts := &cleanOptions{}

	cmd := &cobra.Command{
		Use:   "clean [input]",
		Short: "Clean a quote dataset",
		Long: `Read a delimited quote table from a file, an http(s) URL or stdin, drop the
records that fail the rules, normalize the rest and write them out.

The input needs a header row with at least the author, quote and category
columns. Other columns pass through unchanged.`,
		Example: `  quotefilter clean quotes.csv -o cleaned.csv
  quotefilter clean https://example.com/quotes.csv --format msgpack -o quotes.mp
  cat quotes.csv | quotefilter clean - --forbidden-tag politics`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := cmd.Flags().Set("input", args[0]); err != nil {
					return err
				}
			}

			env, err := bootstrap(cmd.Context(), root, opts.override(cmd))
			if err != nil {
				return err
			}
			defer env.close()

			return runClean(cmd, env, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "input path, http(s) URL, or - for stdin (pipeline.input)")
	flags.StringVarP(&opts.output, "output", "o", "", "output path or - for stdout (pipeline.output)")
	flags.StringVarP(&opts.format, "format", "f", "", "output format: csv, bytes, bytesz or msgpack (pipeline.format)")
	flags.StringVarP(&opts.delimiter, "delimiter", "d", "", "field delimiter (pipeline.delimiter)")
	flags.BoolVar(&opts.crlf, "crlf", false, "terminate csv rows with \\r\\n")
	flags.StringSliceVar(&opts.forbiddenTags, "forbidden-tag", nil, "category substring that drops a record, repeatable (pipeline.forbidden_tags)")
	flags.IntVar(&opts.maxAuthorSpaces, "max-author-spaces", 0, "most spaces a kept author may contain (pipeline.max_author_spaces)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print the summary")

	return cmd
}

// override applies the flags the user set on top of the loaded config.
func (o *cleanOptions) override(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		flags := cmd.Flags()
		p := &cfg.Pipeline

		if flags.Changed("input") {
			p.Input = o.input
		}
		if flags.Changed("output") {
			p.Output = o.output
		}
		if flags.Changed("format") {
			p.Format = o.format
		}
		if flags.Changed("delimiter") {
			p.Delimiter = o.delimiter
		}
		if flags.Changed("forbidden-tag") {
			p.ForbiddenTags = o.forbiddenTags
		}
		if flags.Changed("max-author-spaces") {
			p.MaxAuthorSpaces = o.maxAuthorSpaces
		}
	}
}

func runClean(cmd *cobra.Command, env *environment, opts *cleanOptions) (err error) {
	ctx := cmd.Context()
	p := env.cfg.Pipeline

	if p.Input == "" {
		return domain.NewValidationError("input", "no input given, pass a path, a URL or -")
	}

	cleaner := app.NewCleaner(app.CleanerConfig{
		Rules: domain.Rules{
			ForbiddenTags:   p.ForbiddenTags,
			MaxAuthorSpaces: p.MaxAuthorSpaces,
		},
		Logger: env.logger,
	})

	in, err := openInput(ctx, env, p.Input, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer in.Close()

	src, err := tabular.NewReader(in, env.delimiter())
	if err != nil {
		return fmt.Errorf("reading %s: %w", p.Input, err)
	}

	out, err := openOutput(p.Output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing output: %w", closeErr)
		}
	}()

	sink, err := newSink(p.Format, out, env.delimiter(), opts.crlf)
	if err != nil {
		return err
	}

	summary, err := cleaner.Run(ctx, src, sink)
	if err != nil {
		return err
	}

	if !opts.quiet {
		printSummary(cmd.ErrOrStderr(), summary)
	}

	return nil
}

// newSink streams csv and buffers every other format until the run ends.
func newSink(format string, w io.Writer, delimiter rune, crlf bool) (ports.RecordSink, error) {
	if format == storage.FormatCSV {
		var opts []tabular.WriterOption
		if crlf {
			opts = append(opts, tabular.WithCRLF())
		}
		return tabular.NewWriter(w, delimiter, opts...), nil
	}

	for _, codec := range storage.Codecs(delimiter) {
		if codec.Name() == format {
			return storage.NewSink(codec, w), nil
		}
	}

	return nil, domain.NewValidationErrorWithValue("format", "unknown output format", format)
}

func printSummary(w io.Writer, summary *app.Summary) {
	_, _ = summaryColor.Fprintln(w, summary.String())

	for _, reason := range summary.Reasons() {
		_, _ = droppedColor.Fprintf(w, "  dropped %s: %d\n", reason, summary.Dropped[reason])
	}
}

// openInput resolves "-", http(s) URLs and local paths.
func openInput(ctx context.Context, env *environment, path string, stdin io.Reader) (io.ReadCloser, error) {
	switch {
	case path == stdio:
		return io.NopCloser(stdin), nil

	case clients.IsRemote(path):
		fetcher, err := clients.NewDatasetFetcher(env.cfg.Client, env.logger)
		if err != nil {
			return nil, err
		}
		return fetcher.FetchDataset(ctx, path)

	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		return f, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// openOutput resolves "-" to stdout and creates any other path.
func openOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == stdio || path == "" {
		return nopWriteCloser{stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}

	return f, nil
}
