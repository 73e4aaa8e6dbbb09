package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-filter/internal/app"
	"github.com/jsamuelsen/quote-filter/internal/domain"
)

func newNormalizeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [text...]",
		Short: "Normalize quote text",
		Long: `Apply the sentence normalization used by clean to free text.

With arguments, they are joined with spaces and normalized as one text.
Without arguments, every line of stdin is normalized on its own.`,
		Example: `  quotefilter normalize "im john. i like go"
  printf 'who am i\nhello world\n' | quotefilter normalize`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(cmd.Context(), root, nil)
			if err != nil {
				return err
			}
			defer env.close()

			cleaner := app.NewCleaner(app.CleanerConfig{
				Rules:  domain.DefaultRules(),
				Logger: env.logger,
			})

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) > 0 {
				_, err := fmt.Fprintln(out, cleaner.NormalizeText(ctx, strings.Join(args, " ")))
				return err
			}

			// Lines have no length limit.
			reader := bufio.NewReader(cmd.InOrStdin())
			for {
				line, readErr := reader.ReadString('\n')
				if readErr != nil && !errors.Is(readErr, io.EOF) {
					return readErr
				}
				if line != "" {
					line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
					if _, err := fmt.Fprintln(out, cleaner.NormalizeText(ctx, line)); err != nil {
						return err
					}
				}
				if readErr != nil {
					return nil
				}
			}
		},
	}
}
