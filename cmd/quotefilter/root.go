package main

import (
	"os"

	"github.com/spf13/cobra"
)

// defaultProfile is used when neither --profile nor APP_ENVIRONMENT is set.
const defaultProfile = "local"

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configDir string
	profile   string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "quotefilter",
		Short: "Clean and normalize quote datasets",
		Long: `quotefilter drops unusable records from a delimited quote dataset and
normalizes the author and quote text of the records it keeps.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = defaultProfile
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configDir, "config-dir", "configs", "directory holding base.yaml and the profile files")
	flags.StringVar(&opts.profile, "profile", profile, "configuration profile (defaults to $APP_ENVIRONMENT)")
	flags.StringVar(&opts.logLevel, "log-level", "", "override log.level (trace|debug|info|warn|error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "override log.format (json|text|pretty)")

	cmd.AddCommand(
		newCleanCmd(opts),
		newNormalizeCmd(opts),
		newConvertCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)

	return cmd
}
