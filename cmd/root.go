// Package cmd implements the siteslot command line.
package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/siteslot/siteslot/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "siteslot",
	Short: "Blue/green publishing of a static website to Azure storage behind a CDN",
	Long: `siteslot publishes a built website into one of several deployment slots.

The slot is derived from release tags of the form <prefix><slot><separator><version>:
a release newer than every tagged version rotates to the next slot, anything
older or already released is skipped. After the upload the slot's CDN endpoint
is purged and the decision is recorded as an annotated tag pushed to origin.

Configuration comes from the AZURE_PIPELINE_CONFIG and WEBSITE_INFRA_CONFIG
environment variables or from --pipeline-config-file and --infra-config-file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Logger = newLogger(os.Stderr, viper.GetString("log-format"), viper.GetBool("verbose"))
	},
}

// Execute runs the root command.
func Execute(version string) error {
	rootCmd.Version = version
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.String("log-format", "console", "Log output format: console or json")
	flags.String("dir", ".", "Working directory the relative code directory is resolved against")
	flags.String("pipeline-config-file", "", "Pipeline configuration file (JSON or YAML); overrides "+config.PipelineConfigEnv)
	flags.String("infra-config-file", "", "Infrastructure configuration file (JSON or YAML); overrides "+config.InfraConfigEnv)
	flags.String("git-driver", "cli", "Git implementation: cli (git executable) or gogit")
	flags.String("store-type", "azure", "Content store backend: azure, s3, gcs or memory")
	flags.String("bucket", "", "Shared s3/gcs bucket; defaults to one bucket per slot named after its storage account")
	flags.String("region", "", "AWS region of the s3 buckets")
	flags.String("prefix", "", "Key prefix inside the content store")
	flags.String("kms-key", "", "KMS key encrypting s3 (key id) or gcs (key name) objects")
	flags.Int("max-concurrency", 16, "Maximum parallel uploads")
	flags.Int("max-retries", 3, "Retries of transient content store errors")
	flags.StringSlice("exclude", nil, "Glob patterns of build files to leave out of the upload")

	for _, name := range []string{
		"verbose", "log-format", "dir", "pipeline-config-file", "infra-config-file",
		"git-driver", "store-type", "bucket", "region", "prefix", "kms-key",
		"max-concurrency", "max-retries", "exclude",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(slotsCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(activateCmd())
	rootCmd.AddCommand(httpsCmd())
}

func initConfig() {
	viper.SetEnvPrefix("SITESLOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("pipeline-config", config.PipelineConfigEnv)
	_ = viper.BindEnv("infra-config", config.InfraConfigEnv)
}

// newLogger returns a console or JSON logger writing to w.
func newLogger(w io.Writer, format string, verbose bool) zerolog.Logger {
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w}
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
