package main

import (
	"errors"
	"strings"
	"time"

	"github.com/okian/royalty/internal/client"
	"github.com/okian/royalty/internal/config"
	"github.com/okian/royalty/internal/domain/appraisal"
	"github.com/okian/royalty/pkg/logger"
	"github.com/spf13/cobra"
)

const defaultTimeout = 30 * time.Second

var errNoServer = errors.New("this command needs a service; pass --url")

// commandContext carries the persistent flags shared by every subcommand.
type commandContext struct {
	baseURL    string
	policyPath string
	timeout    time.Duration
	jsonOut    bool
	verbose    bool
}

func (c *commandContext) policy() (appraisal.Config, error) {
	if c.policyPath == "" {
		return appraisal.DefaultConfig(), nil
	}
	return config.LoadPolicy(c.policyPath)
}

func (c *commandContext) remote() bool {
	return strings.TrimSpace(c.baseURL) != ""
}

func (c *commandContext) client() (*client.Client, error) {
	if !c.remote() {
		return nil, errNoServer
	}
	return client.New(c.baseURL, client.WithTimeout(c.timeout)), nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Appraise music catalogs and query the royalty service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return err
			}
			if ctx.verbose {
				return logger.SetLevelString("debug")
			}
			return logger.SetLevelString("warn")
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.baseURL, "url", "", "Base URL of a royaltyd service (empty works locally)")
	flags.StringVar(&ctx.policyPath, "policy", "", "YAML appraisal policy for local commands")
	flags.DurationVar(&ctx.timeout, "timeout", defaultTimeout, "HTTP request timeout")
	flags.BoolVar(&ctx.jsonOut, "json", false, "Print JSON instead of tables")
	flags.BoolVarP(&ctx.verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(newRevenueTypesCommand(ctx))
	rootCmd.AddCommand(newValuateCommand(ctx))
	rootCmd.AddCommand(newPipelineCommand(ctx))
	rootCmd.AddCommand(newAppraiseCommand(ctx))
	rootCmd.AddCommand(newSubmitCommand(ctx))
	rootCmd.AddCommand(newJobCommand(ctx))
	rootCmd.AddCommand(newTopCommand(ctx))
	rootCmd.AddCommand(newRankCommand(ctx))
	rootCmd.AddCommand(newBenchCommand(ctx))

	return rootCmd
}
