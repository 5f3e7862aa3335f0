package main

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/okian/royalty/internal/loadtest"
	"github.com/spf13/cobra"
)

func newBenchCommand(ctx *commandContext) *cobra.Command {
	cfg := loadtest.Config{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Submit generated catalogs and verify the service ranking",
		Long: `bench generates catalogs from a seed, submits them as appraisal jobs,
waits for every job and checks the service ranking against a local
appraisal under --policy. The policy must match the one the service runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := ctx.client()
			if err != nil {
				return err
			}
			if cfg.Policy, err = ctx.policy(); err != nil {
				return err
			}
			cfg.BaseURL = ctx.baseURL
			cfg.Timeout = ctx.timeout
			cfg.Verbose = ctx.verbose

			res, runErr := loadtest.Run(cmd.Context(), cfg, cl)
			if ctx.jsonOut {
				if err := writeJSON(cmd, res); err != nil {
					return err
				}
				return runErr
			}

			s := res.Stats
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Run", "Value"},
				[][]string{
					{"Generated", strconv.Itoa(s.Generated)},
					{"Submitted", strconv.Itoa(s.Submitted)},
					{"Accepted", strconv.Itoa(s.Accepted)},
					{"Duplicate", strconv.Itoa(s.Duplicate)},
					{"Submit failures", strconv.Itoa(s.Failed)},
					{"Completed", strconv.Itoa(s.Completed)},
					{"Failed jobs", strconv.Itoa(s.JobsFailed)},
					{"Ranked", strconv.Itoa(s.Ranked)},
					{"Matched", strconv.Itoa(s.Matched)},
					{"Duration", s.Duration.String()},
					{"Catalogs/s", printer.Sprintf("%.1f", s.Throughput())},
				},
				kvAligns,
			))
			if len(res.Leaderboard) > 0 {
				printRanking(cmd.OutOrStdout(), res.Leaderboard)
			}
			return runErr
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.Catalogs, "catalogs", loadtest.DefaultCatalogs, "Number of catalogs to generate")
	flags.IntVar(&cfg.TopN, "top", loadtest.DefaultTopN, "Number of ranking entries to verify")
	flags.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "Concurrent submitters")
	flags.Uint64Var(&cfg.Seed, "seed", 1, "Generator seed")
	flags.StringVar(&cfg.Prefix, "prefix", "", "Catalog id prefix (default: random)")
	flags.StringVar(&cfg.OutputFile, "output", "", "Write the generated catalogs to this JSON file")
	return cmd
}
