package main

import (
	"fmt"

	"github.com/okian/royalty/internal/domain/model"
	"github.com/spf13/cobra"
)

const defaultTop = 10

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		sourcesPath string
		requestID   string
		wait        bool
	)

	cmd := &cobra.Command{
		Use:   "submit CATALOG.json",
		Short: "Queue a catalog appraisal on the service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := ctx.client()
			if err != nil {
				return err
			}
			raw, err := readCatalog(args[0], sourcesPath)
			if err != nil {
				return err
			}

			sub, err := cl.Submit(cmd.Context(), requestID, raw)
			if err != nil {
				return err
			}
			if !wait {
				if ctx.jsonOut {
					return writeJSON(cmd, sub)
				}
				status := "accepted"
				if sub.Duplicate {
					status = "duplicate"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s job %s\n", status, sub.JobID)
				return nil
			}

			job, err := cl.WaitJob(cmd.Context(), sub.JobID)
			if err != nil {
				return err
			}
			return printJob(cmd, ctx, job)
		},
	}
	cmd.Flags().StringVar(&sourcesPath, "sources", "", "CSV of revenue sources appended to the catalog")
	cmd.Flags().StringVar(&requestID, "request-id", "", "Idempotency key; repeated ids return the first job")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the job and print its report")
	return cmd
}

func newJobCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "job JOB_ID",
		Short: "Show the status of an appraisal job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := ctx.client()
			if err != nil {
				return err
			}
			job, err := cl.Job(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJob(cmd, ctx, job)
		},
	}
}

func printJob(cmd *cobra.Command, ctx *commandContext, job model.Job) error {
	if ctx.jsonOut {
		return writeJSON(cmd, job)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "job %s: %s\n", job.ID, job.Status)
	if job.Error != "" {
		fmt.Fprintf(out, "error: %s\n", job.Error)
	}
	if job.Report != nil {
		printReport(out, *job.Report)
	}
	return nil
}

func newTopCommand(ctx *commandContext) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the most valuable appraised catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := ctx.client()
			if err != nil {
				return err
			}
			entries, err := cl.TopN(cmd.Context(), n)
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, entries)
			}
			printRanking(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "n", defaultTop, "Number of catalogs to show")
	return cmd
}

func newRankCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rank CATALOG_ID",
		Short: "Show the ranking position of a catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := ctx.client()
			if err != nil {
				return err
			}
			entry, err := cl.Rank(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, entry)
			}
			printRanking(cmd.OutOrStdout(), []model.RankedEntry{entry})
			return nil
		},
	}
}
