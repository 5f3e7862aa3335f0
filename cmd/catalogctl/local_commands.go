package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/okian/royalty/internal/adapters/csvimport"
	"github.com/okian/royalty/internal/domain/appraisal"
	"github.com/okian/royalty/internal/domain/model"
	"github.com/okian/royalty/internal/domain/pipeline"
	"github.com/okian/royalty/internal/domain/revenue"
	"github.com/okian/royalty/internal/domain/risk"
	"github.com/okian/royalty/internal/domain/valuation"
	"github.com/spf13/cobra"
)

func newRevenueTypesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "revenue-types",
		Short: "List revenue categories with their multipliers and risk levels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			types := revenue.Types()
			if ctx.remote() {
				cl, err := ctx.client()
				if err != nil {
					return err
				}
				if types, err = cl.RevenueTypes(cmd.Context()); err != nil {
					return err
				}
			}
			if ctx.jsonOut {
				return writeJSON(cmd, types)
			}
			printRevenueTypes(cmd.OutOrStdout(), types)
			return nil
		},
	}
}

type revenueSummary struct {
	Valuation valuation.Result `json:"valuation"`
	Risk      risk.Assessment  `json:"risk"`
}

func newValuateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "valuate SOURCES.csv",
		Short: "Value revenue sources from a CSV and assess their risk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := readSources(args[0])
			if err != nil {
				return err
			}

			var sum revenueSummary
			if ctx.remote() {
				cl, err := ctx.client()
				if err != nil {
					return err
				}
				raw := rawSources(sources)
				if sum.Valuation, err = cl.ValuateRevenue(cmd.Context(), raw); err != nil {
					return err
				}
				if sum.Risk, err = cl.AssessRisk(cmd.Context(), raw); err != nil {
					return err
				}
			} else {
				sum.Valuation = valuation.Valuate(sources)
				sum.Risk = risk.AssessSources(sources)
			}

			if ctx.jsonOut {
				return writeJSON(cmd, sum)
			}
			printValuation(cmd.OutOrStdout(), sum.Valuation)
			printRisk(cmd.OutOrStdout(), sum.Risk)
			return nil
		},
	}
}

func newPipelineCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline SONGS.json",
		Short: "Estimate the annual royalty pipeline of a JSON array of songs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []pipeline.RawSong
			if err := readJSON(args[0], &raw); err != nil {
				return err
			}

			var res pipeline.Result
			if ctx.remote() {
				cl, err := ctx.client()
				if err != nil {
					return err
				}
				if res, err = cl.EstimatePipeline(cmd.Context(), raw); err != nil {
					return err
				}
			} else {
				songs, err := pipeline.ParseSongs(raw)
				if err != nil {
					return err
				}
				policy, err := ctx.policy()
				if err != nil {
					return err
				}
				res = pipeline.Compute(songs, policy.Pipeline)
			}

			if ctx.jsonOut {
				return writeJSON(cmd, res)
			}
			printPipeline(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newAppraiseCommand(ctx *commandContext) *cobra.Command {
	var sourcesPath string

	cmd := &cobra.Command{
		Use:   "appraise CATALOG.json",
		Short: "Appraise a catalog synchronously",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readCatalog(args[0], sourcesPath)
			if err != nil {
				return err
			}

			var report model.Report
			if ctx.remote() {
				cl, err := ctx.client()
				if err != nil {
					return err
				}
				if report, err = cl.Appraise(cmd.Context(), raw); err != nil {
					return err
				}
			} else {
				c, err := raw.Parse()
				if err != nil {
					return err
				}
				policy, err := ctx.policy()
				if err != nil {
					return err
				}
				report = appraisal.New(policy).Appraise(c)
			}

			if ctx.jsonOut {
				return writeJSON(cmd, report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringVar(&sourcesPath, "sources", "", "CSV of revenue sources appended to the catalog")
	return cmd
}

// readCatalog decodes a catalog document and appends any CSV sources.
func readCatalog(path, sourcesPath string) (model.RawCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.RawCatalog{}, err
	}
	defer f.Close()

	raw, err := csvimport.DecodeCatalog(f)
	if err != nil {
		return model.RawCatalog{}, fmt.Errorf("%s: %w", path, err)
	}
	if sourcesPath != "" {
		sources, err := readSources(sourcesPath)
		if err != nil {
			return model.RawCatalog{}, err
		}
		raw.Sources = append(raw.Sources, rawSources(sources)...)
	}
	return raw, nil
}

func readSources(path string) ([]revenue.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sources, err := csvimport.ReadSources(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sources, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// rawSources converts validated sources back into wire records.
func rawSources(sources []revenue.Source) []revenue.RawSource {
	out := make([]revenue.RawSource, len(sources))
	for i, s := range sources {
		amount, recurring := s.AnnualRevenue, s.Recurring
		out[i] = revenue.RawSource{
			RevenueType:     string(s.Type),
			AnnualRevenue:   &amount,
			ConfidenceLevel: string(s.Confidence),
			IsRecurring:     &recurring,
		}
	}
	return out
}
