package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/okian/royalty/internal/domain/model"
	"github.com/okian/royalty/internal/domain/pipeline"
	"github.com/okian/royalty/internal/domain/revenue"
	"github.com/okian/royalty/internal/domain/risk"
	"github.com/okian/royalty/internal/domain/valuation"
)

var kvAligns = []columnAlignment{alignLeft, alignRight}

func printRevenueTypes(out io.Writer, types []revenue.Info) {
	rows := make([][]string, 0, len(types))
	for _, t := range types {
		rows = append(rows, []string{string(t.Type), t.Name, multiple(t.Multiplier), label(string(t.RiskLevel)), t.Description})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Type", "Name", "Multiplier", "Risk", "Description"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
}

func printValuation(out io.Writer, v valuation.Result) {
	keys := slices.Sorted(maps.Keys(v.Breakdown))
	rows := make([][]string, 0, len(keys)+2)
	for _, k := range keys {
		rows = append(rows, []string{label(string(k)), money(v.Breakdown[k])})
	}
	rows = append(rows,
		[]string{"Total", money(v.TotalValuation)},
		[]string{"Average multiplier", multiple(v.AverageMultiplier)},
	)
	fmt.Fprintln(out, renderTable([]string{"Revenue", "Valuation"}, rows, kvAligns))
}

func printRisk(out io.Writer, a risk.Assessment) {
	fmt.Fprintln(out, renderTable(
		[]string{"Risk", "Value"},
		[][]string{
			{"Level", label(string(a.Level))},
			{"Score", strconv.Itoa(a.Score)},
			{"Diversification", percent(a.DiversificationScore)},
		},
		kvAligns,
	))
	printRecommendations(out, a.Recommendations)
}

func printRecommendations(out io.Writer, recs []string) {
	if len(recs) == 0 {
		return
	}
	fmt.Fprintln(out, "Recommendations:")
	for _, r := range recs {
		fmt.Fprintf(out, "  - %s\n", r)
	}
}

func printPipeline(out io.Writer, p pipeline.Result) {
	rows := make([][]string, 0, len(p.SongResults))
	for _, s := range p.SongResults {
		gaps := make([]string, len(s.Gaps))
		for i, g := range s.Gaps {
			gaps[i] = string(g)
		}
		rows = append(rows, []string{s.ID, money(s.BasePipeline), money(s.AdjustedPipeline), fmt.Sprint(gaps)})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Song", "Base", "Realized", "Gaps"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
		))
	}

	summary := make([][]string, 0, 7)
	for _, k := range slices.Sorted(maps.Keys(p.Breakdown.Map())) {
		summary = append(summary, []string{label(k), money(p.Breakdown.Map()[k])})
	}
	summary = append(summary,
		[]string{"Total pipeline", money(p.Total)},
		[]string{"Missing impact", money(p.MissingImpact)},
		[]string{"Confidence", fmt.Sprintf("%d (%s)", p.ConfidenceScore, pipeline.ConfidenceTier(p.ConfidenceScore))},
	)
	fmt.Fprintln(out, renderTable([]string{"Pipeline", "Annual"}, summary, kvAligns))
}

func printReport(out io.Writer, r model.Report) {
	name := r.CatalogID
	if r.Name != "" {
		name = fmt.Sprintf("%s (%s)", r.Name, r.CatalogID)
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Catalog", name},
		[][]string{
			{"Gross valuation", money(r.GrossValuation)},
			{"Valuation band", money(r.Band.Low) + " - " + money(r.Band.High)},
			{"Pipeline valuation", money(r.PipelineValuation)},
			{"Additional valuation", money(r.AdditionalValuation)},
			{"Diversification bonus", money(r.DiversificationBonus)},
			{"Missing impact", money(r.MissingImpactValue)},
			{"Confidence", fmt.Sprintf("%d (%s)", r.Confidence, r.ConfidenceTier)},
			{"Diversification", percent(r.DiversificationScore)},
			{"Risk", fmt.Sprintf("%s (%d)", r.Risk.Level, r.Risk.Score)},
			{"Songs", strconv.Itoa(r.SongStats.Count)},
			{"Policy", r.PolicyVersion},
		},
		kvAligns,
	))
	printRecommendations(out, r.Risk.Recommendations)
}

func printRanking(out io.Writer, entries []model.RankedEntry) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Rank), e.CatalogID, e.Name, money(e.GrossValuation),
			strconv.Itoa(e.Confidence), string(e.RiskLevel),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Rank", "Catalog", "Name", "Gross", "Confidence", "Risk"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
}
