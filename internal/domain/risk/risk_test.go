package risk_test

import (
	"testing"

	"github.com/okian/royalty/internal/domain/revenue"
	"github.com/okian/royalty/internal/domain/risk"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAssess(t *testing.T) {
	Convey("Given a revenue portfolio", t, func() {
		Convey("When it is empty", func() {
			a := risk.Assess(nil)

			Convey("Then it should be maximally risky with no recommendations", func() {
				So(a.Level, ShouldEqual, revenue.High)
				So(a.Score, ShouldEqual, 0)
				So(a.Recommendations, ShouldNotBeNil)
				So(a.Recommendations, ShouldBeEmpty)
				So(a.DiversificationScore, ShouldEqual, 0)
			})
		})

		Convey("When it holds a single low-confidence touring source", func() {
			a := risk.AssessSources([]revenue.Source{
				{Type: revenue.Touring, AnnualRevenue: 40000, Confidence: revenue.Low, Recurring: true},
			})

			Convey("Then it should land in the high tier with a near-zero score", func() {
				So(a.Level, ShouldEqual, revenue.High)
				So(a.Score, ShouldEqual, 3)
				So(a.DiversificationScore, ShouldAlmostEqual, 1.0/9.0, 1e-9)
			})

			Convey("And it should warn about diversification", func() {
				So(a.Recommendations, ShouldContain, risk.RecDiversify)
				So(a.Recommendations, ShouldContain, risk.RecVerify)
				So(a.Recommendations, ShouldContain, risk.RecLowConfidence)
			})
		})

		Convey("When it holds a single high-confidence publishing source", func() {
			a := risk.Assess([]risk.Input{{Type: revenue.Publishing, AnnualRevenue: 100000, Confidence: revenue.High}})

			Convey("Then it should be medium risk and concentrated", func() {
				So(a.Level, ShouldEqual, revenue.Medium)
				So(a.Score, ShouldEqual, 68)
				So(a.Recommendations, ShouldResemble, []string{risk.RecImproveConfidence, risk.RecDiversify})
			})
		})

		Convey("When it spreads across stable categories with high confidence", func() {
			a := risk.Assess([]risk.Input{
				{Type: revenue.Publishing, AnnualRevenue: 300000, Confidence: revenue.High},
				{Type: revenue.Mechanical, AnnualRevenue: 300000, Confidence: revenue.High},
				{Type: revenue.Performance, AnnualRevenue: 300000, Confidence: revenue.High},
				{Type: revenue.Streaming, AnnualRevenue: 10000, Confidence: revenue.High},
			})

			Convey("Then it should be low risk", func() {
				So(a.Level, ShouldEqual, revenue.Low)
				So(a.Score, ShouldEqual, 71)
				So(a.Recommendations, ShouldResemble, []string{risk.RecStable})
			})
		})

		Convey("When volatile categories are moderately diversified", func() {
			a := risk.Assess([]risk.Input{
				{Type: revenue.Sync, AnnualRevenue: 1000, Confidence: revenue.Low},
				{Type: revenue.Other, AnnualRevenue: 1000, Confidence: revenue.Low},
				{Type: revenue.Merchandise, AnnualRevenue: 1000, Confidence: revenue.Low},
				{Type: revenue.Touring, AnnualRevenue: 1000, Confidence: revenue.Low},
			})

			Convey("Then it should suggest lower-risk revenue types", func() {
				So(a.Level, ShouldEqual, revenue.High)
				So(a.Recommendations, ShouldContain, risk.RecLowerRiskTypes)
				So(a.Recommendations, ShouldNotContain, risk.RecDiversify)
			})
		})

		Convey("When only unknown revenue types are reported", func() {
			a := risk.Assess([]risk.Input{{Type: "royalty_nft", AnnualRevenue: 5000, Confidence: revenue.High}})

			Convey("Then there is no evidence of stable income", func() {
				So(a.Level, ShouldEqual, revenue.High)
				So(a.Score, ShouldEqual, 0)
				So(a.Recommendations, ShouldResemble, []string{risk.RecNoRevenue})
			})
		})

		Convey("When the score is computed for any portfolio", func() {
			a := risk.Assess([]risk.Input{
				{Type: revenue.Sync, AnnualRevenue: 5000, Confidence: revenue.Medium},
				{Type: revenue.Publishing, AnnualRevenue: 15000, Confidence: revenue.Low},
			})

			Convey("Then it should stay within 0..100", func() {
				So(a.Score, ShouldBeBetweenOrEqual, 0, 100)
			})
		})
	})
}

func TestTier(t *testing.T) {
	Convey("Given normalized risk scores", t, func() {
		So(risk.Tier(0), ShouldEqual, revenue.Low)
		So(risk.Tier(0.29), ShouldEqual, revenue.Low)
		So(risk.Tier(0.3), ShouldEqual, revenue.Medium)
		So(risk.Tier(0.59), ShouldEqual, revenue.Medium)
		So(risk.Tier(0.6), ShouldEqual, revenue.High)
		So(risk.Tier(1), ShouldEqual, revenue.High)
	})
}
