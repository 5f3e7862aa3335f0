package valuation_test

import (
	"testing"

	"github.com/okian/royalty/internal/domain/revenue"
	"github.com/okian/royalty/internal/domain/valuation"
	. "github.com/smartystreets/goconvey/convey"
)

const delta = 1e-6

func TestSourceValuation(t *testing.T) {
	Convey("Given a single revenue source", t, func() {
		Convey("When it is recurring high-confidence publishing income", func() {
			v, ok := valuation.SourceValuation(revenue.Source{
				Type: revenue.Publishing, AnnualRevenue: 75000, Confidence: revenue.High, Recurring: true,
			})

			Convey("Then it should apply multiplier and confidence premium", func() {
				So(ok, ShouldBeTrue)
				So(v, ShouldAlmostEqual, 1_485_000, delta)
			})
		})

		Convey("When it is non-recurring medium-confidence sync income", func() {
			v, ok := valuation.SourceValuation(revenue.Source{
				Type: revenue.Sync, AnnualRevenue: 50000, Confidence: revenue.Medium, Recurring: false,
			})

			Convey("Then it should apply the recurrence discount", func() {
				So(ok, ShouldBeTrue)
				So(v, ShouldAlmostEqual, 240_000, delta)
			})
		})

		Convey("When annual revenue increases", func() {
			base := revenue.Source{Type: revenue.Streaming, AnnualRevenue: 1000, Confidence: revenue.Low, Recurring: true}
			bigger := base
			bigger.AnnualRevenue = 1001
			a, _ := valuation.SourceValuation(base)
			b, _ := valuation.SourceValuation(bigger)

			Convey("Then valuation should strictly increase", func() {
				So(b, ShouldBeGreaterThan, a)
			})
		})

		Convey("When only confidence differs", func() {
			src := revenue.Source{Type: revenue.Mechanical, AnnualRevenue: 10000, Recurring: true}
			src.Confidence = revenue.High
			high, _ := valuation.SourceValuation(src)
			src.Confidence = revenue.Medium
			medium, _ := valuation.SourceValuation(src)
			src.Confidence = revenue.Low
			low, _ := valuation.SourceValuation(src)

			Convey("Then valuations should keep the 1.10 : 1.00 : 0.80 ratio", func() {
				So(high, ShouldBeGreaterThan, medium)
				So(medium, ShouldBeGreaterThan, low)
				So(high/medium, ShouldAlmostEqual, 1.10, delta)
				So(low/medium, ShouldAlmostEqual, 0.80, delta)
			})
		})

		Convey("When only recurrence differs", func() {
			src := revenue.Source{Type: revenue.Touring, AnnualRevenue: 20000, Confidence: revenue.Medium, Recurring: true}
			recurring, _ := valuation.SourceValuation(src)
			src.Recurring = false
			oneOff, _ := valuation.SourceValuation(src)

			Convey("Then non-recurring income should be worth 60%", func() {
				So(oneOff, ShouldAlmostEqual, 0.6*recurring, delta)
			})
		})

		Convey("When the revenue type is unknown", func() {
			v, ok := valuation.SourceValuation(revenue.Source{Type: "lottery", AnnualRevenue: 1e6, Confidence: revenue.High})

			Convey("Then it should be skipped", func() {
				So(ok, ShouldBeFalse)
				So(v, ShouldEqual, 0)
			})
		})
	})
}

func TestValuate(t *testing.T) {
	Convey("Given a list of revenue sources", t, func() {
		Convey("When it is empty", func() {
			res := valuation.Valuate(nil)

			Convey("Then everything should be zero without NaN", func() {
				So(res.TotalValuation, ShouldEqual, 0)
				So(res.AverageMultiplier, ShouldEqual, 0)
				So(res.Breakdown, ShouldBeEmpty)
			})
		})

		Convey("When it mixes known and unknown types", func() {
			res := valuation.Valuate([]revenue.Source{
				{Type: revenue.Publishing, AnnualRevenue: 75000, Confidence: revenue.High, Recurring: true},
				{Type: revenue.Sync, AnnualRevenue: 50000, Confidence: revenue.Medium, Recurring: false},
				{Type: revenue.Sync, AnnualRevenue: 10000, Confidence: revenue.Medium, Recurring: true},
				{Type: "unknown", AnnualRevenue: 999999, Confidence: revenue.High, Recurring: true},
			})

			Convey("Then unknown records should contribute nothing", func() {
				So(res.TotalValuation, ShouldAlmostEqual, 1_485_000+240_000+80_000, delta)
				So(res.Breakdown, ShouldNotContainKey, revenue.Type("unknown"))
			})

			Convey("And the breakdown should accumulate per type", func() {
				So(res.Breakdown[revenue.Publishing], ShouldAlmostEqual, 1_485_000, delta)
				So(res.Breakdown[revenue.Sync], ShouldAlmostEqual, 320_000, delta)
			})

			Convey("And the average multiplier should use valued revenue only", func() {
				So(res.AverageMultiplier, ShouldAlmostEqual, 1_805_000.0/135_000.0, delta)
			})
		})

		Convey("When all known sources report zero revenue", func() {
			res := valuation.Valuate([]revenue.Source{{Type: revenue.Sync, Confidence: revenue.Low}})

			Convey("Then the average multiplier should be guarded to zero", func() {
				So(res.AverageMultiplier, ShouldEqual, 0)
				So(res.TotalValuation, ShouldEqual, 0)
			})
		})
	})
}

func TestDiversification(t *testing.T) {
	Convey("Given revenue type lists", t, func() {
		Convey("When the list is empty", func() {
			So(valuation.DiversificationScore(nil), ShouldEqual, 0)
		})

		Convey("When n < 9 distinct types are present", func() {
			score := valuation.DiversificationScore([]revenue.Type{revenue.Sync, revenue.Sync, revenue.Touring, revenue.Publishing})

			Convey("Then the score should be n/9", func() {
				So(score, ShouldAlmostEqual, 3.0/9.0, delta)
			})
		})

		Convey("When every catalog type is present", func() {
			var types []revenue.Type
			for _, info := range revenue.Types() {
				types = append(types, info.Type, info.Type)
			}
			score := valuation.DiversificationScore(types)

			Convey("Then the score should be exactly 1 and the bonus 20%", func() {
				So(score, ShouldEqual, 1)
				So(valuation.DiversificationBonus(score), ShouldAlmostEqual, 0.2, delta)
			})
		})

		Convey("When more than nine distinct keys are present", func() {
			types := []revenue.Type{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

			Convey("Then the score should be capped at 1", func() {
				So(valuation.DiversificationScore(types), ShouldEqual, 1)
			})
		})

		Convey("When collecting source types", func() {
			types := valuation.SourceTypes([]revenue.Source{{Type: revenue.Sync}, {Type: revenue.Touring}})
			So(types, ShouldResemble, []revenue.Type{revenue.Sync, revenue.Touring})
		})
	})
}
