package loadtest

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/okian/royalty/internal/domain/appraisal"
	"github.com/okian/royalty/internal/domain/model"
)

// Verification failures.
var (
	ErrNotSorted     = errors.New("leaderboard not sorted")
	ErrRankMismatch  = errors.New("rank mismatch")
	ErrOrderMismatch = errors.New("ranking order mismatch")
	ErrValueMismatch = errors.New("valuation mismatch")
)

// ExpectedRanking appraises catalogs locally under policy and orders them
// the way the service ranks reports: gross valuation in cents descending,
// then catalog id ascending.
func ExpectedRanking(policy appraisal.Config, catalogs []model.RawCatalog) ([]model.RankedEntry, error) {
	a := appraisal.New(policy)
	out := make([]model.RankedEntry, 0, len(catalogs))
	for _, raw := range catalogs {
		c, err := raw.Parse()
		if err != nil {
			return nil, err
		}
		out = append(out, a.Appraise(c).Entry())
	}
	slices.SortFunc(out, func(a, b model.RankedEntry) int {
		if c := cmp.Compare(cents(b.GrossValuation), cents(a.GrossValuation)); c != 0 {
			return c
		}
		return strings.Compare(a.CatalogID, b.CatalogID)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// Verify checks a leaderboard against the locally expected ranking. The
// leaderboard may hold catalogs from other runs; only ids carrying prefix
// are compared, and those must appear as a prefix of expected in order.
// It returns how many leaderboard entries were matched.
func Verify(expected, leaderboard []model.RankedEntry, prefix string) (int, error) {
	for i, e := range leaderboard {
		if e.Rank != i+1 {
			return 0, fmt.Errorf("%w: entry %d has rank %d", ErrRankMismatch, i, e.Rank)
		}
		if i > 0 && cents(e.GrossValuation) > cents(leaderboard[i-1].GrossValuation) {
			return 0, fmt.Errorf("%w: entry %d (%s) outranks entry %d", ErrNotSorted, i, e.CatalogID, i-1)
		}
	}

	matched := 0
	for _, e := range leaderboard {
		if !strings.HasPrefix(e.CatalogID, prefix+"-") {
			continue
		}
		if matched >= len(expected) {
			return matched, fmt.Errorf("%w: unexpected catalog %s", ErrOrderMismatch, e.CatalogID)
		}
		want := expected[matched]
		if e.CatalogID != want.CatalogID {
			return matched, fmt.Errorf("%w: position %d has %s, want %s", ErrOrderMismatch, matched, e.CatalogID, want.CatalogID)
		}
		if math.Abs(e.GrossValuation-want.GrossValuation) > valueTolerance {
			return matched, fmt.Errorf("%w: %s is %.2f, want %.2f", ErrValueMismatch, e.CatalogID, e.GrossValuation, want.GrossValuation)
		}
		matched++
	}
	return matched, nil
}

func cents(v float64) int64 {
	return int64(math.Round(v * 100))
}
