package loadtest

import (
	"fmt"
	"math/rand/v2"

	"github.com/okian/royalty/internal/domain/model"
	"github.com/okian/royalty/internal/domain/pipeline"
	"github.com/okian/royalty/internal/domain/revenue"
)

// Generation ranges.
const (
	maxSongs        = 40
	maxSources      = 6
	minRevenue      = 500.0
	revenueRange    = 250_000.0
	iswcChance      = 0.7
	proChance       = 0.65
	splitsChance    = 0.6
	verifiedChance  = 0.4
	recurringChance = 0.75
	unknownChance   = 0.05
)

var (
	levels          = []string{"low", "medium", "high"}
	pros            = []string{"ASCAP", "BMI", "SESAC", "PRS", "GEMA"}
	verifyStatuses  = []string{"verified", "pending", "unverified"}
	unknownRevenues = []string{"nft", "fan_club"}
)

// Generator produces catalogs from a seeded source. It is not safe for
// concurrent use.
type Generator struct {
	rng    *rand.Rand
	prefix string
}

// NewGenerator returns a generator whose output depends only on seed and prefix.
func NewGenerator(seed uint64, prefix string) *Generator {
	return &Generator{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		prefix: prefix,
	}
}

// Generate returns n catalogs with ids prefix-00000 onwards.
func (g *Generator) Generate(n int) []model.RawCatalog {
	out := make([]model.RawCatalog, n)
	for i := range out {
		out[i] = g.Catalog(i)
	}
	return out
}

// Catalog returns one generated catalog.
func (g *Generator) Catalog(i int) model.RawCatalog {
	id := fmt.Sprintf("%s-%05d", g.prefix, i)
	c := model.RawCatalog{
		ID:      id,
		Name:    fmt.Sprintf("Generated catalog %d", i),
		Songs:   make([]pipeline.RawSong, g.rng.IntN(maxSongs+1)),
		Sources: make([]revenue.RawSource, g.rng.IntN(maxSources+1)),
	}
	for j := range c.Songs {
		c.Songs[j] = g.song(fmt.Sprintf("%s-s%03d", id, j))
	}
	for j := range c.Sources {
		c.Sources[j] = g.source()
	}
	return c
}

func (g *Generator) song(id string) pipeline.RawSong {
	s := pipeline.RawSong{
		ID:                 id,
		Title:              "Track " + id,
		VerificationStatus: verifyStatuses[g.rng.IntN(len(verifyStatuses))],
	}
	if g.rng.Float64() < verifiedChance {
		s.VerificationStatus = "verified"
	}
	completeness := float64(g.rng.IntN(101)) / 100
	s.Completeness = &completeness
	if g.rng.Float64() < iswcChance {
		iswc := fmt.Sprintf("T-%09d-%d", g.rng.IntN(1_000_000_000), g.rng.IntN(10))
		s.ISWC = &iswc
	}
	if g.rng.Float64() < proChance {
		s.PRORegistrations = map[string]any{
			pros[g.rng.IntN(len(pros))]: fmt.Sprintf("W%08d", g.rng.IntN(100_000_000)),
		}
	}
	if g.rng.Float64() < splitsChance {
		share := float64(25 + g.rng.IntN(76))
		s.Publishers = map[string]float64{"Publisher A": share}
		if share < 100 {
			s.Publishers["Publisher B"] = 100 - share
		}
	}
	return s
}

func (g *Generator) source() revenue.RawSource {
	types := revenue.Types()
	kind := string(types[g.rng.IntN(len(types))].Type)
	if g.rng.Float64() < unknownChance {
		kind = unknownRevenues[g.rng.IntN(len(unknownRevenues))]
	}
	amount := minRevenue + float64(int(g.rng.Float64()*revenueRange))
	recurring := g.rng.Float64() < recurringChance
	return revenue.RawSource{
		RevenueType:     kind,
		AnnualRevenue:   &amount,
		ConfidenceLevel: levels[g.rng.IntN(len(levels))],
		IsRecurring:     &recurring,
	}
}
