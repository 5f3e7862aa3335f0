// Package revenue holds the revenue type catalog and the revenue source
// records that feed the valuation engine.
package revenue

// Type is a revenue category key. Values outside the catalog are allowed
// and are skipped by the valuation functions.
type Type string

// Known revenue categories.
const (
	Publishing      Type = "publishing"
	Mechanical      Type = "mechanical"
	Streaming       Type = "streaming"
	MasterLicensing Type = "master_licensing"
	Performance     Type = "performance"
	Sync            Type = "sync"
	Other           Type = "other"
	Merchandise     Type = "merchandise"
	Touring         Type = "touring"
)

// Count is the number of categories in the catalog.
const Count = 9

// Info describes a revenue category.
type Info struct {
	Type        Type    `json:"type"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Multiplier  float64 `json:"multiplier"`
	RiskLevel   Level   `json:"risk_level"`
}

// catalog is ordered by income stability, most stable first.
var catalog = [Count]Info{
	{Publishing, "Publishing", "Publisher share of composition royalties", 18, Low},
	{Mechanical, "Mechanical", "Mechanical royalties from reproductions and streams", 15, Low},
	{Streaming, "Streaming", "Master-side streaming income", 12, Medium},
	{MasterLicensing, "Master Licensing", "Licensing of master recordings", 10, Medium},
	{Performance, "Performance", "Public performance royalties collected by PROs", 9, Low},
	{Sync, "Sync", "Synchronization fees for film, TV, games and ads", 8, High},
	{Other, "Other", "Miscellaneous music income", 5, High},
	{Merchandise, "Merchandise", "Merchandise sales", 4, High},
	{Touring, "Touring", "Live performance and touring income", 3, High},
}

var index = func() map[Type]int {
	m := make(map[Type]int, Count)
	for i, info := range catalog {
		m[info.Type] = i
	}
	return m
}()

// Lookup returns the catalog entry for t. Unknown types report false.
func Lookup(t Type) (Info, bool) {
	i, ok := index[t]
	if !ok {
		return Info{}, false
	}
	return catalog[i], true
}

// Known reports whether t is a catalog category.
func Known(t Type) bool {
	_, ok := index[t]
	return ok
}

// Types returns every catalog entry in catalog order.
func Types() []Info {
	out := make([]Info, Count)
	copy(out, catalog[:])
	return out
}

// Multiplier returns the capitalization multiple for t, or 0 when unknown.
func Multiplier(t Type) float64 {
	info, ok := Lookup(t)
	if !ok {
		return 0
	}
	return info.Multiplier
}
