// Package csvimport reads revenue sources from CSV and catalogs from JSON
// documents.
package csvimport

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/royalty/internal/domain/model"
	"github.com/okian/royalty/internal/domain/revenue"
)

// Column names of a revenue CSV.
const (
	ColRevenueType     = "revenue_type"
	ColAnnualRevenue   = "annual_revenue"
	ColConfidenceLevel = "confidence_level"
	ColIsRecurring     = "is_recurring"
)

// Sentinel kinds for import errors.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidCell   = errors.New("invalid cell")
)

// ReadSources parses a header-driven revenue CSV. Columns may appear in any
// order; revenue_type and confidence_level are required. Blank amount and
// recurrence cells take the same defaults as absent JSON fields.
func ReadSources(r io.Reader) ([]revenue.Source, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []revenue.Source{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, req := range []string{ColRevenueType, ColConfidenceLevel} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, req)
		}
	}

	out := []revenue.Source{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(rec) {
			continue
		}
		raw, err := rawSource(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		src, err := raw.Parse()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, src)
	}
	return out, nil
}

func rawSource(rec []string, cols map[string]int) (revenue.RawSource, error) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	raw := revenue.RawSource{
		RevenueType:     cell(ColRevenueType),
		ConfidenceLevel: cell(ColConfidenceLevel),
	}
	if v := cell(ColAnnualRevenue); v != "" {
		amount, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
		if err != nil {
			return raw, fmt.Errorf("%w: %s=%q", ErrInvalidCell, ColAnnualRevenue, v)
		}
		raw.AnnualRevenue = &amount
	}
	if v := cell(ColIsRecurring); v != "" {
		recurring, err := parseBool(v)
		if err != nil {
			return raw, fmt.Errorf("%w: %s=%q", ErrInvalidCell, ColIsRecurring, v)
		}
		raw.IsRecurring = &recurring
	}
	return raw, nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(v)
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// DecodeCatalog decodes a JSON catalog document without validating it.
func DecodeCatalog(r io.Reader) (model.RawCatalog, error) {
	var raw model.RawCatalog
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return model.RawCatalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	return raw, nil
}

// ReadCatalog decodes and validates a JSON catalog document.
func ReadCatalog(r io.Reader) (model.Catalog, error) {
	raw, err := DecodeCatalog(r)
	if err != nil {
		return model.Catalog{}, err
	}
	return raw.Parse()
}
