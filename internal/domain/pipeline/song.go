package pipeline

import (
	"fmt"
	"strings"
)

// Gap is a kind of missing registration metadata.
type Gap string

// Registration gaps recognized by the estimator.
const (
	GapMissingISWC     Gap = "missing_iswc"
	GapMissingPRO      Gap = "missing_pro"
	GapLowCompleteness Gap = "low_completeness"
	GapMissingSplits   Gap = "missing_splits"
)

// Song is the registration metadata of one catalog work. Every field other
// than ID is optional; an absent field is a gap, never an error.
type Song struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title,omitempty"`
	Completeness       *float64           `json:"metadata_completeness_score,omitempty"`
	VerificationStatus string             `json:"verification_status,omitempty"`
	ISWC               *string            `json:"iswc,omitempty"`
	Publishers         map[string]float64 `json:"publishers,omitempty"`
	EstimatedSplits    map[string]float64 `json:"estimated_splits,omitempty"`
	PRORegistrations   map[string]string  `json:"pro_registrations,omitempty"`
}

// CompletenessScore returns the completeness score, treating absence as 0.
func (s Song) CompletenessScore() float64 {
	if s.Completeness == nil {
		return 0
	}
	return *s.Completeness
}

// HasISWC reports whether a non-blank ISWC is present.
func (s Song) HasISWC() bool {
	return s.ISWC != nil && strings.TrimSpace(*s.ISWC) != ""
}

// HasPRO reports whether any PRO registration is present.
func (s Song) HasPRO() bool {
	return len(s.PRORegistrations) > 0
}

// HasSplits reports whether publisher or writer splits are known.
func (s Song) HasSplits() bool {
	return len(s.Publishers) > 0 || len(s.EstimatedSplits) > 0
}

// RawSong mirrors untyped song metadata from the persistence layer or an
// enrichment service.
type RawSong struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Completeness       *float64           `json:"metadata_completeness_score"`
	VerificationStatus string             `json:"verification_status"`
	ISWC               *string            `json:"iswc"`
	Publishers         map[string]float64 `json:"publishers"`
	EstimatedSplits    map[string]float64 `json:"estimated_splits"`
	PRORegistrations   map[string]any     `json:"pro_registrations"`
}

// Parse validates r and converts it into a Song.
func (r RawSong) Parse() (Song, error) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return Song{}, ErrMissingID
	}
	if r.Completeness != nil && !(*r.Completeness >= 0 && *r.Completeness <= 1) {
		return Song{}, fmt.Errorf("%w: %v", ErrInvalidScore, *r.Completeness)
	}
	if err := validateShares("publishers", r.Publishers); err != nil {
		return Song{}, err
	}
	if err := validateShares("estimated_splits", r.EstimatedSplits); err != nil {
		return Song{}, err
	}

	var pro map[string]string
	if len(r.PRORegistrations) > 0 {
		pro = make(map[string]string, len(r.PRORegistrations))
		for org, v := range r.PRORegistrations {
			if v == nil {
				continue
			}
			pro[org] = fmt.Sprint(v)
		}
	}

	return Song{
		ID:                 id,
		Title:              r.Title,
		Completeness:       r.Completeness,
		VerificationStatus: strings.TrimSpace(r.VerificationStatus),
		ISWC:               r.ISWC,
		Publishers:         r.Publishers,
		EstimatedSplits:    r.EstimatedSplits,
		PRORegistrations:   pro,
	}, nil
}

func validateShares(field string, shares map[string]float64) error {
	for name, share := range shares {
		if !(share >= 0 && share <= 100) {
			return fmt.Errorf("%w: %s[%s]=%v", ErrInvalidShare, field, name, share)
		}
	}
	return nil
}

// ParseSongs converts a batch, reporting the index of the first bad record.
func ParseSongs(raw []RawSong) ([]Song, error) {
	out := make([]Song, 0, len(raw))
	for i, r := range raw {
		s, err := r.Parse()
		if err != nil {
			return nil, fmt.Errorf("songs[%d]: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}
