// Package ranking puts candidates from different providers on one scale and picks
// the point that callers treat as authoritative.
package ranking

import (
	"sort"
	"strings"

	"github.com/UnknownOlympus/pinpoint/internal/models"
)

// Provider priorities, highest for the most trusted. Used only to break ties.
var providerPriority = map[string]int{
	models.ProviderGoogle:    4,
	models.ProviderMapbox:    3,
	models.ProviderOpenCage:  2,
	models.ProviderNominatim: 1,
}

// TieBreakWeight scales provider priority into the adjusted score. Close to a
// confidence of 1.0 it can still flip a ranking, so treat it as a tunable.
var TieBreakWeight = 0.001

const (
	rooftopBoost  = 0.12
	buildingBoost = 0.08

	outOfBoundsFactor  = 0.3
	outOfBoundsPenalty = 0.1
)

// Priority returns the tie-break priority of a provider, 0 when unknown.
func Priority(provider string) int {
	return providerPriority[provider]
}

// PrecisionBoost returns the bonus granted to a common-vocabulary quality label.
func PrecisionBoost(quality string) float64 {
	switch strings.ToLower(quality) {
	case models.QualityRooftop, models.QualityStreetAddress, models.QualityAddress:
		return rooftopBoost
	case models.QualityHouse, models.QualityBuilding:
		return buildingBoost
	default:
		return 0
	}
}

// Score sets Adjusted and OutOfBounds on every candidate in place and returns the
// same slice. Order is preserved. Out-of-region candidates are kept for diagnostics
// but pushed well below anything inside the box.
func Score(candidates []models.Candidate, bbox models.BBox) []models.Candidate {
	for i := range candidates {
		c := &candidates[i]
		tieBreak := float64(Priority(c.Provider)) * TieBreakWeight

		if !bbox.Contains(c.Lat, c.Lng) {
			c.Adjusted = c.Confidence*outOfBoundsFactor + tieBreak - outOfBoundsPenalty
			c.OutOfBounds = true

			continue
		}

		c.Adjusted = c.Confidence + PrecisionBoost(c.Quality) + tieBreak
		c.OutOfBounds = false
	}

	return candidates
}

// Rank returns a copy sorted by adjusted score, then provider priority. Equal
// candidates keep their input order.
func Rank(candidates []models.Candidate) []models.Candidate {
	ranked := make([]models.Candidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Adjusted != ranked[j].Adjusted {
			return ranked[i].Adjusted > ranked[j].Adjusted
		}

		return Priority(ranked[i].Provider) > Priority(ranked[j].Provider)
	})

	return ranked
}
