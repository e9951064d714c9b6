package ranking

import "github.com/UnknownOlympus/pinpoint/internal/models"

// DefaultAcceptConfidence is the confidence an in-bounds, non-rooftop candidate
// needs to replace an existing chosen point.
const DefaultAcceptConfidence = 0.8

// Overrides carries the manual corrections found for one request.
type Overrides struct {
	ByJob     *models.Point
	ByAddress *models.Point
}

// Select picks the authoritative point: the job override, then the address
// override, then the best-ranked candidate. Candidates must already be scored.
// A nil result means not found.
func Select(candidates []models.Candidate, overrides Overrides) *models.Point {
	if overrides.ByJob != nil {
		p := *overrides.ByJob
		return &p
	}

	if overrides.ByAddress != nil {
		p := *overrides.ByAddress
		return &p
	}

	if len(candidates) == 0 {
		return nil
	}

	best := Rank(candidates)[0].Point()

	return &best
}

// Policy gates whether a candidate may be accepted without a human looking at it.
type Policy struct {
	BBox             models.BBox
	AcceptConfidence float64
}

// NewPolicy returns a policy for the region, falling back to the default
// confidence when minConfidence is not positive.
func NewPolicy(bbox models.BBox, minConfidence float64) Policy {
	if minConfidence <= 0 {
		minConfidence = DefaultAcceptConfidence
	}

	return Policy{BBox: bbox, AcceptConfidence: minConfidence}
}

// Accept reports whether the candidate is rooftop-precise, or inside the region
// with enough confidence.
func (p Policy) Accept(c models.Candidate) bool {
	if c.IsRooftop() {
		return true
	}

	return p.BBox.Contains(c.Lat, c.Lng) && c.Confidence >= p.AcceptConfidence
}

// Settles reports whether the candidate is good enough to stop asking further
// providers: it must pass Accept and lie inside the region. A rooftop hit outside
// the region is usually a same-named street elsewhere and must not end the search.
func (p Policy) Settles(c models.Candidate) bool {
	return p.Accept(c) && p.BBox.Contains(c.Lat, c.Lng)
}

// FirstAccepted returns the best-ranked candidate that passes Accept.
func (p Policy) FirstAccepted(candidates []models.Candidate) (models.Candidate, bool) {
	for _, c := range Rank(candidates) {
		if p.Accept(c) {
			return c, true
		}
	}

	return models.Candidate{}, false
}
