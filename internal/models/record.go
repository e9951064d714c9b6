package models

import "time"

// GeocodeRecord is the persisted cache entry for one normalized address.
// A nil Chosen means resolution was attempted and nothing was found.
type GeocodeRecord struct {
	Query      string      `json:"query"`
	Chosen     *Point      `json:"chosen"`
	Candidates []Candidate `json:"candidates"`
	Suggestion *Suggestion `json:"suggestion,omitempty"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// Suggestion is a re-geocoded candidate that did not pass the acceptance predicate.
type Suggestion struct {
	Candidate

	SuggestedAt time.Time `json:"suggestedAt"`
}

// Override kinds.
const (
	OverrideByAddress = "address"
	OverrideByJob     = "job"
)

// Override is a manually corrected point keyed by address or job identifier.
type Override struct {
	Kind  string `json:"kind"`
	Key   string `json:"key"`
	Point Point  `json:"point"`
}
