package models

import "time"

// ScanReport is the write-once result of one cache scan.
type ScanReport struct {
	RunID               string                `json:"runId"`
	GeneratedAt         time.Time             `json:"generatedAt"`
	BBox                BBox                  `json:"bboxUsed"`
	ConfidenceThreshold float64               `json:"confidenceThreshold"`
	Totals              ScanTotals            `json:"totals"`
	Samples             ScanSamples           `json:"samples"`
	Details             map[string]ScanDetail `json:"details"`
}

// ScanTotals counts flagged entries. NoChosen entries are also counted as low confidence.
type ScanTotals struct {
	Records       int `json:"records"`
	LowConfidence int `json:"lowConfidence"`
	OutOfBounds   int `json:"outOfBounds"`
	NoChosen      int `json:"noChosen"`
	Errors        int `json:"errors"`
}

// ScanSamples holds the first entries of each flagged category.
type ScanSamples struct {
	LowConfidence []ScanDetail `json:"lowConfidence"`
	OutOfBounds   []ScanDetail `json:"outOfBounds"`
	Errors        []ScanDetail `json:"errors"`
}

// ScanDetail is the per-address verdict of a scan.
type ScanDetail struct {
	Address       string `json:"address"`
	Key           string `json:"key"`
	Chosen        *Point `json:"chosen,omitempty"`
	LowConfidence bool   `json:"lowConfidence"`
	OutOfBounds   bool   `json:"outOfBounds"`
	NoChosen      bool   `json:"noChosen,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Flagged reports whether the entry needs re-geocoding.
func (d ScanDetail) Flagged() bool {
	return d.Error == "" && (d.LowConfidence || d.OutOfBounds)
}

// Re-geocode item statuses.
const (
	RegeocodeAccepted  = "accepted"
	RegeocodeSuggested = "suggested"
	RegeocodeError     = "error"
)

// RegeocodeSummary is the result of one re-geocode run.
type RegeocodeSummary struct {
	RunID         string          `json:"runId"`
	ReportRunID   string          `json:"reportRunId"`
	StartedAt     time.Time       `json:"startedAt"`
	FinishedAt    time.Time       `json:"finishedAt"`
	ProviderOrder []string        `json:"providerOrder"`
	DryRun        bool            `json:"dryRun"`
	Total         int             `json:"total"`
	Processed     int             `json:"processed"`
	Updated       int             `json:"updated"`
	Suggested     int             `json:"suggested"`
	Errors        int             `json:"errors"`
	Items         []RegeocodeItem `json:"items"`
}

// RegeocodeItem records what happened to one flagged address.
type RegeocodeItem struct {
	Address      string            `json:"address"`
	Key          string            `json:"key"`
	Status       string            `json:"status"`
	ChosenBefore *Point            `json:"chosenBefore,omitempty"`
	Candidate    *Candidate        `json:"candidate,omitempty"`
	Attempts     []ProviderAttempt `json:"attempts,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// ProviderAttempt is one provider query made during re-geocoding.
type ProviderAttempt struct {
	Provider   string `json:"provider"`
	Candidates int    `json:"candidates"`
	Error      string `json:"error,omitempty"`
}
