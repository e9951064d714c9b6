package models

// NormalizedAddress is the canonical query form of a raw address.
// Empty fields mean the part could not be found.
type NormalizedAddress struct {
	Query       string `json:"query"`
	HouseNumber string `json:"houseNumber,omitempty"`
	Street      string `json:"street,omitempty"`
	Zip         string `json:"zip,omitempty"`
}

// Empty reports whether nothing usable survived normalization.
func (a NormalizedAddress) Empty() bool {
	return a.Query == ""
}
