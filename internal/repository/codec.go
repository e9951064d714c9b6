package repository

import (
	"encoding/json"
	"fmt"

	"github.com/UnknownOlympus/pinpoint/internal/models"
)

func encodeRecord(rec *models.GeocodeRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode geocode record: %w", err)
	}

	return data, nil
}

func decodeRecord(data []byte) (*models.GeocodeRecord, error) {
	var rec models.GeocodeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode geocode record: %w", err)
	}

	return &rec, nil
}
