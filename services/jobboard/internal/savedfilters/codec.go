package savedfilters

import (
	"encoding/json"
	"fmt"

	"campusjobs/services/jobboard/internal/models"
)

// StorageKey is the durable key holding the whole saved-filter list.
const StorageKey = "savedJobFilters"

// Encode serializes the list as a JSON array of {name, filters}.
func Encode(list []models.SavedFilter) ([]byte, error) {
	if list == nil {
		list = []models.SavedFilter{}
	}
	return json.Marshal(list)
}

// Decode parses a stored list. Anything other than a JSON array of objects is
// rejected so callers can fall back to an empty list.
func Decode(data []byte) ([]models.SavedFilter, error) {
	var list []models.SavedFilter
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decoding saved filters: %w", err)
	}
	if list == nil {
		return nil, fmt.Errorf("decoding saved filters: not a list")
	}
	return list, nil
}
