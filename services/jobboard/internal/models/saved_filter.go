package models

// SavedFilter is a named snapshot of FilterCriteria. Names may repeat.
type SavedFilter struct {
	Name    string         `json:"name"`
	Filters FilterCriteria `json:"filters"`
}
