package models

import "time"

// State is everything one browser session knows: the latest criteria, the
// working set it produced and what the page should show.
type State struct {
	Seq       uint64          `json:"seq"`
	Criteria  *SearchCriteria `json:"criteria,omitempty"`
	Working   []Itinerary     `json:"working,omitempty"`
	Loading   bool            `json:"loading"`
	Error     string          `json:"error,omitempty"`
	NoResults bool            `json:"no_results"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type SearchMetadata struct {
	TotalResults int    `json:"total_results"`
	WorkingSet   int    `json:"working_set"`
	SortBy       string `json:"sort_by"`
	Nonstop      bool   `json:"nonstop"`
	Seq          uint64 `json:"seq"`
	SearchTimeMs int64  `json:"search_time_ms,omitempty"`
}

type SearchResponse struct {
	SearchCriteria *SearchCriteria `json:"search_criteria"`
	Metadata       SearchMetadata  `json:"metadata"`
	Flights        []Itinerary     `json:"flights"`
}

type SessionResponse struct {
	Seq       uint64 `json:"seq"`
	Loading   bool   `json:"loading"`
	Error     string `json:"error,omitempty"`
	NoResults bool   `json:"no_results"`
	Results   int    `json:"results"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
