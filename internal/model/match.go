package model

// MatchRequest represents a match request from the chat layer.
// Constraints carries the raw, loosely-typed slot values collected during the conversation.
type MatchRequest struct {
	Constraints map[string]string `json:"constraints" binding:"required"`
}

// MatchResponse represents the outcome of a match
type MatchResponse struct {
	Outcome    string        `json:"outcome"` // matched, relaxed, no_result
	TierUsed   int           `json:"tier_used"`
	TierCount  int           `json:"tier_count"`
	Results    []VenueResult `json:"results"`
	BestEffort []Venue       `json:"best_effort,omitempty"`
	Satisfied  any           `json:"satisfied_constraints"`
	DecisionID string        `json:"decision_id,omitempty"`
	Took       int64         `json:"took_ms"` // Response time in milliseconds
}

// SimilarResponse represents venues similar to a given one
type SimilarResponse struct {
	SourceID int64         `json:"source_id"`
	Outcome  string        `json:"outcome"`
	TierUsed int           `json:"tier_used"`
	Results  []VenueResult `json:"results"`
}

// StationsResponse lists station names
type StationsResponse struct {
	Stations []string `json:"stations"`
}

// StationCheckResponse reports whether a station exists in the catalog
type StationCheckResponse struct {
	Station string `json:"station"`
	Kind    string `json:"kind,omitempty"`
	Exists  bool   `json:"exists"`
}

// DrinkTypesResponse lists the drink types served around a station
type DrinkTypesResponse struct {
	Station    string   `json:"station"`
	DrinkTypes []string `json:"drink_types"`
}

// DishCheckResponse reports whether a dish is served at a station
type DishCheckResponse struct {
	Station string `json:"station"`
	Dish    string `json:"dish"`
	Exists  bool   `json:"exists"`
}

// ThemeCafesResponse lists the theme cafes around a station
type ThemeCafesResponse struct {
	Station string  `json:"station"`
	Cafes   []Venue `json:"cafes"`
}

// WinnerRequest records which selected venue the user finally chose
type WinnerRequest struct {
	VenueID int64 `json:"venue_id" binding:"required"`
}

// WinnerResponse represents the winner update response
type WinnerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// StationHistoryResponse lists a user's recent decision stations
type StationHistoryResponse struct {
	UserID   string         `json:"user_id"`
	Stations []StationVisit `json:"stations"`
}
