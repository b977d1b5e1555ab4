package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Venue kinds stored in the catalog
const (
	KindRestaurant = "restaurant"
	KindCafe       = "cafe"
	KindBar        = "bar"
)

// Facet names a token-array column that category constraints match against
type Facet string

const (
	FacetFoodType   Facet = "food_type"
	FacetDish       Facet = "dish"
	FacetTaste      Facet = "taste"
	FacetMood       Facet = "mood"
	FacetAmbience   Facet = "ambience"
	FacetDrinkType  Facet = "drink_type"
	FacetDrinkRound Facet = "drink_round"
	FacetMenuType   Facet = "menu_type"
)

// Facets lists every facet in the order constraints are normalized and rendered
var Facets = []Facet{
	FacetFoodType,
	FacetDish,
	FacetTaste,
	FacetMood,
	FacetAmbience,
	FacetDrinkType,
	FacetDrinkRound,
	FacetMenuType,
}

// Column returns the catalog column backing the facet
func (f Facet) Column() string {
	switch f {
	case FacetFoodType:
		return "food_types"
	case FacetDish:
		return "dishes"
	case FacetTaste:
		return "tastes"
	case FacetMood:
		return "moods"
	case FacetAmbience:
		return "ambiences"
	case FacetDrinkType:
		return "drink_types"
	case FacetDrinkRound:
		return "drink_rounds"
	case FacetMenuType:
		return "menu_types"
	}
	return ""
}

// Meal selects which price column a price constraint applies to
type Meal string

const (
	MealLunch  Meal = "lunch"
	MealDinner Meal = "dinner"
)

// Column returns the catalog column holding the meal's price band
func (m Meal) Column() string {
	if m == MealDinner {
		return "price_dinner"
	}
	return "price_lunch"
}

// Venue is one catalog row: a restaurant, cafe, or bar near a subway exit
type Venue struct {
	ID           int64          `json:"id" db:"id"`
	Kind         string         `json:"kind" db:"kind"`
	Name         string         `json:"name" db:"name"`
	Station      string         `json:"station" db:"station"`
	ExitQuadrant int            `json:"exit_quadrant" db:"exit_quadrant"`
	FoodTypes    pq.StringArray `json:"food_types,omitempty" db:"food_types"`
	Dishes       pq.StringArray `json:"dishes,omitempty" db:"dishes"`
	Tastes       pq.StringArray `json:"tastes,omitempty" db:"tastes"`
	Moods        pq.StringArray `json:"moods,omitempty" db:"moods"`
	Ambiences    pq.StringArray `json:"ambiences,omitempty" db:"ambiences"`
	Ingredients  pq.StringArray `json:"ingredients,omitempty" db:"ingredients"`
	DrinkTypes   pq.StringArray `json:"drink_types,omitempty" db:"drink_types"`
	DrinkRounds  pq.StringArray `json:"drink_rounds,omitempty" db:"drink_rounds"`
	MenuTypes    pq.StringArray `json:"menu_types,omitempty" db:"menu_types"`
	PriceLunch   *int           `json:"price_lunch,omitempty" db:"price_lunch"`
	PriceDinner  *int           `json:"price_dinner,omitempty" db:"price_dinner"`
	ImageURL     *string        `json:"image_url,omitempty" db:"image_url"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// Tokens returns the venue's tokens for a facet
func (v *Venue) Tokens(f Facet) []string {
	switch f {
	case FacetFoodType:
		return v.FoodTypes
	case FacetDish:
		return v.Dishes
	case FacetTaste:
		return v.Tastes
	case FacetMood:
		return v.Moods
	case FacetAmbience:
		return v.Ambiences
	case FacetDrinkType:
		return v.DrinkTypes
	case FacetDrinkRound:
		return v.DrinkRounds
	case FacetMenuType:
		return v.MenuTypes
	}
	return nil
}

// PriceBand returns the venue's band for a meal, nil when unpriced
func (v *Venue) PriceBand(m Meal) *int {
	if m == MealDinner {
		return v.PriceDinner
	}
	return v.PriceLunch
}

// VenueResult is a selected venue plus the reasons it matched
type VenueResult struct {
	Venue
	MatchedReasons []string `json:"matched_reasons"`
}

// StationVisit is one entry of a user's recent decision stations
type StationVisit struct {
	Station string    `json:"station" db:"station"`
	LastAt  time.Time `json:"last_at" db:"last_at"`
}

// JSONDocument is a raw JSON column value
type JSONDocument json.RawMessage

// Value implements driver.Valuer interface
func (j JSONDocument) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner interface
func (j *JSONDocument) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = JSONDocument(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
	return nil
}

// MarshalJSON keeps the document inline when encoding responses
func (j JSONDocument) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

// UnmarshalJSON stores the raw document
func (j *JSONDocument) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}

// Decision is the persisted outcome of one match
type Decision struct {
	ID          string        `json:"id" db:"id"`
	UserID      *string       `json:"user_id,omitempty" db:"user_id"`
	Kind        string        `json:"kind" db:"kind"`
	Station     *string       `json:"station,omitempty" db:"station"`
	TierOrdinal int           `json:"tier_ordinal" db:"tier_ordinal"`
	VenueIDs    pq.Int64Array `json:"venue_ids" db:"venue_ids"`
	WinnerID    *int64        `json:"winner_id,omitempty" db:"winner_id"`
	Constraints JSONDocument  `json:"constraints" db:"constraints"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// normalizeToken lowercases and trims a token for comparison
func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
