package utils

import (
	"strings"

	"venuematch/internal/model"
)

// aliases maps user-facing words (Korean chat buttons and English spellings)
// to the canonical tokens stored in the catalog's token columns
var aliases = map[string]string{
	// food types
	"한식":  "korean",
	"일식":  "japanese",
	"중식":  "chinese",
	"양식":  "western",
	"아시안": "asian",
	"퓨전":  "fusion",
	"분식":  "snack",

	// tastes
	"헤비한": "heavy",
	"가벼운": "light",
	"매운":  "spicy",
	"고기":  "meat",
	"해산물": "seafood",
	"국물":  "soup",
	"면":   "noodle",

	// moods
	"일상적인": "casual",
	"데이트":  "date",
	"모임":   "gathering",
	"회식":   "company_dinner",
	"혼밥":   "solo",

	// cafe ambience
	"수다":  "chat",
	"노트북": "laptop",
	"포장만": "takeout_only",

	// cafe menu types
	"커피":   "coffee",
	"디저트":  "dessert",
	"베이커리": "bakery",
	"차":    "tea",
	"테마":   "theme",

	// drinks
	"소주":     "soju",
	"맥주":     "beer",
	"생맥주":    "draft_beer",
	"병맥주":    "bottled_beer",
	"중식맥주":   "international_beer",
	"양주":     "liquor",
	"양주&칵테일": "liquor",
	"칵테일":    "cocktail",
	"와인":     "wine",
	"사케":     "sake",
	"전통주":    "traditional",
	"막걸리":    "traditional",

	// English spellings
	"liquor&cocktail": "liquor",
	"draft":           "draft_beer",
	"bottled":         "bottled_beer",
	"imported":        "international_beer",
}

// beerStyles is what the generic beer token expands to on later rounds
var beerStyles = []string{"draft_beer", "bottled_beer", "international_beer"}

// DrinkTokens is every drink type the catalog knows about
var DrinkTokens = []string{"beer", "draft_beer", "bottled_beer", "international_beer", "soju", "liquor", "cocktail", "wine", "sake", "traditional"}

// ExoticFoodTypes are excluded when a user asks for something "exotic"
var ExoticFoodTypes = []string{"korean", "japanese", "chinese", "western"}

// DefaultDrinkRounds applies to bar requests that carry no round hint
var DefaultDrinkRounds = []string{"2", "3", "4"}

// siblings gives the next-broadest token to backfill from when a token starves
var siblings = map[model.Facet]map[string]string{
	model.FacetDrinkType: {
		"draft_beer":         "bottled_beer",
		"bottled_beer":       "draft_beer",
		"international_beer": "bottled_beer",
		"sake":               "traditional",
		"traditional":        "sake",
		"wine":               "liquor",
		"liquor":             "wine",
		"cocktail":           "liquor",
		"soju":               "traditional",
	},
	model.FacetFoodType: {
		"japanese": "asian",
		"chinese":  "asian",
		"asian":    "fusion",
		"western":  "fusion",
	},
	model.FacetMenuType: {
		"dessert": "bakery",
		"bakery":  "dessert",
		"tea":     "coffee",
	},
}

// NormalizeToken lowercases, trims, and resolves aliases
func NormalizeToken(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := aliases[token]; ok {
		return canonical
	}
	return strings.ReplaceAll(token, " ", "_")
}

// ExpandToken applies synonym expansion for a canonical token.
// The generic beer token only fans out to its sub-styles once the session is
// past its first round; round <= 0 means the round is unknown.
func ExpandToken(facet model.Facet, token string, round int) []string {
	if facet == model.FacetDrinkType && token == "beer" && round != 1 {
		return append([]string(nil), beerStyles...)
	}
	return []string{token}
}

// SiblingToken returns the token to backfill from when a facet token starves
func SiblingToken(facet model.Facet, token string) (string, bool) {
	table, ok := siblings[facet]
	if !ok {
		return "", false
	}
	sibling, ok := table[token]
	return sibling, ok
}

// CollapseDrinkToken folds sub-styles back into the user-facing drink choices
func CollapseDrinkToken(token string) string {
	token = NormalizeToken(token)
	switch {
	case strings.HasSuffix(token, "beer"):
		return "beer"
	case token == "liquor" || token == "cocktail":
		return "liquor_cocktail"
	}
	return token
}

// ExclusionTerms returns the raw term plus its canonical alias when they differ,
// so free-text names and canonical token columns are both covered
func ExclusionTerms(raw string) []string {
	term := strings.ToLower(strings.TrimSpace(raw))
	if term == "" {
		return nil
	}
	terms := []string{term}
	if canonical := NormalizeToken(term); canonical != term {
		terms = append(terms, canonical)
	}
	return terms
}

// SplitList splits a comma separated value into trimmed, non-empty parts
func SplitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ','
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Dedupe removes repeated strings while keeping first-seen order
func Dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
