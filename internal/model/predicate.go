package model

import (
	"fmt"
	"sort"
	"strings"
)

// TagFilter constrains one facet by a token set.
// The default shape is any-of; RequireAll turns it into all-of and Negated into none-of.
type TagFilter struct {
	Facet      Facet    `json:"facet"`
	Tokens     []string `json:"tokens"`
	Negated    bool     `json:"negated,omitempty"`
	RequireAll bool     `json:"require_all,omitempty"`
	// Groups holds the synonym-expanded operands of an all-of filter.
	// Each operand is satisfied by any one of its tokens.
	Groups [][]string `json:"groups,omitempty"`
}

// Operands returns the all-of operands. Without Groups every token stands alone.
func (t TagFilter) Operands() [][]string {
	if len(t.Groups) > 0 {
		return t.Groups
	}
	out := make([][]string, 0, len(t.Tokens))
	for _, tok := range t.Tokens {
		out = append(out, []string{tok})
	}
	return out
}

// PriceFilter constrains one meal's price band to a set of bands
type PriceFilter struct {
	Meal  Meal  `json:"meal"`
	Bands []int `json:"bands"`
}

// Predicate is the declarative filter handed to the catalog.
// Zero-valued fields match anything; Exclusions and ExcludeIDs are always enforced.
type Predicate struct {
	Kind       string       `json:"kind,omitempty"`
	Station    string       `json:"station,omitempty"`
	Quadrants  []int        `json:"quadrants,omitempty"`
	Tags       []TagFilter  `json:"tags,omitempty"`
	Price      *PriceFilter `json:"price,omitempty"`
	Exclusions []string     `json:"exclusions,omitempty"`
	ExcludeIDs []int64      `json:"exclude_ids,omitempty"`
}

// Matches evaluates the predicate against a single venue
func (p Predicate) Matches(v *Venue) bool {
	if p.Kind != "" && v.Kind != p.Kind {
		return false
	}
	if p.Station != "" && v.Station != p.Station {
		return false
	}
	if len(p.Quadrants) > 0 && !containsInt(p.Quadrants, v.ExitQuadrant) {
		return false
	}
	for _, tag := range p.Tags {
		if !tag.Matches(v.Tokens(tag.Facet)) {
			return false
		}
	}
	if p.Price != nil && len(p.Price.Bands) > 0 {
		band := v.PriceBand(p.Price.Meal)
		if band == nil || !containsInt(p.Price.Bands, *band) {
			return false
		}
	}
	for _, id := range p.ExcludeIDs {
		if v.ID == id {
			return false
		}
	}
	return !MatchesExclusion(v, p.Exclusions)
}

// Matches evaluates the tag filter against a venue's tokens for the facet
func (t TagFilter) Matches(tokens []string) bool {
	have := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		have[normalizeToken(tok)] = true
	}

	if t.Negated {
		for _, want := range t.Tokens {
			if have[normalizeToken(want)] {
				return false
			}
		}
		return true
	}

	if t.RequireAll {
		operands := t.Operands()
		for _, operand := range operands {
			if !hasAny(have, operand) {
				return false
			}
		}
		return len(operands) > 0
	}

	return hasAny(have, t.Tokens)
}

func hasAny(have map[string]bool, wants []string) bool {
	for _, want := range wants {
		if have[normalizeToken(want)] {
			return true
		}
	}
	return false
}

// MatchesExclusion reports whether any exclusion term appears in the venue's
// name, dishes, ingredients, tastes, or food types (case-insensitive substring)
func MatchesExclusion(v *Venue, terms []string) bool {
	if len(terms) == 0 {
		return false
	}

	haystack := make([]string, 0, 1+len(v.Dishes)+len(v.Ingredients)+len(v.Tastes)+len(v.FoodTypes))
	haystack = append(haystack, strings.ToLower(v.Name))
	for _, group := range [][]string{v.Dishes, v.Ingredients, v.Tastes, v.FoodTypes} {
		for _, s := range group {
			haystack = append(haystack, strings.ToLower(s))
		}
	}

	for _, term := range terms {
		term = normalizeToken(term)
		if term == "" {
			continue
		}
		for _, s := range haystack {
			if strings.Contains(s, term) {
				return true
			}
		}
	}
	return false
}

// Clone returns a deep copy so relaxed tiers never alias each other's slices
func (p Predicate) Clone() Predicate {
	out := p
	out.Quadrants = append([]int(nil), p.Quadrants...)
	out.Exclusions = append([]string(nil), p.Exclusions...)
	out.ExcludeIDs = append([]int64(nil), p.ExcludeIDs...)
	if p.Tags != nil {
		out.Tags = make([]TagFilter, len(p.Tags))
		for i, t := range p.Tags {
			t.Tokens = append([]string(nil), t.Tokens...)
			if t.Groups != nil {
				groups := make([][]string, len(t.Groups))
				for j, g := range t.Groups {
					groups[j] = append([]string(nil), g...)
				}
				t.Groups = groups
			}
			out.Tags[i] = t
		}
	}
	if p.Price != nil {
		price := *p.Price
		price.Bands = append([]int(nil), p.Price.Bands...)
		out.Price = &price
	}
	return out
}

// Key renders a canonical string for equality checks between tiers
func (p Predicate) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "kind=%s;station=%s;quadrants=%v;", p.Kind, p.Station, sortedInts(p.Quadrants))
	for _, t := range p.Tags {
		toks := append([]string(nil), t.Tokens...)
		sort.Strings(toks)
		fmt.Fprintf(&b, "tag:%s:%v:neg=%t:all=%t", t.Facet, toks, t.Negated, t.RequireAll)
		if t.RequireAll {
			fmt.Fprintf(&b, ":ops=%v", sortedOperands(t.Operands()))
		}
		b.WriteString(";")
	}
	if p.Price != nil {
		fmt.Fprintf(&b, "price:%s:%v;", p.Price.Meal, sortedInts(p.Price.Bands))
	}
	excl := append([]string(nil), p.Exclusions...)
	sort.Strings(excl)
	ids := append([]int64(nil), p.ExcludeIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fmt.Fprintf(&b, "excl=%v;ids=%v", excl, ids)
	return b.String()
}

// Tag returns the filter for a facet, if present
func (p Predicate) Tag(f Facet) (TagFilter, bool) {
	for _, t := range p.Tags {
		if t.Facet == f {
			return t, true
		}
	}
	return TagFilter{}, false
}

func containsInt(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func sortedOperands(in [][]string) []string {
	out := make([]string, 0, len(in))
	for _, operand := range in {
		toks := append([]string(nil), operand...)
		sort.Strings(toks)
		out = append(out, strings.Join(toks, "|"))
	}
	sort.Strings(out)
	return out
}

func sortedInts(in []int) []int {
	out := append([]int(nil), in...)
	sort.Ints(out)
	return out
}
