package repository

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"venuematch/internal/model"
)

const venuesTable = "venues"

var venueColumns = []string{
	"id", "kind", "name", "station", "exit_quadrant",
	"food_types", "dishes", "tastes", "moods", "ambiences", "ingredients",
	"drink_types", "drink_rounds", "menu_types",
	"price_lunch", "price_dinner", "image_url",
	"created_at", "updated_at",
}

// exclusionSQL matches a term against the name and every free-text token column
const exclusionSQL = `NOT (name ILIKE ? OR EXISTS (
	SELECT 1 FROM unnest(COALESCE(dishes, '{}') || COALESCE(ingredients, '{}') || COALESCE(tastes, '{}') || COALESCE(food_types, '{}')) AS elem
	WHERE elem ILIKE ?))`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// predicateWhere renders a predicate as a squirrel condition
func predicateWhere(p model.Predicate) sq.And {
	where := sq.And{}

	if p.Kind != "" {
		where = append(where, sq.Eq{"kind": p.Kind})
	}
	if p.Station != "" {
		where = append(where, sq.Eq{"station": p.Station})
	}
	if len(p.Quadrants) > 0 {
		where = append(where, sq.Eq{"exit_quadrant": p.Quadrants})
	}

	for _, tag := range p.Tags {
		if len(tag.Tokens) == 0 {
			continue
		}
		col := tag.Facet.Column()
		tokens := pq.Array(tag.Tokens)
		switch {
		case tag.Negated:
			where = append(where, sq.Expr("NOT (COALESCE("+col+", '{}') && ?::text[])", tokens))
		case tag.RequireAll:
			where = append(where, allOfWhere(col, tag.Operands())...)
		default:
			where = append(where, sq.Expr(col+" && ?::text[]", tokens))
		}
	}

	if p.Price != nil && len(p.Price.Bands) > 0 {
		where = append(where, sq.Eq{p.Price.Meal.Column(): p.Price.Bands})
	}

	for _, term := range p.Exclusions {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		pattern := "%" + likeEscaper.Replace(term) + "%"
		where = append(where, sq.Expr(exclusionSQL, pattern, pattern))
	}

	if len(p.ExcludeIDs) > 0 {
		where = append(where, sq.NotEq{"id": p.ExcludeIDs})
	}

	return where
}

// allOfWhere folds single-token operands into one containment check and
// gives every expanded operand its own overlap check
func allOfWhere(col string, operands [][]string) []sq.Sqlizer {
	var singles []string
	var exprs []sq.Sqlizer
	for _, operand := range operands {
		if len(operand) == 1 {
			singles = append(singles, operand[0])
			continue
		}
		exprs = append(exprs, sq.Expr(col+" && ?::text[]", pq.Array(operand)))
	}
	if len(singles) > 0 {
		exprs = append([]sq.Sqlizer{sq.Expr(col+" @> ?::text[]", pq.Array(singles))}, exprs...)
	}
	return exprs
}

// dishPredicate matches restaurants at a station that serve a dish token
func dishPredicate(station, dish string) model.Predicate {
	return model.Predicate{
		Kind:    model.KindRestaurant,
		Station: station,
		Tags:    []model.TagFilter{{Facet: model.FacetDish, Tokens: []string{dish}}},
	}
}

// themeCafePredicate matches cafes at a station carrying any of the menu types
func themeCafePredicate(station string, menuTypes []string) model.Predicate {
	return model.Predicate{
		Kind:    model.KindCafe,
		Station: station,
		Tags:    []model.TagFilter{{Facet: model.FacetMenuType, Tokens: menuTypes}},
	}
}

// lookupQuery builds the catalog lookup for a predicate
func lookupQuery(stbl sq.StatementBuilderType, p model.Predicate) sq.SelectBuilder {
	sb := stbl.Select(venueColumns...).From(venuesTable)
	if where := predicateWhere(p); len(where) > 0 {
		sb = sb.Where(where)
	}
	return sb.OrderBy("id")
}
