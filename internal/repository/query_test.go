package repository

import (
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuematch/internal/model"
)

func TestPredicateWhere(t *testing.T) {
	tests := []struct {
		name string
		p    model.Predicate
		sql  string
		args []interface{}
	}{
		{
			name: "location",
			p:    model.Predicate{Kind: model.KindBar, Station: "Hongdae", Quadrants: []int{1, 3}},
			sql:  "(kind = ? AND station = ? AND exit_quadrant IN (?,?))",
			args: []interface{}{"bar", "Hongdae", 1, 3},
		},
		{
			name: "any of",
			p: model.Predicate{Tags: []model.TagFilter{
				{Facet: model.FacetFoodType, Tokens: []string{"korean", "japanese"}},
			}},
			sql:  "(food_types && ?::text[])",
			args: []interface{}{pq.Array([]string{"korean", "japanese"})},
		},
		{
			name: "all of",
			p: model.Predicate{Tags: []model.TagFilter{
				{Facet: model.FacetMenuType, Tokens: []string{"coffee", "dessert"}, RequireAll: true},
			}},
			sql:  "(menu_types @> ?::text[])",
			args: []interface{}{pq.Array([]string{"coffee", "dessert"})},
		},
		{
			name: "all of with expanded operands",
			p: model.Predicate{Tags: []model.TagFilter{{
				Facet:      model.FacetDrinkType,
				Tokens:     []string{"draft_beer", "bottled_beer", "soju"},
				RequireAll: true,
				Groups:     [][]string{{"draft_beer", "bottled_beer"}, {"soju"}},
			}}},
			sql:  "(drink_types @> ?::text[] AND drink_types && ?::text[])",
			args: []interface{}{pq.Array([]string{"soju"}), pq.Array([]string{"draft_beer", "bottled_beer"})},
		},
		{
			name: "negated",
			p: model.Predicate{Tags: []model.TagFilter{
				{Facet: model.FacetTaste, Tokens: []string{"heavy"}, Negated: true},
			}},
			sql:  "(NOT (COALESCE(tastes, '{}') && ?::text[]))",
			args: []interface{}{pq.Array([]string{"heavy"})},
		},
		{
			name: "price and shown ids",
			p: model.Predicate{
				Price:      &model.PriceFilter{Meal: model.MealDinner, Bands: []int{2, 3}},
				ExcludeIDs: []int64{5, 9},
			},
			sql:  "(price_dinner IN (?,?) AND id NOT IN (?,?))",
			args: []interface{}{2, 3, int64(5), int64(9)},
		},
		{
			name: "empty tags are skipped",
			p: model.Predicate{Kind: model.KindCafe, Tags: []model.TagFilter{
				{Facet: model.FacetMood, Tokens: nil},
			}},
			sql:  "(kind = ?)",
			args: []interface{}{"cafe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := predicateWhere(tt.p).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestPredicateWhere_ExclusionsEscapeLikePatterns(t *testing.T) {
	p := model.Predicate{Exclusions: []string{"shell_fish", " ", "100%"}}

	sql, args, err := predicateWhere(p).ToSql()
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(sql, "name ILIKE ?"))
	assert.Equal(t, []interface{}{
		`%shell\_fish%`, `%shell\_fish%`,
		`%100\%%`, `%100\%%`,
	}, args)
}

func TestLookupQuery(t *testing.T) {
	stbl := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	columns := strings.Join(venueColumns, ", ")

	sql, args, err := lookupQuery(stbl, model.Predicate{}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT "+columns+" FROM venues ORDER BY id", sql)
	assert.Empty(t, args)

	sql, args, err = lookupQuery(stbl, model.Predicate{
		Kind: model.KindRestaurant,
		Tags: []model.TagFilter{{Facet: model.FacetFoodType, Tokens: []string{"korean"}}},
	}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT "+columns+" FROM venues WHERE (kind = $1 AND food_types && $2::text[]) ORDER BY id", sql)
	assert.Len(t, args, 2)
}

func TestUpsertConflictSQL(t *testing.T) {
	sql := upsertConflictSQL()

	assert.True(t, strings.HasPrefix(sql, "ON CONFLICT (id) DO UPDATE SET kind = EXCLUDED.kind, "))
	assert.NotContains(t, sql, "id = EXCLUDED.id")
	assert.True(t, strings.HasSuffix(sql, "image_url = EXCLUDED.image_url, updated_at = NOW()"))
}
