package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuematch/internal/model"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func fixtureVenues() []model.Venue {
	return []model.Venue{
		{ID: 3, Kind: model.KindRestaurant, Name: "Mapo Galbi", Station: "Gangnam", ExitQuadrant: 2,
			FoodTypes: []string{"korean"}, Tastes: []string{"heavy"}, Ingredients: []string{"pork"}, PriceDinner: intPtr(3)},
		{ID: 1, Kind: model.KindRestaurant, Name: "Sushi Ro", Station: "Gangnam", ExitQuadrant: 1,
			FoodTypes: []string{"japanese"}, Dishes: []string{"sushi"}, PriceDinner: intPtr(4)},
		{ID: 2, Kind: model.KindBar, Name: "Hop House", Station: "Hongdae", ExitQuadrant: 3,
			DrinkTypes: []string{"draft_beer", "soju"}, DrinkRounds: []string{"2", "3"}},
		{ID: 4, Kind: model.KindBar, Name: "Cellar", Station: "Hongdae", ExitQuadrant: 1,
			DrinkTypes: []string{"wine"}, DrinkRounds: []string{"3"}},
		{ID: 5, Kind: model.KindCafe, Name: "Bean", Station: "Gangbyeon", ExitQuadrant: 4,
			MenuTypes: []string{"coffee", "dessert"}},
	}
}

func ids(venues []model.Venue) []int64 {
	out := make([]int64, 0, len(venues))
	for _, v := range venues {
		out = append(out, v.ID)
	}
	return out
}

func TestMemoryRepository_LookupCatalog(t *testing.T) {
	repo := NewMemoryRepository(fixtureVenues())
	ctx := context.Background()

	tests := []struct {
		name string
		p    model.Predicate
		want []int64
	}{
		{name: "everything, ordered by id", p: model.Predicate{}, want: []int64{1, 2, 3, 4, 5}},
		{name: "kind and station", p: model.Predicate{Kind: model.KindRestaurant, Station: "Gangnam"}, want: []int64{1, 3}},
		{name: "quadrants", p: model.Predicate{Station: "Gangnam", Quadrants: []int{2, 4}}, want: []int64{3}},
		{
			name: "any of",
			p:    model.Predicate{Tags: []model.TagFilter{{Facet: model.FacetDrinkType, Tokens: []string{"wine", "soju"}}}},
			want: []int64{2, 4},
		},
		{
			name: "all of",
			p:    model.Predicate{Tags: []model.TagFilter{{Facet: model.FacetMenuType, Tokens: []string{"coffee", "dessert"}, RequireAll: true}}},
			want: []int64{5},
		},
		{
			name: "all of with expanded operands",
			p: model.Predicate{Tags: []model.TagFilter{{
				Facet:      model.FacetDrinkType,
				Tokens:     []string{"draft_beer", "bottled_beer", "soju"},
				RequireAll: true,
				Groups:     [][]string{{"draft_beer", "bottled_beer"}, {"soju"}},
			}}},
			want: []int64{2},
		},
		{
			name: "negated keeps untagged rows",
			p: model.Predicate{Kind: model.KindRestaurant, Tags: []model.TagFilter{
				{Facet: model.FacetTaste, Tokens: []string{"heavy"}, Negated: true},
			}},
			want: []int64{1},
		},
		{
			name: "price band",
			p:    model.Predicate{Price: &model.PriceFilter{Meal: model.MealDinner, Bands: []int{3}}},
			want: []int64{3},
		},
		{
			name: "unpriced rows never match a band",
			p:    model.Predicate{Price: &model.PriceFilter{Meal: model.MealLunch, Bands: []int{1, 2, 3, 4, 5}}},
			want: []int64{},
		},
		{name: "exclusion on ingredient", p: model.Predicate{Kind: model.KindRestaurant, Exclusions: []string{"PORK"}}, want: []int64{1}},
		{name: "exclusion on name", p: model.Predicate{Kind: model.KindBar, Exclusions: []string{"hop"}}, want: []int64{4}},
		{name: "shown ids", p: model.Predicate{ExcludeIDs: []int64{1, 2, 3}}, want: []int64{4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := repo.LookupCatalog(ctx, tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(rows))
		})
	}
}

func TestMemoryRepository_LookupHonorsContext(t *testing.T) {
	repo := NewMemoryRepository(fixtureVenues())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.LookupCatalog(ctx, model.Predicate{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryRepository_Directory(t *testing.T) {
	repo := NewMemoryRepository(fixtureVenues())
	ctx := context.Background()

	v, err := repo.GetVenueByID(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "Cellar", v.Name)

	_, err = repo.GetVenueByID(ctx, 42)
	assert.ErrorIs(t, err, model.ErrNotFound)

	stations, err := repo.ListStations(ctx, "", "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gangbyeon", "Gangnam", "Hongdae"}, stations)

	stations, err = repo.ListStations(ctx, "", "Gang", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gangbyeon"}, stations)

	exists, err := repo.StationExists(ctx, model.KindBar, "Gangnam")
	require.NoError(t, err)
	assert.False(t, exists)

	drinkTypes, err := repo.StationDrinkTypes(ctx, "Hongdae", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"draft_beer", "soju", "wine"}, drinkTypes)

	drinkTypes, err = repo.StationDrinkTypes(ctx, "Hongdae", []int{1})
	require.NoError(t, err)
	assert.Equal(t, []string{"wine"}, drinkTypes)
}

func TestMemoryRepository_DishAndThemeCafes(t *testing.T) {
	repo := NewMemoryRepository(fixtureVenues())
	ctx := context.Background()

	hasDish, err := repo.StationHasDish(ctx, "Gangnam", "sushi")
	require.NoError(t, err)
	assert.True(t, hasDish)

	hasDish, err = repo.StationHasDish(ctx, "Hongdae", "sushi")
	require.NoError(t, err)
	assert.False(t, hasDish)

	cafes, err := repo.ThemeCafes(ctx, "Gangbyeon", []string{"dessert", "tea"})
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, ids(cafes))

	cafes, err = repo.ThemeCafes(ctx, "Gangbyeon", []string{"theme"})
	require.NoError(t, err)
	assert.Empty(t, cafes)
}

func TestMemoryRepository_Decisions(t *testing.T) {
	repo := NewMemoryRepository(nil)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	record := func(id, station string, at time.Time) {
		t.Helper()
		require.NoError(t, repo.RecordDecision(ctx, &model.Decision{
			ID:        id,
			UserID:    strPtr("u-1"),
			Kind:      model.KindRestaurant,
			Station:   strPtr(station),
			VenueIDs:  []int64{7, 8},
			CreatedAt: at,
		}))
	}
	record("d-1", "Gangnam", base)
	record("d-2", "Hongdae", base.Add(time.Hour))
	record("d-3", "Gangnam", base.Add(2*time.Hour))

	assert.Error(t, repo.RecordDecision(ctx, &model.Decision{ID: "d-1"}), "ids are unique")

	require.NoError(t, repo.SetWinner(ctx, "d-2", 8))
	d, ok := repo.Decision("d-2")
	require.True(t, ok)
	require.NotNil(t, d.WinnerID)
	assert.Equal(t, int64(8), *d.WinnerID)

	assert.ErrorIs(t, repo.SetWinner(ctx, "d-2", 99), model.ErrNotFound, "winner must be one of the selected venues")
	assert.ErrorIs(t, repo.SetWinner(ctx, "d-9", 7), model.ErrNotFound)

	visits, err := repo.RecentStations(ctx, "u-1", 5)
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, "Gangnam", visits[0].Station)
	assert.Equal(t, base.Add(2*time.Hour), visits[0].LastAt)
	assert.Equal(t, "Hongdae", visits[1].Station)

	visits, err = repo.RecentStations(ctx, "u-1", 1)
	require.NoError(t, err)
	assert.Len(t, visits, 1)

	visits, err = repo.RecentStations(ctx, "someone-else", 5)
	require.NoError(t, err)
	assert.Empty(t, visits)
}

func TestLoadVenuesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "venues.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": 1, "kind": "restaurant", "name": "Mapo Galbi", "station": "Gangnam", "exit_quadrant": 2,
		 "food_types": ["korean"], "price_dinner": 3},
		{"id": 2, "kind": "bar", "name": "Hop House", "station": "Hongdae", "exit_quadrant": 3,
		 "drink_types": ["draft_beer"]}
	]`), 0o600))

	venues, err := LoadVenuesFile(path)
	require.NoError(t, err)
	require.Len(t, venues, 2)
	assert.Equal(t, []string{"korean"}, []string(venues[0].FoodTypes))
	require.NotNil(t, venues[0].PriceDinner)
	assert.Equal(t, 3, *venues[0].PriceDinner)
	assert.Nil(t, venues[1].PriceDinner)

	_, err = LoadVenuesFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"not": "a list"}`), 0o600))
	_, err = LoadVenuesFile(path)
	assert.Error(t, err)
}
