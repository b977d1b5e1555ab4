package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"venuematch/internal/model"
)

// MemoryRepository is an in-process catalog and decision store.
// It evaluates predicates with the same semantics as the SQL rendering.
type MemoryRepository struct {
	mu        sync.RWMutex
	venues    []model.Venue
	decisions map[string]*model.Decision
}

// NewMemoryRepository creates a store holding the given venues
func NewMemoryRepository(venues []model.Venue) *MemoryRepository {
	r := &MemoryRepository{decisions: make(map[string]*model.Decision)}
	r.venues = append(r.venues, venues...)
	return r
}

// LoadVenuesFile reads a JSON array of venues
func LoadVenuesFile(path string) ([]model.Venue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var venues []model.Venue
	if err := json.Unmarshal(data, &venues); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	return venues, nil
}

// LookupCatalog returns every venue matching the predicate, ordered by id
func (r *MemoryRepository) LookupCatalog(ctx context.Context, p model.Predicate) ([]model.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Venue{}
	for i := range r.venues {
		if p.Matches(&r.venues[i]) {
			out = append(out, r.venues[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetVenueByID retrieves a single venue by its ID
func (r *MemoryRepository) GetVenueByID(ctx context.Context, id int64) (*model.Venue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.venues {
		if r.venues[i].ID == id {
			v := r.venues[i]
			return &v, nil
		}
	}
	return nil, model.ErrNotFound
}

// ListStations lists distinct station names, optionally by kind and name prefix
func (r *MemoryRepository) ListStations(ctx context.Context, kind, prefix string, limit int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]bool{}
	stations := []string{}
	for _, v := range r.venues {
		if kind != "" && v.Kind != kind {
			continue
		}
		if !strings.HasPrefix(v.Station, prefix) || seen[v.Station] {
			continue
		}
		seen[v.Station] = true
		stations = append(stations, v.Station)
	}
	sort.Strings(stations)
	if limit > 0 && len(stations) > limit {
		stations = stations[:limit]
	}
	return stations, nil
}

// StationExists reports whether any venue (of the kind, when given) sits at the station
func (r *MemoryRepository) StationExists(ctx context.Context, kind, station string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.venues {
		if v.Station == station && (kind == "" || v.Kind == kind) {
			return true, nil
		}
	}
	return false, nil
}

// StationDrinkTypes lists the distinct drink tokens of bars around a station
func (r *MemoryRepository) StationDrinkTypes(ctx context.Context, station string, quadrants []int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p := model.Predicate{Kind: model.KindBar, Station: station, Quadrants: quadrants}
	seen := map[string]bool{}
	drinkTypes := []string{}
	for i := range r.venues {
		if !p.Matches(&r.venues[i]) {
			continue
		}
		for _, t := range r.venues[i].DrinkTypes {
			if !seen[t] {
				seen[t] = true
				drinkTypes = append(drinkTypes, t)
			}
		}
	}
	sort.Strings(drinkTypes)
	return drinkTypes, nil
}

// StationHasDish reports whether a restaurant at the station serves the dish
func (r *MemoryRepository) StationHasDish(ctx context.Context, station, dish string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p := dishPredicate(station, dish)
	for i := range r.venues {
		if p.Matches(&r.venues[i]) {
			return true, nil
		}
	}
	return false, nil
}

// ThemeCafes lists the cafes at a station carrying any of the menu types
func (r *MemoryRepository) ThemeCafes(ctx context.Context, station string, menuTypes []string) ([]model.Venue, error) {
	return r.LookupCatalog(ctx, themeCafePredicate(station, menuTypes))
}

// RecordDecision stores a match outcome
func (r *MemoryRepository) RecordDecision(ctx context.Context, d *model.Decision) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.decisions[d.ID]; exists {
		return fmt.Errorf("decision %s already recorded", d.ID)
	}
	stored := *d
	stored.VenueIDs = append(stored.VenueIDs[:0:0], d.VenueIDs...)
	r.decisions[d.ID] = &stored
	return nil
}

// Decision returns a recorded decision
func (r *MemoryRepository) Decision(id string) (*model.Decision, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.decisions[id]
	if !ok {
		return nil, false
	}
	out := *d
	return &out, true
}

// SetWinner marks the venue the user picked out of a decision's selection
func (r *MemoryRepository) SetWinner(ctx context.Context, decisionID string, venueID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.decisions[decisionID]
	if !ok {
		return model.ErrNotFound
	}
	for _, id := range d.VenueIDs {
		if id == venueID {
			winner := venueID
			d.WinnerID = &winner
			return nil
		}
	}
	return model.ErrNotFound
}

// RecentStations returns a user's most recent distinct decision stations
func (r *MemoryRepository) RecentStations(ctx context.Context, userID string, limit int) ([]model.StationVisit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := map[string]time.Time{}
	for _, d := range r.decisions {
		if d.UserID == nil || *d.UserID != userID || d.Station == nil {
			continue
		}
		if at, ok := latest[*d.Station]; !ok || d.CreatedAt.After(at) {
			latest[*d.Station] = d.CreatedAt
		}
	}

	visits := make([]model.StationVisit, 0, len(latest))
	for station, at := range latest {
		visits = append(visits, model.StationVisit{Station: station, LastAt: at})
	}
	sort.Slice(visits, func(i, j int) bool {
		if visits[i].LastAt.Equal(visits[j].LastAt) {
			return visits[i].Station < visits[j].Station
		}
		return visits[i].LastAt.After(visits[j].LastAt)
	})
	if limit > 0 && len(visits) > limit {
		visits = visits[:limit]
	}
	return visits, nil
}
