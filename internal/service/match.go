package service

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"venuematch/internal/metrics"
	"venuematch/internal/model"
	"venuematch/internal/utils"
)

const (
	stationListLimit    = 20
	stationHistoryLimit = 5

	themeMenuType = "theme"
)

var (
	errNoDirectory = errors.New("venue directory not configured")
	errNoDecisions = errors.New("decision store not configured")
)

// VenueDirectory answers the lookups that sit next to matching
type VenueDirectory interface {
	GetVenueByID(ctx context.Context, id int64) (*model.Venue, error)
	ListStations(ctx context.Context, kind, prefix string, limit int) ([]string, error)
	StationExists(ctx context.Context, kind, station string) (bool, error)
	StationDrinkTypes(ctx context.Context, station string, quadrants []int) ([]string, error)
	StationHasDish(ctx context.Context, station, dish string) (bool, error)
	ThemeCafes(ctx context.Context, station string, menuTypes []string) ([]model.Venue, error)
}

// MatchOptions tunes the match engine
type MatchOptions struct {
	LookupTimeout time.Duration
	RecordTimeout time.Duration
	// Seed fixes the shuffle source for every request when non-zero
	Seed    int64
	Breaker BreakerSettings
}

// MatchResult is what a match returns to its caller.
// Selection is nil when no tier reached its target count.
type MatchResult struct {
	Selection  *Selection     `json:"selection"`
	TierUsed   int            `json:"tier_used"`
	TierCount  int            `json:"tier_count"`
	Satisfied  *ConstraintSet `json:"satisfied_constraints"`
	Outcome    string         `json:"outcome"`
	BestEffort []model.Venue  `json:"best_effort,omitempty"`
	DecisionID string         `json:"decision_id,omitempty"`
	Took       time.Duration  `json:"took"`
}

// Venues returns the selected venues, or the best-effort rows when nothing was selected
func (r *MatchResult) Venues() []model.Venue {
	if r.Selection != nil {
		return r.Selection.Venues
	}
	return r.BestEffort
}

// MatchService handles matching business logic
type MatchService struct {
	planner   *Planner
	selector  *Selector
	recorder  *Recorder
	directory VenueDirectory
	decisions DecisionStore
	seed      int64
	logger    *zap.Logger
}

// NewMatchService creates a new match service. directory and decisions may be nil
// when only Match is needed.
func NewMatchService(
	catalog Catalog,
	directory VenueDirectory,
	decisions DecisionStore,
	opts MatchOptions,
	logger *zap.Logger,
) *MatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	executor := NewExecutor(catalog, opts.LookupTimeout, opts.Breaker, logger)
	return &MatchService{
		planner:   NewPlanner(),
		selector:  NewSelector(executor, logger),
		recorder:  NewRecorder(decisions, opts.RecordTimeout, logger),
		directory: directory,
		decisions: decisions,
		seed:      opts.Seed,
		logger:    logger,
	}
}

// Match normalizes raw constraints, walks the relaxation ladder, and records
// an accepted selection
func (s *MatchService) Match(ctx context.Context, raw map[string]string) (*MatchResult, error) {
	cs, err := NormalizeConstraints(raw)
	if err != nil {
		metrics.MatchRequests.WithLabelValues("", "invalid").Inc()
		return nil, err
	}
	return s.run(ctx, cs, true)
}

// MatchConstraints runs an already-normalized constraint set without recording it
func (s *MatchService) MatchConstraints(ctx context.Context, cs *ConstraintSet) (*MatchResult, error) {
	return s.run(ctx, cs, false)
}

// Plan exposes the relaxation ladder for a raw request
func (s *MatchService) Plan(raw map[string]string) ([]FilterTier, error) {
	cs, err := NormalizeConstraints(raw)
	if err != nil {
		return nil, err
	}
	return s.planner.Plan(cs), nil
}

func (s *MatchService) run(ctx context.Context, cs *ConstraintSet, record bool) (*MatchResult, error) {
	startTime := time.Now()

	tiers := s.planner.Plan(cs)

	result, err := s.selector.Select(ctx, tiers, s.rng())
	if err != nil {
		metrics.MatchRequests.WithLabelValues(cs.Kind, "unavailable").Inc()
		return nil, err
	}

	result.Took = time.Since(startTime)
	metrics.MatchDuration.Observe(result.Took.Seconds())
	metrics.MatchRequests.WithLabelValues(cs.Kind, result.Outcome).Inc()
	if result.Selection != nil {
		metrics.MatchTierUsed.Observe(float64(result.TierUsed))
	}

	if record && result.Selection != nil {
		result.DecisionID = s.recorder.Record(cs, result.Selection)
	}

	s.logger.Info("match completed",
		zap.String("kind", cs.Kind),
		zap.String("outcome", result.Outcome),
		zap.Int("tier_used", result.TierUsed),
		zap.Int("tier_count", result.TierCount),
		zap.Int("venues", len(result.Venues())),
		zap.Duration("took", result.Took),
	)

	return result, nil
}

func (s *MatchService) rng() *rand.Rand {
	seed := s.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Similar finds venues like the given one: same kind and station, overlapping
// food types, same dinner price band
func (s *MatchService) Similar(ctx context.Context, venueID int64, count int) (*MatchResult, error) {
	if s.directory == nil {
		return nil, errNoDirectory
	}
	v, err := s.directory.GetVenueByID(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if count < 1 || count > maxTargetCount {
		count = defaultTargetCount
	}

	cs := &ConstraintSet{
		Kind:        v.Kind,
		Location:    &Location{Station: v.Station},
		ExcludeIDs:  []int64{v.ID},
		TargetCount: count,
	}
	if len(v.FoodTypes) > 0 {
		cs.Tags = append(cs.Tags, model.TagFilter{Facet: model.FacetFoodType, Tokens: utils.Dedupe(v.FoodTypes)})
	}
	if v.PriceDinner != nil {
		cs.Price = &model.PriceFilter{Meal: model.MealDinner, Bands: []int{*v.PriceDinner}}
	}

	return s.run(ctx, cs, false)
}

// GetVenue retrieves a single venue by ID
func (s *MatchService) GetVenue(ctx context.Context, venueID int64) (*model.Venue, error) {
	if s.directory == nil {
		return nil, errNoDirectory
	}
	return s.directory.GetVenueByID(ctx, venueID)
}

// Stations lists station names for a kind, optionally filtered by prefix
func (s *MatchService) Stations(ctx context.Context, kind, prefix string) ([]string, error) {
	if s.directory == nil {
		return nil, errNoDirectory
	}
	if kind != "" {
		var err error
		if kind, err = parseKind(kind); err != nil {
			return nil, err
		}
	}
	return s.directory.ListStations(ctx, kind, strings.TrimSpace(prefix), stationListLimit)
}

// VerifyStation reports whether any venue of the kind sits at the station
func (s *MatchService) VerifyStation(ctx context.Context, kind, station string) (bool, error) {
	if s.directory == nil {
		return false, errNoDirectory
	}
	station = strings.TrimSpace(station)
	if station == "" {
		return false, invalid(KeyStation, "required")
	}
	if kind != "" {
		var err error
		if kind, err = parseKind(kind); err != nil {
			return false, err
		}
	}
	return s.directory.StationExists(ctx, kind, station)
}

// StationDrinkTypes lists the user-facing drink choices served around a station.
// Beer sub-styles fold into beer.
func (s *MatchService) StationDrinkTypes(ctx context.Context, station, quadrants string) ([]string, error) {
	if s.directory == nil {
		return nil, errNoDirectory
	}
	station = strings.TrimSpace(station)
	if station == "" {
		return nil, invalid(KeyStation, "required")
	}
	quads, _, err := parseQuadrants(quadrants)
	if err != nil {
		return nil, err
	}

	tokens, err := s.directory.StationDrinkTypes(ctx, station, quads)
	if err != nil {
		return nil, err
	}

	collapsed := make([]string, 0, len(tokens))
	for _, t := range tokens {
		collapsed = append(collapsed, utils.CollapseDrinkToken(t))
	}
	collapsed = utils.Dedupe(collapsed)
	if collapsed == nil {
		return []string{}, nil
	}
	sort.Strings(collapsed)
	return collapsed, nil
}

// StationHasDish reports whether any restaurant at the station serves the dish
func (s *MatchService) StationHasDish(ctx context.Context, station, dish string) (bool, error) {
	if s.directory == nil {
		return false, errNoDirectory
	}
	station = strings.TrimSpace(station)
	if station == "" {
		return false, invalid(KeyStation, "required")
	}
	token := utils.NormalizeToken(dish)
	if token == "" {
		return false, invalid("dish", "required")
	}
	return s.directory.StationHasDish(ctx, station, token)
}

// StationThemeCafes lists the theme cafes at a station.
// A comma separated menuTypes list narrows the result to those menu types.
func (s *MatchService) StationThemeCafes(ctx context.Context, station, menuTypes string) ([]model.Venue, error) {
	if s.directory == nil {
		return nil, errNoDirectory
	}
	station = strings.TrimSpace(station)
	if station == "" {
		return nil, invalid(KeyStation, "required")
	}

	var tokens []string
	for _, part := range utils.SplitList(menuTypes) {
		if token := utils.NormalizeToken(part); token != "" {
			tokens = append(tokens, token)
		}
	}
	tokens = utils.Dedupe(tokens)
	if len(tokens) == 0 {
		tokens = []string{themeMenuType}
	}

	cafes, err := s.directory.ThemeCafes(ctx, station, tokens)
	if err != nil {
		return nil, err
	}
	if cafes == nil {
		cafes = []model.Venue{}
	}
	return cafes, nil
}

// SetWinner records which venue of a decision the user finally chose
func (s *MatchService) SetWinner(ctx context.Context, decisionID string, venueID int64) error {
	if s.decisions == nil {
		return errNoDecisions
	}
	decisionID = strings.TrimSpace(decisionID)
	if decisionID == "" {
		return invalid("decision_id", "required")
	}
	id, err := uuid.Parse(decisionID)
	if err != nil {
		return invalid("decision_id", "must be a UUID")
	}
	if venueID <= 0 {
		return invalid("venue_id", "must be positive")
	}
	return s.decisions.SetWinner(ctx, id.String(), venueID)
}

// RecentStations returns the user's most recent distinct decision stations
func (s *MatchService) RecentStations(ctx context.Context, userID string) ([]model.StationVisit, error) {
	if s.decisions == nil {
		return nil, errNoDecisions
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalid(KeyUserID, "required")
	}
	return s.decisions.RecentStations(ctx, userID, stationHistoryLimit)
}

// Close waits for in-flight decision records
func (s *MatchService) Close() {
	s.recorder.Wait()
}
