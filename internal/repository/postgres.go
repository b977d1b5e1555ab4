package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"venuematch/internal/model"
)

// PostgresRepository handles database operations
type PostgresRepository struct {
	db   *sqlx.DB
	stbl sq.StatementBuilderType
}

// NewPostgresRepository creates a new PostgreSQL repository. The initial ping
// is retried with exponential backoff for up to connectTimeout.
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int, connectTimeout time.Duration) (*PostgresRepository, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute) // Shorter lifetime to avoid stale connections
	db.SetConnMaxIdleTime(2 * time.Minute) // Close idle connections sooner

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = connectTimeout
	err = backoff.Retry(func() error {
		return db.PingContext(context.Background())
	}, policy)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgresRepositoryFromDB(db), nil
}

// NewPostgresRepositoryFromDB wraps an already-open connection
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db:   db,
		stbl: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// DB exposes the underlying connection for migrations
func (r *PostgresRepository) DB() *sql.DB {
	return r.db.DB
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// LookupCatalog returns every venue matching the predicate, ordered by id
func (r *PostgresRepository) LookupCatalog(ctx context.Context, p model.Predicate) ([]model.Venue, error) {
	query, args, err := lookupQuery(r.stbl, p).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog query: %w", err)
	}

	venues := []model.Venue{}
	if err := r.db.SelectContext(ctx, &venues, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	return venues, nil
}

// GetVenueByID retrieves a single venue by its ID
func (r *PostgresRepository) GetVenueByID(ctx context.Context, id int64) (*model.Venue, error) {
	query, args, err := r.stbl.Select(venueColumns...).From(venuesTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build venue query: %w", err)
	}

	var venue model.Venue
	if err := r.db.GetContext(ctx, &venue, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get venue: %w", err)
	}
	return &venue, nil
}

// ListStations lists distinct station names, optionally by kind and name prefix
func (r *PostgresRepository) ListStations(ctx context.Context, kind, prefix string, limit int) ([]string, error) {
	sb := r.stbl.Select("DISTINCT station").From(venuesTable)
	if kind != "" {
		sb = sb.Where(sq.Eq{"kind": kind})
	}
	if prefix != "" {
		sb = sb.Where(sq.Like{"station": likeEscaper.Replace(prefix) + "%"})
	}
	sb = sb.OrderBy("station")
	if limit > 0 {
		sb = sb.Limit(uint64(limit))
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build station query: %w", err)
	}

	stations := []string{}
	if err := r.db.SelectContext(ctx, &stations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	return stations, nil
}

// StationExists reports whether any venue (of the kind, when given) sits at the station
func (r *PostgresRepository) StationExists(ctx context.Context, kind, station string) (bool, error) {
	where := sq.And{sq.Eq{"station": station}}
	if kind != "" {
		where = append(where, sq.Eq{"kind": kind})
	}
	sub, args, err := r.stbl.Select("1").From(venuesTable).Where(where).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build station query: %w", err)
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS ("+sub+")", args...); err != nil {
		return false, fmt.Errorf("failed to check station: %w", err)
	}
	return exists, nil
}

// StationDrinkTypes lists the distinct drink tokens of bars around a station
func (r *PostgresRepository) StationDrinkTypes(ctx context.Context, station string, quadrants []int) ([]string, error) {
	where := sq.And{
		sq.Eq{"kind": model.KindBar},
		sq.Eq{"station": station},
	}
	if len(quadrants) > 0 {
		where = append(where, sq.Eq{"exit_quadrant": quadrants})
	}

	query, args, err := r.stbl.
		Select("DISTINCT unnest(drink_types) AS drink_type").
		From(venuesTable).
		Where(where).
		OrderBy("drink_type").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build drink type query: %w", err)
	}

	drinkTypes := []string{}
	if err := r.db.SelectContext(ctx, &drinkTypes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list drink types: %w", err)
	}
	return drinkTypes, nil
}

// StationHasDish reports whether a restaurant at the station serves the dish
func (r *PostgresRepository) StationHasDish(ctx context.Context, station, dish string) (bool, error) {
	sub, args, err := r.stbl.Select("1").From(venuesTable).Where(predicateWhere(dishPredicate(station, dish))).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build dish query: %w", err)
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS ("+sub+")", args...); err != nil {
		return false, fmt.Errorf("failed to check dish: %w", err)
	}
	return exists, nil
}

// ThemeCafes lists the cafes at a station carrying any of the menu types
func (r *PostgresRepository) ThemeCafes(ctx context.Context, station string, menuTypes []string) ([]model.Venue, error) {
	return r.LookupCatalog(ctx, themeCafePredicate(station, menuTypes))
}

// RecordDecision stores a match outcome
func (r *PostgresRepository) RecordDecision(ctx context.Context, d *model.Decision) error {
	query, args, err := r.stbl.
		Insert("decisions").
		Columns("id", "user_id", "kind", "station", "tier_ordinal", "venue_ids", "constraints", "created_at").
		Values(d.ID, d.UserID, d.Kind, d.Station, d.TierOrdinal, d.VenueIDs, d.Constraints, d.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build decision insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// SetWinner marks the venue the user picked out of a decision's selection
func (r *PostgresRepository) SetWinner(ctx context.Context, decisionID string, venueID int64) error {
	query, args, err := r.stbl.
		Update("decisions").
		Set("winner_id", venueID).
		Where(sq.Eq{"id": decisionID}).
		Where(sq.Expr("? = ANY(venue_ids)", venueID)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build winner update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set winner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set winner: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// RecentStations returns a user's most recent distinct decision stations
func (r *PostgresRepository) RecentStations(ctx context.Context, userID string, limit int) ([]model.StationVisit, error) {
	sb := r.stbl.
		Select("station", "MAX(created_at) AS last_at").
		From("decisions").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.NotEq{"station": nil}).
		GroupBy("station").
		OrderBy("last_at DESC")
	if limit > 0 {
		sb = sb.Limit(uint64(limit))
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build history query: %w", err)
	}

	visits := []model.StationVisit{}
	if err := r.db.SelectContext(ctx, &visits, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load station history: %w", err)
	}
	return visits, nil
}

const upsertBatchSize = 500

var upsertColumns = []string{
	"id", "kind", "name", "station", "exit_quadrant",
	"food_types", "dishes", "tastes", "moods", "ambiences", "ingredients",
	"drink_types", "drink_rounds", "menu_types",
	"price_lunch", "price_dinner", "image_url",
}

func upsertConflictSQL() string {
	sets := make([]string, 0, len(upsertColumns))
	for _, col := range upsertColumns[1:] {
		sets = append(sets, col+" = EXCLUDED."+col)
	}
	return "ON CONFLICT (id) DO UPDATE SET " + strings.Join(sets, ", ") + ", updated_at = NOW()"
}

// UpsertVenues inserts or replaces venues by id inside one transaction
func (r *PostgresRepository) UpsertVenues(ctx context.Context, venues []model.Venue) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	conflict := upsertConflictSQL()
	for start := 0; start < len(venues); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(venues))

		ib := r.stbl.Insert(venuesTable).Columns(upsertColumns...).Suffix(conflict)
		for _, v := range venues[start:end] {
			ib = ib.Values(
				v.ID, v.Kind, v.Name, v.Station, v.ExitQuadrant,
				tokenArray(v.FoodTypes), tokenArray(v.Dishes), tokenArray(v.Tastes),
				tokenArray(v.Moods), tokenArray(v.Ambiences), tokenArray(v.Ingredients),
				tokenArray(v.DrinkTypes), tokenArray(v.DrinkRounds), tokenArray(v.MenuTypes),
				v.PriceLunch, v.PriceDinner, v.ImageURL,
			)
		}

		query, args, err := ib.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build venue upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to upsert venues %d-%d: %w", start, end-1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit venues: %w", err)
	}
	return nil
}

// tokenArray keeps NOT NULL array columns from receiving NULL
func tokenArray(tokens pq.StringArray) pq.StringArray {
	if tokens == nil {
		return pq.StringArray{}
	}
	return tokens
}
