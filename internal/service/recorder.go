package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"venuematch/internal/metrics"
	"venuematch/internal/model"
)

// DecisionStore persists match outcomes and the history derived from them
type DecisionStore interface {
	RecordDecision(ctx context.Context, d *model.Decision) error
	SetWinner(ctx context.Context, decisionID string, venueID int64) error
	RecentStations(ctx context.Context, userID string, limit int) ([]model.StationVisit, error)
}

// Recorder hands accepted selections to the decision store in the background.
// A failed write is logged and never reaches the caller.
type Recorder struct {
	store   DecisionStore
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewRecorder creates a recorder; a nil store disables recording
func NewRecorder(store DecisionStore, timeout time.Duration, logger *zap.Logger) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{
		store:   store,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Decision shapes the persisted payload for a selection
func (r *Recorder) Decision(requested *ConstraintSet, sel *Selection) (*model.Decision, error) {
	constraints, err := json.Marshal(sel.Constraints)
	if err != nil {
		return nil, err
	}

	d := &model.Decision{
		ID:          uuid.NewString(),
		Kind:        requested.Kind,
		TierOrdinal: sel.TierOrdinal,
		VenueIDs:    make([]int64, 0, len(sel.Venues)),
		Constraints: model.JSONDocument(constraints),
		CreatedAt:   r.now().UTC(),
	}
	if requested.UserID != "" {
		userID := requested.UserID
		d.UserID = &userID
	}
	if requested.Location != nil {
		station := requested.Location.Station
		d.Station = &station
	}
	for _, v := range sel.Venues {
		d.VenueIDs = append(d.VenueIDs, v.ID)
	}
	return d, nil
}

// Record persists the selection asynchronously and returns the decision id
func (r *Recorder) Record(requested *ConstraintSet, sel *Selection) string {
	if r.store == nil || sel == nil {
		return ""
	}

	d, err := r.Decision(requested, sel)
	if err != nil {
		metrics.DecisionRecords.WithLabelValues("error").Inc()
		r.logger.Error("failed to encode decision", zap.Error(err))
		return ""
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.store.RecordDecision(ctx, d); err != nil {
			metrics.DecisionRecords.WithLabelValues("error").Inc()
			r.logger.Error("failed to record decision",
				zap.String("decision_id", d.ID),
				zap.Int("tier", d.TierOrdinal),
				zap.Error(err),
			)
			return
		}
		metrics.DecisionRecords.WithLabelValues("ok").Inc()
	}()

	return d.ID
}

// Wait blocks until every in-flight record has finished
func (r *Recorder) Wait() {
	r.wg.Wait()
}
