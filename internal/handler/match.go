package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"venuematch/internal/model"
	"venuematch/internal/service"
)

// MatchHandler handles match-related HTTP requests
type MatchHandler struct {
	matchService *service.MatchService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchService *service.MatchService) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
	}
}

// Match handles POST /api/v1/match
func (h *MatchHandler) Match(c *gin.Context) {
	var req model.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// The authenticated user header wins over a user id in the body
	if userID := c.GetHeader(UserIDHeader); userID != "" {
		req.Constraints[service.KeyUserID] = userID
	}

	result, err := h.matchService.Match(c.Request.Context(), req.Constraints)
	if err != nil {
		writeError(c, "Match", err)
		return
	}

	c.JSON(http.StatusOK, newMatchResponse(result))
}

// Plan handles POST /api/v1/match/plan and returns the relaxation ladder without querying
func (h *MatchHandler) Plan(c *gin.Context) {
	var req model.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	tiers, err := h.matchService.Plan(req.Constraints)
	if err != nil {
		writeError(c, "Plan", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tiers": tiers})
}

// GetVenue handles GET /api/v1/venues/:id
func (h *MatchHandler) GetVenue(c *gin.Context) {
	venueID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid venue ID"})
		return
	}

	venue, err := h.matchService.GetVenue(c.Request.Context(), venueID)
	if err != nil {
		writeError(c, "Get venue", err)
		return
	}

	c.JSON(http.StatusOK, venue)
}

// Similar handles GET /api/v1/venues/:id/similar
func (h *MatchHandler) Similar(c *gin.Context) {
	venueID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid venue ID"})
		return
	}
	count, _ := strconv.Atoi(c.DefaultQuery("count", "2"))

	result, err := h.matchService.Similar(c.Request.Context(), venueID, count)
	if err != nil {
		writeError(c, "Similar venues", err)
		return
	}

	c.JSON(http.StatusOK, model.SimilarResponse{
		SourceID: venueID,
		Outcome:  result.Outcome,
		TierUsed: result.TierUsed,
		Results:  service.Explain(result.Venues(), result.Satisfied),
	})
}

func newMatchResponse(result *service.MatchResult) model.MatchResponse {
	resp := model.MatchResponse{
		Outcome:    result.Outcome,
		TierUsed:   result.TierUsed,
		TierCount:  result.TierCount,
		Results:    []model.VenueResult{},
		BestEffort: result.BestEffort,
		Satisfied:  result.Satisfied,
		DecisionID: result.DecisionID,
		Took:       result.Took.Milliseconds(),
	}
	if result.Selection != nil {
		resp.Results = service.Explain(result.Selection.Venues, result.Selection.Constraints)
	}
	return resp
}
