package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venuematch/internal/model"
	"venuematch/internal/service"
)

// DecisionHandler handles decision follow-up requests
type DecisionHandler struct {
	matchService *service.MatchService
}

// NewDecisionHandler creates a new decision handler
func NewDecisionHandler(matchService *service.MatchService) *DecisionHandler {
	return &DecisionHandler{
		matchService: matchService,
	}
}

// SetWinner handles POST /api/v1/decisions/:id/winner
func (h *DecisionHandler) SetWinner(c *gin.Context) {
	var req model.WinnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.matchService.SetWinner(c.Request.Context(), c.Param("id"), req.VenueID); err != nil {
		writeError(c, "Set winner", err)
		return
	}

	c.JSON(http.StatusOK, model.WinnerResponse{
		Success: true,
		Message: "Winner recorded successfully",
	})
}

// StationHistory handles GET /api/v1/users/:user_id/stations
func (h *DecisionHandler) StationHistory(c *gin.Context) {
	userID := c.Param("user_id")

	visits, err := h.matchService.RecentStations(c.Request.Context(), userID)
	if err != nil {
		writeError(c, "Station history", err)
		return
	}

	c.JSON(http.StatusOK, model.StationHistoryResponse{
		UserID:   userID,
		Stations: visits,
	})
}
