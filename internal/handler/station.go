package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venuematch/internal/model"
	"venuematch/internal/service"
)

// StationHandler handles station directory requests
type StationHandler struct {
	matchService *service.MatchService
}

// NewStationHandler creates a new station handler
func NewStationHandler(matchService *service.MatchService) *StationHandler {
	return &StationHandler{
		matchService: matchService,
	}
}

// List handles GET /api/v1/stations?kind=&prefix=
func (h *StationHandler) List(c *gin.Context) {
	stations, err := h.matchService.Stations(c.Request.Context(), c.Query("kind"), c.Query("prefix"))
	if err != nil {
		writeError(c, "List stations", err)
		return
	}

	c.JSON(http.StatusOK, model.StationsResponse{Stations: stations})
}

// Verify handles GET /api/v1/stations/:station/exists?kind=
func (h *StationHandler) Verify(c *gin.Context) {
	station := c.Param("station")
	kind := c.Query("kind")

	exists, err := h.matchService.VerifyStation(c.Request.Context(), kind, station)
	if err != nil {
		writeError(c, "Verify station", err)
		return
	}

	c.JSON(http.StatusOK, model.StationCheckResponse{
		Station: station,
		Kind:    kind,
		Exists:  exists,
	})
}

// DrinkTypes handles GET /api/v1/stations/:station/drink-types?exit_quadrant=
func (h *StationHandler) DrinkTypes(c *gin.Context) {
	station := c.Param("station")

	drinkTypes, err := h.matchService.StationDrinkTypes(c.Request.Context(), station, c.Query("exit_quadrant"))
	if err != nil {
		writeError(c, "Drink types", err)
		return
	}

	c.JSON(http.StatusOK, model.DrinkTypesResponse{
		Station:    station,
		DrinkTypes: drinkTypes,
	})
}

// Dish handles GET /api/v1/stations/:station/dishes/:dish
func (h *StationHandler) Dish(c *gin.Context) {
	station := c.Param("station")
	dish := c.Param("dish")

	exists, err := h.matchService.StationHasDish(c.Request.Context(), station, dish)
	if err != nil {
		writeError(c, "Verify dish", err)
		return
	}

	c.JSON(http.StatusOK, model.DishCheckResponse{
		Station: station,
		Dish:    dish,
		Exists:  exists,
	})
}

// ThemeCafes handles GET /api/v1/stations/:station/theme-cafes?menu_types=
func (h *StationHandler) ThemeCafes(c *gin.Context) {
	station := c.Param("station")

	cafes, err := h.matchService.StationThemeCafes(c.Request.Context(), station, c.Query("menu_types"))
	if err != nil {
		writeError(c, "Theme cafes", err)
		return
	}

	c.JSON(http.StatusOK, model.ThemeCafesResponse{
		Station: station,
		Cafes:   cafes,
	})
}
