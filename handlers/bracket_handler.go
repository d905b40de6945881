package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/tennis-tournament/brackets"
	"github.com/Dosada05/tennis-tournament/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bs services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bs}
}

// GetStructureHandler обрабатывает GET /brackets/structure?players=N
func (h *BracketHandler) GetStructureHandler(w http.ResponseWriter, r *http.Request) {
	playerCount, err := brackets.ParsePlayerCount(r.URL.Query().Get("players"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	structure, err := h.bracketService.GetBracketStructure(r.Context(), playerCount)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"structure": structure}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetSeedingHandler обрабатывает GET /brackets/seeding?players=N
func (h *BracketHandler) GetSeedingHandler(w http.ResponseWriter, r *http.Request) {
	playerCount, err := brackets.ParsePlayerCount(r.URL.Query().Get("players"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	seeding, err := h.bracketService.GetSeedingConfig(r.Context(), playerCount)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"seeding": seeding}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateDrawHandler обрабатывает POST /tournaments/{tournamentID}/draw
func (h *BracketHandler) GenerateDrawHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	draw, err := h.bracketService.GenerateDraw(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"draw": draw}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateGroupScheduleHandler обрабатывает POST /tournaments/{tournamentID}/group-schedule?legs=1|2
func (h *BracketHandler) GenerateGroupScheduleHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	legs := 1
	if raw := r.URL.Query().Get("legs"); raw != "" {
		legs, err = strconv.Atoi(raw)
		if err != nil {
			badRequestResponse(w, r, fmt.Errorf("invalid legs parameter: %q", raw))
			return
		}
	}

	schedule, err := h.bracketService.GenerateGroupSchedule(r.Context(), tournamentID, legs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"schedule": schedule}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
