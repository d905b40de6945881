package handlers

import (
	"net/http"

	"github.com/Dosada05/tennis-tournament/services"
)

type RankingHandler struct {
	rankingService services.RankingService
}

func NewRankingHandler(rs services.RankingService) *RankingHandler {
	return &RankingHandler{rankingService: rs}
}

// LeaderboardHandler обрабатывает GET /categories/{categoryID}/leaderboard
func (h *RankingHandler) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, err := getIDFromURL(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rows, err := h.rankingService.Leaderboard(r.Context(), categoryID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecalculateHandler обрабатывает POST /categories/{categoryID}/rankings/recalculate
func (h *RankingHandler) RecalculateHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, err := getIDFromURL(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ranked, err := h.rankingService.RecalculateCategory(r.Context(), categoryID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rankings": ranked}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
