package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Dosada05/tennis-tournament/models"
	"github.com/Dosada05/tennis-tournament/services"
	"github.com/go-chi/chi/v5"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// GetRulesHandler обрабатывает GET /matches/{matchID}/rules
func (h *MatchHandler) GetRulesHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	resolution, err := h.matchService.ResolveEffectiveRules(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rules": resolution}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StartHandler обрабатывает POST /matches/{matchID}/start
func (h *MatchHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.matchService.StartMatch)
}

// CancelHandler обрабатывает POST /matches/{matchID}/cancel
func (h *MatchHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.matchService.CancelMatch)
}

func (h *MatchHandler) changeStatus(w http.ResponseWriter, r *http.Request, change func(ctx context.Context, matchID int) (*models.Match, error)) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := change(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CompleteHandler обрабатывает POST /matches/{matchID}/complete
func (h *MatchHandler) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input models.MatchResult
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.WinnerEntityID <= 0 {
		badRequestResponse(w, r, errors.New("winner_entity_id is required"))
		return
	}

	match, err := h.matchService.CompleteMatch(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type setOverridesInput struct {
	Overrides models.Rules `json:"overrides"`
}

// SetOverridesHandler обрабатывает PUT /rules/{level}/{id}
func (h *MatchHandler) SetOverridesHandler(w http.ResponseWriter, r *http.Request) {
	level := models.RuleLevel(chi.URLParam(r, "level"))
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input setOverridesInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Overrides == nil {
		input.Overrides = models.Rules{}
	}

	if err := h.matchService.SetOverrides(r.Context(), level, id, input.Overrides); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
