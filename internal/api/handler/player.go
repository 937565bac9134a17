package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/BlueStarAcademy/sudampvp/internal/api/middleware"
	"github.com/BlueStarAcademy/sudampvp/internal/api/request"
	"github.com/BlueStarAcademy/sudampvp/internal/api/response"
	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/services/auth"
	"github.com/BlueStarAcademy/sudampvp/internal/storage"
)

const maxHistory = 100

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	authService *auth.Service
	records     storage.Records
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(authService *auth.Service, records storage.Records) *PlayerHandler {
	return &PlayerHandler{
		authService: authService,
		records:     records,
	}
}

// CreateGuest handles POST /api/v1/players/guest
func (h *PlayerHandler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGuestRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	if req.DisplayName == "" {
		WriteError(w, NewInvalidRequestError("display_name is required"))
		return
	}

	session, err := h.authService.CreateGuest(r.Context(), req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponseFromSession(session))
}

// GetMe handles GET /api/v1/players/me. Players known only by their token
// get the default record.
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session == nil {
		WriteError(w, NewInvalidRequestError("no player in request"))
		return
	}

	player, err := h.records.GetPlayer(r.Context(), session.PlayerID)
	if errors.Is(err, model.ErrPlayerNotFound) {
		player = &model.Player{ID: session.PlayerID, DisplayName: session.DisplayName, Rating: model.DefaultRating}
	} else if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// History handles GET /api/v1/players/me/games
func (h *PlayerHandler) History(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			WriteError(w, NewInvalidRequestError("limit must be a positive number"))
			return
		}
		limit = min(n, maxHistory)
	}

	records, err := h.records.ListGameRecords(r.Context(), playerID, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	games := make([]response.GameRecord, len(records))
	for i, rec := range records {
		games[i] = response.GameRecordFromModel(rec)
	}
	response.JSON(w, http.StatusOK, games)
}
