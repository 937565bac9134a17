package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BlueStarAcademy/sudampvp/internal/api/middleware"
	"github.com/BlueStarAcademy/sudampvp/internal/api/request"
	"github.com/BlueStarAcademy/sudampvp/internal/api/response"
	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/services/matchmaking"
)

// QueueHandler handles matchmaking and presence endpoints
type QueueHandler struct {
	queue *matchmaking.Queue
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(queue *matchmaking.Queue) *QueueHandler {
	return &QueueHandler{queue: queue}
}

// Enqueue handles POST /api/v1/queue
func (h *QueueHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	var req request.EnqueueRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	mode, err := model.ParseMode(req.Mode)
	if err != nil {
		WriteError(w, err)
		return
	}

	candidate, err := h.queue.Enqueue(r.Context(), playerID, mode)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusAccepted, response.CandidateFromModel(candidate))
}

// Dequeue handles DELETE /api/v1/queue/{mode}
func (h *QueueHandler) Dequeue(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	mode, err := model.ParseMode(mux.Vars(r)["mode"])
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.queue.Dequeue(r.Context(), playerID, mode); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// List handles GET /api/v1/queue/{mode}
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	mode, err := model.ParseMode(mux.Vars(r)["mode"])
	if err != nil {
		WriteError(w, err)
		return
	}

	candidates, err := h.queue.Candidates(r.Context(), mode)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := make([]response.Candidate, len(candidates))
	for i, c := range candidates {
		resp[i] = response.CandidateFromModel(c)
	}
	response.JSON(w, http.StatusOK, resp)
}

// SetPresence handles PUT /api/v1/presence
func (h *QueueHandler) SetPresence(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	var req request.PresenceRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	status, err := model.ParsePresence(req.Status)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.queue.SetPresence(r.Context(), playerID, status); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
