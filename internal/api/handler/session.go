package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BlueStarAcademy/sudampvp/internal/api/middleware"
	"github.com/BlueStarAcademy/sudampvp/internal/api/request"
	"github.com/BlueStarAcademy/sudampvp/internal/api/response"
	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/realtime"
	"github.com/BlueStarAcademy/sudampvp/internal/services/gameclock"
	"github.com/BlueStarAcademy/sudampvp/internal/services/session"
)

// SessionHandler handles session endpoints and streams
type SessionHandler struct {
	controller *session.Controller
	clocks     *gameclock.Service
	hubManager *realtime.HubManager
	logger     *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(controller *session.Controller, clocks *gameclock.Service, hubManager *realtime.HubManager, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		controller: controller,
		clocks:     clocks,
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "session_handler")),
	}
}

// Create handles POST /api/v1/sessions, starting a game against the AI
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	var req request.CreateSessionRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	mode, err := model.ParseMode(req.Mode)
	if err != nil {
		WriteError(w, err)
		return
	}

	sess, err := h.controller.CreateAIGame(r.Context(), mode, playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	color := sess.ColorOf(playerID)
	response.Created(w, "/api/v1/sessions/"+string(sess.ID), response.SessionFromModel(sess.ViewFor(color), color))
}

// Get handles GET /api/v1/sessions/{id}. Hidden stones are masked for
// everyone but their owner.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	sess, err := h.controller.GetSession(r.Context(), sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	h.writeView(w, sess, playerID)
}

// Clock handles GET /api/v1/sessions/{id}/clock
func (h *SessionHandler) Clock(w http.ResponseWriter, r *http.Request) {
	clk, err := h.clocks.Snapshot(r.Context(), sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ClockFromModel(clk))
}

// Action handles POST /api/v1/sessions/{id}/{action}. The body carries the
// action's arguments in the same shape as a WebSocket command.
func (h *SessionHandler) Action(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	var cmd realtime.Command
	if err := decodeBody(w, r, &cmd, true); err != nil {
		WriteError(w, err)
		return
	}
	cmd.Type = mux.Vars(r)["action"]

	sess, err := h.dispatch(r.Context(), sessionID(r), playerID, cmd)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.writeView(w, sess, playerID)
}

// Command executes a WebSocket command
func (h *SessionHandler) Command(ctx context.Context, id model.SessionID, playerID model.PlayerID, cmd realtime.Command) error {
	_, err := h.dispatch(ctx, id, playerID, cmd)
	return err
}

func (h *SessionHandler) dispatch(ctx context.Context, id model.SessionID, playerID model.PlayerID, cmd realtime.Command) (*model.Session, error) {
	c := h.controller
	switch cmd.Type {
	case "move":
		return c.ApplyMove(ctx, id, playerID, cmd.Point)
	case "pass":
		return c.Pass(ctx, id, playerID)
	case "resign":
		return c.Resign(ctx, id, playerID)
	case "ready":
		return c.SetReady(ctx, id, playerID)
	case "bid":
		return c.SubmitBid(ctx, id, playerID, cmd.Amount)
	case "color":
		color, err := model.ParseColor(cmd.Color)
		if err != nil {
			return nil, model.Invalid(err)
		}
		return c.SubmitColorPick(ctx, id, playerID, color)
	case "placement":
		return c.SubmitBasePlacement(ctx, id, playerID, cmd.Points)
	case "hidden":
		return c.PlaceHidden(ctx, id, playerID, cmd.Point)
	case "slide":
		return c.Slide(ctx, id, playerID, cmd.Point, cmd.Direction)
	case "scan":
		return c.Scan(ctx, id, playerID, cmd.Point)
	case "roll":
		return c.RollDice(ctx, id, playerID)
	case "toss":
		return c.Toss(ctx, id, playerID, cmd.Column, cmd.Power)
	default:
		return nil, NewInvalidRequestError("unknown action: " + cmd.Type)
	}
}

// Events handles GET /api/v1/sessions/{id}/events as a server-sent event stream
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	id := sessionID(r)

	if _, err := h.controller.GetSession(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	hub := h.hubManager.GetOrCreateHub(realtime.SessionTopic(id))
	realtime.ServeSSE(w, r, hub, playerID)
}

// PlayerEvents handles GET /api/v1/events, the stream of events addressed
// to the caller such as match announcements
func (h *SessionHandler) PlayerEvents(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	hub := h.hubManager.GetOrCreateHub(realtime.PlayerTopic(playerID))
	realtime.ServeSSE(w, r, hub, playerID)
}

// Socket handles GET /api/v1/sessions/{id}/ws. Participants are marked
// connected for the lifetime of the socket.
func (h *SessionHandler) Socket(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	id := sessionID(r)

	sess, err := h.controller.GetSession(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	if sess.ColorOf(playerID).IsPlayer() && !sess.IsTerminal() {
		ctx := context.WithoutCancel(r.Context())
		if _, err := h.controller.Reconnect(ctx, id, playerID); err != nil {
			h.logWarn("reconnect failed", id, playerID, err)
		}
		defer func() {
			if _, err := h.controller.Disconnect(ctx, id, playerID); err != nil && !errors.Is(err, model.ErrSessionFinished) {
				h.logWarn("disconnect failed", id, playerID, err)
			}
		}()
	}

	hub := h.hubManager.GetOrCreateHub(realtime.SessionTopic(id))
	realtime.ServeWS(w, r, hub, id, playerID, h.Command, h.logger)
}

func (h *SessionHandler) writeView(w http.ResponseWriter, sess *model.Session, playerID model.PlayerID) {
	color := sess.ColorOf(playerID)
	response.JSON(w, http.StatusOK, response.SessionFromModel(sess.ViewFor(color), color))
}

func (h *SessionHandler) logWarn(msg string, id model.SessionID, playerID model.PlayerID, err error) {
	h.logger.Warn(msg,
		slog.String("session_id", string(id)),
		slog.String("player_id", string(playerID)),
		slog.String("error", err.Error()))
}

func sessionID(r *http.Request) model.SessionID {
	return model.SessionID(mux.Vars(r)["id"])
}
