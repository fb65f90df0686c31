package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/midas-viewer/internal/recorder"
	"github.com/zhouzirui/midas-viewer/internal/render"
	"github.com/zhouzirui/midas-viewer/internal/service/store"
	"github.com/zhouzirui/midas-viewer/pkg/utils"
)

const keepAliveInterval = 15 * time.Second

// Handler exposes the viewer state as JSON.
type Handler struct {
	store    *store.Store
	renderer *render.Renderer
	recorder recorder.Recorder
	logger   zerolog.Logger
}

// New creates the JSON API handler. A nil recorder serves empty history.
func New(st *store.Store, renderer *render.Renderer, rec recorder.Recorder, logger zerolog.Logger) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Handler{store: st, renderer: renderer, recorder: rec, logger: logger}
}

// RegisterRoutes mounts the API routes under r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversations", h.handleConversations)
	r.Get("/conversations/{index}", h.handleConversation)
	r.Get("/treasury", h.handleTreasury)
	r.Get("/treasury/history", h.handleTreasuryHistory)
	r.Get("/treasury/stream", h.handleTreasuryStream)
	r.Get("/state", h.handleState)
}

// handleConversations mirrors the upstream list with agents normalized.
func (h *Handler) handleConversations(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.Snapshot().Conversations)
}

// handleConversation returns the modal view of one conversation.
func (h *Handler) handleConversation(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	view, ok := h.renderer.Modal(h.store.Snapshot().Conversations, index)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "conversation not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, view)
}

func (h *Handler) handleTreasury(w http.ResponseWriter, r *http.Request) {
	state := h.store.Snapshot()
	if state.Treasury == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "treasury not loaded yet")
		return
	}
	utils.RespondJSON(w, http.StatusOK, state.Treasury)
}

func (h *Handler) handleTreasuryHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	entries, err := h.recorder.History(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("load treasury history")
		utils.RespondError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}

type stateResponse struct {
	State store.State `json:"state"`
	View  render.View `json:"view"`
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	state := h.store.Snapshot()
	utils.RespondJSON(w, http.StatusOK, stateResponse{State: state, View: h.renderer.Render(state)})
}

// handleTreasuryStream pushes the treasury widget view on every treasury
// update until the client goes away.
func (h *Handler) handleTreasuryStream(w http.ResponseWriter, r *http.Request) {
	stream, err := utils.NewSSEWriter(w)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	changes, cancel := h.store.Subscribe()
	defer cancel()

	if err := stream.Event("treasury", h.treasuryView()); err != nil {
		return
	}
	h.streamTreasury(r.Context(), stream, changes)
}

func (h *Handler) streamTreasury(ctx context.Context, stream *utils.SSEWriter, changes <-chan store.Change) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			if change.Slice != store.SliceTreasury {
				continue
			}
			if err := stream.Event("treasury", h.treasuryView()); err != nil {
				h.logger.Debug().Err(err).Msg("treasury stream closed")
				return
			}
		case <-ticker.C:
			if err := stream.Comment("keep-alive"); err != nil {
				return
			}
		}
	}
}

func (h *Handler) treasuryView() render.TreasuryView {
	state := h.store.Snapshot()
	latest, ok := state.Latest()
	return h.renderer.Treasury(state.Treasury, latest, ok)
}
