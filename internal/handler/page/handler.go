package page

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/midas-viewer/internal/modal"
	"github.com/zhouzirui/midas-viewer/internal/render"
	"github.com/zhouzirui/midas-viewer/internal/service/store"
	"github.com/zhouzirui/midas-viewer/pkg/utils"
)

// Handler serves the viewer page.
type Handler struct {
	store    *store.Store
	renderer *render.Renderer
	page     *render.Page
	livePath string
	logger   zerolog.Logger
}

// New creates the page handler.
func New(st *store.Store, renderer *render.Renderer, page *render.Page, livePath string, logger zerolog.Logger) *Handler {
	return &Handler{
		store:    st,
		renderer: renderer,
		page:     page,
		livePath: livePath,
		logger:   logger,
	}
}

// RegisterRoutes mounts the page route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
}

// handleIndex renders the page. ?open=N pre-opens the modal so the page
// works without the live socket.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	state := h.store.Snapshot()
	data := render.PageData{
		View:     h.renderer.Render(state),
		LivePath: h.livePath,
	}

	if raw := r.URL.Query().Get("open"); raw != "" {
		if index, err := strconv.Atoi(raw); err == nil {
			ctrl := modal.NewController(h.renderer)
			if ctrl.Open(index, state.Conversations) {
				view, _ := ctrl.Current()
				data.Modal = &view
			}
		}
	}

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		h.logger.Error().Err(err).Msg("render page")
		utils.RespondError(w, http.StatusInternalServerError, "render failed")
		return
	}
	utils.RespondHTML(w, http.StatusOK, buf.Bytes())
}
