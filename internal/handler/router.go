package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/midas-viewer/internal/handler/api"
	"github.com/zhouzirui/midas-viewer/internal/handler/live"
	"github.com/zhouzirui/midas-viewer/internal/handler/page"
	"github.com/zhouzirui/midas-viewer/internal/logging"
	middlewarePkg "github.com/zhouzirui/midas-viewer/internal/middleware"
	"github.com/zhouzirui/midas-viewer/internal/recorder"
	"github.com/zhouzirui/midas-viewer/internal/render"
	"github.com/zhouzirui/midas-viewer/internal/service/store"
	"github.com/zhouzirui/midas-viewer/pkg/utils"
)

// LivePath is where pages open their live session.
const LivePath = "/ws"

// Deps are the services the routes read from.
type Deps struct {
	Store    *store.Store
	Renderer *render.Renderer
	Page     *render.Page
	Recorder recorder.Recorder
	Logger   zerolog.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	pageHandler := page.New(deps.Store, deps.Renderer, deps.Page, LivePath, logging.Component(deps.Logger, "page"))
	apiHandler := api.New(deps.Store, deps.Renderer, deps.Recorder, logging.Component(deps.Logger, "api"))
	liveHandler := live.New(deps.Store, deps.Renderer, logging.Component(deps.Logger, "live"))

	pageHandler.RegisterRoutes(r)
	liveHandler.RegisterRoutes(r)

	r.Route("/api", func(sub chi.Router) {
		apiHandler.RegisterRoutes(sub)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		state := deps.Store.Snapshot()
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":               "ok",
			"version":              state.Version,
			"conversations_loaded": state.ConversationsLoaded,
			"treasury_loaded":      state.Treasury != nil,
			"sessions":             liveHandler.Sessions(),
			"time":                 time.Now().UTC().Format(time.RFC3339),
		})
	})

	return r
}
