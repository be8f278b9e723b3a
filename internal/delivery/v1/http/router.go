package http

import (
	_ "github.com/DRSN-tech/visual-search/docs" // описание API для swagger UI
	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(searchUC usecase.SearchUC, maxImageSize int64) {
	r.router.Use(middleware.RequestID)
	r.router.Use(requestLogger(r.logger))
	r.router.Use(middleware.Recoverer)

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	searchHandler := NewSearchHandler(searchUC, maxImageSize, r.logger)

	r.router.Post("/search", searchHandler.search)
	r.router.Get("/health", searchHandler.health)
	r.router.Get("/stats", searchHandler.stats)

	r.router.Route("/api/v1", func(v1 chi.Router) {
		registerSearchRoutes(v1, searchHandler)
	})
}

func registerSearchRoutes(router chi.Router, h *SearchHandler) {
	router.Post("/search", h.search)
	router.Route("/index", func(idx chi.Router) {
		idx.Post("/reload", h.reload)
	})
}
