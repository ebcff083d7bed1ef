package api

import "net/http"

// RegisterRoutes вешает эндпоинты эпизодов на mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	wrap := Chain(Logging(h.logger), Recovery())

	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /api/v1/episodes", h.ListEpisodes},
		{"POST /api/v1/episodes", h.RequestEpisodes},
		{"GET /api/v1/episodes/{id}", h.GetEpisode},
		{"GET /api/v1/episodes/{id}/steps", h.ListEpisodeSteps},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, wrap(rt.handler))
	}
}
