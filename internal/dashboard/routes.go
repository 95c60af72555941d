package dashboard

import "github.com/go-chi/chi/v5"

func (s *Server) setupRoutes(r chi.Router) {
	r.Get("/", s.HandlePage)
	r.Get("/panel", s.HandlePanel)
	r.Post("/upload", s.HandleUpload)
	r.Post("/reset", s.HandleReset)

	r.Get("/api/view", s.HandleAPIView)
	r.Get("/api/chart.json", s.HandleChartSpec)
	r.Get("/chart.png", s.HandleChartImage)
	r.Get("/chart.svg", s.HandleChartImage)
	r.Get("/healthz", s.HandleHealth)
}
