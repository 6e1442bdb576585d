package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.metrics.Middleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/grid", func(r chi.Router) {
			r.Get("/", s.handleGetGrid)
			r.Put("/dimensions", s.handleSetDimensions)
			r.Put("/layers/{z}/label", s.handleSetLayerLabel)
			r.Delete("/assignments", s.handleClearAllAssignments)

			r.Route("/positions/{x}/{y}/{z}", func(r chi.Router) {
				r.Put("/label", s.handleSetPositionLabel)
				r.Get("/assignments", s.handleListAssignments)
				r.Post("/assignments", s.handleAddAssignment)
				r.Delete("/assignments", s.handleClearAssignments)
				r.Delete("/assignments/{index}", s.handleRemoveAssignment)
			})

			r.Put("/user-position", s.handleSetUserPosition)
			r.Delete("/user-position", s.handleClearUserPosition)

			r.Post("/selection", s.handleSelect)
			r.Delete("/selection", s.handleClearSelection)
			r.Put("/selection/color", s.handleSetSelectionColor)
		})

		r.Get("/devices", s.handleListDevices)

		r.Route("/effect", func(r chi.Router) {
			r.Get("/", s.handleGetEffect)
			r.Post("/start", s.handleStartEffect)
			r.Post("/stop", s.handleStopEffect)
			r.Put("/settings", s.handleEffectSettings)

			if s.registry != nil {
				r.Route("/layers", func(r chi.Router) {
					r.Get("/", s.handleListLayers)
					r.Post("/", s.handleRegisterLayer)
					r.Put("/{id}/active", s.handleSetLayerActive)
					r.Delete("/{id}", s.handleRemoveLayer)
				})
			}
		})

		r.Route("/layouts", func(r chi.Router) {
			r.Get("/", s.handleListLayouts)
			r.Post("/", s.handleSaveLayout)
			r.Post("/{id}/load", s.handleLoadLayout)
			r.Delete("/{id}", s.handleDeleteLayout)
		})

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}
