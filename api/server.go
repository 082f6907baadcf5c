/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the quote wizard

ROUTE GROUPS:
  /api/calculate          Stateless calculation
  /api/quotes/*           Stored quotes
  /api/organizations/*    Per-organization rate overrides
  /api/calendar/*         Working-day tool
  /api/thresholds/*       Default thresholds
  /api/scenarios/*        Demo quotes

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. An empty
// origin list allows the local wizard dev servers.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/calculate", h.Calculate)

		// Quote routes
		r.Route("/quotes", func(r chi.Router) {
			r.Get("/", h.ListQuotes)
			r.Post("/", h.CreateQuote)
			r.Get("/{id}", h.GetQuote)
			r.Put("/{id}", h.UpdateQuote)
			r.Delete("/{id}", h.DeleteQuote)
			r.Post("/{id}/calculate", h.CalculateQuote)
			r.Get("/{id}/export", h.ExportQuote)
		})

		// Organization rate routes
		r.Route("/organizations/{org}", func(r chi.Router) {
			r.Get("/rates", h.GetRates)
			r.Put("/rates", h.PutRates)
		})

		// Tool routes
		r.Post("/calendar/workdays", h.Workdays)
		r.Get("/thresholds/defaults", h.DefaultThresholds)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Premi Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Premi Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/quotes">/api/quotes</a> - List quotes</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List demo scenarios</li>
<li><a href="/api/thresholds/defaults?position=street&amp;mobile=M3&amp;fixed=F2&amp;cb=CB2">/api/thresholds/defaults</a> - Default thresholds</li>
</ul>
</body>
</html>`))
	})

	return r
}
