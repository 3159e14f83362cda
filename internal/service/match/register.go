package match

import (
	"github.com/go-chi/chi/v5"

	"github.com/arkx-app/odoo-matchmaker/internal/app"
)

// Registrar ties the match service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the match service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register mounts the match service routes on the router
func (reg *Registrar) Register(r chi.Router) {
	s := NewService(reg.appCtx)

	r.Post("/briefs", s.SubmitBrief)

	r.Route("/clients/{clientID}", func(r chi.Router) {
		r.Get("/matches", s.ListClientMatches)
		r.Get("/discover", s.Discover)
		r.Post("/swipes", s.ClientSwipe)
	})

	r.Route("/partners/{partnerID}", func(r chi.Router) {
		r.Get("/matches", s.ListPartnerMatches)
		r.Get("/requests", s.PendingRequests)
		r.Get("/requests/count", s.CountPendingRequests)
	})

	r.Route("/matches/{matchID}", func(r chi.Router) {
		r.Post("/respond", s.PartnerSwipe)
		r.Post("/convert", s.ConvertMatch)
		r.Patch("/", s.UpdateMatch)
	})
}
