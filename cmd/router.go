package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ClanPulse/api"
)

func SetupRouter(h *api.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", h.Health)
	r.Get("/clan", h.Clan)
	r.Get("/player/{tag}", h.Player)
	r.Get("/war", h.War)
	r.Get("/top-players", h.TopPlayers)
	r.Get("/activity-report", h.ActivityReport)
	r.Get("/raids", h.Raids)

	return r
}
