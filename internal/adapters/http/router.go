package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			r.Post("/pools", handler.createPool)
			r.Get("/pools", handler.listPools)
			r.Get("/pools/{pool_id}", handler.getPool)
			r.Patch("/pools/{pool_id}/revenue-share", handler.updateRevenueShare)
			r.Get("/pools/{pool_id}/apy", handler.getApy)
			r.Post("/pools/{pool_id}/apy/refresh", handler.refreshApy)

			r.Post("/pools/{pool_id}/stake", handler.stake)
			r.Post("/pools/{pool_id}/unstake", handler.unstake)
			r.Post("/pools/{pool_id}/claim", handler.claimRewards)
			r.Get("/pools/{pool_id}/stakes", handler.listPoolStakes)
			r.Get("/pools/{pool_id}/stakes/{user_id}", handler.getStake)
			r.Get("/users/{user_id}/stakes", handler.listUserStakes)

			r.Post("/touchpoints", handler.recordTouchpoint)
			r.Post("/conversions", handler.processConversion)
			r.Get("/conversions/{conversion_id}/attribution", handler.getAttribution)
			r.Get("/influencers/{influencer_id}/attributions", handler.listInfluencerAttributions)

			r.Post("/distributions", handler.distribute)
			r.Get("/distributions/{distribution_id}", handler.getDistribution)
			r.Get("/pools/{pool_id}/distributions", handler.listDistributions)
		})
	})
	return r
}
