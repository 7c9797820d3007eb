package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/grjus/youtube-news/internal/httpserver/deps"
	"github.com/grjus/youtube-news/internal/httpserver/handlers"
	"github.com/grjus/youtube-news/internal/httpserver/mw"
)

func init() {
	// The callback must stay reachable by the hub, so abuse control is a
	// rate limit rather than an allowlist.
	Register(registerWebhook, mw.RateLimit(mw.RateLimitConfig{
		Burst:             30,
		RefillPerIPPerMin: 60,
	}))
}

func registerWebhook(r chi.Router, d deps.Deps) {
	r.Get("/websub/callback", handlers.VerifySubscription(d))
	r.Post("/websub/callback", handlers.Notification(d))
}
