package http

import (
	"net/http"
	"time"

	"github.com/stayhive/conversation-service/internal/security"
	httpmw "github.com/stayhive/conversation-service/internal/transport/http/middleware"
	"github.com/stayhive/conversation-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, verifier security.Verifier, adminToken string, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// WS handshake сам проверяет токен до upgrade
	r.Get("/ws", wsServer.HandleWS)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(verifier))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/conversations", func(cr chi.Router) {
			cr.Post("/", h.OpenConversation)
			cr.Get("/", h.ListConversations)

			cr.Route("/{id}", func(rr chi.Router) {
				rr.Get("/", h.GetConversation)
				rr.Get("/messages", h.GetHistory)
				rr.Post("/messages", h.SendMessage)
			})
		})
	})

	// внеполосный административный контур
	r.Group(func(ar chi.Router) {
		ar.Use(httpmw.AdminMiddleware(adminToken))
		ar.Post("/admin/summaries/recompute", h.RecomputeSummaries)
		ar.Delete("/admin/users/{user_id}/conversations", h.PurgeUserConversations)
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
