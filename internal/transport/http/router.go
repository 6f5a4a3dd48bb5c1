package http

import (
	"net/http"
	"time"

	httpmw "github.com/realReloadTime/web-development/internal/transport/http/middleware"
	"github.com/realReloadTime/web-development/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(httpmw.LogMiddleware)

	// WS endpoint
	r.Get("/ws/chat/{id}", wsServer.HandleWS)

	// Everything below requires access_token and user_id
	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware)
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/chat", func(ch chi.Router) {
			ch.Post("/private/{user_id}", h.CreatePrivateChat)
			ch.Post("/group", h.CreateGroupChat)
			ch.Get("/rooms", h.ListMyRooms)
			ch.Get("/unread", h.GetUnreadCount)

			ch.Route("/rooms/{id}", func(rr chi.Router) {
				rr.Delete("/", h.DeleteRoom)
				rr.Get("/messages", h.ListMessages)
				rr.Get("/participants", h.ListParticipants)
				rr.Post("/participants/{user_id}", h.AddParticipant)
				rr.Delete("/participants/{user_id}", h.RemoveParticipant)
				rr.Get("/online", h.GetOnlineUsers)
			})
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
