package router

import (
	"net/http"

	"naskahweb/config"
	"naskahweb/internal/backend"
	"naskahweb/internal/collab"
	docHandler "naskahweb/internal/document"
	docService "naskahweb/internal/document/service"
	mentionHandler "naskahweb/internal/mention"
	mentionService "naskahweb/internal/mention/service"
	profileHandler "naskahweb/internal/profile"
	profileService "naskahweb/internal/profile/service"
	"naskahweb/middleware"
	"naskahweb/socket"

	"github.com/rs/cors"
)

func Setup(cfg config.Config, verifier *middleware.Verifier, client *backend.Client, profiles *profileService.ProfileService, hub *socket.Hub) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth
	page := middleware.RequireSignIn(cfg.SignInURL)

	// WebSocket
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := middleware.IdentityFrom(r.Context())
		socket.ServeWs(hub, w, r, identity)
	})
	mux.Handle("GET /ws", auth(wsHandler))

	// Pages
	documents := docHandler.NewDocumentHandler(
		docService.NewDocumentService(client, hub),
		docService.NewSessionService(client, hub),
		cfg.SignInURL,
	)
	mux.Handle("GET /documents", page(http.HandlerFunc(documents.ListDocuments)))
	mux.Handle("DELETE /documents/{id}", page(http.HandlerFunc(documents.DeleteDocument)))
	mux.Handle("GET /documents/{id}", page(http.HandlerFunc(documents.OpenDocument)))

	// REST API
	mux.Handle("POST /api/documents", auth(http.HandlerFunc(documents.CreateDocument)))
	mux.Handle("PATCH /api/documents/{id}/rename", auth(http.HandlerFunc(documents.RenameDocument)))
	mux.Handle("POST /api/documents/{id}/invite", auth(http.HandlerFunc(documents.InviteCollaborator)))
	mux.Handle("DELETE /api/documents/{id}/collaborators/{userId}", auth(http.HandlerFunc(documents.RemoveCollaborator)))
	mux.Handle("GET /api/users/search", auth(http.HandlerFunc(documents.SearchUsers)))

	users := profileHandler.NewProfileHandler(profiles)
	mux.Handle("POST /api/users/resolve", auth(http.HandlerFunc(users.ResolveUsers)))

	mentions := mentionHandler.NewMentionHandler(mentionService.NewRegistry(client, cfg.MentionDebounce, cfg.MentionLimit))
	mux.Handle("GET /api/mentions", auth(http.HandlerFunc(mentions.Suggest)))

	collabAuth := collab.NewAuthHandler(client)
	mux.Handle("POST /api/liveblocks-auth", auth(http.HandlerFunc(collabAuth.Authenticate)))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	var handler http.Handler = mux
	handler = middleware.Authenticate(verifier)(handler)
	handler = middleware.RequestLogger(handler)
	handler = middleware.Recovery(handler)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	return corsHandler.Handler(handler)
}
