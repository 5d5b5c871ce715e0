package router

import (
	"net/http"

	"mdviewer/config"
	docHandler "mdviewer/internal/document"
	"mdviewer/internal/document/service"
	"mdviewer/middleware"
	"mdviewer/socket"
)

func Setup(cfg *config.Config, docService *service.DocumentService, hub *socket.Hub) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.AuthMiddleware(cfg.Auth.JWTSecret)

	// WebSocket
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(hub, w, r, middleware.UserID(r))
	})
	mux.Handle("/ws", auth(wsHandler))

	// REST API
	docHandler := docHandler.NewDocumentHandler(docService)

	mux.Handle("/api/documents", auth(http.HandlerFunc(docHandler.GetDocuments)))
	mux.Handle("/api/documents/get", auth(http.HandlerFunc(docHandler.GetDocument)))
	mux.Handle("/api/documents/create", auth(http.HandlerFunc(docHandler.CreateDocument)))
	mux.Handle("/api/documents/update", auth(http.HandlerFunc(docHandler.UpdateDocument)))
	mux.Handle("/api/documents/delete", auth(http.HandlerFunc(docHandler.DeleteDocument)))
	mux.Handle("/api/documents/upload", auth(http.HandlerFunc(docHandler.UploadDocument)))
	mux.Handle("/api/documents/export", auth(http.HandlerFunc(docHandler.ExportDocument)))
	mux.Handle("/api/preview", auth(http.HandlerFunc(docHandler.Preview)))
	mux.Handle("/api/markdown/checkbox", auth(http.HandlerFunc(docHandler.ToggleCheckbox)))
	mux.Handle("/api/preferences", auth(http.HandlerFunc(docHandler.Preferences)))

	return middleware.CORSMiddleware(cfg.App.AllowedOrigin)(mux)
}
