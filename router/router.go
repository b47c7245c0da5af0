package router

import (
	"database/sql"
	"net/http"

	docHandler "coscribe/internal/document"
	"coscribe/internal/document/repository"
	"coscribe/internal/document/service"
	"coscribe/middleware"
	"coscribe/socket"

	"github.com/gorilla/mux"
)

func Setup(db *sql.DB, hub *socket.Hub) http.Handler {
	r := mux.NewRouter()

	// WebSocket
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		socket.ServeWs(hub, w, req, middleware.IdentityFrom(req))
	})
	r.Handle("/ws", middleware.AuthMiddleware(wsHandler))

	// REST API
	docRepo := repository.NewDocumentRepository(db)
	docService := service.NewDocumentService(docRepo, hub)
	handler := docHandler.NewDocumentHandler(docService)
	auth := middleware.AuthMiddleware

	api := r.PathPrefix("/api/documents").Subrouter()
	api.Handle("", auth(http.HandlerFunc(handler.CreateDocument))).Methods(http.MethodPost)
	api.Handle("", auth(http.HandlerFunc(handler.GetDocuments))).Methods(http.MethodGet)
	api.Handle("/share", auth(http.HandlerFunc(handler.ShareDocument))).Methods(http.MethodPost)

	// Static routes before the dynamic {id} ones.
	api.Handle("/pending-requests", auth(http.HandlerFunc(handler.PendingRequests))).Methods(http.MethodGet)

	api.Handle("/{id}/request-access", auth(http.HandlerFunc(handler.RequestAccess))).Methods(http.MethodPost)
	api.Handle("/{id}/access-decision", auth(http.HandlerFunc(handler.AccessDecision))).Methods(http.MethodPut)
	api.Handle("/{id}", auth(http.HandlerFunc(handler.GetDocument))).Methods(http.MethodGet)
	api.Handle("/{id}", auth(http.HandlerFunc(handler.UpdateDocument))).Methods(http.MethodPut)
	api.Handle("/{id}", auth(http.HandlerFunc(handler.DeleteDocument))).Methods(http.MethodDelete)

	return middleware.CORSMiddleware(r)
}
