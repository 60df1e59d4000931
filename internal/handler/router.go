package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Dan9191/finance-service/internal/middleware"
)

// NewRouter wires every route. Everything except health, registration and
// login requires a bearer token.
func NewRouter(h *Handler, tokens middleware.TokenParser) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{
			StatusCode: http.StatusNotFound,
			Message:    "Cannot " + r.Method + " " + r.URL.Path,
			Error:      http.StatusText(http.StatusNotFound),
		})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
			StatusCode: http.StatusMethodNotAllowed,
			Message:    "method not allowed",
			Error:      http.StatusText(http.StatusMethodNotAllowed),
		})
	})

	// Public routes
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/users/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(tokens, h.logger))

	authRouter.HandleFunc("/users/me", h.Me).Methods(http.MethodGet)
	authRouter.HandleFunc("/users/me", h.DeleteMe).Methods(http.MethodDelete)

	authRouter.HandleFunc("/categories", h.CreateCategory).Methods(http.MethodPost)
	authRouter.HandleFunc("/categories", h.ListCategories).Methods(http.MethodGet)
	authRouter.HandleFunc("/categories/{id}", h.GetCategory).Methods(http.MethodGet)
	authRouter.HandleFunc("/categories/{id}", h.UpdateCategory).Methods(http.MethodPatch)
	authRouter.HandleFunc("/categories/{id}", h.DeleteCategory).Methods(http.MethodDelete)

	authRouter.HandleFunc("/transactions", h.CreateTransaction).Methods(http.MethodPost)
	authRouter.HandleFunc("/transactions", h.ListTransactions).Methods(http.MethodGet)
	authRouter.HandleFunc("/transactions/{id}", h.GetTransaction).Methods(http.MethodGet)
	authRouter.HandleFunc("/transactions/{id}", h.UpdateTransaction).Methods(http.MethodPatch)
	authRouter.HandleFunc("/transactions/{id}", h.DeleteTransaction).Methods(http.MethodDelete)

	return r
}
