package handler

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finance-service/internal/models"
	"github.com/Dan9191/finance-service/internal/service"
)

// Pinger reports whether the entity store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the HTTP API on top of the services.
type Handler struct {
	auth         *service.AuthService
	categories   *service.CategoryService
	transactions *service.TransactionService
	store        Pinger
	logger       *logrus.Logger
}

// NewHandler initializes a new handler
func NewHandler(
	auth *service.AuthService,
	categories *service.CategoryService,
	transactions *service.TransactionService,
	store Pinger,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		auth:         auth,
		categories:   categories,
		transactions: transactions,
		store:        store,
		logger:       logger,
	}
}

// Health reports liveness and whether the store answers a ping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warnf("Health check: store unreachable: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterInput
	if !h.decode(w, r, &in) {
		return
	}
	user, err := h.auth.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginInput
	if !h.decode(w, r, &in) {
		return
	}
	result, err := h.auth.Login(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Me returns the authenticated user
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	user, err := h.auth.Me(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteMe removes the authenticated user together with their data
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.auth.DeleteAccount(r.Context(), userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
