package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/domain"
)

// SelectionBackend is what the handlers need from the document store.
type SelectionBackend interface {
	GetSelection(ctx context.Context, userID string) (*domain.Selection, error)
	SaveSelection(ctx context.Context, userID string, items []domain.LineItem, labels []domain.Label) error
	Submit(ctx context.Context, userID string, items []domain.LineItem, labels []domain.Label) (*domain.Submission, error)
	History(ctx context.Context, userID string) ([]domain.Submission, error)
}

type SelectionHandler struct {
	backend SelectionBackend
	logger  *zap.Logger
	timeout time.Duration
}

func NewSelectionHandler(backend SelectionBackend, logger *zap.Logger, timeout time.Duration) *SelectionHandler {
	return &SelectionHandler{
		backend: backend,
		logger:  logger,
		timeout: timeout,
	}
}

// Routes mounts the selection API onto the router. Every route requires an
// authenticated caller; the auth middleware is applied by the server setup.
func (h *SelectionHandler) Routes(r chi.Router) {
	r.Get("/api/selection", h.GetSelection)
	r.Post("/api/selection", h.SaveSelection)
	r.Post("/api/selection/submit", h.Submit)
	r.Get("/api/selection/history", h.History)
}

type selectionDTO struct {
	Items  []domain.LineItem `json:"items"`
	Labels []domain.Label    `json:"labels"`
}

type selectionResponseDTO struct {
	Items     []domain.LineItem `json:"items"`
	Labels    []domain.Label    `json:"labels"`
	UpdatedAt *time.Time        `json:"updatedAt"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *SelectionHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "Not authenticated")
		return
	}

	sel, err := h.backend.GetSelection(ctx, user.ID)
	if err != nil {
		h.logger.Error("get selection failed", zap.String("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch selection")
		return
	}

	resp := selectionResponseDTO{
		Items:  sel.Items,
		Labels: sel.Labels,
	}
	if resp.Items == nil {
		resp.Items = []domain.LineItem{}
	}
	if resp.Labels == nil {
		resp.Labels = []domain.Label{}
	}
	if !sel.UpdatedAt.IsZero() {
		resp.UpdatedAt = &sel.UpdatedAt
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *SelectionHandler) SaveSelection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "Not authenticated")
		return
	}

	var req selectionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.backend.SaveSelection(ctx, user.ID, req.Items, req.Labels); err != nil {
		if errors.Is(err, domain.ErrInvalidItem) {
			respondError(w, http.StatusBadRequest, "validation_failure", err.Error())
			return
		}
		h.logger.Error("save selection failed", zap.String("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to save selection")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *SelectionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "Not authenticated")
		return
	}

	var req selectionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sub, err := h.backend.Submit(ctx, user.ID, req.Items, req.Labels)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidItem) {
			respondError(w, http.StatusBadRequest, "validation_failure", err.Error())
			return
		}
		h.logger.Error("submit selection failed", zap.String("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to submit selection")
		return
	}

	respondJSON(w, http.StatusCreated, sub)
}

func (h *SelectionHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "Not authenticated")
		return
	}

	subs, err := h.backend.History(ctx, user.ID)
	if err != nil {
		h.logger.Error("submission history failed", zap.String("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch history")
		return
	}
	if subs == nil {
		subs = []domain.Submission{}
	}

	respondJSON(w, http.StatusOK, map[string][]domain.Submission{"submissions": subs})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Too late to change the status; nothing useful to do.
		return
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
