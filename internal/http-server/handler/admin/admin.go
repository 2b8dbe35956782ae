package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"regenerate-thumbnails/internal/http-server/handler/admin/dto"
	"regenerate-thumbnails/internal/usecase/utility"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

type AdminHandler struct {
	lifecycle utilityLifecycle
	validate  *validator.Validate
	logger    *zlog.Zerolog
}

func NewAdminHandler(lifecycle utilityLifecycle, logger *zlog.Zerolog) *AdminHandler {
	return &AdminHandler{
		lifecycle: lifecycle,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Activate runs the regeneration synchronously; the response is sent once
// every attachment has been processed.
func (h *AdminHandler) Activate(w http.ResponseWriter, r *http.Request) {
	req := dto.ActivateRequest{ID: chi.URLParam(r, "id")}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Utility ID is required", nil)
		return
	}

	if req.ID != h.lifecycle.ID() {
		h.respondError(w, http.StatusNotFound, "Utility not found", fmt.Errorf("%w: %s", ErrUnknownUtility, req.ID))
		return
	}

	activation, err := h.lifecycle.Activate(r.Context())
	if err != nil {
		h.handleActivateError(w, err, req.ID)
		return
	}

	response := dto.ActivateResponse{
		Notice: dto.NoticeResponse{
			Level:     string(activation.Notice.Level),
			Body:      activation.Notice.Body,
			CreatedAt: activation.Notice.CreatedAt,
		},
	}
	if activation.Result != nil {
		response.RunID = activation.Result.ID
		response.Found = activation.Result.Found
		response.Created = activation.Result.Created
	}

	h.logger.Info().
		Str("utility", req.ID).
		Int("found", response.Found).
		Int("created", response.Created).
		Msg("Utility activation completed")

	h.respondJSON(w, http.StatusOK, response)
}

func (h *AdminHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	ids, err := h.lifecycle.ActiveUtilities(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list active utilities")
		h.respondError(w, http.StatusInternalServerError, "Failed to list utilities", err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.UtilitiesResponse{Active: ids})
}

// Notices writes the pending notice fragment verbatim. Rendering also
// deactivates the utility, so a second call returns an empty body.
func (h *AdminHandler) Notices(w http.ResponseWriter, r *http.Request) {
	body, err := h.lifecycle.RenderNotices(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to render notices")
		http.Error(w, "Failed to render notices", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write notices")
	}
}

func (h *AdminHandler) handleActivateError(w http.ResponseWriter, err error, id string) {
	h.logger.Error().Err(err).Str("utility", id).Msg("Activation failed")

	switch {
	case errors.Is(err, utility.ErrAlreadyRunning):
		h.respondError(w, http.StatusConflict, "Regeneration is already running", nil)
	default:
		h.respondError(w, http.StatusInternalServerError, "Failed to activate utility", err)
	}
}

func (h *AdminHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Interface("data", data).Msg("Failed to encode response")
	}
}

func (h *AdminHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil {
		response.Details = err.Error()
	}

	h.respondJSON(w, status, response)
}
