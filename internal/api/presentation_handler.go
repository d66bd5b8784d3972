package api

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/api/shared"
	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/platform/logger"
	"github.com/phrazzld/deckforge/internal/service"
)

// PresentationsPath is the mount point of the presentation routes.
const PresentationsPath = "/api/v1/presentations"

// PPTXContentType is the media type of generated documents.
const PPTXContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// PresentationHandler handles presentation-related HTTP requests.
type PresentationHandler struct {
	service service.PresentationService
	logger  *slog.Logger
}

// NewPresentationHandler creates a new PresentationHandler.
func NewPresentationHandler(svc service.PresentationService, logger *slog.Logger) (*PresentationHandler, error) {
	if svc == nil {
		return nil, errors.New("presentation service cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &PresentationHandler{
		service: svc,
		logger:  logger.With("component", "presentation_handler"),
	}, nil
}

// CreatePresentation handles POST /presentations. It returns 202 as soon as
// the record is saved and its generation job queued.
func (h *PresentationHandler) CreatePresentation(w http.ResponseWriter, r *http.Request) {
	var req CreatePresentationRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgInvalidBody, err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusUnprocessableEntity, SanitizeValidationError(err), err)
		return
	}

	p, err := h.service.CreatePresentation(r.Context(), service.CreateRequest{
		Topic:         req.Topic,
		Config:        req.patch(),
		CustomContent: req.CustomContent,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).InfoContext(r.Context(), "presentation generation queued",
		"presentation_id", p.ID)
	shared.RespondWithJSON(w, r, http.StatusAccepted, CreatePresentationResponse{
		Message:        "Presentation generation queued successfully.",
		PresentationID: p.ID,
		StatusURL:      absoluteURL(r, presentationPath(p.ID)),
	})
}

// GetPresentation handles GET /presentations/{id}.
func (h *PresentationHandler) GetPresentation(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	p, err := h.service.GetPresentation(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, toPresentationResponse(r, p))
}

// ConfigurePresentation handles POST /presentations/{id}/configure. Only the
// fields present in the body change, and only while the record is pending.
func (h *PresentationHandler) ConfigurePresentation(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	var req ConfigurePresentationRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgInvalidBody, err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusUnprocessableEntity, SanitizeValidationError(err), err)
		return
	}

	p, err := h.service.ConfigurePresentation(r.Context(), id, req.patch())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, toPresentationResponse(r, p))
}

// DownloadPresentation handles GET /presentations/{id}/download. The file is
// served as an attachment; range and conditional requests are honored.
func (h *PresentationHandler) DownloadPresentation(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	artifact, err := h.service.OpenArtifact(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	defer func() {
		if err := artifact.File.Close(); err != nil {
			logger.FromContextOrDefault(r.Context(), h.logger).WarnContext(r.Context(),
				"failed to close presentation file", "error", err, "presentation_id", id)
		}
	}()

	modTime := time.Time{}
	if info, err := artifact.File.Stat(); err == nil {
		modTime = info.ModTime()
	}

	w.Header().Set("Content-Type", PPTXContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": artifact.Name,
	}))
	http.ServeContent(w, r, artifact.Name, modTime, artifact.File)
}

func presentationPath(id uuid.UUID) string {
	return fmt.Sprintf("%s/%s", PresentationsPath, id)
}

func toPresentationResponse(r *http.Request, p *domain.Presentation) PresentationResponse {
	resp := PresentationResponse{
		ID:           p.ID,
		Topic:        p.Topic,
		Status:       p.Status,
		Config:       p.Config,
		Content:      p.Content,
		ErrorMessage: p.ErrorMessage,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.FilePath != "" {
		resp.FilePath = filepath.Base(p.FilePath)
	}
	if p.Status == domain.StatusCompleted {
		resp.DownloadURL = absoluteURL(r, presentationPath(p.ID)+"/download")
	}
	return resp
}
