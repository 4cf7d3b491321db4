package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emrgen/legaldoc/internal/model"
	"github.com/emrgen/legaldoc/internal/service"
)

// Handler is the thin HTTP layer over the lifecycle and query services. It
// holds no business logic.
type Handler struct {
	lifecycle *service.LifecycleService
	query     *service.QueryService
}

func NewHandler(lifecycle *service.LifecycleService, query *service.QueryService) *Handler {
	return &Handler{
		lifecycle: lifecycle,
		query:     query,
	}
}

// NewRouter wires the REST endpoints. Types and version ids live under
// separate prefixes so the two id spaces never collide.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/documents/{type}", func(r chi.Router) {
			r.Post("/", h.handleCreate)
			r.Get("/current", h.handleGetCurrent)
			r.Get("/history", h.handleGetHistory)
		})
		r.Route("/versions/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetVersion)
			r.Delete("/", h.handleSoftDelete)
			r.Get("/chain", h.handleGetChain)
			r.Post("/revise", h.handleRevise)
			r.Post("/activate", h.handleActivate)
		})
	})

	return r
}

type documentRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	EffectiveDate string `json:"effective_date"`
}

type documentResponse struct {
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	Version           int64     `json:"version"`
	EffectiveDate     string    `json:"effective_date"`
	Status            string    `json:"status"`
	PreviousVersionID *string   `json:"previous_version_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type historyResponse struct {
	Versions []*documentResponse `json:"versions"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	typ, ok := model.ParseDocumentType(chi.URLParam(r, "type"))
	if !ok {
		writeError(w, fmt.Errorf("%w: unknown document type %q", service.ErrValidation, chi.URLParam(r, "type")))
		return
	}

	req, effectiveDate, err := decodeDocumentRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.lifecycle.Create(r.Context(), typ, req.Title, req.Content, effectiveDate)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDocumentResponse(doc))
}

func (h *Handler) handleRevise(w http.ResponseWriter, r *http.Request) {
	req, effectiveDate, err := decodeDocumentRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.lifecycle.ReviseContent(r.Context(), chi.URLParam(r, "id"), req.Title, req.Content, effectiveDate)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDocumentResponse(doc))
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	doc, err := h.lifecycle.Activate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) handleSoftDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.lifecycle.SoftDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetCurrent(w http.ResponseWriter, r *http.Request) {
	typ, ok := model.ParseDocumentType(chi.URLParam(r, "type"))
	if !ok {
		writeError(w, fmt.Errorf("%w: unknown document type %q", service.ErrValidation, chi.URLParam(r, "type")))
		return
	}

	doc, err := h.query.GetCurrent(r.Context(), typ)
	if err != nil {
		writeError(w, err)
		return
	}
	if doc == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no version in effect"})
		return
	}

	writeJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	typ, ok := model.ParseDocumentType(chi.URLParam(r, "type"))
	if !ok {
		writeError(w, fmt.Errorf("%w: unknown document type %q", service.ErrValidation, chi.URLParam(r, "type")))
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	includeRemoved := r.URL.Query().Get("include_removed") == "true"

	history, err := h.query.GetHistory(r.Context(), typ, includeRemoved, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	res := &historyResponse{
		Versions: make([]*documentResponse, 0, len(history.Versions)),
		Total:    history.Total,
		Page:     history.Page,
		PageSize: history.PageSize,
	}
	for _, doc := range history.Versions {
		res.Versions = append(res.Versions, toDocumentResponse(doc))
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	doc, err := h.query.GetVersion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) handleGetChain(w http.ResponseWriter, r *http.Request) {
	chain, err := h.query.GetChain(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	res := make([]*documentResponse, 0, len(chain))
	for _, doc := range chain {
		res = append(res, toDocumentResponse(doc))
	}

	writeJSON(w, http.StatusOK, res)
}

func decodeDocumentRequest(r *http.Request) (*documentRequest, time.Time, error) {
	req := &documentRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: malformed request body", service.ErrValidation)
	}

	effectiveDate, err := parseDate(req.EffectiveDate)
	if err != nil {
		return nil, time.Time{}, err
	}

	return req, effectiveDate, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: effective_date must be YYYY-MM-DD or RFC 3339, got %q", service.ErrValidation, s)
}

func toDocumentResponse(doc *model.DocumentVersion) *documentResponse {
	return &documentResponse{
		ID:                doc.ID,
		Type:              string(doc.Type),
		Title:             doc.Title,
		Content:           doc.Content,
		Version:           doc.Version,
		EffectiveDate:     doc.EffectiveDate.Format("2006-01-02"),
		Status:            string(doc.Status),
		PreviousVersionID: doc.PreviousVersionID,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates the service error taxonomy to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbiddenTransition):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
