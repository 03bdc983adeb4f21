package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/user/catalog-agent/internal/delivery/http/request"
	"github.com/user/catalog-agent/internal/delivery/http/response"
	"github.com/user/catalog-agent/internal/entity"
	"github.com/user/catalog-agent/internal/repository"
	"github.com/user/catalog-agent/internal/usecase"
)

type Handler struct {
	tasks     usecase.TaskManager
	sync      usecase.CatalogSync
	projector usecase.ExportProjector
}

func NewHandler(tasks usecase.TaskManager, sync usecase.CatalogSync, projector usecase.ExportProjector) *Handler {
	return &Handler{
		tasks:     tasks,
		sync:      sync,
		projector: projector,
	}
}

func (h *Handler) HandleSubmitDiscovery(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitDiscoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.CollectionLimit < 0 || req.ProductLimit < 0 {
		h.writeJSONError(w, "Limits must not be negative", http.StatusBadRequest)
		return
	}

	job := entity.DiscoveryJob{
		CollectionLimit: req.CollectionLimit,
		ProductLimit:    req.ProductLimit,
	}
	if err := h.tasks.SubmitDiscovery(r.Context(), job); err != nil {
		slog.Error("Failed to submit discovery job", "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusAccepted, response.SubmitExtractResponse{
		Status:  "success",
		Message: "Discovery job submitted",
	})
}

func (h *Handler) HandleSubmitExtract(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.All {
		queued, err := h.tasks.EnqueueAllProducts(r.Context())
		if err != nil {
			slog.Error("Failed to enqueue updatable products", "error", err)
			h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, http.StatusAccepted, response.SubmitExtractResponse{
			Status:  "success",
			Message: "Updatable products queued for extraction",
			Queued:  queued,
		})
		return
	}

	if _, err := url.ParseRequestURI(req.URL); err != nil {
		h.writeJSONError(w, "Invalid URL format", http.StatusBadRequest)
		return
	}

	submissionID, err := h.tasks.SubmitProduct(r.Context(), req.URL, req.Force)
	if err != nil {
		if errors.Is(err, usecase.ErrURLRecentlySubmitted) {
			h.writeJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		slog.Error("Failed to submit product URL", "url", req.URL, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusAccepted, response.SubmitExtractResponse{
		Status:       "success",
		Message:      "URL submitted for extraction",
		SubmissionID: submissionID,
	})
}

func (h *Handler) HandleGetExtractStatus(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.writeJSONError(w, "URL query parameter is required", http.StatusBadRequest)
		return
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		h.writeJSONError(w, "Invalid URL format in query parameter", http.StatusBadRequest)
		return
	}

	status, err := h.tasks.GetStatus(r.Context(), rawURL)
	if err != nil {
		slog.Error("Failed to get extraction status", "url", rawURL, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if status.CurrentStatus == entity.StatusNotFound {
		h.writeJSONError(w, "No extraction found for the given URL", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, response.ExtractStatusResponse{
		URL:           status.URL,
		CurrentStatus: status.CurrentStatus,
		LastUpdatedAt: status.LastUpdatedAt,
	})
}

func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	// The sync walks every product; it runs detached from the request so
	// the request context's cancellation does not abort it.
	go func() {
		if err := h.sync.SyncAll(context.Background()); err != nil {
			slog.Error("Catalog sync finished with errors", "error", err)
		}
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "success",
		"message": "Catalog sync started",
	})
}

func (h *Handler) HandleExportCollection(w http.ResponseWriter, r *http.Request) {
	collectionID, ok := h.collectionID(w, r)
	if !ok {
		return
	}

	path, err := h.projector.ExportCollection(r.Context(), collectionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.writeJSONError(w, "Collection not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to export collection", "collection_id", collectionID, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.ExportResponse{Status: "success", Path: path})
}

func (h *Handler) HandleDownloadCollectionCSV(w http.ResponseWriter, r *http.Request) {
	collectionID, ok := h.collectionID(w, r)
	if !ok {
		return
	}

	filename := fmt.Sprintf("collection_%d_wix_products.csv", collectionID)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))

	if err := h.projector.StreamCollection(r.Context(), collectionID, w); err != nil {
		// Headers are already out; all that is left is to log.
		slog.Error("Failed to stream collection CSV", "collection_id", collectionID, "error", err)
	}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) collectionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeJSONError(w, "Invalid collection id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
