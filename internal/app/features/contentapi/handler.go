// Package contentapi provides the HTTP endpoints for editable page content.
//
// Endpoints (mounted at /api/content):
//   - GET  /                    - List editable page ids
//   - GET  /{pageId}            - Read a page's content (stored or default)
//   - POST /{pageId}            - Replace a page's content (editors only)
//   - GET  /{pageId}/history    - List past revisions of a page (editors only)
//
// Every response carries a "success" flag. A read that fell back to default
// content because the store was unavailable answers 200 with success false.
package contentapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/system/auth"
	"github.com/dalemusser/stratacontent/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacontent/internal/app/system/normalize"
	"github.com/dalemusser/stratacontent/internal/app/system/pagecontent"
	"github.com/dalemusser/stratacontent/internal/domain/defaults"
	"github.com/dalemusser/stratacontent/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// MaxBodyBytes caps the size of a write request body.
const MaxBodyBytes = 1 << 20

// Response messages.
const (
	msgInvalidPageID  = "Invalid page ID"
	msgInvalidFormat  = "Invalid content format"
	msgContentMissing = "Content is required"
	msgTooLarge       = "Content too large"
	msgUnauthorized   = "Unauthorized"
	msgUpdateFailed   = "Failed to update content"
	msgHistoryFailed  = "Failed to load history"
	msgUpdated        = "Content updated successfully"
)

// Handler serves the content API.
type Handler struct {
	svc    *pagecontent.Service
	logger *zap.Logger
}

// NewHandler creates a new contentapi handler.
func NewHandler(svc *pagecontent.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type readResponse struct {
	Success       bool       `json:"success"`
	Content       any        `json:"content"`
	IsDefault     bool       `json:"isDefault"`
	LastUpdatedBy string     `json:"lastUpdatedBy,omitempty"`
	LastUpdatedAt *time.Time `json:"lastUpdatedAt,omitempty"`
	Version       int64      `json:"version,omitempty"`
}

type writeRequest struct {
	Content any `json:"content"`
}

type writeResponse struct {
	Success       bool      `json:"success"`
	Message       string    `json:"message"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	Version       int64     `json:"version"`
}

type historyResponse struct {
	Success   bool                     `json:"success"`
	Revisions []models.ContentRevision `json:"revisions"`
}

type listResponse struct {
	Success bool     `json:"success"`
	Pages   []string `json:"pages"`
}

// ListHandler handles GET /api/content.
//
// Response (200 OK):
//
//	{ "success": true, "pages": ["about", "faqs", ...] }
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, listResponse{Success: true, Pages: defaults.PageIDs()})
}

// GetHandler handles GET /api/content/{pageId}.
//
// Response (200 OK):
//
//	{
//	    "success": true,
//	    "content": { ... },
//	    "isDefault": false,
//	    "lastUpdatedBy": "editor@example.com",
//	    "lastUpdatedAt": "2026-01-26T...",
//	    "version": 3
//	}
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageId")

	res, err := h.svc.Get(r.Context(), pageID)
	if err != nil {
		jsonutil.Fail(w, http.StatusNotFound, msgInvalidPageID)
		return
	}

	// Editors echo this header back on POST when CSRF protection is on.
	if tok := csrf.Token(r); tok != "" {
		w.Header().Set("X-CSRF-Token", tok)
	}

	resp := readResponse{
		Success:   !res.Degraded,
		Content:   res.Content,
		IsDefault: res.IsDefault,
	}
	if !res.IsDefault {
		at := res.LastUpdatedAt
		resp.LastUpdatedBy = res.LastUpdatedBy
		resp.LastUpdatedAt = &at
		resp.Version = res.Version
	}
	jsonutil.OK(w, resp)
}

// UpdateHandler handles POST /api/content/{pageId}.
//
// Request body:
//
//	{ "content": { ... } }
//
// Response (200 OK):
//
//	{
//	    "success": true,
//	    "message": "Content updated successfully",
//	    "lastUpdatedBy": "editor@example.com",
//	    "lastUpdatedAt": "2026-01-26T...",
//	    "version": 4
//	}
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageId")
	if !defaults.IsValidPageID(pageID) {
		jsonutil.Fail(w, http.StatusNotFound, msgInvalidPageID)
		return
	}

	var in writeRequest
	if err := jsonutil.DecodeLimited(w, r, &in, MaxBodyBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonutil.Fail(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		h.logger.Debug("content write rejected: malformed body",
			zap.String("page_id", pageID),
			zap.Error(err))
		jsonutil.Fail(w, http.StatusBadRequest, msgInvalidFormat)
		return
	}

	res, err := h.svc.Update(r.Context(), pageID, in.Content, principal(r))
	if err != nil {
		h.writeError(w, pageID, err, msgUpdateFailed)
		return
	}

	jsonutil.OK(w, writeResponse{
		Success:       true,
		Message:       msgUpdated,
		LastUpdatedBy: res.LastUpdatedBy,
		LastUpdatedAt: res.LastUpdatedAt,
		Version:       res.Version,
	})
}

// HistoryHandler handles GET /api/content/{pageId}/history?limit=N.
//
// Response (200 OK):
//
//	{ "success": true, "revisions": [ { "pageId": "about", "version": 4, ... } ] }
func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageId")
	limit, _ := strconv.Atoi(normalize.QueryParam(r.URL.Query().Get("limit")))

	revs, err := h.svc.History(r.Context(), pageID, principal(r), limit)
	if err != nil {
		h.writeError(w, pageID, err, msgHistoryFailed)
		return
	}
	if revs == nil {
		revs = []models.ContentRevision{}
	}
	jsonutil.OK(w, historyResponse{Success: true, Revisions: revs})
}

// writeError maps service errors to responses. Anything unclassified is a
// 500 with internalMsg; details stay in the log.
func (h *Handler) writeError(w http.ResponseWriter, pageID string, err error, internalMsg string) {
	switch {
	case errors.Is(err, pagecontent.ErrInvalidPageID):
		jsonutil.Fail(w, http.StatusNotFound, msgInvalidPageID)
	case errors.Is(err, pagecontent.ErrInvalidContent):
		jsonutil.Fail(w, http.StatusBadRequest, msgContentMissing)
	case errors.Is(err, pagecontent.ErrUnauthorized):
		jsonutil.Fail(w, http.StatusUnauthorized, msgUnauthorized)
	default:
		h.logger.Error("content request failed",
			zap.String("page_id", pageID),
			zap.Error(err))
		jsonutil.Fail(w, http.StatusInternalServerError, internalMsg)
	}
}

// principal returns the caller resolved by the auth middleware, or nil.
func principal(r *http.Request) *pagecontent.Principal {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return nil
	}
	return &pagecontent.Principal{ID: u.ID, Email: u.Email, Name: u.Name}
}
