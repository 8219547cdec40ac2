package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"postforge/internal/store"
	"postforge/pkg/api"

	"github.com/google/uuid"
)

// CreateTemplate handles POST /templates.
func (h *Handlers) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.ContentPrompt == "" {
		h.httpError(w, "Name and content prompt are required", http.StatusBadRequest)
		return
	}

	tmpl := templateFromRequest(&req)
	tmpl.ID = uuid.New()
	tmpl.CreatedAt = time.Now().UTC()

	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		h.httpError(w, "Internal database error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	if err := h.store.CreateTemplate(ctx, tx, tmpl); err != nil {
		h.httpError(w, "Failed to create template", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(); err != nil {
		h.httpError(w, "Failed to commit transaction", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.CreateTemplateResponse{TemplateID: tmpl.ID.String()})
}

// ListTemplates handles GET /templates.
func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.ListTemplates(r.Context())
	if err != nil {
		h.httpError(w, "Failed to list templates", http.StatusInternalServerError)
		return
	}

	out := make([]api.Template, 0, len(templates))
	for i := range templates {
		out = append(out, templateToAPI(&templates[i]))
	}
	h.respondJson(w, http.StatusOK, out)
}

// GetTemplate handles GET /templates/{id}.
func (h *Handlers) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid template id", http.StatusBadRequest)
		return
	}

	tmpl, err := h.store.GetTemplateByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Template not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to get template", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, templateToAPI(tmpl))
}

// UpdateTemplate handles PUT /templates/{id}.
func (h *Handlers) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid template id", http.StatusBadRequest)
		return
	}

	var req api.CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.ContentPrompt == "" {
		h.httpError(w, "Name and content prompt are required", http.StatusBadRequest)
		return
	}

	existing, err := h.store.GetTemplateByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Template not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to get template", http.StatusInternalServerError)
		return
	}

	tmpl := templateFromRequest(&req)
	tmpl.ID = existing.ID
	tmpl.CreatedAt = existing.CreatedAt

	if err := h.store.UpdateTemplate(ctx, tmpl); err != nil {
		h.httpError(w, "Failed to update template", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, templateToAPI(tmpl))
}

// DeleteTemplate handles DELETE /templates/{id}.
func (h *Handlers) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid template id", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteTemplate(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Template not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to delete template", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusNoContent, nil)
}

func templateFromRequest(req *api.CreateTemplateRequest) *store.Template {
	postStatus := req.PostStatus
	if postStatus == "" {
		postStatus = "draft"
	}
	imageSource := req.ImageSource
	if imageSource == "" {
		imageSource = "ai_prompt"
	}

	return &store.Template{
		Name:          req.Name,
		ContentPrompt: req.ContentPrompt,
		TitlePrompt:   req.TitlePrompt,
		ImagePrompt:   req.ImagePrompt,
		PostStatus:    postStatus,
		PostCategory:  req.PostCategory,
		PostAuthor:    req.PostAuthor,
		GenerateImage: req.GenerateImage,
		ImageSource:   imageSource,
		StockKeywords: req.StockKeywords,
		MediaIDs:      req.MediaIDs,
	}
}

func templateToAPI(t *store.Template) api.Template {
	return api.Template{
		ID:            t.ID.String(),
		Name:          t.Name,
		ContentPrompt: t.ContentPrompt,
		TitlePrompt:   t.TitlePrompt,
		ImagePrompt:   t.ImagePrompt,
		PostStatus:    t.PostStatus,
		PostCategory:  t.PostCategory,
		PostAuthor:    t.PostAuthor,
		GenerateImage: t.GenerateImage,
		ImageSource:   t.ImageSource,
		StockKeywords: t.StockKeywords,
		MediaIDs:      t.MediaIDs,
		CreatedAt:     t.CreatedAt,
	}
}
