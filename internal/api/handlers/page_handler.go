package handlers

import (
	"net/http"
	"strconv"

	"zettanote/internal/api/middleware"
	"zettanote/internal/engine/pages"
)

type PageHandler struct {
	pages *pages.Service
}

func NewPageHandler(pageSvc *pages.Service) *PageHandler {
	return &PageHandler{pages: pageSvc}
}

type CreatePageRequest struct {
	Name string `json:"name" validate:"required"`
}

type RenamePageRequest struct {
	Name string `json:"name" validate:"required"`
}

type SavePageRequest struct {
	Body *string `json:"body" validate:"required"`
}

type SharePageRequest struct {
	Email      string `json:"email" validate:"required,email"`
	GrantWrite bool   `json:"grant_write"`
}

type UnsharePageRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type publicLinkResponse struct {
	ShareID string `json:"share_id"`
	URL     string `json:"url"`
}

func (h *PageHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	owned, err := h.pages.ListOwned(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	shared, err := h.pages.ListShared(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"owned":  owned,
		"shared": shared,
	})
}

func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePageRequest
	if !decode(w, r, &req) {
		return
	}

	page, err := h.pages.Create(r.Context(), middleware.CurrentUser(r).ID, req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, page)
}

func (h *PageHandler) Get(w http.ResponseWriter, r *http.Request) {
	page, err := h.pages.Get(r.Context(), middleware.CurrentUser(r).ID, pathParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *PageHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req RenamePageRequest
	if !decode(w, r, &req) {
		return
	}

	page, err := h.pages.Rename(r.Context(), middleware.CurrentUser(r).ID, pathParam(r, "id"), req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *PageHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SavePageRequest
	if !decode(w, r, &req) {
		return
	}

	page, err := h.pages.Save(r.Context(), middleware.CurrentUser(r).ID, pathParam(r, "id"), *req.Body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.pages.Delete(r.Context(), middleware.CurrentUser(r).ID, pathParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Page deleted")
}

func (h *PageHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req SharePageRequest
	if !decode(w, r, &req) {
		return
	}

	page, err := h.pages.Share(r.Context(), middleware.CurrentUser(r).ID, pathParam(r, "id"), req.Email, req.GrantWrite)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *PageHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	var req UnsharePageRequest
	if !decode(w, r, &req) {
		return
	}

	page, err := h.pages.Unshare(r.Context(), middleware.CurrentUser(r).ID, pathParam(r, "id"), req.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *PageHandler) Publicize(w http.ResponseWriter, r *http.Request) {
	token, err := h.pages.Publicize(r.Context(), middleware.CurrentUser(r).ID, pathParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, publicLinkResponse{ShareID: token, URL: h.pages.PublicURL(token)})
}

func (h *PageHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	if err := h.pages.Unpublish(r.Context(), middleware.CurrentUser(r).ID, pathParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Public link removed")
}

func (h *PageHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	png, err := h.pages.PublicQRCode(r.Context(), middleware.CurrentUser(r).ID, pathParam(r, "id"), size)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Public serves a publicized page without authentication.
func (h *PageHandler) Public(w http.ResponseWriter, r *http.Request) {
	view, err := h.pages.ResolvePublic(r.Context(), pathParam(r, "token"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, http.StatusOK, view)
}
