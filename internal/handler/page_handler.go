package handler

import (
	"go-comments-app/internal/logger"
	"go-comments-app/internal/middleware"
	"go-comments-app/internal/service"
	"net/http"
)

// PageHandler holds the dependencies for the page handlers.
type PageHandler struct {
	pageService service.PageServicer
	log         logger.Logger
}

// NewPageHandler creates a new PageHandler with the given dependencies.
func NewPageHandler(ps service.PageServicer, log logger.Logger) *PageHandler {
	return &PageHandler{
		pageService: ps,
		log:         log,
	}
}

func (h *PageHandler) listHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	pages, err := h.pageService.ListPages(r.Context())
	if err != nil {
		return middleware.Internal(err)
	}
	middleware.WriteJSON(w, http.StatusOK, pages)
	return nil
}

func (h *PageHandler) createHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var input service.PageInput
	if appErr := decodeJSON(w, r, &input); appErr != nil {
		return appErr
	}
	page, err := h.pageService.CreatePage(r.Context(), input)
	if err != nil {
		return serviceError(err, "page not found")
	}
	h.log.With(map[string]interface{}{
		"page_id": page.ID.String(),
		"user":    middleware.GetUserInfo(r.Context()).Subject,
	}).Info("Page created")
	middleware.WriteJSON(w, http.StatusCreated, page)
	return nil
}

func (h *PageHandler) updateHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	pageID, appErr := pathUUID(r, "page")
	if appErr != nil {
		return appErr
	}
	var input service.PageInput
	if appErr := decodeJSON(w, r, &input); appErr != nil {
		return appErr
	}
	if err := h.pageService.UpdatePage(r.Context(), pageID, input); err != nil {
		return serviceError(err, "page not found")
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *PageHandler) deleteHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	pageID, appErr := pathUUID(r, "page")
	if appErr != nil {
		return appErr
	}
	if err := h.pageService.DeletePage(r.Context(), pageID); err != nil {
		return serviceError(err, "page not found")
	}
	h.log.With(map[string]interface{}{
		"page_id": pageID.String(),
		"user":    middleware.GetUserInfo(r.Context()).Subject,
	}).Info("Page deleted")
	w.WriteHeader(http.StatusNoContent)
	return nil
}
