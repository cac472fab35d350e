package handler

import (
	"go-comments-app/internal/logger"
	"go-comments-app/internal/middleware"
	"go-comments-app/internal/service"
	"net/http"
)

// CommentHandler holds the dependencies for the comment handlers.
type CommentHandler struct {
	commentService service.CommentServicer
	log            logger.Logger
}

// NewCommentHandler creates a new CommentHandler with the given dependencies.
func NewCommentHandler(cs service.CommentServicer, log logger.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: cs,
		log:            log,
	}
}

// listHandler serves GET /api/pages/{page}/comments?num=&index=&replyto=&contextof=.
func (h *CommentHandler) listHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	pageID, appErr := pathUUID(r, "page")
	if appErr != nil {
		return appErr
	}
	var params service.ListParams
	if params.PerPage, appErr = queryInt(r, "num"); appErr != nil {
		return appErr
	}
	if params.PageIndex, appErr = queryInt(r, "index"); appErr != nil {
		return appErr
	}
	if params.ReplyTo, appErr = queryUUID(r, "replyto"); appErr != nil {
		return appErr
	}
	if params.ContextOf, appErr = queryUUID(r, "contextof"); appErr != nil {
		return appErr
	}

	comments, err := h.commentService.ListComments(r.Context(), pageID, params)
	if err != nil {
		return serviceError(err, "page not found")
	}
	middleware.WriteJSON(w, http.StatusOK, comments)
	return nil
}

// countHandler serves GET /api/pages/{page}/comments_count?replyto=&contextof=.
func (h *CommentHandler) countHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	pageID, appErr := pathUUID(r, "page")
	if appErr != nil {
		return appErr
	}
	replyTo, appErr := queryUUID(r, "replyto")
	if appErr != nil {
		return appErr
	}
	contextOf, appErr := queryUUID(r, "contextof")
	if appErr != nil {
		return appErr
	}

	count, err := h.commentService.CountComments(r.Context(), pageID, replyTo, contextOf)
	if err != nil {
		return serviceError(err, "page not found")
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
	return nil
}

// getHandler serves GET /api/pages/{page}/comments/{comment}.
func (h *CommentHandler) getHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	pageID, appErr := pathUUID(r, "page")
	if appErr != nil {
		return appErr
	}
	commentID, appErr := pathUUID(r, "comment")
	if appErr != nil {
		return appErr
	}

	comment, err := h.commentService.GetComment(r.Context(), pageID, commentID)
	if err != nil {
		return serviceError(err, "comment not found")
	}
	middleware.WriteJSON(w, http.StatusOK, comment)
	return nil
}

// createHandler serves POST /api/pages/{page}/comments.
func (h *CommentHandler) createHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	pageID, appErr := pathUUID(r, "page")
	if appErr != nil {
		return appErr
	}
	var input service.NewComment
	if appErr := decodeJSON(w, r, &input); appErr != nil {
		return appErr
	}
	submitter, err := clientAddr(r)
	if err != nil {
		return middleware.Internal(err)
	}

	comment, err := h.commentService.CreateComment(r.Context(), pageID, input, submitter)
	if err != nil {
		return serviceError(err, "comment not found")
	}
	middleware.WriteJSON(w, http.StatusCreated, comment)
	return nil
}

type markRequest struct {
	Spam *bool `json:"spam"`
}

// markHandler serves PATCH /api/pages/{page}/comments/{comment}.
func (h *CommentHandler) markHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	pageID, appErr := pathUUID(r, "page")
	if appErr != nil {
		return appErr
	}
	commentID, appErr := pathUUID(r, "comment")
	if appErr != nil {
		return appErr
	}
	var req markRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		return appErr
	}
	if req.Spam == nil {
		return middleware.BadRequest("'spam' is required")
	}

	if err := h.commentService.MarkSpam(r.Context(), pageID, commentID, *req.Spam); err != nil {
		return serviceError(err, "comment not found")
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
