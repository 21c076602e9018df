package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"bulletin/internal/comment/model"
	"bulletin/internal/comment/service"
	"bulletin/middleware"
	"bulletin/pkg/apperr"
	"bulletin/pkg/logger"
)

type CommentHandler struct {
	Service *service.CommentService
}

func NewCommentHandler(service *service.CommentService) *CommentHandler {
	return &CommentHandler{Service: service}
}

func (h *CommentHandler) WriteComment(w http.ResponseWriter, r *http.Request) {
	boardID, articleID, ok := pathIDs(w, r)
	if !ok {
		return
	}
	username := r.Context().Value(middleware.UsernameKey).(string)

	var req model.WriteCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	comment, err := h.Service.Write(r.Context(), username, boardID, articleID, req)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to write comment on article %d: %v", articleID, err)
		http.Error(w, err.Error(), apperr.Status(err))
		return
	}
	writeJSON(w, comment)
}

func (h *CommentHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	boardID, articleID, ok := pathIDs(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId")
	if !ok {
		return
	}
	username := r.Context().Value(middleware.UsernameKey).(string)

	var req model.EditCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	comment, err := h.Service.Edit(r.Context(), username, boardID, articleID, commentID, req)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to edit comment %d: %v", commentID, err)
		http.Error(w, err.Error(), apperr.Status(err))
		return
	}
	writeJSON(w, comment)
}

func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	boardID, articleID, ok := pathIDs(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId")
	if !ok {
		return
	}
	username := r.Context().Value(middleware.UsernameKey).(string)

	if err := h.Service.Delete(r.Context(), username, boardID, articleID, commentID); err != nil {
		logger.Sugar.Errorf("Handler: Failed to delete comment %d: %v", commentID, err)
		http.Error(w, err.Error(), apperr.Status(err))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Comment is deleted"))
}

func pathIDs(w http.ResponseWriter, r *http.Request) (boardID, articleID int64, ok bool) {
	boardID, ok = pathID(w, r, "boardId")
	if !ok {
		return 0, 0, false
	}
	articleID, ok = pathID(w, r, "articleId")
	if !ok {
		return 0, 0, false
	}
	return boardID, articleID, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		http.Error(w, "Invalid "+name+" parameter", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
