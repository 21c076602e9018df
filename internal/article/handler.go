package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"bulletin/internal/article/model"
	"bulletin/internal/article/service"
	commentsvc "bulletin/internal/comment/service"
	"bulletin/middleware"
	"bulletin/pkg/apperr"
	"bulletin/pkg/logger"
)

type ArticleHandler struct {
	Service  *service.ArticleService
	Comments *commentsvc.CommentService
}

func NewArticleHandler(service *service.ArticleService, comments *commentsvc.CommentService) *ArticleHandler {
	return &ArticleHandler{Service: service, Comments: comments}
}

func (h *ArticleHandler) WriteArticle(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return
	}
	username := r.Context().Value(middleware.UsernameKey).(string)

	var req model.WriteArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	article, err := h.Service.Write(r.Context(), username, boardID, req)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to write article: %v", err)
		http.Error(w, err.Error(), apperr.Status(err))
		return
	}
	writeJSON(w, article)
}

// GetArticles serves one cursor page: ?lastId= pages older, ?firstId= pages
// newer, neither returns the most recent page.
func (h *ArticleHandler) GetArticles(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return
	}

	olderThan, err := optionalID(r, "lastId")
	if err != nil {
		http.Error(w, "Invalid lastId parameter", http.StatusBadRequest)
		return
	}
	newerThan, err := optionalID(r, "firstId")
	if err != nil {
		http.Error(w, "Invalid firstId parameter", http.StatusBadRequest)
		return
	}

	articles, err := h.Service.Page(r.Context(), boardID, olderThan, newerThan)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list articles for board %d: %v", boardID, err)
		http.Error(w, err.Error(), apperr.Status(err))
		return
	}
	writeJSON(w, articles)
}

// SearchArticles resolves a keyword through the index; without a keyword it
// falls back to the first listing page.
func (h *ArticleHandler) SearchArticles(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return
	}

	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		articles, err := h.Service.Page(r.Context(), boardID, nil, nil)
		if err != nil {
			http.Error(w, err.Error(), apperr.Status(err))
			return
		}
		writeJSON(w, articles)
		return
	}

	articles, err := h.Service.Search(r.Context(), keyword)
	if err != nil {
		logger.Sugar.Errorf("Handler: Search for %q failed: %v", keyword, err)
		http.Error(w, err.Error(), apperr.Status(err))
		return
	}
	writeJSON(w, articles)
}

func (h *ArticleHandler) EditArticle(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return
	}
	articleID, ok := pathID(w, r, "articleId")
	if !ok {
		return
	}
	username := r.Context().Value(middleware.UsernameKey).(string)

	var req model.EditArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	article, err := h.Service.Edit(r.Context(), username, boardID, articleID, req)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to edit article %d: %v", articleID, err)
		http.Error(w, err.Error(), apperr.Status(err))
		return
	}
	writeJSON(w, article)
}

func (h *ArticleHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return
	}
	articleID, ok := pathID(w, r, "articleId")
	if !ok {
		return
	}
	username := r.Context().Value(middleware.UsernameKey).(string)

	if err := h.Service.Delete(r.Context(), username, boardID, articleID); err != nil {
		logger.Sugar.Errorf("Handler: Failed to delete article %d: %v", articleID, err)
		http.Error(w, err.Error(), apperr.Status(err))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Article is deleted"))
}

// GetArticleWithComments is the composite read: article (view counted) plus
// its active comments, loaded concurrently.
func (h *ArticleHandler) GetArticleWithComments(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardId")
	if !ok {
		return
	}
	articleID, ok := pathID(w, r, "articleId")
	if !ok {
		return
	}

	result, err := h.Comments.GetArticleWithComments(r.Context(), boardID, articleID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to load article %d with comments: %v", articleID, err)
		http.Error(w, err.Error(), apperr.Status(err))
		return
	}
	writeJSON(w, result)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		http.Error(w, "Invalid "+name+" parameter", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func optionalID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
