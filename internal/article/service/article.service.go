package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bulletin/internal/article/model"
	"bulletin/internal/article/repository"
	userrepo "bulletin/internal/user/repository"
	"bulletin/pkg/apperr"
	"bulletin/pkg/clock"
	"bulletin/pkg/ratelimit"
	"bulletin/socket"
)

// SearchIndex is the one-way sync boundary to the external search cluster.
type SearchIndex interface {
	IndexArticle(ctx context.Context, id int64, doc []byte) error
	SearchArticles(ctx context.Context, keyword string) ([]int64, error)
}

type ArticleService struct {
	Repo   *repository.ArticleRepository
	Boards *repository.BoardRepository
	Users  *userrepo.UserRepository
	Index  SearchIndex
	Hub    *socket.Hub
	Clock  clock.Clock

	// CreateCooldown throttles article creation, EditCooldown throttles
	// edits and deletes. Both are configuration.
	CreateCooldown time.Duration
	EditCooldown   time.Duration
}

// Write creates an article for the authenticated user. The index push runs
// after the storage write committed; its failure surfaces to the caller but
// does not roll the article back.
func (s *ArticleService) Write(ctx context.Context, username string, boardID int64, req model.WriteArticleRequest) (*model.Article, error) {
	last, err := s.Repo.LatestCreatedAt(ctx, username)
	if err != nil {
		return nil, err
	}
	if !ratelimit.Allow(last, s.Clock.Now(), s.CreateCooldown) {
		return nil, fmt.Errorf("article not written: %w", apperr.ErrRateLimited)
	}

	author, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	exists, err := s.Boards.Exists(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("board %d: %w", boardID, apperr.ErrNotFound)
	}

	id, createdAt, err := s.Repo.Create(ctx, boardID, author.ID, req.Title, req.Content)
	if err != nil {
		return nil, err
	}
	article := &model.Article{
		ID:        id,
		BoardID:   boardID,
		AuthorID:  author.ID,
		Author:    author.Username,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: createdAt,
	}

	if err := s.pushToIndex(ctx, article); err != nil {
		return nil, err
	}
	s.publish(socket.ArticleCreated, article)
	return article, nil
}

// Edit applies a partial update: nil request fields leave the stored value
// unchanged. Only the author may edit, and only while the article is active.
func (s *ArticleService) Edit(ctx context.Context, username string, boardID, articleID int64, req model.EditArticleRequest) (*model.Article, error) {
	article, err := s.loadOwned(ctx, username, boardID, articleID)
	if err != nil {
		return nil, err
	}

	last, err := s.Repo.LatestUpdatedAt(ctx, username)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	if !ratelimit.Allow(last, now, s.EditCooldown) {
		return nil, fmt.Errorf("article not edited: %w", apperr.ErrRateLimited)
	}

	if req.Title != nil {
		article.Title = *req.Title
	}
	if req.Content != nil {
		article.Content = *req.Content
	}
	if err := s.Repo.UpdateContent(ctx, article.ID, article.Title, article.Content); err != nil {
		return nil, err
	}
	article.UpdatedAt = &now

	if err := s.pushToIndex(ctx, article); err != nil {
		return nil, err
	}
	s.publish(socket.ArticleUpdated, article)
	return article, nil
}

// Delete soft-deletes the article, keeping it addressable for audit and for
// already-issued comments. The deleted state is re-pushed to the index so
// searches stop surfacing it once the push lands.
func (s *ArticleService) Delete(ctx context.Context, username string, boardID, articleID int64) error {
	article, err := s.loadOwned(ctx, username, boardID, articleID)
	if err != nil {
		return err
	}

	last, err := s.Repo.LatestUpdatedAt(ctx, username)
	if err != nil {
		return err
	}
	now := s.Clock.Now()
	if !ratelimit.Allow(last, now, s.EditCooldown) {
		return fmt.Errorf("article not deleted: %w", apperr.ErrRateLimited)
	}

	if err := s.Repo.SoftDelete(ctx, article.ID); err != nil {
		return err
	}
	article.IsDeleted = true
	article.UpdatedAt = &now

	if err := s.pushToIndex(ctx, article); err != nil {
		return err
	}
	s.publish(socket.ArticleDeleted, article)
	return nil
}

// Page returns one cursor page of active articles, newest first. Cursors
// compare on the id, which increases with creation order.
func (s *ArticleService) Page(ctx context.Context, boardID int64, olderThan, newerThan *int64) ([]model.Article, error) {
	switch {
	case olderThan != nil:
		return s.Repo.FindOlderThan(ctx, boardID, *olderThan)
	case newerThan != nil:
		return s.Repo.FindNewerThan(ctx, boardID, *newerThan)
	default:
		return s.Repo.FindTopByBoard(ctx, boardID)
	}
}

// Search resolves a keyword against the index, then rehydrates from storage.
// Ids that no longer resolve to an active article are silently dropped; the
// index is eventually consistent, not authoritative.
func (s *ArticleService) Search(ctx context.Context, keyword string) ([]model.Article, error) {
	ids, err := s.Index.SearchArticles(ctx, keyword)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.Article{}, nil
	}
	return s.Repo.FindAllByIDs(ctx, ids)
}

// View loads one article for reading, counting the view and re-syncing the
// index with the new counter. Soft-deleted articles remain addressable here.
func (s *ArticleService) View(ctx context.Context, boardID, articleID int64) (*model.Article, error) {
	exists, err := s.Boards.Exists(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("board %d: %w", boardID, apperr.ErrNotFound)
	}
	article, err := s.Repo.FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.IncrementViewCount(ctx, article.ID); err != nil {
		return nil, err
	}
	article.ViewCount++

	if err := s.pushToIndex(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// loadOwned fetches the article and enforces the shared edit/delete
// preconditions: board exists, requester is the author (stable id equality),
// article still active. Authorship is checked before the rate limit so a
// non-author always gets forbidden.
func (s *ArticleService) loadOwned(ctx context.Context, username string, boardID, articleID int64) (*model.Article, error) {
	requester, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	exists, err := s.Boards.Exists(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("board %d: %w", boardID, apperr.ErrNotFound)
	}
	article, err := s.Repo.FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != requester.ID {
		return nil, fmt.Errorf("article author different: %w", apperr.ErrForbidden)
	}
	if article.IsDeleted {
		return nil, fmt.Errorf("article is deleted: %w", apperr.ErrForbidden)
	}
	return article, nil
}

func (s *ArticleService) pushToIndex(ctx context.Context, article *model.Article) error {
	doc, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("serializing article %d: %w", article.ID, err)
	}
	return s.Index.IndexArticle(ctx, article.ID, doc)
}

func (s *ArticleService) publish(eventType string, article *model.Article) {
	if s.Hub == nil {
		return
	}
	payload, err := json.Marshal(article)
	if err != nil {
		return
	}
	s.Hub.Publish(socket.Event{Type: eventType, BoardID: article.BoardID, Payload: payload})
}
