package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	articlerepo "bulletin/internal/article/repository"
	articlesvc "bulletin/internal/article/service"
	"bulletin/internal/comment/model"
	"bulletin/internal/comment/repository"
	userrepo "bulletin/internal/user/repository"
	"bulletin/pkg/apperr"
	"bulletin/pkg/clock"
	"bulletin/pkg/ratelimit"
)

type CommentService struct {
	Repo     *repository.CommentRepository
	Articles *articlerepo.ArticleRepository
	Boards   *articlerepo.BoardRepository
	Users    *userrepo.UserRepository
	Reader   *articlesvc.ArticleService
	Clock    clock.Clock

	CreateCooldown time.Duration
	EditCooldown   time.Duration

	// ReadTimeout bounds the article-with-comments join barrier.
	ReadTimeout time.Duration
}

// Write creates a comment under an active article. Comments are not indexed.
func (s *CommentService) Write(ctx context.Context, username string, boardID, articleID int64, req model.WriteCommentRequest) (*model.Comment, error) {
	last, err := s.Repo.LatestCreatedAt(ctx, username)
	if err != nil {
		return nil, err
	}
	if !ratelimit.Allow(last, s.Clock.Now(), s.CreateCooldown) {
		return nil, fmt.Errorf("comment not written: %w", apperr.ErrRateLimited)
	}

	author, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.ensureActiveArticle(ctx, boardID, articleID); err != nil {
		return nil, err
	}

	id, createdAt, err := s.Repo.Create(ctx, articleID, author.ID, req.Content)
	if err != nil {
		return nil, err
	}
	return &model.Comment{
		ID:        id,
		ArticleID: articleID,
		AuthorID:  author.ID,
		Author:    author.Username,
		Content:   req.Content,
		CreatedAt: createdAt,
	}, nil
}

// Edit applies a partial update to the requester's own comment. The parent
// article and the comment itself must both still be active.
func (s *CommentService) Edit(ctx context.Context, username string, boardID, articleID, commentID int64, req model.EditCommentRequest) (*model.Comment, error) {
	comment, err := s.loadOwned(ctx, username, boardID, articleID, commentID)
	if err != nil {
		return nil, err
	}

	last, err := s.Repo.LatestUpdatedAt(ctx, username)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	if !ratelimit.Allow(last, now, s.EditCooldown) {
		return nil, fmt.Errorf("comment not edited: %w", apperr.ErrRateLimited)
	}

	if req.Content != nil {
		comment.Content = *req.Content
	}
	if err := s.Repo.UpdateContent(ctx, comment.ID, comment.Content); err != nil {
		return nil, err
	}
	comment.UpdatedAt = &now
	return comment, nil
}

// Delete soft-deletes the requester's own comment, reusing the edit cooldown.
func (s *CommentService) Delete(ctx context.Context, username string, boardID, articleID, commentID int64) error {
	comment, err := s.loadOwned(ctx, username, boardID, articleID, commentID)
	if err != nil {
		return err
	}

	last, err := s.Repo.LatestUpdatedAt(ctx, username)
	if err != nil {
		return err
	}
	if !ratelimit.Allow(last, s.Clock.Now(), s.EditCooldown) {
		return fmt.Errorf("comment not deleted: %w", apperr.ErrRateLimited)
	}

	return s.Repo.SoftDelete(ctx, comment.ID)
}

// GetArticleWithComments runs the two independent loads concurrently: the
// article read (which counts the view and re-syncs the index) and the active
// comments. Both must succeed or the whole read fails; the first error cancels
// the sibling task's context.
func (s *CommentService) GetArticleWithComments(ctx context.Context, boardID, articleID int64) (*model.ArticleWithComments, error) {
	if s.ReadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ReadTimeout)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)

	var article *model.ArticleWithComments
	g.Go(func() error {
		loaded, err := s.Reader.View(gctx, boardID, articleID)
		if err != nil {
			return err
		}
		article = &model.ArticleWithComments{Article: *loaded}
		return nil
	})

	var comments []model.Comment
	g.Go(func() error {
		loaded, err := s.Repo.FindActiveByArticle(gctx, articleID)
		if err != nil {
			return err
		}
		comments = loaded
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	article.Comments = comments
	return article, nil
}

// ensureActiveArticle verifies the board exists and the article exists and is
// not soft-deleted.
func (s *CommentService) ensureActiveArticle(ctx context.Context, boardID, articleID int64) error {
	exists, err := s.Boards.Exists(ctx, boardID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("board %d: %w", boardID, apperr.ErrNotFound)
	}
	article, err := s.Articles.FindByID(ctx, articleID)
	if err != nil {
		return err
	}
	if article.IsDeleted {
		return fmt.Errorf("article is deleted: %w", apperr.ErrForbidden)
	}
	return nil
}

func (s *CommentService) loadOwned(ctx context.Context, username string, boardID, articleID, commentID int64) (*model.Comment, error) {
	requester, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.ensureActiveArticle(ctx, boardID, articleID); err != nil {
		return nil, err
	}
	comment, err := s.Repo.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != requester.ID {
		return nil, fmt.Errorf("comment author different: %w", apperr.ErrForbidden)
	}
	if comment.IsDeleted {
		return nil, fmt.Errorf("comment is deleted: %w", apperr.ErrForbidden)
	}
	return comment, nil
}
