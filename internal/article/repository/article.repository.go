package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"bulletin/internal/article/model"
	"bulletin/pkg/apperr"
	"bulletin/pkg/logger"
)

// PageSize is the fixed number of articles per listing page.
const PageSize = 10

const articleColumns = `a.id, a.board_id, a.author_id, u.username, a.title, a.content, a.view_count, a.is_deleted, a.created_at, a.updated_at`

type ArticleRepository struct {
	DB *sql.DB
}

func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{DB: db}
}

func (r *ArticleRepository) Create(ctx context.Context, boardID, authorID int64, title, content string) (int64, time.Time, error) {
	var id int64
	var createdAt time.Time
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO articles (board_id, author_id, title, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		boardID, authorID, title, content,
	).Scan(&id, &createdAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create article on board %d: %v", boardID, err)
	}
	return id, createdAt, err
}

// FindByID returns the article regardless of its deleted flag; soft-deleted
// articles stay addressable by id.
func (r *ArticleRepository) FindByID(ctx context.Context, id int64) (*model.Article, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+articleColumns+`
		FROM articles a JOIN users u ON a.author_id = u.id
		WHERE a.id = $1`, id)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("article %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load article %d: %v", id, err)
		return nil, err
	}
	return article, nil
}

func (r *ArticleRepository) UpdateContent(ctx context.Context, id int64, title, content string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE articles SET title = $1, content = $2, updated_at = NOW() WHERE id = $3`,
		title, content, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to update article %d: %v", id, err)
	}
	return err
}

func (r *ArticleRepository) SoftDelete(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE articles SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to soft-delete article %d: %v", id, err)
	}
	return err
}

func (r *ArticleRepository) IncrementViewCount(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE articles SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to increment view count for article %d: %v", id, err)
	}
	return err
}

func (r *ArticleRepository) FindTopByBoard(ctx context.Context, boardID int64) ([]model.Article, error) {
	return r.page(ctx, `
		SELECT `+articleColumns+`
		FROM articles a JOIN users u ON a.author_id = u.id
		WHERE a.board_id = $1 AND a.is_deleted = FALSE
		ORDER BY a.created_at DESC LIMIT $2`, boardID, PageSize)
}

func (r *ArticleRepository) FindOlderThan(ctx context.Context, boardID, articleID int64) ([]model.Article, error) {
	return r.page(ctx, `
		SELECT `+articleColumns+`
		FROM articles a JOIN users u ON a.author_id = u.id
		WHERE a.board_id = $1 AND a.id < $2 AND a.is_deleted = FALSE
		ORDER BY a.created_at DESC LIMIT $3`, boardID, articleID, PageSize)
}

func (r *ArticleRepository) FindNewerThan(ctx context.Context, boardID, articleID int64) ([]model.Article, error) {
	return r.page(ctx, `
		SELECT `+articleColumns+`
		FROM articles a JOIN users u ON a.author_id = u.id
		WHERE a.board_id = $1 AND a.id > $2 AND a.is_deleted = FALSE
		ORDER BY a.created_at DESC LIMIT $3`, boardID, articleID, PageSize)
}

// FindAllByIDs hydrates active articles for a set of ids, in newest-first
// order. Ids that resolve to deleted or missing rows are simply absent from
// the result.
func (r *ArticleRepository) FindAllByIDs(ctx context.Context, ids []int64) ([]model.Article, error) {
	return r.page(ctx, `
		SELECT `+articleColumns+`
		FROM articles a JOIN users u ON a.author_id = u.id
		WHERE a.id = ANY($1) AND a.is_deleted = FALSE
		ORDER BY a.created_at DESC`, pq.Array(ids))
}

// LatestCreatedAt returns the creation instant of the author's most recent
// article, or nil when the author has never posted.
func (r *ArticleRepository) LatestCreatedAt(ctx context.Context, username string) (*time.Time, error) {
	var ts time.Time
	err := r.DB.QueryRowContext(ctx, `
		SELECT a.created_at FROM articles a JOIN users u ON a.author_id = u.id
		WHERE u.username = $1
		ORDER BY a.created_at DESC LIMIT 1`, username).Scan(&ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load latest article create time for %s: %v", username, err)
		return nil, err
	}
	return &ts, nil
}

// LatestUpdatedAt returns the instant of the author's most recent article
// edit, or nil when no article has ever been edited.
func (r *ArticleRepository) LatestUpdatedAt(ctx context.Context, username string) (*time.Time, error) {
	var ts time.Time
	err := r.DB.QueryRowContext(ctx, `
		SELECT a.updated_at FROM articles a JOIN users u ON a.author_id = u.id
		WHERE u.username = $1 AND a.updated_at IS NOT NULL
		ORDER BY a.updated_at DESC LIMIT 1`, username).Scan(&ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load latest article edit time for %s: %v", username, err)
		return nil, err
	}
	return &ts, nil
}

func (r *ArticleRepository) page(ctx context.Context, query string, args ...interface{}) ([]model.Article, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to list articles: %v", err)
		return nil, err
	}
	defer rows.Close()

	articles := []model.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			logger.Sugar.Errorf("Failed to scan article row: %v", err)
			return nil, err
		}
		articles = append(articles, *article)
	}
	return articles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*model.Article, error) {
	var a model.Article
	var updatedAt sql.NullTime
	err := row.Scan(&a.ID, &a.BoardID, &a.AuthorID, &a.Author, &a.Title, &a.Content,
		&a.ViewCount, &a.IsDeleted, &a.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		a.UpdatedAt = &updatedAt.Time
	}
	return &a, nil
}
