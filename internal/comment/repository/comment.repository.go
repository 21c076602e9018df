package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bulletin/internal/comment/model"
	"bulletin/pkg/apperr"
	"bulletin/pkg/logger"
)

const commentColumns = `c.id, c.article_id, c.author_id, u.username, c.content, c.is_deleted, c.created_at, c.updated_at`

type CommentRepository struct {
	DB *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{DB: db}
}

func (r *CommentRepository) Create(ctx context.Context, articleID, authorID int64, content string) (int64, time.Time, error) {
	var id int64
	var createdAt time.Time
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO comments (article_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		articleID, authorID, content,
	).Scan(&id, &createdAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create comment on article %d: %v", articleID, err)
	}
	return id, createdAt, err
}

func (r *CommentRepository) FindByID(ctx context.Context, id int64) (*model.Comment, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+commentColumns+`
		FROM comments c JOIN users u ON c.author_id = u.id
		WHERE c.id = $1`, id)

	comment, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("comment %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load comment %d: %v", id, err)
		return nil, err
	}
	return comment, nil
}

func (r *CommentRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE comments SET content = $1, updated_at = NOW() WHERE id = $2`, content, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to update comment %d: %v", id, err)
	}
	return err
}

func (r *CommentRepository) SoftDelete(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE comments SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to soft-delete comment %d: %v", id, err)
	}
	return err
}

func (r *CommentRepository) FindActiveByArticle(ctx context.Context, articleID int64) ([]model.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+commentColumns+`
		FROM comments c JOIN users u ON c.author_id = u.id
		WHERE c.article_id = $1 AND c.is_deleted = FALSE
		ORDER BY c.created_at ASC`, articleID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list comments for article %d: %v", articleID, err)
		return nil, err
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			logger.Sugar.Errorf("Failed to scan comment row: %v", err)
			return nil, err
		}
		comments = append(comments, *comment)
	}
	return comments, rows.Err()
}

// LatestCreatedAt returns the creation instant of the author's most recent
// comment, or nil when the author has never commented.
func (r *CommentRepository) LatestCreatedAt(ctx context.Context, username string) (*time.Time, error) {
	var ts time.Time
	err := r.DB.QueryRowContext(ctx, `
		SELECT c.created_at FROM comments c JOIN users u ON c.author_id = u.id
		WHERE u.username = $1
		ORDER BY c.created_at DESC LIMIT 1`, username).Scan(&ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load latest comment create time for %s: %v", username, err)
		return nil, err
	}
	return &ts, nil
}

// LatestUpdatedAt returns the instant of the author's most recent comment
// edit, or nil when no comment has ever been edited.
func (r *CommentRepository) LatestUpdatedAt(ctx context.Context, username string) (*time.Time, error) {
	var ts time.Time
	err := r.DB.QueryRowContext(ctx, `
		SELECT c.updated_at FROM comments c JOIN users u ON c.author_id = u.id
		WHERE u.username = $1 AND c.updated_at IS NOT NULL
		ORDER BY c.updated_at DESC LIMIT 1`, username).Scan(&ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load latest comment edit time for %s: %v", username, err)
		return nil, err
	}
	return &ts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanComment(row rowScanner) (*model.Comment, error) {
	var c model.Comment
	var updatedAt sql.NullTime
	err := row.Scan(&c.ID, &c.ArticleID, &c.AuthorID, &c.Author, &c.Content,
		&c.IsDeleted, &c.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		c.UpdatedAt = &updatedAt.Time
	}
	return &c, nil
}
