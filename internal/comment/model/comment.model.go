package model

import (
	"time"

	articlemodel "bulletin/internal/article/model"
)

type Comment struct {
	ID        int64      `json:"id"`
	ArticleID int64      `json:"article_id"`
	AuthorID  int64      `json:"-"`
	Author    string     `json:"author"`
	Content   string     `json:"content"`
	IsDeleted bool       `json:"is_deleted"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type WriteCommentRequest struct {
	Content string `json:"content"`
}

// EditCommentRequest carries a partial update: a nil content is left unchanged.
type EditCommentRequest struct {
	Content *string `json:"content"`
}

// ArticleWithComments is the composite result of the concurrent
// article-plus-comments read.
type ArticleWithComments struct {
	articlemodel.Article
	Comments []Comment `json:"comments"`
}
