package model

import "time"

type Article struct {
	ID        int64      `json:"id"`
	BoardID   int64      `json:"board_id"`
	AuthorID  int64      `json:"-"`
	Author    string     `json:"author"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	ViewCount int64      `json:"view_count"`
	IsDeleted bool       `json:"is_deleted"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type WriteArticleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// EditArticleRequest carries a partial update: nil fields are left unchanged.
type EditArticleRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}
