package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	articlemodel "bulletin/internal/article/model"
	articlerepo "bulletin/internal/article/repository"
	articlesvc "bulletin/internal/article/service"
	"bulletin/internal/comment/model"
	"bulletin/internal/comment/repository"
	userrepo "bulletin/internal/user/repository"
	"bulletin/pkg/apperr"
	"bulletin/pkg/logger"
)

func init() {
	logger.Init()
}

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

type fakeIndex struct {
	pushed map[int64][]byte
}

func (f *fakeIndex) IndexArticle(_ context.Context, id int64, doc []byte) error {
	if f.pushed == nil {
		f.pushed = make(map[int64][]byte)
	}
	f.pushed[id] = doc
	return nil
}

func (f *fakeIndex) SearchArticles(_ context.Context, _ string) ([]int64, error) {
	return nil, nil
}

func newService(t *testing.T) (*CommentService, sqlmock.Sqlmock, *fixedClock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clk := &fixedClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	articles := articlerepo.NewArticleRepository(db)
	boards := articlerepo.NewBoardRepository(db)
	users := userrepo.NewUserRepository(db)
	reader := &articlesvc.ArticleService{
		Repo:   articles,
		Boards: boards,
		Users:  users,
		Index:  &fakeIndex{},
		Clock:  clk,
	}
	svc := &CommentService{
		Repo:           repository.NewCommentRepository(db),
		Articles:       articles,
		Boards:         boards,
		Users:          users,
		Reader:         reader,
		Clock:          clk,
		CreateCooldown: time.Minute,
		EditCooldown:   time.Minute,
		ReadTimeout:    5 * time.Second,
	}
	return svc, mock, clk
}

func expectUser(mock sqlmock.Sqlmock, username string, id int64) {
	mock.ExpectQuery("FROM users WHERE username").
		WithArgs(username).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "email", "created_at"}).
			AddRow(id, username, "hash", username+"@example.com", time.Now()))
}

func expectBoard(mock sqlmock.Sqlmock, id int64, exists bool) {
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func expectArticle(mock sqlmock.Sqlmock, a articlemodel.Article) {
	mock.ExpectQuery("FROM articles a JOIN users u").
		WithArgs(a.ID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "board_id", "author_id", "username", "title", "content",
			"view_count", "is_deleted", "created_at", "updated_at",
		}).AddRow(a.ID, a.BoardID, a.AuthorID, a.Author, a.Title, a.Content,
			a.ViewCount, a.IsDeleted, a.CreatedAt, nil))
}

func commentRow(id int64, authorID int64, author, content string, created time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "article_id", "author_id", "username", "content", "is_deleted", "created_at", "updated_at",
	}).AddRow(id, int64(10), authorID, author, content, false, created, nil)
}

func TestWriteCommentRateLimit(t *testing.T) {
	svc, mock, clk := newService(t)
	t0 := clk.t.Add(-30 * time.Second)

	mock.ExpectQuery("SELECT c.created_at FROM comments").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(t0))

	_, err := svc.Write(context.Background(), "alice", 7, 10, model.WriteCommentRequest{Content: "hi"})
	assert.True(t, errors.Is(err, apperr.ErrRateLimited))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteCommentUnderDeletedArticle(t *testing.T) {
	svc, mock, clk := newService(t)

	mock.ExpectQuery("SELECT c.created_at FROM comments").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))
	expectUser(mock, "alice", 1)
	expectBoard(mock, 7, true)
	expectArticle(mock, articlemodel.Article{
		ID: 10, BoardID: 7, AuthorID: 2, Author: "bob",
		Title: "t", Content: "c", IsDeleted: true, CreatedAt: clk.t,
	})

	_, err := svc.Write(context.Background(), "alice", 7, 10, model.WriteCommentRequest{Content: "hi"})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
}

func TestWriteComment(t *testing.T) {
	svc, mock, clk := newService(t)

	mock.ExpectQuery("SELECT c.created_at FROM comments").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))
	expectUser(mock, "alice", 1)
	expectBoard(mock, 7, true)
	expectArticle(mock, articlemodel.Article{
		ID: 10, BoardID: 7, AuthorID: 2, Author: "bob",
		Title: "t", Content: "c", CreatedAt: clk.t,
	})
	mock.ExpectQuery("INSERT INTO comments").
		WithArgs(int64(10), int64(1), "hi").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(100, clk.t))

	comment, err := svc.Write(context.Background(), "alice", 7, 10, model.WriteCommentRequest{Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, int64(100), comment.ID)
	assert.Equal(t, "alice", comment.Author)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEditCommentForbiddenForNonAuthor(t *testing.T) {
	svc, mock, clk := newService(t)

	expectUser(mock, "bob", 2)
	expectBoard(mock, 7, true)
	expectArticle(mock, articlemodel.Article{
		ID: 10, BoardID: 7, AuthorID: 1, Author: "alice",
		Title: "t", Content: "c", CreatedAt: clk.t,
	})
	mock.ExpectQuery("FROM comments c JOIN users u").
		WithArgs(int64(100)).
		WillReturnRows(commentRow(100, 1, "alice", "hers", clk.t))

	content := "hijack"
	_, err := svc.Edit(context.Background(), "bob", 7, 10, 100, model.EditCommentRequest{Content: &content})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	// No rate-limit query: authorship is rejected first.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteComment(t *testing.T) {
	svc, mock, clk := newService(t)

	expectUser(mock, "alice", 1)
	expectBoard(mock, 7, true)
	expectArticle(mock, articlemodel.Article{
		ID: 10, BoardID: 7, AuthorID: 2, Author: "bob",
		Title: "t", Content: "c", CreatedAt: clk.t,
	})
	mock.ExpectQuery("FROM comments c JOIN users u").
		WithArgs(int64(100)).
		WillReturnRows(commentRow(100, 1, "alice", "mine", clk.t))
	mock.ExpectQuery("SELECT c.updated_at FROM comments").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))
	mock.ExpectExec("UPDATE comments SET is_deleted").
		WithArgs(int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Delete(context.Background(), "alice", 7, 10, 100))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetArticleWithComments(t *testing.T) {
	svc, mock, clk := newService(t)
	// The two loads run concurrently; their query order is unspecified.
	mock.MatchExpectationsInOrder(false)

	expectBoard(mock, 7, true)
	expectArticle(mock, articlemodel.Article{
		ID: 10, BoardID: 7, AuthorID: 1, Author: "alice",
		Title: "t", Content: "c", ViewCount: 4, CreatedAt: clk.t,
	})
	mock.ExpectExec("UPDATE articles SET view_count").
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Storage returns only active comments; the two deleted ones never leave
	// the database.
	mock.ExpectQuery("FROM comments c JOIN users u").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "article_id", "author_id", "username", "content", "is_deleted", "created_at", "updated_at",
		}).
			AddRow(100, 10, 2, "bob", "first", false, clk.t, nil).
			AddRow(101, 10, 2, "bob", "second", false, clk.t, nil).
			AddRow(102, 10, 1, "alice", "third", false, clk.t, nil))

	result, err := svc.GetArticleWithComments(context.Background(), 7, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.ViewCount)
	assert.Len(t, result.Comments, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetArticleWithCommentsFailsAsWhole(t *testing.T) {
	svc, mock, _ := newService(t)
	mock.MatchExpectationsInOrder(false)

	expectBoard(mock, 7, true)
	mock.ExpectQuery("FROM articles a JOIN users u").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "board_id", "author_id", "username", "title", "content",
			"view_count", "is_deleted", "created_at", "updated_at",
		}))
	mock.ExpectQuery("FROM comments c JOIN users u").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "article_id", "author_id", "username", "content", "is_deleted", "created_at", "updated_at",
		}))

	// The article load fails, so no partial result comes back.
	result, err := svc.GetArticleWithComments(context.Background(), 7, 10)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Nil(t, result)
}
