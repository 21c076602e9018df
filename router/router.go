package router

import (
	"database/sql"
	"net/http"
	"time"

	articleHandler "bulletin/internal/article"
	articlerepo "bulletin/internal/article/repository"
	articlesvc "bulletin/internal/article/service"
	commentHandler "bulletin/internal/comment"
	commentrepo "bulletin/internal/comment/repository"
	commentsvc "bulletin/internal/comment/service"
	userHandler "bulletin/internal/user"
	userrepo "bulletin/internal/user/repository"
	usersvc "bulletin/internal/user/service"
	"bulletin/middleware"
	"bulletin/pkg/clock"
	"bulletin/socket"
)

type Config struct {
	Secret          []byte
	TokenTTL        time.Duration
	ArticleCooldown time.Duration
	CommentCooldown time.Duration
	ReadTimeout     time.Duration
}

// Blacklist wires the revocation store separately so main can run its GC
// worker on the same instance the router consults.
func Setup(db *sql.DB, hub *socket.Hub, index articlesvc.SearchIndex, blacklist *usersvc.BlacklistService, cfg Config) http.Handler {
	mux := http.NewServeMux()
	clk := clock.System{}

	users := userrepo.NewUserRepository(db)
	boards := articlerepo.NewBoardRepository(db)
	articles := articlerepo.NewArticleRepository(db)
	comments := commentrepo.NewCommentRepository(db)

	userService := usersvc.NewUserService(users, cfg.Secret, cfg.TokenTTL, clk)
	articleService := &articlesvc.ArticleService{
		Repo:           articles,
		Boards:         boards,
		Users:          users,
		Index:          index,
		Hub:            hub,
		Clock:          clk,
		CreateCooldown: cfg.ArticleCooldown,
		EditCooldown:   cfg.ArticleCooldown,
	}
	commentService := &commentsvc.CommentService{
		Repo:           comments,
		Articles:       articles,
		Boards:         boards,
		Users:          users,
		Reader:         articleService,
		Clock:          clk,
		CreateCooldown: cfg.CommentCooldown,
		EditCooldown:   cfg.CommentCooldown,
		ReadTimeout:    cfg.ReadTimeout,
	}

	usersH := userHandler.NewUserHandler(userService, blacklist, cfg.TokenTTL)
	articlesH := articleHandler.NewArticleHandler(articleService, commentService)
	commentsH := commentHandler.NewCommentHandler(commentService)

	auth := middleware.Auth(cfg.Secret, blacklist)

	// WebSocket board feed
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.Context().Value(middleware.UsernameKey).(string)
		socket.ServeWs(hub, w, r, username)
	})
	mux.Handle("GET /ws", auth(wsHandler))

	// Users and sessions
	mux.HandleFunc("POST /api/users/signup", usersH.Signup)
	mux.HandleFunc("POST /api/users/login", usersH.Login)
	mux.HandleFunc("POST /api/users/logout", usersH.Logout)
	mux.Handle("POST /api/users/logout/all", auth(http.HandlerFunc(usersH.LogoutAll)))
	mux.HandleFunc("POST /api/users/token/validation", usersH.ValidateToken)
	mux.Handle("GET /api/users", auth(http.HandlerFunc(usersH.GetAllUsers)))
	mux.Handle("DELETE /api/users/{userId}", auth(http.HandlerFunc(usersH.DeleteUser)))

	// Articles
	mux.Handle("POST /api/boards/{boardId}/articles", auth(http.HandlerFunc(articlesH.WriteArticle)))
	mux.Handle("GET /api/boards/{boardId}/articles", auth(http.HandlerFunc(articlesH.GetArticles)))
	mux.Handle("GET /api/boards/{boardId}/articles/search", auth(http.HandlerFunc(articlesH.SearchArticles)))
	mux.Handle("GET /api/boards/{boardId}/articles/{articleId}", auth(http.HandlerFunc(articlesH.GetArticleWithComments)))
	mux.Handle("PUT /api/boards/{boardId}/articles/{articleId}", auth(http.HandlerFunc(articlesH.EditArticle)))
	mux.Handle("DELETE /api/boards/{boardId}/articles/{articleId}", auth(http.HandlerFunc(articlesH.DeleteArticle)))

	// Comments
	mux.Handle("POST /api/boards/{boardId}/articles/{articleId}/comments", auth(http.HandlerFunc(commentsH.WriteComment)))
	mux.Handle("PUT /api/boards/{boardId}/articles/{articleId}/comments/{commentId}", auth(http.HandlerFunc(commentsH.EditComment)))
	mux.Handle("DELETE /api/boards/{boardId}/articles/{articleId}/comments/{commentId}", auth(http.HandlerFunc(commentsH.DeleteComment)))

	return middleware.CORSMiddleware(mux)
}
