package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"bulletin/config/database"
	userrepo "bulletin/internal/user/repository"
	usersvc "bulletin/internal/user/service"
	"bulletin/pkg/clock"
	"bulletin/pkg/logger"
	"bulletin/pkg/search"
	"bulletin/router"
	"bulletin/socket"
)

func main() {
	logger.Init()

	if err := godotenv.Load(); err != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Sugar.Fatal("JWT_SECRET environment variable not set")
	}

	db := database.Connect()
	defer db.Close()

	esAddresses := strings.Split(envOr("ES_ADDRESSES", "http://localhost:9200"), ",")
	index, err := search.New(esAddresses, envOr("ES_INDEX", "articles"))
	if err != nil {
		logger.Sugar.Fatalf("Failed to create search client: %v", err)
	}

	hub := socket.NewHub(db)
	go hub.Run()

	blacklist := usersvc.NewBlacklistService(userrepo.NewBlacklistRepository(db), []byte(secret), clock.System{})
	go blacklist.GCWorker(time.Hour)

	cfg := router.Config{
		Secret:          []byte(secret),
		TokenTTL:        envDuration("JWT_TTL", time.Hour),
		ArticleCooldown: envDuration("ARTICLE_COOLDOWN", 5*time.Minute),
		CommentCooldown: envDuration("COMMENT_COOLDOWN", time.Minute),
		ReadTimeout:     envDuration("READ_TIMEOUT", 10*time.Second),
	}

	handler := router.Setup(db, hub, index, blacklist, cfg)

	addr := ":" + envOr("PORT", "8080")
	logger.Sugar.Infof("Board backend listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Sugar.Fatalf("Server stopped: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logger.Sugar.Fatalf("Invalid %s duration: %v", key, err)
	}
	return d
}
