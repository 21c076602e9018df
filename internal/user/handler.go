package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"bulletin/internal/user/model"
	"bulletin/internal/user/service"
	"bulletin/middleware"
	"bulletin/pkg/apperr"
	"bulletin/pkg/logger"
)

type UserHandler struct {
	Service   *service.UserService
	Blacklist *service.BlacklistService
	TokenTTL  time.Duration
}

func NewUserHandler(userService *service.UserService, blacklist *service.BlacklistService, tokenTTL time.Duration) *UserHandler {
	return &UserHandler{Service: userService, Blacklist: blacklist, TokenTTL: tokenTTL}
}

func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.Service.CreateUser(r.Context(), req)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to create user %s: %v", req.Username, err)
		http.Error(w, err.Error(), apperr.Status(err))
		return
	}
	writeJSON(w, user)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tokenString, err := h.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    tokenString,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   int(h.TokenTTL / time.Second),
	})
	writeJSON(w, model.LoginResponse{Token: tokenString})
}

// Logout clears the session cookie. The token stays valid until it expires;
// use LogoutAll to revoke it everywhere.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	w.WriteHeader(http.StatusOK)
}

// LogoutAll records a revocation for the presented token's user, logging the
// user out of every session issued before this instant.
func (h *UserHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	tokenString := middleware.ExtractToken(r)
	if tokenString == "" {
		http.Error(w, "No token provided", http.StatusUnauthorized)
		return
	}

	if err := h.Blacklist.RevokeAll(r.Context(), tokenString); err != nil {
		logger.Sugar.Errorf("Handler: Failed to revoke token: %v", err)
		http.Error(w, err.Error(), apperr.Status(err))
		return
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusOK)
}

// ValidateToken reports whether a token is still trustworthy, combining
// signature/expiry validity with the revocation check.
func (h *UserHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		tokenString = middleware.ExtractToken(r)
	}
	if tokenString == "" {
		http.Error(w, "No token provided", http.StatusBadRequest)
		return
	}

	if err := h.Blacklist.ValidateToken(r.Context(), tokenString); err != nil {
		http.Error(w, "Token is not valid", apperr.Status(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.GetAllUsers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), apperr.Status(err))
		return
	}
	writeJSON(w, users)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid userId parameter", http.StatusBadRequest)
		return
	}

	if err := h.Service.DeleteUser(r.Context(), userID); err != nil {
		http.Error(w, err.Error(), apperr.Status(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		HttpOnly: true,
		Path:     "/",
		MaxAge:   -1,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
