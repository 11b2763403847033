package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/photohub/internal/audit"
	"github.com/your-org/photohub/internal/auth"
	"github.com/your-org/photohub/internal/storage"
	"github.com/your-org/photohub/pkg/dto"
)

type AuthHandler struct {
	db       *storage.PostgresStore
	tokens   *auth.TokenManager
	recorder Recorder
}

func NewAuthHandler(db *storage.PostgresStore, tokens *auth.TokenManager, recorder Recorder) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens, recorder: recorder}
}

// Login handles POST /v1/login with form fields username and password.
func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.db.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		slog.Error("login lookup", "username", username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		record(c, h.recorder, audit.Entry{
			Action:  audit.ActionLoginFailed,
			Details: map[string]any{"username": username, "ip": c.ClientIP()},
			Notify:  true,
		})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect username or password"})
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		slog.Error("issue token", "username", username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	uid := user.ID
	record(c, h.recorder, audit.Entry{
		UserID:  &uid,
		Action:  audit.ActionLoginSuccess,
		Details: map[string]any{"username": username},
		Notify:  true,
	})

	c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.tokens.TTL().Seconds()),
	})
}
