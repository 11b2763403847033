package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/models"
)

type userMap map[string]*models.User

func (m userMap) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return m[username], nil
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	uid := uuid.New()

	token, err := tm.Issue(uid, "alice", models.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "alice" || claims.UserID != uid || claims.Role != models.RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	token, err := tm.Issue(uuid.New(), "bob", models.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewTokenManager("other", time.Hour).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: err = %v", err)
	}

	expired := NewTokenManager("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := expired.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired: err = %v", err)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "hunter22") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "hunter23") {
		t.Error("wrong password accepted")
	}
}

func newAuthRouter(tm *TokenManager, users userMap) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/", BearerMiddleware(tm, users))
	g.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": CurrentUser(c).Username})
	})
	g.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestBearerMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	admin := &models.User{ID: uuid.New(), Username: "root", Role: models.RoleAdmin}
	user := &models.User{ID: uuid.New(), Username: "guest", Role: models.RoleUser}
	r := newAuthRouter(tm, userMap{"root": admin, "guest": user})

	adminToken, _ := tm.Issue(admin.ID, admin.Username, admin.Role)
	userToken, _ := tm.Issue(user.ID, user.Username, user.Role)
	ghostToken, _ := tm.Issue(uuid.New(), "ghost", models.RoleUser)

	tests := []struct {
		name   string
		path   string
		header string
		query  string
		want   int
	}{
		{"no token", "/me", "", "", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer nope", "", http.StatusUnauthorized},
		{"deleted user", "/me", "Bearer " + ghostToken, "", http.StatusUnauthorized},
		{"valid user", "/me", "Bearer " + userToken, "", http.StatusOK},
		{"query token", "/me", "", "?token=" + userToken, http.StatusOK},
		{"user on admin route", "/admin", "Bearer " + userToken, "", http.StatusForbidden},
		{"admin on admin route", "/admin", "Bearer " + adminToken, "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
