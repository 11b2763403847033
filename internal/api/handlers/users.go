package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/audit"
	"github.com/your-org/photohub/internal/auth"
	"github.com/your-org/photohub/internal/models"
	"github.com/your-org/photohub/internal/storage"
	"github.com/your-org/photohub/pkg/dto"
)

type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, username, passwordHash, role string) (*models.User, error)
	UpdateUserRole(ctx context.Context, id uuid.UUID, role string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type UserHandler struct {
	db       UserStore
	recorder Recorder
}

func NewUserHandler(db UserStore, recorder Recorder) *UserHandler {
	return &UserHandler{db: db, recorder: recorder}
}

func validRole(role string) bool {
	return role == models.RoleUser || role == models.RoleAdmin
}

func toUserResponse(u models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: formatTime(u.CreatedAt),
	}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.db.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if !validRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be user or admin"})
		return
	}

	existing, err := h.db.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	user, err := h.db.CreateUser(c.Request.Context(), req.Username, hash, req.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	record(c, h.recorder, audit.Entry{
		UserID:  callerID(c),
		Action:  audit.ActionCreateUser,
		Details: map[string]any{"user_id": user.ID.String(), "username": user.Username, "role": user.Role},
		Notify:  true,
	})

	c.JSON(http.StatusCreated, toUserResponse(*user))
}

// UpdateRole handles PUT /v1/users/:id/role.
func (h *UserHandler) UpdateRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req dto.UpdateRoleRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be user or admin"})
		return
	}

	if err := h.db.UpdateUserRole(c.Request.Context(), id, req.Role); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		record(c, h.recorder, audit.Entry{
			UserID:  callerID(c),
			Action:  audit.ActionUpdateRoleFailed,
			Details: map[string]any{"user_id": id.String(), "error": err.Error()},
			Notify:  true,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update role"})
		return
	}

	record(c, h.recorder, audit.Entry{
		UserID:  callerID(c),
		Action:  audit.ActionUpdateUserRole,
		Details: map[string]any{"user_id": id.String(), "new_role": req.Role},
		Notify:  true,
	})
	c.JSON(http.StatusOK, gin.H{"message": "role updated"})
}

// Delete handles DELETE /v1/users/:id. Admins cannot delete themselves.
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if caller := callerID(c); caller != nil && *caller == id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}

	if err := h.db.DeleteUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		record(c, h.recorder, audit.Entry{
			UserID:  callerID(c),
			Action:  audit.ActionDeleteUserFailed,
			Details: map[string]any{"user_id": id.String(), "error": err.Error()},
			Notify:  true,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete user"})
		return
	}

	record(c, h.recorder, audit.Entry{
		UserID:  callerID(c),
		Action:  audit.ActionDeleteUser,
		Details: map[string]any{"user_id": id.String()},
		Notify:  true,
	})
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
