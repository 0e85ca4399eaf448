package handlers

import (
	"context"
	"net/http"
	"time"

	"venue-admin-service/internal/auth"
	"venue-admin-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=6"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decodeValid(w, r, &body) {
		return
	}

	var (
		userID       int64
		passwordHash string
		status       int32
		roleID       *int64
		isAdmin      int32
	)
	err := h.DB.QueryRow(r.Context(), `
		select id, password_hash, status, role_id, is_admin
		from users
		where username = $1
	`, body.Username).Scan(&userID, &passwordHash, &status, &roleID, &isAdmin)
	if err == pgx.ErrNoRows {
		response.Unauthorized(w, "invalid credentials")
		return
	}
	if err != nil {
		h.Logger.Error("login lookup failed", zapError(err))
		response.Internal(w, "login failed")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(body.Password)) != nil {
		response.Unauthorized(w, "invalid credentials")
		return
	}
	if status == 0 {
		response.Forbidden(w, "account is disabled")
		return
	}

	ttl := time.Duration(h.Config.JWTExpirySeconds) * time.Second
	token, err := auth.SignAccessToken(userID, h.Config.JWTSecret, ttl)
	if err != nil {
		h.Logger.Error("token signing failed", zapError(err))
		response.Internal(w, "login failed")
		return
	}

	permissions, err := h.loadLoginPermissions(r.Context(), roleID, isAdmin == 1)
	if err != nil {
		h.Logger.Error("permission load failed", zapError(err))
		response.Internal(w, "login failed")
		return
	}

	response.OK(w, "login succeeded", map[string]any{
		"token":       token,
		"isAdmin":     permissions.IsAdmin(),
		"permissions": permissions.Actions(),
	})
}

func (h *Handler) loadLoginPermissions(ctx context.Context, roleID *int64, isAdmin bool) (auth.PermissionSet, error) {
	if isAdmin || roleID == nil {
		return auth.NewPermissionSet(nil, isAdmin), nil
	}

	rows, err := h.DB.Query(ctx, `
		select module || ':' || action
		from role_action_permissions
		where role_id = $1
	`, *roleID)
	if err != nil {
		return auth.PermissionSet{}, err
	}
	defer rows.Close()

	var actions []string
	for rows.Next() {
		var action string
		if err := rows.Scan(&action); err != nil {
			return auth.PermissionSet{}, err
		}
		actions = append(actions, action)
	}
	return auth.NewPermissionSet(actions, false), rows.Err()
}
