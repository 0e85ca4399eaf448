package middleware

import (
	"context"
	"net/http"

	"venue-admin-service/internal/auth"
	"venue-admin-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const authContextKey contextKey = "authContext"

type AuthContext struct {
	UserID      int64
	Username    string
	RoleID      *int64
	Status      int32
	Permissions auth.PermissionSet
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	value := ctx.Value(authContextKey)
	if value == nil {
		return nil, false
	}
	ac, ok := value.(*AuthContext)
	return ac, ok
}

// Authenticate verifies the bearer token, loads the user and the action
// permissions attached to its role, and stashes an AuthContext with a
// populated capability set for the rest of the request.
func Authenticate(db *pgxpool.Pool, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				response.Unauthorized(w, "authentication required")
				return
			}

			var (
				username string
				roleID   *int64
				status   int32
				isAdmin  int32
			)
			err = db.QueryRow(r.Context(), `
				select username, role_id, status, is_admin
				from users
				where id = $1
			`, claims.UID).Scan(&username, &roleID, &status, &isAdmin)
			if err == pgx.ErrNoRows {
				response.Unauthorized(w, "user not found")
				return
			}
			if err != nil {
				response.Internal(w, "failed to load user")
				return
			}
			if status == 0 {
				response.Forbidden(w, "account is disabled")
				return
			}

			actions, err := loadActionPermissions(r.Context(), db, roleID, isAdmin == 1)
			if err != nil {
				response.Internal(w, "failed to load permissions")
				return
			}

			authCtx := &AuthContext{
				UserID:      claims.UID,
				Username:    username,
				RoleID:      roleID,
				Status:      status,
				Permissions: auth.NewPermissionSet(actions, isAdmin == 1),
			}
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
		})
	}
}

func loadActionPermissions(ctx context.Context, db *pgxpool.Pool, roleID *int64, isAdmin bool) ([]string, error) {
	if isAdmin || roleID == nil {
		return nil, nil
	}
	rows, err := db.Query(ctx, `
		select module || ':' || action
		from role_action_permissions
		where role_id = $1
	`, *roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []string
	for rows.Next() {
		var action string
		if err := rows.Scan(&action); err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

// RequirePermission gates a route on one "module:action" capability.
func RequirePermission(moduleAction string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, ok := GetAuthContext(r.Context())
			if !ok {
				response.Unauthorized(w, "authentication required")
				return
			}
			if !authCtx.Permissions.Has(moduleAction) {
				response.Forbidden(w, "no permission")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
