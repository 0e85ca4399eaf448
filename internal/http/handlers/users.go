package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"venue-admin-service/internal/middleware"
	"venue-admin-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

type userRecord struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	RoleID      *int64     `json:"roleId"`
	Status      int32      `json:"status"`
	IsAdmin     int32      `json:"isAdmin"`
	Phone       *string    `json:"phone"`
	Description *string    `json:"description"`
	CreatedBy   *int64     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedBy   *int64     `json:"updatedBy"`
	UpdatedAt   *time.Time `json:"updatedAt"`
}

const userColumns = `id, username, role_id, status, is_admin, phone, description, created_by, created_at, updated_by, updated_at`

func scanUser(row pgx.Row) (userRecord, error) {
	var u userRecord
	err := row.Scan(&u.ID, &u.Username, &u.RoleID, &u.Status, &u.IsAdmin, &u.Phone,
		&u.Description, &u.CreatedBy, &u.CreatedAt, &u.UpdatedBy, &u.UpdatedAt)
	return u, err
}

type createUserRequest struct {
	Username    string  `json:"username" validate:"required,min=3,max=50"`
	Password    string  `json:"password" validate:"required,min=6,max=100"`
	RoleID      *int64  `json:"roleId" validate:"omitempty,gt=0"`
	Status      *int32  `json:"status" validate:"omitempty,gte=0,lte=1"`
	Phone       *string `json:"phone" validate:"omitempty,max=30"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) UserCreate(w http.ResponseWriter, r *http.Request) {
	var body createUserRequest
	if !decodeValid(w, r, &body) {
		return
	}
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcryptCost)
	if err != nil {
		h.Logger.Error("password hashing failed", zapError(err))
		response.Internal(w, "failed to create user")
		return
	}

	status := int32(1)
	if body.Status != nil {
		status = *body.Status
	}

	row := h.DB.QueryRow(r.Context(), `
		insert into users (username, password_hash, role_id, status, phone, description, created_by)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning `+userColumns,
		body.Username, string(hash), body.RoleID, status, body.Phone, body.Description, authCtx.UserID)
	user, err := scanUser(row)
	if err != nil {
		h.Logger.Error("user insert failed", zapError(err))
		response.Internal(w, "failed to create user")
		return
	}

	response.Created(w, "user created", user)
}

type updateUserRequest struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=50"`
	Password    *string `json:"password" validate:"omitempty,min=6,max=100"`
	RoleID      *int64  `json:"roleId" validate:"omitempty,gt=0"`
	Status      *int32  `json:"status" validate:"omitempty,gte=0,lte=1"`
	Phone       *string `json:"phone" validate:"omitempty,max=30"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) UserUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}
	var body updateUserRequest
	if !decodeValid(w, r, &body) {
		return
	}
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	sets := []string{"updated_by = $1", "updated_at = now()"}
	args := []any{authCtx.UserID}
	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if body.Username != nil {
		addSet("username", *body.Username)
	}
	if body.Password != nil {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(*body.Password), bcryptCost)
		if hashErr != nil {
			h.Logger.Error("password hashing failed", zapError(hashErr))
			response.Internal(w, "failed to update user")
			return
		}
		addSet("password_hash", string(hash))
	}
	if body.RoleID != nil {
		addSet("role_id", *body.RoleID)
	}
	if body.Status != nil {
		addSet("status", *body.Status)
	}
	if body.Phone != nil {
		addSet("phone", *body.Phone)
	}
	if body.Description != nil {
		addSet("description", *body.Description)
	}

	args = append(args, id)
	_, err = h.DB.Exec(r.Context(),
		"update users set "+strings.Join(sets, ", ")+" where id = $"+strconv.Itoa(len(args)), args...)
	if err != nil {
		h.Logger.Error("user update failed", zapError(err))
		response.Internal(w, "failed to update user")
		return
	}

	response.OK(w, "user updated", nil)
}

func (h *Handler) UserDelete(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}
	if _, err := h.DB.Exec(r.Context(), `delete from users where id = $1`, id); err != nil {
		h.Logger.Error("user delete failed", zapError(err))
		response.Internal(w, "failed to delete user")
		return
	}
	response.NoContent(w)
}

func (h *Handler) UserList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.DB.Query(r.Context(), `select `+userColumns+` from users order by created_at desc`)
	if err != nil {
		h.Logger.Error("user list failed", zapError(err))
		response.Internal(w, "failed to fetch users")
		return
	}
	defer rows.Close()

	users := make([]userRecord, 0)
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			h.Logger.Error("user scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch users")
			return
		}
		users = append(users, user)
	}

	response.OK(w, "query succeeded", users)
}

func (h *Handler) UserPage(w http.ResponseWriter, r *http.Request) {
	page := readPageParams(r)

	whereClauses := []string{"1=1"}
	args := []any{}
	if username := queryString(r, "username"); username != "" {
		args = append(args, "%"+username+"%")
		whereClauses = append(whereClauses, "username like $"+strconv.Itoa(len(args)))
	}
	if roleID := queryInt64Ptr(r, "roleId"); roleID != nil {
		args = append(args, *roleID)
		whereClauses = append(whereClauses, "role_id = $"+strconv.Itoa(len(args)))
	}
	if status := queryString(r, "status"); status != "" {
		if parsed, parseErr := strconv.Atoi(status); parseErr == nil {
			args = append(args, parsed)
			whereClauses = append(whereClauses, "status = $"+strconv.Itoa(len(args)))
		}
	}
	whereSQL := strings.Join(whereClauses, " and ")

	var total int64
	if err := h.DB.QueryRow(r.Context(), `select count(*) from users where `+whereSQL, args...).Scan(&total); err != nil {
		h.Logger.Error("user count failed", zapError(err))
		response.Internal(w, "failed to fetch users")
		return
	}

	args = append(args, page.PageSize, page.Offset())
	rows, err := h.DB.Query(r.Context(), `
		select `+userColumns+` from users
		where `+whereSQL+`
		order by created_at desc
		limit $`+strconv.Itoa(len(args)-1)+` offset $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		h.Logger.Error("user page failed", zapError(err))
		response.Internal(w, "failed to fetch users")
		return
	}
	defer rows.Close()

	records := make([]userRecord, 0, page.PageSize)
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			h.Logger.Error("user scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch users")
			return
		}
		records = append(records, user)
	}

	response.OK(w, "query succeeded", map[string]any{"total": total, "records": records})
}

func (h *Handler) UserGet(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}
	user, err := scanUser(h.DB.QueryRow(r.Context(), `select `+userColumns+` from users where id = $1`, id))
	if err == pgx.ErrNoRows {
		response.OK(w, "query succeeded", nil)
		return
	}
	if err != nil {
		h.Logger.Error("user fetch failed", zapError(err))
		response.Internal(w, "failed to fetch user")
		return
	}
	response.OK(w, "query succeeded", user)
}
