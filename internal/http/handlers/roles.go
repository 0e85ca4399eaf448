package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"venue-admin-service/internal/middleware"
	"venue-admin-service/pkg/response"

	"github.com/jackc/pgx/v5"
)

type roleRecord struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	CreatedBy   *int64     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedBy   *int64     `json:"updatedBy"`
	UpdatedAt   *time.Time `json:"updatedAt"`
}

const roleColumns = `id, name, description, created_by, created_at, updated_by, updated_at`

func scanRole(row pgx.Row) (roleRecord, error) {
	var rec roleRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.Description, &rec.CreatedBy, &rec.CreatedAt,
		&rec.UpdatedBy, &rec.UpdatedAt)
	return rec, err
}

type createRoleRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=50"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) RoleCreate(w http.ResponseWriter, r *http.Request) {
	var body createRoleRequest
	if !decodeValid(w, r, &body) {
		return
	}
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	row := h.DB.QueryRow(r.Context(), `
		insert into roles (name, description, created_by)
		values ($1, $2, $3)
		returning `+roleColumns, body.Name, body.Description, authCtx.UserID)
	role, err := scanRole(row)
	if err != nil {
		h.Logger.Error("role insert failed", zapError(err))
		response.Internal(w, "failed to create role")
		return
	}

	response.Created(w, "role created", role)
}

type updateRoleRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) RoleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid role id")
		return
	}
	var body updateRoleRequest
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
	if body.Name != nil {
		args = append(args, *body.Name)
		sets = append(sets, "name = $"+strconv.Itoa(len(args)))
	}
	if body.Description != nil {
		args = append(args, *body.Description)
		sets = append(sets, "description = $"+strconv.Itoa(len(args)))
	}

	args = append(args, id)
	_, err = h.DB.Exec(r.Context(),
		"update roles set "+strings.Join(sets, ", ")+" where id = $"+strconv.Itoa(len(args)), args...)
	if err != nil {
		h.Logger.Error("role update failed", zapError(err))
		response.Internal(w, "failed to update role")
		return
	}

	response.OK(w, "role updated", nil)
}

func (h *Handler) RoleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid role id")
		return
	}
	if _, err := h.DB.Exec(r.Context(), `delete from roles where id = $1`, id); err != nil {
		h.Logger.Error("role delete failed", zapError(err))
		response.Internal(w, "failed to delete role")
		return
	}
	response.NoContent(w)
}

func (h *Handler) RoleList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.DB.Query(r.Context(), `select `+roleColumns+` from roles order by created_at desc`)
	if err != nil {
		h.Logger.Error("role list failed", zapError(err))
		response.Internal(w, "failed to fetch roles")
		return
	}
	defer rows.Close()

	roles := make([]roleRecord, 0)
	for rows.Next() {
		role, scanErr := scanRole(rows)
		if scanErr != nil {
			h.Logger.Error("role scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch roles")
			return
		}
		roles = append(roles, role)
	}

	response.OK(w, "query succeeded", roles)
}

func (h *Handler) RolePage(w http.ResponseWriter, r *http.Request) {
	page := readPageParams(r)

	whereClauses := []string{"1=1"}
	args := []any{}
	if name := queryString(r, "name"); name != "" {
		args = append(args, "%"+name+"%")
		whereClauses = append(whereClauses, "name like $"+strconv.Itoa(len(args)))
	}
	whereSQL := strings.Join(whereClauses, " and ")

	var total int64
	if err := h.DB.QueryRow(r.Context(), `select count(*) from roles where `+whereSQL, args...).Scan(&total); err != nil {
		h.Logger.Error("role count failed", zapError(err))
		response.Internal(w, "failed to fetch roles")
		return
	}

	args = append(args, page.PageSize, page.Offset())
	rows, err := h.DB.Query(r.Context(), `
		select `+roleColumns+` from roles
		where `+whereSQL+`
		order by created_at desc
		limit $`+strconv.Itoa(len(args)-1)+` offset $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		h.Logger.Error("role page failed", zapError(err))
		response.Internal(w, "failed to fetch roles")
		return
	}
	defer rows.Close()

	records := make([]roleRecord, 0, page.PageSize)
	for rows.Next() {
		role, scanErr := scanRole(rows)
		if scanErr != nil {
			h.Logger.Error("role scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch roles")
			return
		}
		records = append(records, role)
	}

	response.OK(w, "query succeeded", map[string]any{"total": total, "records": records})
}

type actionPermission struct {
	Module string `json:"module" validate:"required,min=1"`
	Action string `json:"action" validate:"required,min=1"`
}

type setRolePermissionsRequest struct {
	Paths   []string           `json:"paths" validate:"required"`
	Actions []actionPermission `json:"actions" validate:"required,dive"`
}

// RoleSetPermissions replaces both permission lists of a role: the
// front-end route paths and the module:action capabilities.
func (h *Handler) RoleSetPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid role id")
		return
	}
	var body setRolePermissionsRequest
	if !decodeValid(w, r, &body) {
		return
	}

	ctx := r.Context()
	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("permission tx begin failed", zapError(err))
		response.Internal(w, "failed to set permissions")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `delete from role_path_permissions where role_id = $1`, id); err != nil {
		h.Logger.Error("path permission clear failed", zapError(err))
		response.Internal(w, "failed to set permissions")
		return
	}
	for _, path := range body.Paths {
		if _, err := tx.Exec(ctx,
			`insert into role_path_permissions (role_id, path) values ($1, $2)`, id, path); err != nil {
			h.Logger.Error("path permission insert failed", zapError(err))
			response.Internal(w, "failed to set permissions")
			return
		}
	}

	if _, err := tx.Exec(ctx, `delete from role_action_permissions where role_id = $1`, id); err != nil {
		h.Logger.Error("action permission clear failed", zapError(err))
		response.Internal(w, "failed to set permissions")
		return
	}
	for _, perm := range body.Actions {
		if _, err := tx.Exec(ctx,
			`insert into role_action_permissions (role_id, module, action) values ($1, $2, $3)`,
			id, perm.Module, perm.Action); err != nil {
			h.Logger.Error("action permission insert failed", zapError(err))
			response.Internal(w, "failed to set permissions")
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		h.Logger.Error("permission tx commit failed", zapError(err))
		response.Internal(w, "failed to set permissions")
		return
	}

	response.OK(w, "permissions updated", nil)
}

func (h *Handler) RoleGetPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid role id")
		return
	}
	ctx := r.Context()

	paths := make([]string, 0)
	rows, err := h.DB.Query(ctx, `select path from role_path_permissions where role_id = $1`, id)
	if err != nil {
		h.Logger.Error("path permission fetch failed", zapError(err))
		response.Internal(w, "failed to fetch permissions")
		return
	}
	for rows.Next() {
		var path string
		if scanErr := rows.Scan(&path); scanErr != nil {
			rows.Close()
			h.Logger.Error("path permission scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch permissions")
			return
		}
		paths = append(paths, path)
	}
	rows.Close()

	actions := make([]actionPermission, 0)
	rows, err = h.DB.Query(ctx, `select module, action from role_action_permissions where role_id = $1`, id)
	if err != nil {
		h.Logger.Error("action permission fetch failed", zapError(err))
		response.Internal(w, "failed to fetch permissions")
		return
	}
	for rows.Next() {
		var perm actionPermission
		if scanErr := rows.Scan(&perm.Module, &perm.Action); scanErr != nil {
			rows.Close()
			h.Logger.Error("action permission scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch permissions")
			return
		}
		actions = append(actions, perm)
	}
	rows.Close()

	response.OK(w, "query succeeded", map[string]any{"paths": paths, "actions": actions})
}

func (h *Handler) RoleNameExists(w http.ResponseWriter, r *http.Request) {
	name := queryString(r, "name")
	query := `select count(*) from roles where name = $1`
	args := []any{name}
	if excludeID := queryInt64Ptr(r, "roleId"); excludeID != nil {
		query += ` and id <> $2`
		args = append(args, *excludeID)
	}

	var count int64
	if err := h.DB.QueryRow(r.Context(), query, args...).Scan(&count); err != nil {
		h.Logger.Error("role name check failed", zapError(err))
		response.Internal(w, "failed to check role name")
		return
	}

	response.OK(w, "query succeeded", map[string]any{"exists": count > 0})
}
