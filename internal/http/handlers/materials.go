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

type materialRecord struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	RecipeUnit  string     `json:"recipeUnit"`
	Status      int32      `json:"status"`
	Description *string    `json:"description"`
	CreatedBy   *int64     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedBy   *int64     `json:"updatedBy"`
	UpdatedAt   *time.Time `json:"updatedAt"`
}

const materialColumns = `id, name, recipe_unit, status, description, created_by, created_at, updated_by, updated_at`

func scanMaterial(row pgx.Row) (materialRecord, error) {
	var m materialRecord
	err := row.Scan(&m.ID, &m.Name, &m.RecipeUnit, &m.Status, &m.Description,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedBy, &m.UpdatedAt)
	return m, err
}

type createMaterialRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=50"`
	RecipeUnit  string  `json:"recipeUnit" validate:"required,min=1"`
	Status      *int32  `json:"status" validate:"omitempty,gte=0,lte=1"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) MaterialCreate(w http.ResponseWriter, r *http.Request) {
	var body createMaterialRequest
	if !decodeValid(w, r, &body) {
		return
	}
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	status := int32(1)
	if body.Status != nil {
		status = *body.Status
	}

	row := h.DB.QueryRow(r.Context(), `
		insert into materials (name, recipe_unit, status, description, created_by)
		values ($1, $2, $3, $4, $5)
		returning `+materialColumns,
		body.Name, body.RecipeUnit, status, body.Description, authCtx.UserID)
	record, err := scanMaterial(row)
	if err != nil {
		h.Logger.Error("material insert failed", zapError(err))
		response.Internal(w, "failed to create material")
		return
	}

	response.Created(w, "material created", record)
}

type updateMaterialRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=50"`
	RecipeUnit  *string `json:"recipeUnit" validate:"omitempty,min=1"`
	Status      *int32  `json:"status" validate:"omitempty,gte=0,lte=1"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) MaterialUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid material id")
		return
	}
	var body updateMaterialRequest
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
	if body.Name != nil {
		addSet("name", *body.Name)
	}
	if body.RecipeUnit != nil {
		addSet("recipe_unit", *body.RecipeUnit)
	}
	if body.Status != nil {
		addSet("status", *body.Status)
	}
	if body.Description != nil {
		addSet("description", *body.Description)
	}

	args = append(args, id)
	row := h.DB.QueryRow(r.Context(),
		"update materials set "+strings.Join(sets, ", ")+
			" where id = $"+strconv.Itoa(len(args))+" returning "+materialColumns, args...)
	record, err := scanMaterial(row)
	if err == pgx.ErrNoRows {
		response.OK(w, "material updated", nil)
		return
	}
	if err != nil {
		h.Logger.Error("material update failed", zapError(err))
		response.Internal(w, "failed to update material")
		return
	}

	response.OK(w, "material updated", record)
}

func (h *Handler) MaterialDelete(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid material id")
		return
	}
	if _, err := h.DB.Exec(r.Context(), `delete from materials where id = $1`, id); err != nil {
		h.Logger.Error("material delete failed", zapError(err))
		response.Internal(w, "failed to delete material")
		return
	}
	response.NoContent(w)
}

func (h *Handler) MaterialPage(w http.ResponseWriter, r *http.Request) {
	page := readPageParams(r)

	whereClauses := []string{"1=1"}
	args := []any{}
	if name := queryString(r, "name"); name != "" {
		args = append(args, "%"+name+"%")
		whereClauses = append(whereClauses, "name like $"+strconv.Itoa(len(args)))
	}
	whereSQL := strings.Join(whereClauses, " and ")

	var total int64
	if err := h.DB.QueryRow(r.Context(), `select count(*) from materials where `+whereSQL, args...).Scan(&total); err != nil {
		h.Logger.Error("material count failed", zapError(err))
		response.Internal(w, "failed to fetch materials")
		return
	}

	args = append(args, page.PageSize, page.Offset())
	rows, err := h.DB.Query(r.Context(), `
		select `+materialColumns+` from materials
		where `+whereSQL+`
		order by created_at desc
		limit $`+strconv.Itoa(len(args)-1)+` offset $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		h.Logger.Error("material page failed", zapError(err))
		response.Internal(w, "failed to fetch materials")
		return
	}
	defer rows.Close()

	records := make([]materialRecord, 0, page.PageSize)
	for rows.Next() {
		record, scanErr := scanMaterial(rows)
		if scanErr != nil {
			h.Logger.Error("material scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch materials")
			return
		}
		records = append(records, record)
	}

	response.OK(w, "query succeeded", map[string]any{"total": total, "records": records})
}

type materialListRecord struct {
	materialRecord
	CreatorName *string `json:"creatorName"`
	UpdaterName *string `json:"updaterName"`
}

// MaterialList returns every material annotated with the usernames of the
// accounts that created and last updated it.
func (h *Handler) MaterialList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.DB.Query(r.Context(), `
		select m.id, m.name, m.recipe_unit, m.status, m.description,
		       m.created_by, m.created_at, m.updated_by, m.updated_at,
		       creator.username, updater.username
		from materials m
		left join users creator on creator.id = m.created_by
		left join users updater on updater.id = m.updated_by
		order by m.created_at desc`)
	if err != nil {
		h.Logger.Error("material list failed", zapError(err))
		response.Internal(w, "failed to fetch materials")
		return
	}
	defer rows.Close()

	records := make([]materialListRecord, 0)
	for rows.Next() {
		var rec materialListRecord
		if scanErr := rows.Scan(&rec.ID, &rec.Name, &rec.RecipeUnit, &rec.Status, &rec.Description,
			&rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedBy, &rec.UpdatedAt,
			&rec.CreatorName, &rec.UpdaterName); scanErr != nil {
			h.Logger.Error("material scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch materials")
			return
		}
		records = append(records, rec)
	}

	response.OK(w, "query succeeded", records)
}

func (h *Handler) MaterialNameExists(w http.ResponseWriter, r *http.Request) {
	name := queryString(r, "name")
	query := `select count(*) from materials where name = $1`
	args := []any{name}
	if excludeID := queryInt64Ptr(r, "materialId"); excludeID != nil {
		query += ` and id <> $2`
		args = append(args, *excludeID)
	}

	var count int64
	if err := h.DB.QueryRow(r.Context(), query, args...).Scan(&count); err != nil {
		h.Logger.Error("material name check failed", zapError(err))
		response.Internal(w, "failed to check material name")
		return
	}

	response.OK(w, "query succeeded", map[string]any{"exists": count > 0})
}
