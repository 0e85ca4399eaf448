package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"venue-admin-service/internal/middleware"
	"venue-admin-service/pkg/response"

	"github.com/jackc/pgx/v5"
)

type recipeItemRecord struct {
	RecipeID     int64   `json:"recipeId"`
	MaterialID   int64   `json:"materialId"`
	MaterialName *string `json:"materialName"`
	Amount       float64 `json:"amount"`
	RecipeUnit   *string `json:"recipeUnit"`
}

type recipeRecord struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Status      int32              `json:"status"`
	Description *string            `json:"description"`
	CreatedBy   *int64             `json:"createdBy"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedBy   *int64             `json:"updatedBy"`
	UpdatedAt   *time.Time         `json:"updatedAt"`
	CreatorName *string            `json:"creatorName,omitempty"`
	UpdaterName *string            `json:"updaterName,omitempty"`
	Children    []recipeItemRecord `json:"children"`
}

const recipeColumns = `id, name, status, description, created_by, created_at, updated_by, updated_at`

func scanRecipe(row pgx.Row) (recipeRecord, error) {
	var rec recipeRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.Status, &rec.Description,
		&rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedBy, &rec.UpdatedAt)
	return rec, err
}

// fetchRecipeItems loads the ingredient rows for a set of recipes joined to
// the material catalogue for display names and units.
func (h *Handler) fetchRecipeItems(ctx context.Context, recipeIDs []int64) (map[int64][]recipeItemRecord, error) {
	byRecipe := make(map[int64][]recipeItemRecord)
	if len(recipeIDs) == 0 {
		return byRecipe, nil
	}

	rows, err := h.DB.Query(ctx, `
		select ri.recipe_id, ri.material_id, m.name, ri.amount, m.recipe_unit
		from recipe_items ri
		left join materials m on m.id = ri.material_id
		where ri.recipe_id = any($1)`, recipeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item recipeItemRecord
		if err := rows.Scan(&item.RecipeID, &item.MaterialID, &item.MaterialName,
			&item.Amount, &item.RecipeUnit); err != nil {
			return nil, err
		}
		byRecipe[item.RecipeID] = append(byRecipe[item.RecipeID], item)
	}
	return byRecipe, rows.Err()
}

type recipeItemInput struct {
	MaterialID int64   `json:"materialId" validate:"required,gt=0"`
	Amount     float64 `json:"amount" validate:"gte=0"`
}

type createRecipeRequest struct {
	Name        string            `json:"name" validate:"required,min=1,max=50"`
	Status      *int32            `json:"status" validate:"omitempty,gte=0,lte=1"`
	Description *string           `json:"description" validate:"omitempty,max=200"`
	Children    []recipeItemInput `json:"children" validate:"required,dive"`
}

func (h *Handler) RecipeCreate(w http.ResponseWriter, r *http.Request) {
	var body createRecipeRequest
	if !decodeValid(w, r, &body) {
		return
	}
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}
	ctx := r.Context()

	status := int32(1)
	if body.Status != nil {
		status = *body.Status
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("recipe tx begin failed", zapError(err))
		response.Internal(w, "failed to create recipe")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		insert into recipes (name, status, description, created_by)
		values ($1, $2, $3, $4)
		returning `+recipeColumns,
		body.Name, status, body.Description, authCtx.UserID)
	record, err := scanRecipe(row)
	if err != nil {
		h.Logger.Error("recipe insert failed", zapError(err))
		response.Internal(w, "failed to create recipe")
		return
	}

	for _, item := range body.Children {
		if _, err := tx.Exec(ctx, `
			insert into recipe_items (recipe_id, material_id, amount, created_by)
			values ($1, $2, $3, $4)`,
			record.ID, item.MaterialID, item.Amount, authCtx.UserID); err != nil {
			h.Logger.Error("recipe item insert failed", zapError(err))
			response.Internal(w, "failed to create recipe")
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		h.Logger.Error("recipe tx commit failed", zapError(err))
		response.Internal(w, "failed to create recipe")
		return
	}

	response.Created(w, "recipe created", record)
}

type updateRecipeRequest struct {
	Name        string            `json:"name" validate:"required,min=1,max=50"`
	Status      int32             `json:"status" validate:"gte=0,lte=1"`
	Description *string           `json:"description" validate:"omitempty,max=200"`
	Children    []recipeItemInput `json:"children" validate:"required,dive"`
}

// RecipeUpdate rewrites the header and replaces the full ingredient list in
// one transaction.
func (h *Handler) RecipeUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid recipe id")
		return
	}
	var body updateRecipeRequest
	if !decodeValid(w, r, &body) {
		return
	}
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}
	ctx := r.Context()

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("recipe tx begin failed", zapError(err))
		response.Internal(w, "failed to update recipe")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		update recipes
		set name = $1, status = $2, description = $3, updated_by = $4, updated_at = now()
		where id = $5
		returning `+recipeColumns,
		body.Name, body.Status, body.Description, authCtx.UserID, id)
	record, err := scanRecipe(row)
	if err != nil && err != pgx.ErrNoRows {
		h.Logger.Error("recipe update failed", zapError(err))
		response.Internal(w, "failed to update recipe")
		return
	}

	if _, err := tx.Exec(ctx, `delete from recipe_items where recipe_id = $1`, id); err != nil {
		h.Logger.Error("recipe item clear failed", zapError(err))
		response.Internal(w, "failed to update recipe")
		return
	}
	for _, item := range body.Children {
		if _, err := tx.Exec(ctx, `
			insert into recipe_items (recipe_id, material_id, amount, created_by)
			values ($1, $2, $3, $4)`,
			id, item.MaterialID, item.Amount, authCtx.UserID); err != nil {
			h.Logger.Error("recipe item insert failed", zapError(err))
			response.Internal(w, "failed to update recipe")
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		h.Logger.Error("recipe tx commit failed", zapError(err))
		response.Internal(w, "failed to update recipe")
		return
	}

	if err == pgx.ErrNoRows {
		response.OK(w, "recipe updated", nil)
		return
	}
	response.OK(w, "recipe updated", record)
}

// RecipeDelete removes a recipe and its ingredient rows together.
func (h *Handler) RecipeDelete(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid recipe id")
		return
	}
	ctx := r.Context()

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("recipe tx begin failed", zapError(err))
		response.Internal(w, "failed to delete recipe")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `delete from recipe_items where recipe_id = $1`, id); err != nil {
		h.Logger.Error("recipe item clear failed", zapError(err))
		response.Internal(w, "failed to delete recipe")
		return
	}
	if _, err := tx.Exec(ctx, `delete from recipes where id = $1`, id); err != nil {
		h.Logger.Error("recipe delete failed", zapError(err))
		response.Internal(w, "failed to delete recipe")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		h.Logger.Error("recipe tx commit failed", zapError(err))
		response.Internal(w, "failed to delete recipe")
		return
	}

	response.NoContent(w)
}

func (h *Handler) RecipePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := readPageParams(r)

	whereClauses := []string{"1=1"}
	args := []any{}
	if name := queryString(r, "name"); name != "" {
		args = append(args, "%"+name+"%")
		whereClauses = append(whereClauses, "name like $"+strconv.Itoa(len(args)))
	}
	whereSQL := strings.Join(whereClauses, " and ")

	var total int64
	if err := h.DB.QueryRow(ctx, `select count(*) from recipes where `+whereSQL, args...).Scan(&total); err != nil {
		h.Logger.Error("recipe count failed", zapError(err))
		response.Internal(w, "failed to fetch recipes")
		return
	}

	args = append(args, page.PageSize, page.Offset())
	rows, err := h.DB.Query(ctx, `
		select `+recipeColumns+` from recipes
		where `+whereSQL+`
		order by created_at desc
		limit $`+strconv.Itoa(len(args)-1)+` offset $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		h.Logger.Error("recipe page failed", zapError(err))
		response.Internal(w, "failed to fetch recipes")
		return
	}

	records := make([]recipeRecord, 0, page.PageSize)
	ids := make([]int64, 0, page.PageSize)
	for rows.Next() {
		record, scanErr := scanRecipe(rows)
		if scanErr != nil {
			rows.Close()
			h.Logger.Error("recipe scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch recipes")
			return
		}
		records = append(records, record)
		ids = append(ids, record.ID)
	}
	rows.Close()

	items, err := h.fetchRecipeItems(ctx, ids)
	if err != nil {
		h.Logger.Error("recipe item fetch failed", zapError(err))
		response.Internal(w, "failed to fetch recipes")
		return
	}
	for i := range records {
		records[i].Children = items[records[i].ID]
		if records[i].Children == nil {
			records[i].Children = []recipeItemRecord{}
		}
	}

	response.OK(w, "query succeeded", map[string]any{"total": total, "records": records})
}

func (h *Handler) RecipeList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `
		select r.id, r.name, r.status, r.description,
		       r.created_by, r.created_at, r.updated_by, r.updated_at,
		       creator.username, updater.username
		from recipes r
		left join users creator on creator.id = r.created_by
		left join users updater on updater.id = r.updated_by
		order by r.created_at desc`)
	if err != nil {
		h.Logger.Error("recipe list failed", zapError(err))
		response.Internal(w, "failed to fetch recipes")
		return
	}

	records := make([]recipeRecord, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		var rec recipeRecord
		if scanErr := rows.Scan(&rec.ID, &rec.Name, &rec.Status, &rec.Description,
			&rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedBy, &rec.UpdatedAt,
			&rec.CreatorName, &rec.UpdaterName); scanErr != nil {
			rows.Close()
			h.Logger.Error("recipe scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch recipes")
			return
		}
		records = append(records, rec)
		ids = append(ids, rec.ID)
	}
	rows.Close()

	items, err := h.fetchRecipeItems(ctx, ids)
	if err != nil {
		h.Logger.Error("recipe item fetch failed", zapError(err))
		response.Internal(w, "failed to fetch recipes")
		return
	}
	for i := range records {
		records[i].Children = items[records[i].ID]
		if records[i].Children == nil {
			records[i].Children = []recipeItemRecord{}
		}
	}

	response.OK(w, "query succeeded", records)
}

func (h *Handler) RecipeNameExists(w http.ResponseWriter, r *http.Request) {
	name := queryString(r, "name")
	query := `select count(*) from recipes where name = $1`
	args := []any{name}
	if excludeID := queryInt64Ptr(r, "recipeId"); excludeID != nil {
		query += ` and id <> $2`
		args = append(args, *excludeID)
	}

	var count int64
	if err := h.DB.QueryRow(r.Context(), query, args...).Scan(&count); err != nil {
		h.Logger.Error("recipe name check failed", zapError(err))
		response.Internal(w, "failed to check recipe name")
		return
	}

	response.OK(w, "query succeeded", map[string]any{"exists": count > 0})
}
