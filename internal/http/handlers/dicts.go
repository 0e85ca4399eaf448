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

type dictRecord struct {
	ID          int64        `json:"id"`
	Label       string       `json:"label"`
	Value       string       `json:"value"`
	ParentID    *int64       `json:"parentId"`
	Sort        *int32       `json:"sort"`
	Status      int32        `json:"status"`
	Description *string      `json:"description"`
	CreatedBy   *int64       `json:"createdBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedBy   *int64       `json:"updatedBy"`
	UpdatedAt   *time.Time   `json:"updatedAt"`
	Children    []dictRecord `json:"children,omitempty"`
}

const dictColumns = `id, label, value, parent_id, sort, status, description, created_by, created_at, updated_by, updated_at`

func scanDict(row pgx.Row) (dictRecord, error) {
	var d dictRecord
	err := row.Scan(&d.ID, &d.Label, &d.Value, &d.ParentID, &d.Sort, &d.Status,
		&d.Description, &d.CreatedBy, &d.CreatedAt, &d.UpdatedBy, &d.UpdatedAt)
	return d, err
}

func collectDicts(rows pgx.Rows) ([]dictRecord, error) {
	defer rows.Close()
	out := make([]dictRecord, 0)
	for rows.Next() {
		d, err := scanDict(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// buildDictTree attaches child entries to their parents, preserving the
// children's query order.
func buildDictTree(parents []dictRecord, children []dictRecord) []dictRecord {
	byParent := make(map[int64][]dictRecord)
	for _, child := range children {
		if child.ParentID == nil {
			continue
		}
		byParent[*child.ParentID] = append(byParent[*child.ParentID], child)
	}
	out := make([]dictRecord, 0, len(parents))
	for _, parent := range parents {
		parent.Children = byParent[parent.ID]
		if parent.Children == nil {
			parent.Children = []dictRecord{}
		}
		out = append(out, parent)
	}
	return out
}

// resolveDictSort turns the sentinel sort value 0 into max(sibling sort)+1.
func (h *Handler) resolveDictSort(ctx context.Context, parentID *int64, sort *int32) (*int32, error) {
	if sort == nil || *sort != 0 {
		return sort, nil
	}

	query := `select coalesce(max(sort), 0) from dicts where parent_id is null`
	args := []any{}
	if parentID != nil {
		query = `select coalesce(max(sort), 0) from dicts where parent_id = $1`
		args = append(args, *parentID)
	}

	var maxSort int32
	if err := h.DB.QueryRow(ctx, query, args...).Scan(&maxSort); err != nil {
		return nil, err
	}
	next := maxSort + 1
	return &next, nil
}

type createDictRequest struct {
	Label       string  `json:"label" validate:"required,min=1,max=100"`
	Value       string  `json:"value" validate:"required,min=1,max=100"`
	ParentID    *int64  `json:"parentId" validate:"omitempty,gt=0"`
	Sort        *int32  `json:"sort" validate:"omitempty,gte=0"`
	Status      *int32  `json:"status" validate:"omitempty,gte=0,lte=1"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) DictCreate(w http.ResponseWriter, r *http.Request) {
	var body createDictRequest
	if !decodeValid(w, r, &body) {
		return
	}
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}
	ctx := r.Context()

	// Top-level entries are deduplicated by label or value: creating an
	// existing one hands back the existing row.
	if body.ParentID == nil {
		existing, err := scanDict(h.DB.QueryRow(ctx, `
			select `+dictColumns+` from dicts
			where parent_id is null and (label = $1 or value = $2)
			limit 1
		`, body.Label, body.Value))
		if err == nil {
			response.Created(w, "dictionary created", existing)
			return
		}
		if err != pgx.ErrNoRows {
			h.Logger.Error("dict lookup failed", zapError(err))
			response.Internal(w, "failed to create dictionary")
			return
		}
	}

	sort, err := h.resolveDictSort(ctx, body.ParentID, body.Sort)
	if err != nil {
		h.Logger.Error("dict sort resolution failed", zapError(err))
		response.Internal(w, "failed to create dictionary")
		return
	}

	status := int32(1)
	if body.Status != nil {
		status = *body.Status
	}

	args := []any{body.Label, body.Value, body.ParentID, status, body.Description, authCtx.UserID}
	sortSQL := "default"
	if sort != nil {
		args = append(args, *sort)
		sortSQL = "$7"
	}
	row := h.DB.QueryRow(ctx, `
		insert into dicts (label, value, parent_id, status, description, created_by, sort)
		values ($1, $2, $3, $4, $5, $6, `+sortSQL+`)
		returning `+dictColumns, args...)
	record, err := scanDict(row)
	if err != nil {
		h.Logger.Error("dict insert failed", zapError(err))
		response.Internal(w, "failed to create dictionary")
		return
	}

	response.Created(w, "dictionary created", record)
}

type updateDictRequest struct {
	Label       *string `json:"label" validate:"omitempty,min=1,max=100"`
	Value       *string `json:"value" validate:"omitempty,min=1,max=100"`
	ParentID    *int64  `json:"parentId" validate:"omitempty,gt=0"`
	Sort        *int32  `json:"sort" validate:"omitempty,gte=0"`
	Status      *int32  `json:"status" validate:"omitempty,gte=0,lte=1"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) DictUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid dictionary id")
		return
	}
	var body updateDictRequest
	if !decodeValid(w, r, &body) {
		return
	}
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}
	ctx := r.Context()

	sort := body.Sort
	if sort != nil && *sort == 0 {
		parentID := body.ParentID
		if parentID == nil {
			existing, lookupErr := scanDict(h.DB.QueryRow(ctx,
				`select `+dictColumns+` from dicts where id = $1`, id))
			if lookupErr != nil && lookupErr != pgx.ErrNoRows {
				h.Logger.Error("dict lookup failed", zapError(lookupErr))
				response.Internal(w, "failed to update dictionary")
				return
			}
			if lookupErr == nil {
				parentID = existing.ParentID
			}
		}
		sort, err = h.resolveDictSort(ctx, parentID, sort)
		if err != nil {
			h.Logger.Error("dict sort resolution failed", zapError(err))
			response.Internal(w, "failed to update dictionary")
			return
		}
	}

	sets := []string{"updated_by = $1", "updated_at = now()"}
	args := []any{authCtx.UserID}
	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if body.Label != nil {
		addSet("label", *body.Label)
	}
	if body.Value != nil {
		addSet("value", *body.Value)
	}
	if body.ParentID != nil {
		addSet("parent_id", *body.ParentID)
	}
	if sort != nil {
		addSet("sort", *sort)
	}
	if body.Status != nil {
		addSet("status", *body.Status)
	}
	if body.Description != nil {
		addSet("description", *body.Description)
	}

	args = append(args, id)
	_, err = h.DB.Exec(ctx,
		"update dicts set "+strings.Join(sets, ", ")+" where id = $"+strconv.Itoa(len(args)), args...)
	if err != nil {
		h.Logger.Error("dict update failed", zapError(err))
		response.Internal(w, "failed to update dictionary")
		return
	}

	response.OK(w, "dictionary updated", nil)
}

// DictDelete removes an entry together with its child items.
func (h *Handler) DictDelete(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid dictionary id")
		return
	}
	if _, err := h.DB.Exec(r.Context(),
		`delete from dicts where id = $1 or parent_id = $1`, id); err != nil {
		h.Logger.Error("dict delete failed", zapError(err))
		response.Internal(w, "failed to delete dictionary")
		return
	}
	response.NoContent(w)
}

func (h *Handler) DictList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rows, err := h.DB.Query(ctx, `
		select `+dictColumns+` from dicts
		where parent_id is null
		order by created_at desc`)
	if err != nil {
		h.Logger.Error("dict list failed", zapError(err))
		response.Internal(w, "failed to fetch dictionaries")
		return
	}
	parents, err := collectDicts(rows)
	if err != nil {
		h.Logger.Error("dict scan failed", zapError(err))
		response.Internal(w, "failed to fetch dictionaries")
		return
	}
	if len(parents) == 0 {
		response.OK(w, "query succeeded", []dictRecord{})
		return
	}

	children, err := h.fetchDictChildren(ctx, dictIDs(parents))
	if err != nil {
		h.Logger.Error("dict children fetch failed", zapError(err))
		response.Internal(w, "failed to fetch dictionaries")
		return
	}

	response.OK(w, "query succeeded", buildDictTree(parents, children))
}

func (h *Handler) DictPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := readPageParams(r)

	whereClauses := []string{"parent_id is null"}
	args := []any{}
	if label := queryString(r, "label"); label != "" {
		args = append(args, "%"+label+"%")
		whereClauses = append(whereClauses, "label like $"+strconv.Itoa(len(args)))
	}
	whereSQL := strings.Join(whereClauses, " and ")

	var total int64
	if err := h.DB.QueryRow(ctx, `select count(*) from dicts where `+whereSQL, args...).Scan(&total); err != nil {
		h.Logger.Error("dict count failed", zapError(err))
		response.Internal(w, "failed to fetch dictionaries")
		return
	}

	args = append(args, page.PageSize, page.Offset())
	rows, err := h.DB.Query(ctx, `
		select `+dictColumns+` from dicts
		where `+whereSQL+`
		order by created_at desc
		limit $`+strconv.Itoa(len(args)-1)+` offset $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		h.Logger.Error("dict page failed", zapError(err))
		response.Internal(w, "failed to fetch dictionaries")
		return
	}
	parents, err := collectDicts(rows)
	if err != nil {
		h.Logger.Error("dict scan failed", zapError(err))
		response.Internal(w, "failed to fetch dictionaries")
		return
	}

	records := []dictRecord{}
	if len(parents) > 0 {
		children, childErr := h.fetchDictChildren(ctx, dictIDs(parents))
		if childErr != nil {
			h.Logger.Error("dict children fetch failed", zapError(childErr))
			response.Internal(w, "failed to fetch dictionaries")
			return
		}
		records = buildDictTree(parents, children)
	}

	response.OK(w, "query succeeded", map[string]any{"total": total, "records": records})
}

func (h *Handler) DictGet(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid dictionary id")
		return
	}
	ctx := r.Context()

	parent, err := scanDict(h.DB.QueryRow(ctx, `
		select `+dictColumns+` from dicts
		where id = $1 and parent_id is null`, id))
	if err == pgx.ErrNoRows {
		response.OK(w, "query succeeded", nil)
		return
	}
	if err != nil {
		h.Logger.Error("dict fetch failed", zapError(err))
		response.Internal(w, "failed to fetch dictionary")
		return
	}

	children, err := h.fetchDictChildren(ctx, []int64{parent.ID})
	if err != nil {
		h.Logger.Error("dict children fetch failed", zapError(err))
		response.Internal(w, "failed to fetch dictionary")
		return
	}
	parent.Children = children
	if parent.Children == nil {
		parent.Children = []dictRecord{}
	}

	response.OK(w, "query succeeded", parent)
}

func (h *Handler) DictLabelExists(w http.ResponseWriter, r *http.Request) {
	label := queryString(r, "label")
	query := `select count(*) from dicts where parent_id is null and label = $1`
	args := []any{label}
	if excludeID := queryInt64Ptr(r, "dictId"); excludeID != nil {
		query += ` and id <> $2`
		args = append(args, *excludeID)
	}

	var count int64
	if err := h.DB.QueryRow(r.Context(), query, args...).Scan(&count); err != nil {
		h.Logger.Error("dict label check failed", zapError(err))
		response.Internal(w, "failed to check dictionary label")
		return
	}

	response.OK(w, "query succeeded", map[string]any{"exists": count > 0})
}

func (h *Handler) fetchDictChildren(ctx context.Context, parentIDs []int64) ([]dictRecord, error) {
	rows, err := h.DB.Query(ctx, `
		select `+dictColumns+` from dicts
		where parent_id = any($1)
		order by sort asc, id asc`, parentIDs)
	if err != nil {
		return nil, err
	}
	return collectDicts(rows)
}

func dictIDs(records []dictRecord) []int64 {
	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	return ids
}
