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

type productPricingRecord struct {
	ID                  int64      `json:"id"`
	ProductID           int64      `json:"productId"`
	ProductName         *string    `json:"productName,omitempty"`
	Price               float64    `json:"price"`
	RuleApplicationType *string    `json:"ruleApplicationType"`
	ApplyTimeStart      *string    `json:"applyTimeStart"`
	Status              int32      `json:"status"`
	Description         *string    `json:"description"`
	CreatedBy           *int64     `json:"createdBy"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedBy           *int64     `json:"updatedBy"`
	UpdatedAt           *time.Time `json:"updatedAt"`
	CreatorName         *string    `json:"creatorName,omitempty"`
	UpdaterName         *string    `json:"updaterName,omitempty"`
}

const productPricingColumns = `id, product_id, price, rule_application_type, apply_time_start,
	status, description, created_by, created_at, updated_by, updated_at`

func scanProductPricing(row pgx.Row) (productPricingRecord, error) {
	var rec productPricingRecord
	err := row.Scan(&rec.ID, &rec.ProductID, &rec.Price, &rec.RuleApplicationType, &rec.ApplyTimeStart,
		&rec.Status, &rec.Description, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedBy, &rec.UpdatedAt)
	return rec, err
}

type createProductPricingRequest struct {
	ProductID           int64    `json:"productId" validate:"required,gt=0"`
	Price               *float64 `json:"price" validate:"required,gte=0"`
	RuleApplicationType *string  `json:"ruleApplicationType"`
	ApplyTimeStart      *string  `json:"applyTimeStart"`
	Status              *int32   `json:"status" validate:"omitempty,gte=0,lte=1"`
	Description         *string  `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) ProductPricingCreate(w http.ResponseWriter, r *http.Request) {
	var body createProductPricingRequest
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
		insert into product_pricing
			(product_id, price, rule_application_type, apply_time_start, status, description, created_by)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning `+productPricingColumns,
		body.ProductID, body.Price, body.RuleApplicationType, body.ApplyTimeStart,
		status, body.Description, authCtx.UserID)
	record, err := scanProductPricing(row)
	if err != nil {
		h.Logger.Error("product pricing insert failed", zapError(err))
		response.Internal(w, "failed to create product pricing")
		return
	}

	response.Created(w, "product pricing created", record)
}

type updateProductPricingRequest struct {
	ProductID           *int64   `json:"productId" validate:"omitempty,gt=0"`
	Price               *float64 `json:"price" validate:"omitempty,gte=0"`
	RuleApplicationType *string  `json:"ruleApplicationType"`
	ApplyTimeStart      *string  `json:"applyTimeStart"`
	Status              *int32   `json:"status" validate:"omitempty,gte=0,lte=1"`
	Description         *string  `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) ProductPricingUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid product pricing id")
		return
	}
	var body updateProductPricingRequest
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
	if body.ProductID != nil {
		addSet("product_id", *body.ProductID)
	}
	if body.Price != nil {
		addSet("price", *body.Price)
	}
	if body.RuleApplicationType != nil {
		addSet("rule_application_type", *body.RuleApplicationType)
	}
	if body.ApplyTimeStart != nil {
		addSet("apply_time_start", *body.ApplyTimeStart)
	}
	if body.Status != nil {
		addSet("status", *body.Status)
	}
	if body.Description != nil {
		addSet("description", *body.Description)
	}

	args = append(args, id)
	row := h.DB.QueryRow(r.Context(),
		"update product_pricing set "+strings.Join(sets, ", ")+
			" where id = $"+strconv.Itoa(len(args))+" returning "+productPricingColumns, args...)
	record, err := scanProductPricing(row)
	if err == pgx.ErrNoRows {
		response.OK(w, "product pricing updated", nil)
		return
	}
	if err != nil {
		h.Logger.Error("product pricing update failed", zapError(err))
		response.Internal(w, "failed to update product pricing")
		return
	}

	response.OK(w, "product pricing updated", record)
}

func (h *Handler) ProductPricingDelete(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid product pricing id")
		return
	}
	if _, err := h.DB.Exec(r.Context(), `delete from product_pricing where id = $1`, id); err != nil {
		h.Logger.Error("product pricing delete failed", zapError(err))
		response.Internal(w, "failed to delete product pricing")
		return
	}
	response.NoContent(w)
}

// ProductPricingPage joins the recipe catalogue so each row carries its
// product name alongside creator and updater usernames.
func (h *Handler) ProductPricingPage(w http.ResponseWriter, r *http.Request) {
	page := readPageParams(r)

	whereClauses := []string{"1=1"}
	args := []any{}
	if productID := queryInt64Ptr(r, "productId"); productID != nil {
		args = append(args, *productID)
		whereClauses = append(whereClauses, "pp.product_id = $"+strconv.Itoa(len(args)))
	}
	whereSQL := strings.Join(whereClauses, " and ")

	var total int64
	if err := h.DB.QueryRow(r.Context(),
		`select count(*) from product_pricing pp where `+whereSQL, args...).Scan(&total); err != nil {
		h.Logger.Error("product pricing count failed", zapError(err))
		response.Internal(w, "failed to fetch product pricing")
		return
	}

	args = append(args, page.PageSize, page.Offset())
	rows, err := h.DB.Query(r.Context(), `
		select pp.id, pp.product_id, product.name, pp.price, pp.rule_application_type, pp.apply_time_start,
		       pp.status, pp.description, pp.created_by, pp.created_at, pp.updated_by, pp.updated_at,
		       creator.username, updater.username
		from product_pricing pp
		left join recipes product on product.id = pp.product_id
		left join users creator on creator.id = pp.created_by
		left join users updater on updater.id = pp.updated_by
		where `+whereSQL+`
		order by pp.created_at desc
		limit $`+strconv.Itoa(len(args)-1)+` offset $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		h.Logger.Error("product pricing page failed", zapError(err))
		response.Internal(w, "failed to fetch product pricing")
		return
	}
	defer rows.Close()

	records := make([]productPricingRecord, 0, page.PageSize)
	for rows.Next() {
		var rec productPricingRecord
		if scanErr := rows.Scan(&rec.ID, &rec.ProductID, &rec.ProductName, &rec.Price,
			&rec.RuleApplicationType, &rec.ApplyTimeStart, &rec.Status, &rec.Description,
			&rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedBy, &rec.UpdatedAt,
			&rec.CreatorName, &rec.UpdaterName); scanErr != nil {
			h.Logger.Error("product pricing scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch product pricing")
			return
		}
		records = append(records, rec)
	}

	response.OK(w, "query succeeded", map[string]any{"total": total, "records": records})
}

func (h *Handler) ProductPricingList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.DB.Query(r.Context(), `
		select pp.id, pp.product_id, product.name, pp.price, pp.rule_application_type, pp.apply_time_start,
		       pp.status, pp.description, pp.created_by, pp.created_at, pp.updated_by, pp.updated_at,
		       creator.username, updater.username
		from product_pricing pp
		left join recipes product on product.id = pp.product_id
		left join users creator on creator.id = pp.created_by
		left join users updater on updater.id = pp.updated_by
		order by pp.created_at desc`)
	if err != nil {
		h.Logger.Error("product pricing list failed", zapError(err))
		response.Internal(w, "failed to fetch product pricing")
		return
	}
	defer rows.Close()

	records := make([]productPricingRecord, 0)
	for rows.Next() {
		var rec productPricingRecord
		if scanErr := rows.Scan(&rec.ID, &rec.ProductID, &rec.ProductName, &rec.Price,
			&rec.RuleApplicationType, &rec.ApplyTimeStart, &rec.Status, &rec.Description,
			&rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedBy, &rec.UpdatedAt,
			&rec.CreatorName, &rec.UpdaterName); scanErr != nil {
			h.Logger.Error("product pricing scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch product pricing")
			return
		}
		records = append(records, rec)
	}

	response.OK(w, "query succeeded", records)
}
