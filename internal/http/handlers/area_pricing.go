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

type areaPricingRecord struct {
	ID                   int64      `json:"id"`
	AreaType             string     `json:"areaType"`
	RoomSize             *string    `json:"roomSize"`
	ApplyTimeStart       string     `json:"applyTimeStart"`
	ApplyTimeEnd         string     `json:"applyTimeEnd"`
	UsageDurationHours   float64    `json:"usageDurationHours"`
	BasePrice            float64    `json:"basePrice"`
	OvertimeHourPrice    float64    `json:"overtimeHourPrice"`
	OvertimeRoundType    string     `json:"overtimeRoundType"`
	OvertimeGraceMinutes *int32     `json:"overtimeGraceMinutes"`
	GiftTeaAmount        *float64   `json:"giftTeaAmount"`
	Status               int32      `json:"status"`
	Description          *string    `json:"description"`
	CreatedBy            *int64     `json:"createdBy"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedBy            *int64     `json:"updatedBy"`
	UpdatedAt            *time.Time `json:"updatedAt"`
	CreatorName          *string    `json:"creatorName,omitempty"`
	UpdaterName          *string    `json:"updaterName,omitempty"`
}

const areaPricingColumns = `id, area_type, room_size, apply_time_start, apply_time_end,
	usage_duration_hours, base_price, overtime_hour_price, overtime_round_type,
	overtime_grace_minutes, gift_tea_amount, status, description,
	created_by, created_at, updated_by, updated_at`

func scanAreaPricing(row pgx.Row) (areaPricingRecord, error) {
	var rec areaPricingRecord
	err := row.Scan(&rec.ID, &rec.AreaType, &rec.RoomSize, &rec.ApplyTimeStart, &rec.ApplyTimeEnd,
		&rec.UsageDurationHours, &rec.BasePrice, &rec.OvertimeHourPrice, &rec.OvertimeRoundType,
		&rec.OvertimeGraceMinutes, &rec.GiftTeaAmount, &rec.Status, &rec.Description,
		&rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedBy, &rec.UpdatedAt)
	return rec, err
}

type createAreaPricingRequest struct {
	AreaType             string   `json:"areaType" validate:"required,min=1"`
	RoomSize             *string  `json:"roomSize"`
	ApplyTimeStart       string   `json:"applyTimeStart" validate:"required,min=1"`
	ApplyTimeEnd         string   `json:"applyTimeEnd" validate:"required,min=1"`
	UsageDurationHours   *float64 `json:"usageDurationHours" validate:"required,gte=0"`
	BasePrice            *float64 `json:"basePrice" validate:"required,gte=0"`
	OvertimeHourPrice    *float64 `json:"overtimeHourPrice" validate:"required,gte=0"`
	OvertimeRoundType    string   `json:"overtimeRoundType" validate:"required,min=1"`
	OvertimeGraceMinutes *int32   `json:"overtimeGraceMinutes" validate:"omitempty,gte=0"`
	GiftTeaAmount        *float64 `json:"giftTeaAmount" validate:"omitempty,gte=0"`
	Status               *int32   `json:"status" validate:"omitempty,gte=0,lte=1"`
	Description          *string  `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) AreaPricingCreate(w http.ResponseWriter, r *http.Request) {
	var body createAreaPricingRequest
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
		insert into area_pricing
			(area_type, room_size, apply_time_start, apply_time_end, usage_duration_hours,
			 base_price, overtime_hour_price, overtime_round_type, overtime_grace_minutes,
			 gift_tea_amount, status, description, created_by)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		returning `+areaPricingColumns,
		body.AreaType, body.RoomSize, body.ApplyTimeStart, body.ApplyTimeEnd,
		body.UsageDurationHours, body.BasePrice, body.OvertimeHourPrice, body.OvertimeRoundType,
		body.OvertimeGraceMinutes, body.GiftTeaAmount, status, body.Description, authCtx.UserID)
	record, err := scanAreaPricing(row)
	if err != nil {
		h.Logger.Error("area pricing insert failed", zapError(err))
		response.Internal(w, "failed to create area pricing")
		return
	}

	response.Created(w, "area pricing created", record)
}

type updateAreaPricingRequest struct {
	AreaType             *string  `json:"areaType" validate:"omitempty,min=1"`
	RoomSize             *string  `json:"roomSize"`
	ApplyTimeStart       *string  `json:"applyTimeStart" validate:"omitempty,min=1"`
	ApplyTimeEnd         *string  `json:"applyTimeEnd" validate:"omitempty,min=1"`
	UsageDurationHours   *float64 `json:"usageDurationHours" validate:"omitempty,gte=0"`
	BasePrice            *float64 `json:"basePrice" validate:"omitempty,gte=0"`
	OvertimeHourPrice    *float64 `json:"overtimeHourPrice" validate:"omitempty,gte=0"`
	OvertimeRoundType    *string  `json:"overtimeRoundType" validate:"omitempty,min=1"`
	OvertimeGraceMinutes *int32   `json:"overtimeGraceMinutes" validate:"omitempty,gte=0"`
	GiftTeaAmount        *float64 `json:"giftTeaAmount" validate:"omitempty,gte=0"`
	Status               *int32   `json:"status" validate:"omitempty,gte=0,lte=1"`
	Description          *string  `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) AreaPricingUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid area pricing id")
		return
	}
	var body updateAreaPricingRequest
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
	if body.AreaType != nil {
		addSet("area_type", *body.AreaType)
	}
	if body.RoomSize != nil {
		addSet("room_size", *body.RoomSize)
	}
	if body.ApplyTimeStart != nil {
		addSet("apply_time_start", *body.ApplyTimeStart)
	}
	if body.ApplyTimeEnd != nil {
		addSet("apply_time_end", *body.ApplyTimeEnd)
	}
	if body.UsageDurationHours != nil {
		addSet("usage_duration_hours", *body.UsageDurationHours)
	}
	if body.BasePrice != nil {
		addSet("base_price", *body.BasePrice)
	}
	if body.OvertimeHourPrice != nil {
		addSet("overtime_hour_price", *body.OvertimeHourPrice)
	}
	if body.OvertimeRoundType != nil {
		addSet("overtime_round_type", *body.OvertimeRoundType)
	}
	if body.OvertimeGraceMinutes != nil {
		addSet("overtime_grace_minutes", *body.OvertimeGraceMinutes)
	}
	if body.GiftTeaAmount != nil {
		addSet("gift_tea_amount", *body.GiftTeaAmount)
	}
	if body.Status != nil {
		addSet("status", *body.Status)
	}
	if body.Description != nil {
		addSet("description", *body.Description)
	}

	args = append(args, id)
	row := h.DB.QueryRow(r.Context(),
		"update area_pricing set "+strings.Join(sets, ", ")+
			" where id = $"+strconv.Itoa(len(args))+" returning "+areaPricingColumns, args...)
	record, err := scanAreaPricing(row)
	if err == pgx.ErrNoRows {
		response.OK(w, "area pricing updated", nil)
		return
	}
	if err != nil {
		h.Logger.Error("area pricing update failed", zapError(err))
		response.Internal(w, "failed to update area pricing")
		return
	}

	response.OK(w, "area pricing updated", record)
}

func (h *Handler) AreaPricingDelete(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid area pricing id")
		return
	}
	if _, err := h.DB.Exec(r.Context(), `delete from area_pricing where id = $1`, id); err != nil {
		h.Logger.Error("area pricing delete failed", zapError(err))
		response.Internal(w, "failed to delete area pricing")
		return
	}
	response.NoContent(w)
}

func (h *Handler) AreaPricingPage(w http.ResponseWriter, r *http.Request) {
	page := readPageParams(r)

	whereClauses := []string{"1=1"}
	args := []any{}
	if areaType := queryString(r, "areaType"); areaType != "" {
		args = append(args, areaType)
		whereClauses = append(whereClauses, "area_type = $"+strconv.Itoa(len(args)))
	}
	if roomSize := queryString(r, "roomSize"); roomSize != "" {
		args = append(args, roomSize)
		whereClauses = append(whereClauses, "room_size = $"+strconv.Itoa(len(args)))
	}
	whereSQL := strings.Join(whereClauses, " and ")

	var total int64
	if err := h.DB.QueryRow(r.Context(), `select count(*) from area_pricing where `+whereSQL, args...).Scan(&total); err != nil {
		h.Logger.Error("area pricing count failed", zapError(err))
		response.Internal(w, "failed to fetch area pricing")
		return
	}

	args = append(args, page.PageSize, page.Offset())
	rows, err := h.DB.Query(r.Context(), `
		select `+areaPricingColumns+` from area_pricing
		where `+whereSQL+`
		order by created_at desc
		limit $`+strconv.Itoa(len(args)-1)+` offset $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		h.Logger.Error("area pricing page failed", zapError(err))
		response.Internal(w, "failed to fetch area pricing")
		return
	}
	defer rows.Close()

	records := make([]areaPricingRecord, 0, page.PageSize)
	for rows.Next() {
		record, scanErr := scanAreaPricing(rows)
		if scanErr != nil {
			h.Logger.Error("area pricing scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch area pricing")
			return
		}
		records = append(records, record)
	}

	response.OK(w, "query succeeded", map[string]any{"total": total, "records": records})
}

func (h *Handler) AreaPricingList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.DB.Query(r.Context(), `
		select p.id, p.area_type, p.room_size, p.apply_time_start, p.apply_time_end,
		       p.usage_duration_hours, p.base_price, p.overtime_hour_price, p.overtime_round_type,
		       p.overtime_grace_minutes, p.gift_tea_amount, p.status, p.description,
		       p.created_by, p.created_at, p.updated_by, p.updated_at,
		       creator.username, updater.username
		from area_pricing p
		left join users creator on creator.id = p.created_by
		left join users updater on updater.id = p.updated_by
		order by p.created_at desc`)
	if err != nil {
		h.Logger.Error("area pricing list failed", zapError(err))
		response.Internal(w, "failed to fetch area pricing")
		return
	}
	defer rows.Close()

	records := make([]areaPricingRecord, 0)
	for rows.Next() {
		var rec areaPricingRecord
		if scanErr := rows.Scan(&rec.ID, &rec.AreaType, &rec.RoomSize, &rec.ApplyTimeStart, &rec.ApplyTimeEnd,
			&rec.UsageDurationHours, &rec.BasePrice, &rec.OvertimeHourPrice, &rec.OvertimeRoundType,
			&rec.OvertimeGraceMinutes, &rec.GiftTeaAmount, &rec.Status, &rec.Description,
			&rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedBy, &rec.UpdatedAt,
			&rec.CreatorName, &rec.UpdaterName); scanErr != nil {
			h.Logger.Error("area pricing scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch area pricing")
			return
		}
		records = append(records, rec)
	}

	response.OK(w, "query succeeded", records)
}
