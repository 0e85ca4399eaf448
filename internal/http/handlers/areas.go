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

type areaPricingRuleRecord struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	AreaType             string     `json:"areaType"`
	RoomSize             *string    `json:"roomSize"`
	TimeType             string     `json:"timeType"`
	StartTimeFrom        string     `json:"startTimeFrom"`
	BaseDurationMinutes  int32      `json:"baseDurationMinutes"`
	BasePrice            float64    `json:"basePrice"`
	OvertimePricePerHour float64    `json:"overtimePricePerHour"`
	OvertimeRounding     string     `json:"overtimeRounding"`
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

const areaPricingRuleColumns = `id, name, area_type, room_size, time_type, start_time_from,
	base_duration_minutes, base_price, overtime_price_per_hour, overtime_rounding,
	overtime_grace_minutes, gift_tea_amount, status, description,
	created_by, created_at, updated_by, updated_at`

func scanAreaPricingRule(row pgx.Row) (areaPricingRuleRecord, error) {
	var rec areaPricingRuleRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.AreaType, &rec.RoomSize, &rec.TimeType,
		&rec.StartTimeFrom, &rec.BaseDurationMinutes, &rec.BasePrice, &rec.OvertimePricePerHour,
		&rec.OvertimeRounding, &rec.OvertimeGraceMinutes, &rec.GiftTeaAmount, &rec.Status,
		&rec.Description, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedBy, &rec.UpdatedAt)
	return rec, err
}

type createAreaPricingRuleRequest struct {
	Name                 string   `json:"name" validate:"required,min=1,max=50"`
	AreaType             string   `json:"areaType" validate:"required,min=1"`
	RoomSize             *string  `json:"roomSize" validate:"omitempty,max=20"`
	TimeType             string   `json:"timeType" validate:"required,min=1"`
	StartTimeFrom        string   `json:"startTimeFrom" validate:"required,min=1"`
	BaseDurationMinutes  int32    `json:"baseDurationMinutes" validate:"required,gte=1"`
	BasePrice            *float64 `json:"basePrice" validate:"required,gte=0"`
	OvertimePricePerHour *float64 `json:"overtimePricePerHour" validate:"required,gte=0"`
	OvertimeRounding     string   `json:"overtimeRounding" validate:"required,min=1"`
	OvertimeGraceMinutes *int32   `json:"overtimeGraceMinutes" validate:"omitempty,gte=0"`
	GiftTeaAmount        *float64 `json:"giftTeaAmount" validate:"omitempty,gte=0"`
	Status               *int32   `json:"status" validate:"omitempty,gte=0,lte=1"`
	Description          *string  `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) AreaPricingRuleCreate(w http.ResponseWriter, r *http.Request) {
	var body createAreaPricingRuleRequest
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
		insert into area_pricing_rules
			(name, area_type, room_size, time_type, start_time_from, base_duration_minutes,
			 base_price, overtime_price_per_hour, overtime_rounding, overtime_grace_minutes,
			 gift_tea_amount, status, description, created_by)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		returning `+areaPricingRuleColumns,
		body.Name, body.AreaType, body.RoomSize, body.TimeType, body.StartTimeFrom,
		body.BaseDurationMinutes, body.BasePrice, body.OvertimePricePerHour,
		body.OvertimeRounding, body.OvertimeGraceMinutes, body.GiftTeaAmount,
		status, body.Description, authCtx.UserID)
	record, err := scanAreaPricingRule(row)
	if err != nil {
		h.Logger.Error("pricing rule insert failed", zapError(err))
		response.Internal(w, "failed to create pricing rule")
		return
	}

	response.Created(w, "pricing rule created", record)
}

type updateAreaPricingRuleRequest struct {
	Name                 *string  `json:"name" validate:"omitempty,min=1,max=50"`
	AreaType             *string  `json:"areaType" validate:"omitempty,min=1"`
	RoomSize             *string  `json:"roomSize" validate:"omitempty,max=20"`
	TimeType             *string  `json:"timeType" validate:"omitempty,min=1"`
	StartTimeFrom        *string  `json:"startTimeFrom" validate:"omitempty,min=1"`
	BaseDurationMinutes  *int32   `json:"baseDurationMinutes" validate:"omitempty,gte=1"`
	BasePrice            *float64 `json:"basePrice" validate:"omitempty,gte=0"`
	OvertimePricePerHour *float64 `json:"overtimePricePerHour" validate:"omitempty,gte=0"`
	OvertimeRounding     *string  `json:"overtimeRounding" validate:"omitempty,min=1"`
	OvertimeGraceMinutes *int32   `json:"overtimeGraceMinutes" validate:"omitempty,gte=0"`
	GiftTeaAmount        *float64 `json:"giftTeaAmount" validate:"omitempty,gte=0"`
	Status               *int32   `json:"status" validate:"omitempty,gte=0,lte=1"`
	Description          *string  `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) AreaPricingRuleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid pricing rule id")
		return
	}
	var body updateAreaPricingRuleRequest
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
	if body.AreaType != nil {
		addSet("area_type", *body.AreaType)
	}
	if body.RoomSize != nil {
		addSet("room_size", *body.RoomSize)
	}
	if body.TimeType != nil {
		addSet("time_type", *body.TimeType)
	}
	if body.StartTimeFrom != nil {
		addSet("start_time_from", *body.StartTimeFrom)
	}
	if body.BaseDurationMinutes != nil {
		addSet("base_duration_minutes", *body.BaseDurationMinutes)
	}
	if body.BasePrice != nil {
		addSet("base_price", *body.BasePrice)
	}
	if body.OvertimePricePerHour != nil {
		addSet("overtime_price_per_hour", *body.OvertimePricePerHour)
	}
	if body.OvertimeRounding != nil {
		addSet("overtime_rounding", *body.OvertimeRounding)
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
		"update area_pricing_rules set "+strings.Join(sets, ", ")+
			" where id = $"+strconv.Itoa(len(args))+" returning "+areaPricingRuleColumns, args...)
	record, err := scanAreaPricingRule(row)
	if err == pgx.ErrNoRows {
		response.OK(w, "pricing rule updated", nil)
		return
	}
	if err != nil {
		h.Logger.Error("pricing rule update failed", zapError(err))
		response.Internal(w, "failed to update pricing rule")
		return
	}

	response.OK(w, "pricing rule updated", record)
}

func (h *Handler) AreaPricingRuleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid pricing rule id")
		return
	}
	if _, err := h.DB.Exec(r.Context(), `delete from area_pricing_rules where id = $1`, id); err != nil {
		h.Logger.Error("pricing rule delete failed", zapError(err))
		response.Internal(w, "failed to delete pricing rule")
		return
	}
	response.NoContent(w)
}

func (h *Handler) AreaPricingRuleList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.DB.Query(r.Context(), `
		select p.id, p.name, p.area_type, p.room_size, p.time_type, p.start_time_from,
		       p.base_duration_minutes, p.base_price, p.overtime_price_per_hour, p.overtime_rounding,
		       p.overtime_grace_minutes, p.gift_tea_amount, p.status, p.description,
		       p.created_by, p.created_at, p.updated_by, p.updated_at,
		       creator.username, updater.username
		from area_pricing_rules p
		left join users creator on creator.id = p.created_by
		left join users updater on updater.id = p.updated_by
		order by p.created_at desc`)
	if err != nil {
		h.Logger.Error("pricing rule list failed", zapError(err))
		response.Internal(w, "failed to fetch pricing rules")
		return
	}
	defer rows.Close()

	records := make([]areaPricingRuleRecord, 0)
	for rows.Next() {
		var rec areaPricingRuleRecord
		if scanErr := rows.Scan(&rec.ID, &rec.Name, &rec.AreaType, &rec.RoomSize, &rec.TimeType,
			&rec.StartTimeFrom, &rec.BaseDurationMinutes, &rec.BasePrice, &rec.OvertimePricePerHour,
			&rec.OvertimeRounding, &rec.OvertimeGraceMinutes, &rec.GiftTeaAmount, &rec.Status,
			&rec.Description, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedBy, &rec.UpdatedAt,
			&rec.CreatorName, &rec.UpdaterName); scanErr != nil {
			h.Logger.Error("pricing rule scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch pricing rules")
			return
		}
		records = append(records, rec)
	}

	response.OK(w, "query succeeded", records)
}

func (h *Handler) AreaPricingRuleNameExists(w http.ResponseWriter, r *http.Request) {
	name := queryString(r, "name")
	query := `select count(*) from area_pricing_rules where name = $1`
	args := []any{name}
	if excludeID := queryInt64Ptr(r, "areaPricingRuleId"); excludeID != nil {
		query += ` and id <> $2`
		args = append(args, *excludeID)
	}

	var count int64
	if err := h.DB.QueryRow(r.Context(), query, args...).Scan(&count); err != nil {
		h.Logger.Error("pricing rule name check failed", zapError(err))
		response.Internal(w, "failed to check pricing rule name")
		return
	}

	response.OK(w, "query succeeded", map[string]any{"exists": count > 0})
}

type areaResourceRecord struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	AreaType    string     `json:"areaType"`
	RoomSize    *string    `json:"roomSize"`
	Capacity    *int32     `json:"capacity"`
	Status      int32      `json:"status"`
	Description *string    `json:"description"`
	CreatedBy   *int64     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedBy   *int64     `json:"updatedBy"`
	UpdatedAt   *time.Time `json:"updatedAt"`
	CreatorName *string    `json:"creatorName,omitempty"`
	UpdaterName *string    `json:"updaterName,omitempty"`
}

const areaResourceColumns = `id, name, area_type, room_size, capacity, status, description,
	created_by, created_at, updated_by, updated_at`

func scanAreaResource(row pgx.Row) (areaResourceRecord, error) {
	var rec areaResourceRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.AreaType, &rec.RoomSize, &rec.Capacity,
		&rec.Status, &rec.Description, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedBy, &rec.UpdatedAt)
	return rec, err
}

type createAreaResourceRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=50"`
	AreaType    string  `json:"areaType" validate:"required,min=1"`
	RoomSize    *string `json:"roomSize" validate:"omitempty,max=20"`
	Capacity    *int32  `json:"capacity" validate:"omitempty,gte=0"`
	Status      *int32  `json:"status" validate:"omitempty,gte=0,lte=1"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) AreaResourceCreate(w http.ResponseWriter, r *http.Request) {
	var body createAreaResourceRequest
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
		insert into area_resources (name, area_type, room_size, capacity, status, description, created_by)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning `+areaResourceColumns,
		body.Name, body.AreaType, body.RoomSize, body.Capacity, status, body.Description, authCtx.UserID)
	record, err := scanAreaResource(row)
	if err != nil {
		h.Logger.Error("area resource insert failed", zapError(err))
		response.Internal(w, "failed to create area resource")
		return
	}

	response.Created(w, "area resource created", record)
}

type updateAreaResourceRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=50"`
	AreaType    *string `json:"areaType" validate:"omitempty,min=1"`
	RoomSize    *string `json:"roomSize" validate:"omitempty,max=20"`
	Capacity    *int32  `json:"capacity" validate:"omitempty,gte=0"`
	Status      *int32  `json:"status" validate:"omitempty,gte=0,lte=1"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) AreaResourceUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid area resource id")
		return
	}
	var body updateAreaResourceRequest
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
	if body.AreaType != nil {
		addSet("area_type", *body.AreaType)
	}
	if body.RoomSize != nil {
		addSet("room_size", *body.RoomSize)
	}
	if body.Capacity != nil {
		addSet("capacity", *body.Capacity)
	}
	if body.Status != nil {
		addSet("status", *body.Status)
	}
	if body.Description != nil {
		addSet("description", *body.Description)
	}

	args = append(args, id)
	row := h.DB.QueryRow(r.Context(),
		"update area_resources set "+strings.Join(sets, ", ")+
			" where id = $"+strconv.Itoa(len(args))+" returning "+areaResourceColumns, args...)
	record, err := scanAreaResource(row)
	if err == pgx.ErrNoRows {
		response.OK(w, "area resource updated", nil)
		return
	}
	if err != nil {
		h.Logger.Error("area resource update failed", zapError(err))
		response.Internal(w, "failed to update area resource")
		return
	}

	response.OK(w, "area resource updated", record)
}

func (h *Handler) AreaResourceDelete(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid area resource id")
		return
	}
	if _, err := h.DB.Exec(r.Context(), `delete from area_resources where id = $1`, id); err != nil {
		h.Logger.Error("area resource delete failed", zapError(err))
		response.Internal(w, "failed to delete area resource")
		return
	}
	response.NoContent(w)
}

func (h *Handler) AreaResourceList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.DB.Query(r.Context(), `
		select a.id, a.name, a.area_type, a.room_size, a.capacity, a.status, a.description,
		       a.created_by, a.created_at, a.updated_by, a.updated_at,
		       creator.username, updater.username
		from area_resources a
		left join users creator on creator.id = a.created_by
		left join users updater on updater.id = a.updated_by
		order by a.created_at desc`)
	if err != nil {
		h.Logger.Error("area resource list failed", zapError(err))
		response.Internal(w, "failed to fetch area resources")
		return
	}
	defer rows.Close()

	records := make([]areaResourceRecord, 0)
	for rows.Next() {
		var rec areaResourceRecord
		if scanErr := rows.Scan(&rec.ID, &rec.Name, &rec.AreaType, &rec.RoomSize, &rec.Capacity,
			&rec.Status, &rec.Description, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedBy, &rec.UpdatedAt,
			&rec.CreatorName, &rec.UpdaterName); scanErr != nil {
			h.Logger.Error("area resource scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch area resources")
			return
		}
		records = append(records, rec)
	}

	response.OK(w, "query succeeded", records)
}

func (h *Handler) AreaResourceNameExists(w http.ResponseWriter, r *http.Request) {
	name := queryString(r, "name")
	query := `select count(*) from area_resources where name = $1`
	args := []any{name}
	if excludeID := queryInt64Ptr(r, "areaResourceId"); excludeID != nil {
		query += ` and id <> $2`
		args = append(args, *excludeID)
	}

	var count int64
	if err := h.DB.QueryRow(r.Context(), query, args...).Scan(&count); err != nil {
		h.Logger.Error("area resource name check failed", zapError(err))
		response.Internal(w, "failed to check area resource name")
		return
	}

	response.OK(w, "query succeeded", map[string]any{"exists": count > 0})
}
