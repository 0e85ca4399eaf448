package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"venue-admin-service/internal/queue"
	"venue-admin-service/pkg/response"

	"github.com/jackc/pgx/v5"
)

type orderRecord struct {
	ID                      int64                `json:"id"`
	OrderNo                 string               `json:"orderNo"`
	OrderStatus             string               `json:"orderStatus"`
	OpenedAt                *time.Time           `json:"openedAt"`
	ClosedAt                *time.Time           `json:"closedAt"`
	ExpectedAmount          *float64             `json:"expectedAmount"`
	ActualAmount            *float64             `json:"actualAmount"`
	PaymentDifferenceReason *string              `json:"paymentDifferenceReason"`
	Remark                  *string              `json:"remark"`
	IsDeleted               int32                `json:"isDeleted"`
	DeleteReason            *string              `json:"deleteReason"`
	DeletedBy               *int64               `json:"deletedBy"`
	DeletedByName           *string              `json:"deletedByName"`
	DeletedAt               *time.Time           `json:"deletedAt"`
	CreatedBy               int64                `json:"createdBy"`
	CreatedByName           string               `json:"createdByName"`
	CreatedAt               time.Time            `json:"createdAt"`
	UpdatedBy               *int64               `json:"updatedBy"`
	UpdatedByName           *string              `json:"updatedByName"`
	UpdatedAt               *time.Time           `json:"updatedAt"`
	Reserved                *orderReservedRecord `json:"reserved"`
	Area                    *orderAreaRecord     `json:"area"`
	Products                []orderProductRecord `json:"products"`
	Payments                []orderPaymentRecord `json:"payments"`
}

type orderReservedRecord struct {
	ID       int64   `json:"id"`
	OrderNo  string  `json:"orderNo"`
	Username *string `json:"username"`
	Contact  *string `json:"contact"`
	ArriveAt *string `json:"arriveAt"`
}

type orderAreaRecord struct {
	ID       int64   `json:"id"`
	OrderNo  string  `json:"orderNo"`
	AreaID   int64   `json:"areaId"`
	AreaName string  `json:"areaName"`
	AreaType string  `json:"areaType"`
	RoomSize *string `json:"roomSize"`
	Price    float64 `json:"price"`
}

type orderProductRecord struct {
	ID          int64   `json:"id"`
	OrderNo     string  `json:"orderNo"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int32   `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
}

type orderPaymentRecord struct {
	ID                int64      `json:"id"`
	OrderNo           string     `json:"orderNo"`
	PaymentMethod     string     `json:"paymentMethod"`
	PaymentMethodName string     `json:"paymentMethodName"`
	PaymentAmount     float64    `json:"paymentAmount"`
	PaidAt            *time.Time `json:"paidAt"`
}

const orderColumns = `id, order_no, order_status, opened_at, closed_at, expected_amount,
	actual_amount, payment_difference_reason, remark, is_deleted, delete_reason,
	deleted_by, deleted_by_name, deleted_at,
	created_by, created_by_name, created_at, updated_by, updated_by_name, updated_at`

func scanOrder(row pgx.Row) (orderRecord, error) {
	var o orderRecord
	err := row.Scan(&o.ID, &o.OrderNo, &o.OrderStatus, &o.OpenedAt, &o.ClosedAt, &o.ExpectedAmount,
		&o.ActualAmount, &o.PaymentDifferenceReason, &o.Remark, &o.IsDeleted, &o.DeleteReason,
		&o.DeletedBy, &o.DeletedByName, &o.DeletedAt,
		&o.CreatedBy, &o.CreatedByName, &o.CreatedAt, &o.UpdatedBy, &o.UpdatedByName, &o.UpdatedAt)
	return o, err
}

// formatOrderNo builds ORD + yyyymmdd + zero-padded sequence.
func formatOrderNo(day time.Time, seq int64) string {
	return fmt.Sprintf("ORD%s%04d", day.Format("20060102"), seq)
}

type createOrderRequest struct {
	OrderStatus   string  `json:"orderStatus" validate:"required,min=1"`
	OpenedAt      *string `json:"openedAt"`
	Remark        *string `json:"remark"`
	CreatedBy     int64   `json:"createdBy" validate:"required,gt=0"`
	CreatedByName string  `json:"createdByName" validate:"required,min=1"`
}

// OrderCreate assigns the next order number for today and inserts the header.
// Numbering counts today's orders inside the same transaction as the insert,
// so two concurrent creates can still collide on the unique order_no index;
// the second one fails rather than silently reusing a number.
func (h *Handler) OrderCreate(w http.ResponseWriter, r *http.Request) {
	var body createOrderRequest
	if !decodeValid(w, r, &body) {
		return
	}
	ctx := r.Context()

	var openedAt *time.Time
	if body.OpenedAt != nil && *body.OpenedAt != "" {
		parsed, err := parseDateTimeParam(*body.OpenedAt)
		if err != nil {
			response.ValidationFailed(w, []response.FieldError{{Field: "openedAt", Message: "invalid datetime"}})
			return
		}
		openedAt = &parsed
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("order tx begin failed", zapError(err))
		response.Internal(w, "failed to create order")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	var todayCount int64
	if err := tx.QueryRow(ctx,
		`select count(*) from sales_orders where order_no like $1`,
		"ORD"+now.Format("20060102")+"%").Scan(&todayCount); err != nil {
		h.Logger.Error("order number count failed", zapError(err))
		response.Internal(w, "failed to create order")
		return
	}
	orderNo := formatOrderNo(now, todayCount+1)

	row := tx.QueryRow(ctx, `
		insert into sales_orders (order_no, order_status, opened_at, remark, created_by, created_by_name)
		values ($1, $2, $3, $4, $5, $6)
		returning `+orderColumns,
		orderNo, body.OrderStatus, openedAt, body.Remark, body.CreatedBy, body.CreatedByName)
	record, err := scanOrder(row)
	if err != nil {
		h.Logger.Error("order insert failed", zapError(err))
		response.Internal(w, "failed to create order")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.Logger.Error("order tx commit failed", zapError(err))
		response.Internal(w, "failed to create order")
		return
	}

	h.publishOrderEvent(ctx, "created", queue.OrderEvent{
		OrderNo:     record.OrderNo,
		OrderStatus: record.OrderStatus,
		Actor:       body.CreatedByName,
	})
	response.Created(w, "order created", record)
}

type updateOrderRequest struct {
	OrderNo                 string   `json:"orderNo" validate:"required,min=1"`
	OrderStatus             *string  `json:"orderStatus"`
	OpenedAt                *string  `json:"openedAt"`
	ClosedAt                *string  `json:"closedAt"`
	ActualAmount            *float64 `json:"actualAmount"`
	PaymentDifferenceReason *string  `json:"paymentDifferenceReason"`
	Remark                  *string  `json:"remark"`
	UpdatedBy               *int64   `json:"updatedBy"`
	UpdatedByName           *string  `json:"updatedByName"`
}

func (h *Handler) OrderUpdate(w http.ResponseWriter, r *http.Request) {
	var body updateOrderRequest
	if !decodeValid(w, r, &body) {
		return
	}
	ctx := r.Context()

	sets := []string{"updated_at = now()"}
	args := []any{}
	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if body.OrderStatus != nil {
		addSet("order_status", *body.OrderStatus)
	}
	if body.OpenedAt != nil && *body.OpenedAt != "" {
		parsed, err := parseDateTimeParam(*body.OpenedAt)
		if err != nil {
			response.ValidationFailed(w, []response.FieldError{{Field: "openedAt", Message: "invalid datetime"}})
			return
		}
		addSet("opened_at", parsed)
	}
	if body.ClosedAt != nil && *body.ClosedAt != "" {
		parsed, err := parseDateTimeParam(*body.ClosedAt)
		if err != nil {
			response.ValidationFailed(w, []response.FieldError{{Field: "closedAt", Message: "invalid datetime"}})
			return
		}
		addSet("closed_at", parsed)
	}
	if body.ActualAmount != nil {
		addSet("actual_amount", *body.ActualAmount)
	}
	if body.PaymentDifferenceReason != nil {
		addSet("payment_difference_reason", *body.PaymentDifferenceReason)
	}
	if body.Remark != nil {
		addSet("remark", *body.Remark)
	}
	if body.UpdatedBy != nil {
		addSet("updated_by", *body.UpdatedBy)
	}
	if body.UpdatedByName != nil {
		addSet("updated_by_name", *body.UpdatedByName)
	}

	args = append(args, body.OrderNo)
	tag, err := h.DB.Exec(ctx,
		"update sales_orders set "+strings.Join(sets, ", ")+
			" where order_no = $"+strconv.Itoa(len(args)), args...)
	if err != nil {
		h.Logger.Error("order update failed", zapError(err))
		response.Internal(w, "failed to update order")
		return
	}

	if tag.RowsAffected() > 0 {
		status := ""
		if body.OrderStatus != nil {
			status = *body.OrderStatus
		}
		actor := ""
		if body.UpdatedByName != nil {
			actor = *body.UpdatedByName
		}
		h.publishOrderEvent(ctx, "updated", queue.OrderEvent{
			OrderNo:     body.OrderNo,
			OrderStatus: status,
			Actor:       actor,
		})
	}
	response.OK(w, "order updated", nil)
}

type deleteOrderRequest struct {
	OrderNo       string `json:"orderNo" validate:"required,min=1"`
	DeleteReason  string `json:"deleteReason" validate:"required"`
	DeletedBy     int64  `json:"deletedBy" validate:"required,gt=0"`
	DeletedByName string `json:"deletedByName" validate:"required,min=1"`
}

// OrderDelete marks the header deleted; sub-records stay untouched.
func (h *Handler) OrderDelete(w http.ResponseWriter, r *http.Request) {
	var body deleteOrderRequest
	if !decodeValid(w, r, &body) {
		return
	}
	ctx := r.Context()

	tag, err := h.DB.Exec(ctx, `
		update sales_orders
		set is_deleted = 1, delete_reason = $1, deleted_by = $2, deleted_by_name = $3, deleted_at = now()
		where order_no = $4 and is_deleted = 0`,
		body.DeleteReason, body.DeletedBy, body.DeletedByName, body.OrderNo)
	if err != nil {
		h.Logger.Error("order delete failed", zapError(err))
		response.Internal(w, "failed to delete order")
		return
	}

	if tag.RowsAffected() > 0 {
		h.publishOrderEvent(ctx, "deleted", queue.OrderEvent{
			OrderNo: body.OrderNo,
			Actor:   body.DeletedByName,
		})
	}
	response.NoContent(w)
}

// orderItemTables whitelists the sub-record tables addressable through
// DELETE /orders/item.
var orderItemTables = map[string]string{
	"area":     "sales_order_areas",
	"product":  "sales_order_products",
	"payment":  "sales_order_payments",
	"reserved": "sales_order_reserved",
}

type deleteOrderItemRequest struct {
	Type string  `json:"type" validate:"required,oneof=area product payment reserved"`
	IDs  []int64 `json:"ids" validate:"required"`
}

func (h *Handler) OrderDeleteItem(w http.ResponseWriter, r *http.Request) {
	var body deleteOrderItemRequest
	if !decodeValid(w, r, &body) {
		return
	}

	table := orderItemTables[body.Type]
	if _, err := h.DB.Exec(r.Context(),
		`delete from `+table+` where id = any($1)`, body.IDs); err != nil {
		h.Logger.Error("order item delete failed", zapError(err))
		response.Internal(w, "failed to delete order item")
		return
	}
	response.NoContent(w)
}

type setOrderAreaRequest struct {
	OrderNo  string   `json:"orderNo" validate:"required,min=1"`
	AreaID   int64    `json:"areaId" validate:"required,gt=0"`
	AreaName string   `json:"areaName" validate:"required,min=1"`
	AreaType string   `json:"areaType" validate:"required,min=1"`
	RoomSize *string  `json:"roomSize"`
	Price    *float64 `json:"price" validate:"omitempty,gte=0"`
}

// OrderSetArea binds an area to the order, overwriting any previous binding.
func (h *Handler) OrderSetArea(w http.ResponseWriter, r *http.Request) {
	var body setOrderAreaRequest
	if !decodeValid(w, r, &body) {
		return
	}
	ctx := r.Context()

	price := float64(0)
	if body.Price != nil {
		price = *body.Price
	}

	var existingID int64
	err := h.DB.QueryRow(ctx,
		`select id from sales_order_areas where order_no = $1`, body.OrderNo).Scan(&existingID)
	switch {
	case err == pgx.ErrNoRows:
		_, err = h.DB.Exec(ctx, `
			insert into sales_order_areas (order_no, area_id, area_name, area_type, room_size, price)
			values ($1, $2, $3, $4, $5, $6)`,
			body.OrderNo, body.AreaID, body.AreaName, body.AreaType, body.RoomSize, price)
	case err == nil:
		_, err = h.DB.Exec(ctx, `
			update sales_order_areas
			set area_id = $1, area_name = $2, area_type = $3, room_size = $4, price = $5
			where order_no = $6`,
			body.AreaID, body.AreaName, body.AreaType, body.RoomSize, price, body.OrderNo)
	}
	if err != nil {
		h.Logger.Error("order area set failed", zapError(err))
		response.Internal(w, "failed to set order area")
		return
	}

	response.OK(w, "order area set", nil)
}

type setOrderReservedRequest struct {
	OrderNo  string  `json:"orderNo" validate:"required,min=1"`
	Username *string `json:"username"`
	Contact  *string `json:"contact"`
	ArriveAt *string `json:"arriveAt"`
}

// OrderSetReserved binds guest reservation details, overwriting any previous
// binding.
func (h *Handler) OrderSetReserved(w http.ResponseWriter, r *http.Request) {
	var body setOrderReservedRequest
	if !decodeValid(w, r, &body) {
		return
	}
	ctx := r.Context()

	var existingID int64
	err := h.DB.QueryRow(ctx,
		`select id from sales_order_reserved where order_no = $1`, body.OrderNo).Scan(&existingID)
	switch {
	case err == pgx.ErrNoRows:
		_, err = h.DB.Exec(ctx, `
			insert into sales_order_reserved (order_no, username, contact, arrive_at)
			values ($1, $2, $3, $4)`,
			body.OrderNo, body.Username, body.Contact, body.ArriveAt)
	case err == nil:
		_, err = h.DB.Exec(ctx, `
			update sales_order_reserved
			set username = $1, contact = $2, arrive_at = $3
			where order_no = $4`,
			body.Username, body.Contact, body.ArriveAt, body.OrderNo)
	}
	if err != nil {
		h.Logger.Error("order reservation set failed", zapError(err))
		response.Internal(w, "failed to set order reservation")
		return
	}

	response.OK(w, "order reservation set", nil)
}

// resolveProductLine merges a patch onto the stored quantity/unit-price pair
// and recomputes the line total from the resolved values.
func resolveProductLine(storedQuantity int32, storedUnitPrice float64, patchQuantity *int32, patchUnitPrice *float64) (int32, float64, float64) {
	quantity := storedQuantity
	if patchQuantity != nil {
		quantity = *patchQuantity
	}
	unitPrice := storedUnitPrice
	if patchUnitPrice != nil {
		unitPrice = *patchUnitPrice
	}
	return quantity, unitPrice, float64(quantity) * unitPrice
}

type addOrderProductRequest struct {
	OrderNo     string   `json:"orderNo" validate:"required,min=1"`
	ProductID   int64    `json:"productId" validate:"required,gt=0"`
	ProductName string   `json:"productName" validate:"required,min=1"`
	Quantity    int32    `json:"quantity" validate:"required,gte=1"`
	UnitPrice   *float64 `json:"unitPrice" validate:"required,gte=0"`
}

func (h *Handler) OrderAddProduct(w http.ResponseWriter, r *http.Request) {
	var body addOrderProductRequest
	if !decodeValid(w, r, &body) {
		return
	}

	quantity, unitPrice, total := resolveProductLine(body.Quantity, *body.UnitPrice, nil, nil)
	if _, err := h.DB.Exec(r.Context(), `
		insert into sales_order_products (order_no, product_id, product_name, quantity, unit_price, total_price)
		values ($1, $2, $3, $4, $5, $6)`,
		body.OrderNo, body.ProductID, body.ProductName, quantity, unitPrice, total); err != nil {
		h.Logger.Error("order product insert failed", zapError(err))
		response.Internal(w, "failed to add order product")
		return
	}

	response.Created(w, "order product added", nil)
}

type updateOrderProductRequest struct {
	ID          int64    `json:"id" validate:"required,gt=0"`
	OrderNo     *string  `json:"orderNo"`
	ProductName *string  `json:"productName"`
	Quantity    *int32   `json:"quantity" validate:"omitempty,gte=1"`
	UnitPrice   *float64 `json:"unitPrice" validate:"omitempty,gte=0"`
}

// OrderUpdateProduct patches a product line. When quantity or unit price
// changes, the missing half of the pair is read from the stored row and the
// line total is recomputed. A patch against a missing row is a no-op.
func (h *Handler) OrderUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var body updateOrderProductRequest
	if !decodeValid(w, r, &body) {
		return
	}
	ctx := r.Context()

	sets := []string{}
	args := []any{}
	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if body.OrderNo != nil {
		addSet("order_no", *body.OrderNo)
	}
	if body.ProductName != nil {
		addSet("product_name", *body.ProductName)
	}

	if body.Quantity != nil || body.UnitPrice != nil {
		var (
			storedQuantity  int32
			storedUnitPrice float64
		)
		err := h.DB.QueryRow(ctx,
			`select quantity, unit_price from sales_order_products where id = $1`,
			body.ID).Scan(&storedQuantity, &storedUnitPrice)
		if err == pgx.ErrNoRows {
			response.OK(w, "order product updated", nil)
			return
		}
		if err != nil {
			h.Logger.Error("order product lookup failed", zapError(err))
			response.Internal(w, "failed to update order product")
			return
		}

		quantity, unitPrice, total := resolveProductLine(storedQuantity, storedUnitPrice, body.Quantity, body.UnitPrice)
		addSet("quantity", quantity)
		addSet("unit_price", unitPrice)
		addSet("total_price", total)
	}

	if len(sets) == 0 {
		response.OK(w, "order product updated", nil)
		return
	}

	args = append(args, body.ID)
	if _, err := h.DB.Exec(ctx,
		"update sales_order_products set "+strings.Join(sets, ", ")+
			" where id = $"+strconv.Itoa(len(args)), args...); err != nil {
		h.Logger.Error("order product update failed", zapError(err))
		response.Internal(w, "failed to update order product")
		return
	}

	response.OK(w, "order product updated", nil)
}

type addOrderPaymentRequest struct {
	OrderNo           string   `json:"orderNo" validate:"required,min=1"`
	PaymentMethod     string   `json:"paymentMethod" validate:"required,min=1"`
	PaymentMethodName string   `json:"paymentMethodName" validate:"required,min=1"`
	PaymentAmount     *float64 `json:"paymentAmount" validate:"required,gte=0"`
}

func (h *Handler) OrderAddPayment(w http.ResponseWriter, r *http.Request) {
	var body addOrderPaymentRequest
	if !decodeValid(w, r, &body) {
		return
	}

	if _, err := h.DB.Exec(r.Context(), `
		insert into sales_order_payments (order_no, payment_method, payment_method_name, payment_amount, paid_at)
		values ($1, $2, $3, $4, now())`,
		body.OrderNo, body.PaymentMethod, body.PaymentMethodName, body.PaymentAmount); err != nil {
		h.Logger.Error("order payment insert failed", zapError(err))
		response.Internal(w, "failed to add order payment")
		return
	}

	response.Created(w, "order payment added", nil)
}

type updateOrderPaymentRequest struct {
	ID                int64    `json:"id" validate:"required,gt=0"`
	PaymentMethod     *string  `json:"paymentMethod"`
	PaymentMethodName *string  `json:"paymentMethodName"`
	PaymentAmount     *float64 `json:"paymentAmount" validate:"omitempty,gte=0"`
}

func (h *Handler) OrderUpdatePayment(w http.ResponseWriter, r *http.Request) {
	var body updateOrderPaymentRequest
	if !decodeValid(w, r, &body) {
		return
	}

	sets := []string{}
	args := []any{}
	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if body.PaymentMethod != nil {
		addSet("payment_method", *body.PaymentMethod)
	}
	if body.PaymentMethodName != nil {
		addSet("payment_method_name", *body.PaymentMethodName)
	}
	if body.PaymentAmount != nil {
		addSet("payment_amount", *body.PaymentAmount)
	}

	if len(sets) == 0 {
		response.OK(w, "order payment updated", nil)
		return
	}

	args = append(args, body.ID)
	if _, err := h.DB.Exec(r.Context(),
		"update sales_order_payments set "+strings.Join(sets, ", ")+
			" where id = $"+strconv.Itoa(len(args)), args...); err != nil {
		h.Logger.Error("order payment update failed", zapError(err))
		response.Internal(w, "failed to update order payment")
		return
	}

	response.OK(w, "order payment updated", nil)
}
