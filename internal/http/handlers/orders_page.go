package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"venue-admin-service/pkg/response"
)

type orderSearchParams struct {
	OrderNo          string
	OrderStatuses    []string
	AreaName         string
	AreaType         string
	RoomSize         string
	UnboundArea      bool
	OpenedAtFrom     *time.Time
	OpenedAtTo       *time.Time
	ReservedUsername string
	ReservedContact  string
}

func readOrderSearchParams(r *http.Request) orderSearchParams {
	params := orderSearchParams{
		OrderNo:          queryString(r, "orderNo"),
		AreaName:         queryString(r, "areaName"),
		AreaType:         queryString(r, "areaType"),
		RoomSize:         queryString(r, "roomSize"),
		UnboundArea:      queryString(r, "unboundArea") == "true",
		ReservedUsername: queryString(r, "reservedUsername"),
		ReservedContact:  queryString(r, "reservedContact"),
	}
	if raw := queryString(r, "orderStatus"); raw != "" {
		for _, status := range strings.Split(raw, ",") {
			if status = strings.TrimSpace(status); status != "" {
				params.OrderStatuses = append(params.OrderStatuses, status)
			}
		}
	}
	if raw := queryString(r, "openedAtFrom"); raw != "" {
		if parsed, err := parseDateTimeParam(raw); err == nil {
			params.OpenedAtFrom = &parsed
		}
	}
	if raw := queryString(r, "openedAtTo"); raw != "" {
		if parsed, err := parseDateTimeParam(raw); err == nil {
			params.OpenedAtTo = &parsed
		}
	}
	return params
}

// whereClause renders the search into SQL. Deleted orders are always
// excluded; area and reservation filters run as subqueries keyed by order
// number so the header query never joins the sub-record tables directly.
func (p orderSearchParams) whereClause() (string, []any) {
	clauses := []string{"o.is_deleted = 0"}
	args := []any{}
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, strings.Replace(clause, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if p.OrderNo != "" {
		add("o.order_no = ?", p.OrderNo)
	}
	if len(p.OrderStatuses) > 0 {
		add("o.order_status = any(?)", p.OrderStatuses)
	}
	if p.OpenedAtFrom != nil {
		add("o.opened_at >= ?", *p.OpenedAtFrom)
	}
	if p.OpenedAtTo != nil {
		add("o.opened_at <= ?", *p.OpenedAtTo)
	}

	if p.UnboundArea {
		clauses = append(clauses,
			"not exists (select 1 from sales_order_areas a where a.order_no = o.order_no)")
	} else if p.AreaName != "" || p.AreaType != "" || p.RoomSize != "" {
		sub := []string{"a.order_no = o.order_no"}
		if p.AreaName != "" {
			args = append(args, "%"+p.AreaName+"%")
			sub = append(sub, "a.area_name like $"+strconv.Itoa(len(args)))
		}
		if p.AreaType != "" {
			args = append(args, p.AreaType)
			sub = append(sub, "a.area_type = $"+strconv.Itoa(len(args)))
		}
		if p.RoomSize != "" {
			args = append(args, p.RoomSize)
			sub = append(sub, "a.room_size = $"+strconv.Itoa(len(args)))
		}
		clauses = append(clauses,
			"exists (select 1 from sales_order_areas a where "+strings.Join(sub, " and ")+")")
	}

	if p.ReservedUsername != "" || p.ReservedContact != "" {
		sub := []string{"rv.order_no = o.order_no"}
		if p.ReservedUsername != "" {
			args = append(args, "%"+p.ReservedUsername+"%")
			sub = append(sub, "rv.username like $"+strconv.Itoa(len(args)))
		}
		if p.ReservedContact != "" {
			args = append(args, "%"+p.ReservedContact+"%")
			sub = append(sub, "rv.contact like $"+strconv.Itoa(len(args)))
		}
		clauses = append(clauses,
			"exists (select 1 from sales_order_reserved rv where "+strings.Join(sub, " and ")+")")
	}

	return strings.Join(clauses, " and "), args
}

// OrderPage runs the composite search: count, one page of headers, then one
// fetch per sub-record table keyed by the page's order numbers.
func (h *Handler) OrderPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := readPageParams(r)
	params := readOrderSearchParams(r)

	whereSQL, args := params.whereClause()

	var total int64
	if err := h.DB.QueryRow(ctx,
		`select count(*) from sales_orders o where `+whereSQL, args...).Scan(&total); err != nil {
		h.Logger.Error("order count failed", zapError(err))
		response.Internal(w, "failed to fetch orders")
		return
	}

	args = append(args, page.PageSize, page.Offset())
	rows, err := h.DB.Query(ctx, `
		select `+orderColumnsPrefixed+` from sales_orders o
		where `+whereSQL+`
		order by o.created_at desc
		limit $`+strconv.Itoa(len(args)-1)+` offset $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		h.Logger.Error("order page failed", zapError(err))
		response.Internal(w, "failed to fetch orders")
		return
	}

	records := make([]orderRecord, 0, page.PageSize)
	orderNos := make([]string, 0, page.PageSize)
	for rows.Next() {
		record, scanErr := scanOrder(rows)
		if scanErr != nil {
			rows.Close()
			h.Logger.Error("order scan failed", zapError(scanErr))
			response.Internal(w, "failed to fetch orders")
			return
		}
		records = append(records, record)
		orderNos = append(orderNos, record.OrderNo)
	}
	rows.Close()

	if len(records) > 0 {
		if err := h.attachOrderChildren(ctx, records, orderNos); err != nil {
			h.Logger.Error("order children fetch failed", zapError(err))
			response.Internal(w, "failed to fetch orders")
			return
		}
	}

	response.OK(w, "query succeeded", map[string]any{"total": total, "records": records})
}

const orderColumnsPrefixed = `o.id, o.order_no, o.order_status, o.opened_at, o.closed_at, o.expected_amount,
	o.actual_amount, o.payment_difference_reason, o.remark, o.is_deleted, o.delete_reason,
	o.deleted_by, o.deleted_by_name, o.deleted_at,
	o.created_by, o.created_by_name, o.created_at, o.updated_by, o.updated_by_name, o.updated_at`

// attachOrderChildren loads areas, reservations, products and payments for
// the given page of orders and assembles them onto the records in place.
func (h *Handler) attachOrderChildren(ctx context.Context, records []orderRecord, orderNos []string) error {
	byNo := make(map[string]*orderRecord, len(records))
	for i := range records {
		records[i].Products = []orderProductRecord{}
		records[i].Payments = []orderPaymentRecord{}
		byNo[records[i].OrderNo] = &records[i]
	}

	areaRows, err := h.DB.Query(ctx, `
		select id, order_no, area_id, area_name, area_type, room_size, price
		from sales_order_areas where order_no = any($1)`, orderNos)
	if err != nil {
		return err
	}
	for areaRows.Next() {
		var area orderAreaRecord
		if err := areaRows.Scan(&area.ID, &area.OrderNo, &area.AreaID, &area.AreaName,
			&area.AreaType, &area.RoomSize, &area.Price); err != nil {
			areaRows.Close()
			return err
		}
		if record, ok := byNo[area.OrderNo]; ok && record.Area == nil {
			bound := area
			record.Area = &bound
		}
	}
	areaRows.Close()

	reservedRows, err := h.DB.Query(ctx, `
		select id, order_no, username, contact, arrive_at
		from sales_order_reserved where order_no = any($1)`, orderNos)
	if err != nil {
		return err
	}
	for reservedRows.Next() {
		var reserved orderReservedRecord
		if err := reservedRows.Scan(&reserved.ID, &reserved.OrderNo, &reserved.Username,
			&reserved.Contact, &reserved.ArriveAt); err != nil {
			reservedRows.Close()
			return err
		}
		if record, ok := byNo[reserved.OrderNo]; ok && record.Reserved == nil {
			bound := reserved
			record.Reserved = &bound
		}
	}
	reservedRows.Close()

	productRows, err := h.DB.Query(ctx, `
		select id, order_no, product_id, product_name, quantity, unit_price, total_price
		from sales_order_products where order_no = any($1)`, orderNos)
	if err != nil {
		return err
	}
	for productRows.Next() {
		var product orderProductRecord
		if err := productRows.Scan(&product.ID, &product.OrderNo, &product.ProductID,
			&product.ProductName, &product.Quantity, &product.UnitPrice, &product.TotalPrice); err != nil {
			productRows.Close()
			return err
		}
		if record, ok := byNo[product.OrderNo]; ok {
			record.Products = append(record.Products, product)
		}
	}
	productRows.Close()

	paymentRows, err := h.DB.Query(ctx, `
		select id, order_no, payment_method, payment_method_name, payment_amount, paid_at
		from sales_order_payments where order_no = any($1)`, orderNos)
	if err != nil {
		return err
	}
	for paymentRows.Next() {
		var payment orderPaymentRecord
		if err := paymentRows.Scan(&payment.ID, &payment.OrderNo, &payment.PaymentMethod,
			&payment.PaymentMethodName, &payment.PaymentAmount, &payment.PaidAt); err != nil {
			paymentRows.Close()
			return err
		}
		if record, ok := byNo[payment.OrderNo]; ok {
			record.Payments = append(record.Payments, payment)
		}
	}
	paymentRows.Close()

	return nil
}
