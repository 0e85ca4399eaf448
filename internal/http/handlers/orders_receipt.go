package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"venue-admin-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/phpdave11/gofpdf"
)

type receiptData struct {
	OrderNo       string
	OrderStatus   string
	OpenedAt      string
	ClosedAt      string
	CreatedByName string
	GuestName     string
	GuestContact  string
	GuestArriveAt string
	AreaLine      string
	AreaPrice     string
	Products      []orderProductRecord
	Payments      []orderPaymentRecord
	ProductTotal  float64
	PaymentTotal  float64
	ActualAmount  string
	Remark        string
}

// OrderReceipt renders the composed order as a downloadable PDF.
func (h *Handler) OrderReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderNo := queryString(r, "orderNo")
	if orderNo == "" {
		response.BadRequest(w, "orderNo is required")
		return
	}

	data, err := h.fetchReceiptData(ctx, orderNo)
	if err == pgx.ErrNoRows {
		response.BadRequest(w, "order not found")
		return
	}
	if err != nil {
		h.Logger.Error("receipt data fetch failed", zapError(err))
		response.Internal(w, "failed to generate receipt")
		return
	}

	buf, err := renderOrderReceiptPDF(data)
	if err != nil {
		h.Logger.Error("receipt render failed", zapError(err))
		response.Internal(w, "failed to generate receipt")
		return
	}

	filename := fmt.Sprintf("receipt_%s.pdf", sanitizeFilename(data.OrderNo))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) fetchReceiptData(ctx context.Context, orderNo string) (receiptData, error) {
	var data receiptData

	order, err := scanOrder(h.DB.QueryRow(ctx, `
		select `+orderColumns+` from sales_orders
		where order_no = $1 and is_deleted = 0`, orderNo))
	if err != nil {
		return data, err
	}

	data.OrderNo = order.OrderNo
	data.OrderStatus = order.OrderStatus
	data.OpenedAt = formatReceiptTime(order.OpenedAt)
	data.ClosedAt = formatReceiptTime(order.ClosedAt)
	data.CreatedByName = order.CreatedByName
	if order.ActualAmount != nil {
		data.ActualAmount = fmt.Sprintf("%.2f", *order.ActualAmount)
	}
	if order.Remark != nil {
		data.Remark = *order.Remark
	}

	records := []orderRecord{order}
	if err := h.attachOrderChildren(ctx, records, []string{orderNo}); err != nil {
		return data, err
	}
	order = records[0]

	if order.Reserved != nil {
		data.GuestName = stringOrEmpty(order.Reserved.Username)
		data.GuestContact = stringOrEmpty(order.Reserved.Contact)
		data.GuestArriveAt = stringOrEmpty(order.Reserved.ArriveAt)
	}
	if order.Area != nil {
		data.AreaLine = order.Area.AreaName + " (" + order.Area.AreaType
		if order.Area.RoomSize != nil && *order.Area.RoomSize != "" {
			data.AreaLine += " / " + *order.Area.RoomSize
		}
		data.AreaLine += ")"
		data.AreaPrice = fmt.Sprintf("%.2f", order.Area.Price)
	}

	data.Products = order.Products
	data.Payments = order.Payments
	for _, product := range order.Products {
		data.ProductTotal += product.TotalPrice
	}
	for _, payment := range order.Payments {
		data.PaymentTotal += payment.PaymentAmount
	}

	return data, nil
}

func renderOrderReceiptPDF(data receiptData) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, fmt.Sprintf("Order %s", data.OrderNo), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Status: %s", data.OrderStatus), "", 1, "C", false, 0, "")
	if data.OpenedAt != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Opened: %s", data.OpenedAt), "", 1, "C", false, 0, "")
	}
	if data.ClosedAt != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Closed: %s", data.ClosedAt), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 5, fmt.Sprintf("Created by: %s", data.CreatedByName), "", 1, "C", false, 0, "")

	if data.GuestName != "" || data.GuestContact != "" {
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Reservation", "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		if data.GuestName != "" {
			pdf.CellFormat(0, 5, fmt.Sprintf("Guest: %s", data.GuestName), "", 1, "L", false, 0, "")
		}
		if data.GuestContact != "" {
			pdf.CellFormat(0, 5, fmt.Sprintf("Contact: %s", data.GuestContact), "", 1, "L", false, 0, "")
		}
		if data.GuestArriveAt != "" {
			pdf.CellFormat(0, 5, fmt.Sprintf("Arrival: %s", data.GuestArriveAt), "", 1, "L", false, 0, "")
		}
	}

	if data.AreaLine != "" {
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Area", "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 5, data.AreaLine, "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Price: %s", data.AreaPrice), "", 1, "L", false, 0, "")
	}

	if len(data.Products) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Products", "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, product := range data.Products {
			pdf.CellFormat(0, 5,
				fmt.Sprintf("%dx %s @ %.2f = %.2f",
					product.Quantity, product.ProductName, product.UnitPrice, product.TotalPrice),
				"", 1, "L", false, 0, "")
		}
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(0, 5, fmt.Sprintf("Products total: %.2f", data.ProductTotal), "", 1, "L", false, 0, "")
	}

	if len(data.Payments) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Payments", "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, payment := range data.Payments {
			line := fmt.Sprintf("%s: %.2f", payment.PaymentMethodName, payment.PaymentAmount)
			if payment.PaidAt != nil {
				line += " (" + payment.PaidAt.Format("2006-01-02 15:04") + ")"
			}
			pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
		}
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(0, 5, fmt.Sprintf("Payments total: %.2f", data.PaymentTotal), "", 1, "L", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 11)
	if data.ActualAmount != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Actual amount: %s", data.ActualAmount), "", 1, "L", false, 0, "")
	}
	if data.Remark != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 4, fmt.Sprintf("Remark: %s", data.Remark), "", "L", false)
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func formatReceiptTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format("2006-01-02 15:04")
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func sanitizeFilename(value string) string {
	re := regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	return strings.Trim(re.ReplaceAllString(value, "_"), "_")
}
