package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"venue-admin-service/internal/queue"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var errMissingParam = errors.New("missing param")

func zapError(err error) zap.Field {
	return zap.Error(err)
}

func readPathInt64(r *http.Request, key string) (int64, error) {
	value := chi.URLParam(r, key)
	if value == "" {
		return 0, errMissingParam
	}
	return strconv.ParseInt(value, 10, 64)
}

type pageParams struct {
	Page     int
	PageSize int
}

func (p pageParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// readPageParams parses page/pageSize with the defaults the original
// clients rely on: page 1, pageSize 10, pageSize capped at 200.
func readPageParams(r *http.Request) pageParams {
	params := pageParams{Page: 1, PageSize: 10}
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			params.Page = parsed
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("pageSize")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			params.PageSize = parsed
		}
	}
	if params.PageSize > 200 {
		params.PageSize = 200
	}
	return params
}

func queryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func queryInt64Ptr(r *http.Request, key string) *int64 {
	raw := queryString(r, key)
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

// parseDateTimeParam accepts the ISO-ish timestamps the admin frontend
// sends for time-range filters.
func parseDateTimeParam(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.New("unsupported datetime format")
}

// publishOrderEvent fires and forgets an order event; delivery problems are
// logged and never surface to the caller.
func (h *Handler) publishOrderEvent(ctx context.Context, kind string, event queue.OrderEvent) {
	if h.Queue == nil {
		return
	}
	if err := h.Queue.PublishOrderEvent(ctx, kind, event); err != nil {
		h.Logger.Warn("order event publish failed",
			zap.String("kind", kind),
			zap.String("orderNo", event.OrderNo),
			zap.Error(err))
	}
}
