package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"venue-admin-service/internal/auth"
	"venue-admin-service/internal/config"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server pushes order header changes to connected admin dashboards. Each
// connection polls on its own ticker and sends only when something changed
// since the last tick.
type Server struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
	Config config.Config
}

func New(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config) *Server {
	return &Server{DB: db, Logger: logger, Config: cfg}
}

type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(value)
}

type orderHeadline struct {
	OrderNo     string     `json:"orderNo"`
	OrderStatus string     `json:"orderStatus"`
	OpenedAt    *time.Time `json:"openedAt"`
	ClosedAt    *time.Time `json:"closedAt"`
	UpdatedAt   *time.Time `json:"updatedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// OrdersWS streams live order headers. The token rides in the query string
// because browsers cannot set headers on websocket upgrades.
func (s *Server) OrdersWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	token := auth.ParseBearerToken(r.URL.Query().Get("token"))
	if _, err := auth.VerifyAccessToken(token, s.Config.JWTSecret); err != nil {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "unauthorized"})
		return
	}

	ctx := r.Context()
	client := &wsClient{conn: conn}

	// Initial snapshot, then deltas.
	since := time.Time{}
	if headlines, err := s.fetchChangedOrders(ctx, since); err == nil {
		_ = client.writeJSON(map[string]any{"type": "orders.state", "data": headlines})
	}
	since = time.Now()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	interval := s.Config.WSOrdersPollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			headlines, err := s.fetchChangedOrders(ctx, since)
			if err != nil {
				s.Logger.Warn("order feed poll failed", zap.Error(err))
				continue
			}
			since = time.Now()
			if len(headlines) == 0 {
				continue
			}
			if err := client.writeJSON(map[string]any{"type": "orders.changed", "data": headlines}); err != nil {
				return
			}
		}
	}
}

func (s *Server) fetchChangedOrders(ctx context.Context, since time.Time) ([]orderHeadline, error) {
	rows, err := s.DB.Query(ctx, `
		select order_no, order_status, opened_at, closed_at, updated_at, created_at
		from sales_orders
		where is_deleted = 0 and (created_at > $1 or coalesce(updated_at, created_at) > $1)
		order by created_at desc
		limit 200`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	headlines := make([]orderHeadline, 0)
	for rows.Next() {
		var headline orderHeadline
		if err := rows.Scan(&headline.OrderNo, &headline.OrderStatus, &headline.OpenedAt,
			&headline.ClosedAt, &headline.UpdatedAt, &headline.CreatedAt); err != nil {
			return nil, err
		}
		headlines = append(headlines, headline)
	}
	return headlines, rows.Err()
}
