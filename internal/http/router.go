package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"venue-admin-service/internal/config"
	"venue-admin-service/internal/http/handlers"
	"venue-admin-service/internal/middleware"
	"venue-admin-service/internal/queue"
	"venue-admin-service/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func NewRouter(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config, queueClient *queue.Client, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.RequestID())

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}
		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}
		r.Use(cors.Handler(options))
	}

	h := &handlers.Handler{DB: db, Logger: logger, Config: cfg, Queue: queueClient}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/auth/login", h.Login)

	authenticated := func(r chi.Router) chi.Router {
		r.Use(middleware.Authenticate(db, cfg.JWTSecret))
		return r
	}

	r.Route("/roles", func(r chi.Router) {
		authenticated(r)
		r.With(middleware.RequirePermission("role:create")).Post("/", h.RoleCreate)
		r.With(middleware.RequirePermission("role:update")).Put("/{id}", h.RoleUpdate)
		r.With(middleware.RequirePermission("role:delete")).Delete("/{id}", h.RoleDelete)
		r.With(middleware.RequirePermission("role:read")).Get("/list", h.RoleList)
		r.With(middleware.RequirePermission("role:read")).Get("/page", h.RolePage)
		r.Get("/exists", h.RoleNameExists)
		r.With(middleware.RequirePermission("role:update")).Put("/{id}/permissions", h.RoleSetPermissions)
		r.With(middleware.RequirePermission("role:read")).Get("/{id}/permissions", h.RoleGetPermissions)
	})

	r.Route("/users", func(r chi.Router) {
		authenticated(r)
		r.With(middleware.RequirePermission("user:create")).Post("/", h.UserCreate)
		r.With(middleware.RequirePermission("user:update")).Put("/{id}", h.UserUpdate)
		r.With(middleware.RequirePermission("user:delete")).Delete("/{id}", h.UserDelete)
		r.With(middleware.RequirePermission("user:read")).Get("/list", h.UserList)
		r.With(middleware.RequirePermission("user:read")).Get("/page", h.UserPage)
		r.With(middleware.RequirePermission("user:read")).Get("/{id}", h.UserGet)
	})

	r.Route("/dicts", func(r chi.Router) {
		authenticated(r)
		r.With(middleware.RequirePermission("dict:create")).Post("/", h.DictCreate)
		r.With(middleware.RequirePermission("dict:update")).Put("/{id}", h.DictUpdate)
		r.With(middleware.RequirePermission("dict:delete")).Delete("/{id}", h.DictDelete)
		r.With(middleware.RequirePermission("dict:read")).Get("/list", h.DictList)
		r.With(middleware.RequirePermission("dict:read")).Get("/page", h.DictPage)
		r.Get("/exists", h.DictLabelExists)
		r.With(middleware.RequirePermission("dict:read")).Get("/{id}", h.DictGet)
	})

	r.Route("/materials", func(r chi.Router) {
		authenticated(r)
		r.With(middleware.RequirePermission("material:create")).Post("/", h.MaterialCreate)
		r.With(middleware.RequirePermission("material:update")).Put("/{id}", h.MaterialUpdate)
		r.With(middleware.RequirePermission("material:delete")).Delete("/{id}", h.MaterialDelete)
		r.With(middleware.RequirePermission("material:read")).Get("/list", h.MaterialList)
		r.With(middleware.RequirePermission("material:read")).Get("/page", h.MaterialPage)
		r.With(middleware.RequirePermission("material:read")).Get("/exists", h.MaterialNameExists)
	})

	r.Route("/recipes", func(r chi.Router) {
		authenticated(r)
		r.With(middleware.RequirePermission("recipe:create")).Post("/", h.RecipeCreate)
		r.With(middleware.RequirePermission("recipe:update")).Put("/{id}", h.RecipeUpdate)
		r.With(middleware.RequirePermission("recipe:delete")).Delete("/{id}", h.RecipeDelete)
		r.With(middleware.RequirePermission("recipe:read")).Get("/list", h.RecipeList)
		r.With(middleware.RequirePermission("recipe:read")).Get("/page", h.RecipePage)
		r.With(middleware.RequirePermission("recipe:read")).Get("/exists", h.RecipeNameExists)
	})

	r.Route("/areas", func(r chi.Router) {
		authenticated(r)
		r.With(middleware.RequirePermission("area-pricing-rule:create")).Post("/rule", h.AreaPricingRuleCreate)
		r.With(middleware.RequirePermission("area-pricing-rule:update")).Put("/rule/{id}", h.AreaPricingRuleUpdate)
		r.With(middleware.RequirePermission("area-pricing-rule:delete")).Delete("/rule/{id}", h.AreaPricingRuleDelete)
		r.With(middleware.RequirePermission("area-pricing-rule:read")).Get("/rule/list", h.AreaPricingRuleList)
		r.With(middleware.RequirePermission("area-pricing-rule:read")).Get("/rule/exists", h.AreaPricingRuleNameExists)
		r.With(middleware.RequirePermission("area-resource:create")).Post("/resource", h.AreaResourceCreate)
		r.With(middleware.RequirePermission("area-resource:update")).Put("/resource/{id}", h.AreaResourceUpdate)
		r.With(middleware.RequirePermission("area-resource:delete")).Delete("/resource/{id}", h.AreaResourceDelete)
		r.With(middleware.RequirePermission("area-resource:read")).Get("/resource/list", h.AreaResourceList)
		r.With(middleware.RequirePermission("area-resource:read")).Get("/resource/exists", h.AreaResourceNameExists)
	})

	r.Route("/area-pricing", func(r chi.Router) {
		authenticated(r)
		r.With(middleware.RequirePermission("area_pricing:create")).Post("/", h.AreaPricingCreate)
		r.With(middleware.RequirePermission("area_pricing:update")).Put("/{id}", h.AreaPricingUpdate)
		r.With(middleware.RequirePermission("area_pricing:delete")).Delete("/{id}", h.AreaPricingDelete)
		r.With(middleware.RequirePermission("area_pricing:read")).Get("/list", h.AreaPricingList)
		r.With(middleware.RequirePermission("area_pricing:read")).Get("/page", h.AreaPricingPage)
	})

	r.Route("/product-pricing", func(r chi.Router) {
		authenticated(r)
		r.With(middleware.RequirePermission("product_pricing:create")).Post("/", h.ProductPricingCreate)
		r.With(middleware.RequirePermission("product_pricing:update")).Put("/{id}", h.ProductPricingUpdate)
		r.With(middleware.RequirePermission("product_pricing:delete")).Delete("/{id}", h.ProductPricingDelete)
		r.With(middleware.RequirePermission("product_pricing:read")).Get("/list", h.ProductPricingList)
		r.With(middleware.RequirePermission("product_pricing:read")).Get("/page", h.ProductPricingPage)
	})

	r.Route("/orders", func(r chi.Router) {
		authenticated(r)
		r.With(middleware.RequirePermission("order:read")).Get("/page", h.OrderPage)
		r.With(middleware.RequirePermission("order:read")).Get("/receipt", h.OrderReceipt)
		r.With(middleware.RequirePermission("order:create")).Post("/", h.OrderCreate)
		r.With(middleware.RequirePermission("order:update")).Put("/", h.OrderUpdate)
		r.With(middleware.RequirePermission("order:delete")).Delete("/", h.OrderDelete)
		r.With(middleware.RequirePermission("order:update")).Delete("/item", h.OrderDeleteItem)
		r.With(middleware.RequirePermission("order:update")).Post("/area", h.OrderSetArea)
		r.With(middleware.RequirePermission("order:update")).Post("/reserved", h.OrderSetReserved)
		r.With(middleware.RequirePermission("order:update")).Post("/product", h.OrderAddProduct)
		r.With(middleware.RequirePermission("order:update")).Put("/product", h.OrderUpdateProduct)
		r.With(middleware.RequirePermission("order:update")).Post("/payment", h.OrderAddPayment)
		r.With(middleware.RequirePermission("order:update")).Put("/payment", h.OrderUpdatePayment)
	})

	if wsServer != nil {
		r.Get("/ws/orders", wsServer.OrdersWS)
	}

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
