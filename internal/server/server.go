package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/soko/internal/category"
	categorydomain "github.com/smallbiznis/soko/internal/category/domain"
	"github.com/smallbiznis/soko/internal/config"
	"github.com/smallbiznis/soko/internal/customer"
	customerdomain "github.com/smallbiznis/soko/internal/customer/domain"
	"github.com/smallbiznis/soko/internal/events"
	"github.com/smallbiznis/soko/internal/notification"
	"github.com/smallbiznis/soko/internal/observability"
	obsmetrics "github.com/smallbiznis/soko/internal/observability/metrics"
	"github.com/smallbiznis/soko/internal/order"
	orderdomain "github.com/smallbiznis/soko/internal/order/domain"
	"github.com/smallbiznis/soko/internal/product"
	productdomain "github.com/smallbiznis/soko/internal/product/domain"
	"github.com/smallbiznis/soko/internal/providers/email"
	"github.com/smallbiznis/soko/internal/providers/sms"
	"github.com/smallbiznis/soko/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	observability.Module,
	fx.Provide(registerGin),
	events.Module,
	category.Module,
	product.Module,
	customer.Module,
	order.Module,
	email.Module,
	sms.Module,
	notification.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(AccessLogMiddleware(log))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	categorySvc  categorydomain.Service
	productSvc   productdomain.Service
	customerSvc  customerdomain.Service
	orderSvc     orderdomain.Service
	orderLimiter *ratelimit.OrderPlacementLimiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	CategorySvc  categorydomain.Service
	ProductSvc   productdomain.Service
	CustomerSvc  customerdomain.Service
	OrderSvc     orderdomain.Service
	OrderLimiter *ratelimit.OrderPlacementLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		log:          p.Log.Named("http.server"),
		genID:        p.GenID,
		categorySvc:  p.CategorySvc,
		productSvc:   p.ProductSvc,
		customerSvc:  p.CustomerSvc,
		orderSvc:     p.OrderSvc,
		orderLimiter: p.OrderLimiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	categories := api.Group("/categories")
	{
		categories.GET("", s.ListCategories)
		categories.POST("", s.CreateCategory)
		categories.GET("/:id", s.GetCategory)
		categories.GET("/:id/average_price", s.CategoryAveragePrice)
		categories.DELETE("/:id", s.DeleteCategory)
	}

	products := api.Group("/products")
	{
		products.GET("", s.ListProducts)
		products.POST("", s.CreateProduct)
		products.GET("/:id", s.GetProduct)
		products.PATCH("/:id", s.UpdateProduct)
		products.DELETE("/:id", s.DeleteProduct)
	}

	orders := api.Group("/orders", RequireUser())
	{
		orders.GET("", s.ListOrders)
		orders.POST("", s.CreateOrder)
		orders.GET("/:id", s.GetOrder)
		orders.PUT("/:id", s.UpdateOrder)
		orders.DELETE("/:id", s.DeleteOrder)
	}

	profile := api.Group("/profile", RequireUser())
	{
		profile.GET("", s.GetProfile)
		profile.PATCH("", s.UpdateProfile)
	}
}
