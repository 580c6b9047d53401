package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jwalitptl/barber-api/internal/handler"
	"github.com/jwalitptl/barber-api/internal/handler/health"
	promHandler "github.com/jwalitptl/barber-api/internal/handler/prometheus"
	"github.com/jwalitptl/barber-api/internal/middleware"
	"github.com/jwalitptl/barber-api/pkg/logger"
)

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	health   *health.Handler
	metricsH *promHandler.Handler
	shopH    []handler.ShopHandler
	metrics  *routerMetrics
	config   RouterConfig
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        float64
	RateBurst        int
	RequestTimeout   time.Duration
	MaxBodyBytes     int64
	CORSConfig       middleware.CORSConfig
	MetricsPrefix    string
	MetricsPath      string
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Logger     *logger.Logger
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	healthH *health.Handler,
	config RouterConfig,
	shopHandlers ...handler.ShopHandler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = middleware.DefaultSizeLimitConfig().MaxBodySize
	}

	r := &Router{
		engine:   engine,
		auth:     auth,
		health:   healthH,
		metricsH: promHandler.New(config.Gatherer),
		shopH:    shopHandlers,
		metrics:  initRouterMetrics(config.Registerer, config.MetricsPrefix),
		config:   config,
	}

	engine.Use(
		middleware.Recovery(config.Logger),
		middleware.RequestID(),
		middleware.Logger(config.Logger),
		middleware.ErrorHandler(config.Logger),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
		middleware.SizeLimit(middleware.SizeLimitConfig{MaxBodySize: config.MaxBodyBytes}),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	r.engine.GET(r.config.MetricsPath, r.metricsH.Handler())
	r.health.RegisterRoutes(r.engine.Group(""))

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	shops := api.Group("/shops/:shop_id")
	shops.Use(
		r.auth.Authenticate(),
		r.auth.RequireShop(),
	)
	for _, h := range r.shopH {
		h.RegisterRoutes(shops, r.auth)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(reg prometheus.Registerer, prefix string) *routerMetrics {
	if prefix == "" {
		prefix = "barber_http"
	}
	factory := promauto.With(reg)
	return &routerMetrics{
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 500 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "server").Inc()
		} else if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "client").Inc()
		}
	}
}
