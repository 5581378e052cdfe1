package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/edforge/lms-api/internal/handler"
	aihandler "github.com/edforge/lms-api/internal/handler/ai"
	authhandler "github.com/edforge/lms-api/internal/handler/auth"
	contenthandler "github.com/edforge/lms-api/internal/handler/content"
	quizhandler "github.com/edforge/lms-api/internal/handler/quiz"
	uploadhandler "github.com/edforge/lms-api/internal/handler/upload"
	"github.com/edforge/lms-api/internal/middleware"
	"github.com/edforge/lms-api/internal/model"
	"github.com/edforge/lms-api/pkg/ratelimit"
)

type Config struct {
	IngressRate   rate.Limit
	IngressBurst  int
	CORSConfig    middleware.CORSConfig
	MetricsPrefix string
	Timeout       time.Duration
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	rl       *middleware.RateLimitMiddleware
	authH    *authhandler.Handler
	contentH *contenthandler.Handler
	quizH    *quizhandler.Handler
	uploadH  *uploadhandler.Handler
	aiH      *aihandler.Handler
	h        *handler.Handler
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	rl *middleware.RateLimitMiddleware,
	authH *authhandler.Handler,
	contentH *contenthandler.Handler,
	quizH *quizhandler.Handler,
	uploadH *uploadhandler.Handler,
	aiH *aihandler.Handler,
	h *handler.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	registerCustomValidators()
	engine := gin.New()

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	r := &Router{
		engine:   engine,
		auth:     auth,
		rl:       rl,
		authH:    authH,
		contentH: contentH,
		quizH:    quizH,
		uploadH:  uploadH,
		aiH:      aiH,
		h:        h,
		metrics:  initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.SizeLimit(middleware.DefaultSizeLimitConfig()),
		middleware.CORS(config.CORSConfig),
	)

	if config.IngressRate > 0 {
		ingress := middleware.NewIngressLimiter(middleware.IngressLimiterConfig{
			Rate:  config.IngressRate,
			Burst: config.IngressBurst,
		})
		engine.Use(ingress.Limit())
	}

	return r
}

// Setup wires routes to their policies: auth endpoints get the strict
// layered limiter, everything else the general API one.
func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupHealthCheck(api)

	public := api.Group("")
	public.Use(r.rl.Limit(ratelimit.ConfigAuth))

	protected := api.Group("")
	protected.Use(r.auth.Authenticate(), r.rl.Limit(ratelimit.ConfigGeneral))

	r.authH.RegisterRoutes(public, protected, r.rl.Limit(ratelimit.ConfigPasswordReset))

	write := protected.Group("")
	write.Use(r.auth.RequireRole(model.UserRoleAdmin, model.UserRoleTeacher))

	r.contentH.RegisterRoutes(protected, write)
	r.quizH.RegisterRoutes(protected, write)

	uploads := protected.Group("")
	uploads.Use(r.rl.Limit(ratelimit.ConfigUpload))
	r.uploadH.RegisterRoutes(uploads)

	aiGroup := write.Group("")
	aiGroup.Use(r.rl.Limit(ratelimit.ConfigAIGeneration))
	r.aiH.RegisterRoutes(aiGroup)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	if prefix == "" {
		prefix = "lms_api"
	}
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: promauto.NewCounterVec(
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
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
