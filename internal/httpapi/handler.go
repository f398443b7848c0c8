// Package httpapi exposes the attendance engine over HTTP with gin.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"smartattendance/internal/attendance"
	"smartattendance/internal/auth"
	"smartattendance/internal/faces"
	"smartattendance/internal/geo"
	"smartattendance/internal/httpmiddleware"
	"smartattendance/internal/identity"
	"smartattendance/internal/logging"
	"smartattendance/internal/queue"
	"smartattendance/internal/session"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// Deps are the services the handlers call.
type Deps struct {
	Sessions  *session.Registry
	Marker    *attendance.Marker
	Overrider *attendance.Overrider
	Reporter  *attendance.Reporter
	Directory identity.Directory
	Auth      *auth.Authenticator
	Signer    *auth.Signer
	Faces     faces.Store
	Jobs      queue.Queue // optional
	Classroom geo.Classroom
	Limiter   *httpmiddleware.TokenBucket // optional
	Health    map[string]HealthChecker
	Origins   []string
	Logger    *zap.Logger
}

// Handler serves the HTTP API.
type Handler struct {
	Deps
	logger *zap.Logger
}

// New creates a Handler.
func New(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Deps: d, logger: logger}
}

// Router builds the gin engine with middleware and every route.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.GinLogger(h.logger, "/healthz", "/metrics"))
	r.Use(cors.New(corsConfig(h.Origins)))
	r.Use(httpmiddleware.SecurityHeaders())
	if h.Limiter != nil {
		r.Use(h.Limiter.GinMiddleware())
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.Healthz)

	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
	r.GET("/session/verify/:session_id", h.VerifySession)
	r.GET("/session/active", h.ActiveSession)
	r.GET("/location/classroom", h.ClassroomLocation)

	authed := r.Group("/", auth.Authenticate(h.Signer))
	{
		authed.GET("/session/qr/:session_id", h.SessionQR)
		authed.POST("/attendance/mark", h.Mark)
		authed.GET("/attendance/history/:student_id", h.History)
		authed.GET("/attendance/students", h.Students)
		authed.POST("/face/register", h.RegisterFace)
		authed.GET("/location/verify", h.VerifyLocation)
	}

	teacher := authed.Group("/", auth.RequireTeacher())
	{
		teacher.POST("/session/create", h.CreateSession)
		teacher.POST("/session/stop", h.StopSession)
		teacher.GET("/attendance/session/:session_id", h.SessionAttendance)
		teacher.POST("/override/mark", h.OverrideMark)
		teacher.GET("/teacher/subjects", h.TeacherSubjects)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	body := gin.H{"status": "ok"}
	status := http.StatusOK
	for name, chk := range h.Health {
		ok := chk.Healthy(ctx)
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}
