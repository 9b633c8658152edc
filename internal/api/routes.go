// routes.go - Route registration and middleware
package api

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thywilljoshua/study-docs/internal/metrics"
	"github.com/thywilljoshua/study-docs/internal/session"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Sessions *session.Manager
	Metrics  *metrics.Metrics
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer  prometheus.Gatherer
	Logger    *slog.Logger
	Version   string
	BodyLimit string
}

// NewServer builds the echo instance with middleware and every route.
func NewServer(deps Dependencies) *echo.Echo {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(deps.Logger)

	e.Use(middleware.Recover())
	e.Use(requestLogger(deps.Logger))
	e.Use(observe(deps.Metrics))
	if deps.BodyLimit != "" {
		e.Use(middleware.BodyLimit(deps.BodyLimit))
	}

	h := NewHandler(deps.Sessions, deps.Metrics, deps.Logger, deps.Version)
	RegisterRoutes(e, h)

	if deps.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	return e
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, h *Handler) {
	apiGroup := e.Group("/api")
	apiGroup.GET("/health", h.HandleHealth)
	apiGroup.GET("/schema", h.HandleSchema)

	sessions := apiGroup.Group("/sessions")
	sessions.POST("", h.HandleCreateSession)
	sessions.GET("/:id", h.HandleGetSession)
	sessions.DELETE("/:id", h.HandleDeleteSession)
	sessions.POST("/:id/reset", h.HandleResetSession)

	// Documents
	sessions.POST("/:id/files", h.HandleUploadFiles)
	sessions.DELETE("/:id/files/:fileId", h.HandleDeleteFile)

	// Analysis and quiz
	sessions.POST("/:id/analyze", h.HandleAnalyze)
	sessions.GET("/:id/result", h.HandleGetResult)
	sessions.GET("/:id/result/msgpack", h.HandleGetResultMsgpack)
	sessions.PUT("/:id/answers", h.HandleAnswer)
	sessions.DELETE("/:id/answers", h.HandleResetAnswers)
	sessions.GET("/:id/score", h.HandleScore)
	sessions.POST("/:id/quiz/finish", h.HandleFinishQuiz)

	// Narration and exports
	sessions.POST("/:id/narrate", h.HandleNarrate)
	sessions.GET("/:id/audio.wav", h.HandleAudioWAV)
	sessions.GET("/:id/audio.mp3", h.HandleAudioMP3)
	sessions.GET("/:id/report.pdf", h.HandleReportPDF)
	sessions.GET("/:id/report.txt", h.HandleReportText)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/api/health" || path == "/metrics"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(context.Background(), level, "request", attrs...)
			return nil
		},
	})
}

// observe records request counts and latency per route template. Errors are
// rendered here so the recorded status is the one sent to the client; the
// error is still returned for the request logger.
func observe(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			if m == nil {
				return err
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
