package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-account-service/internal/core/server"
	mdw "user-account-service/internal/transport/http/middleware"
	resp "user-account-service/internal/transport/http/response"
)

// Check 健康检查项（数据库、redis 等），返回 nil 表示正常
type Check func(ctx context.Context) error

type APIOptions struct {
	Mode           string
	AllowOrigins   []string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	MaxInFlight    int64
	Checks         map[string]Check
}

func NewAPIEngine(l *zap.Logger, o APIOptions) *gin.Engine {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 1 << 20
	}
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = 300
	}

	r := server.NewRouter(server.Options{Mode: o.Mode, AllowOrigins: o.AllowOrigins})

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.ConcurrencyLimit(o.MaxInFlight),
		mdw.MaxBodyBytes(o.MaxBodyBytes),
		mdw.Timeout(o.RequestTimeout),
		mdw.Recovery(l),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	r.GET("/health", health(o.Checks))
	r.GET("/metrics", mdw.MetricsHandler())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, resp.Error(resp.CodeNotFound, ""))
	})

	// 前缀
	api := r.Group("/api/v1")
	MountAllAPI(api)

	return r
}

// health 任一依赖失败返回 503，并列出各项状态
func health(checks map[string]Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := make(map[string]string, len(checks))
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status[name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		if code != http.StatusOK {
			c.JSON(code, resp.New(resp.CodeUnavailable, resp.CodeMsgMap[resp.CodeUnavailable], status))
			return
		}
		c.JSON(code, resp.OK(status))
	}
}
