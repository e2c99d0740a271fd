package httpapi

import (
	"github.com/dmitrijs2005/mediaupload/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the endpoints. maxBodyBytes bounds JSON bodies, which
// carry whole files on the proxy route.
func NewRouter(h *Handler, auth Authenticator, reg *prometheus.Registry, maxBodyBytes int64, logger logging.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	if reg != nil {
		m, err := NewMetrics(reg)
		if err != nil {
			return nil, err
		}
		r.Use(m.Middleware())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
	if maxBodyBytes > 0 {
		// base64 inflates payloads by a third
		r.Use(limitBody(maxBodyBytes*4/3 + 4096))
	}

	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")
	v1.POST("/auth/token", h.Login)

	protected := v1.Group("", RequireToken(auth))
	protected.POST("/signatures", h.Signature)
	protected.POST("/uploads/proxy", h.ProxyUpload)
	protected.POST("/storage/presign", h.Presign)

	return r, nil
}
