package explore

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/futctl/internal/observability"
)

const adminServiceName = "futctl-admin"

// buildAdminRouter assembles the admin surface: health, run status,
// and Prometheus metrics.
func (s *Service) buildAdminRouter() *gin.Engine {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(adminServiceName))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(s.cfg.AdminCORSOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"service": "futctl",
			"version": "0.0.1",
		})
	})

	r.GET("/status", func(c *gin.Context) {
		results := s.Results()
		var completed, aborted, samples int
		for _, res := range results {
			if res.Status == RoundCompleted {
				completed++
			} else {
				aborted++
			}
			samples += res.Samples
		}
		c.JSON(http.StatusOK, gin.H{
			"phase":     string(s.Phase()),
			"engine":    s.cfg.Session.Address,
			"ndim":      s.cfg.Session.Dimensions,
			"rounds":    s.runner.cfg.Rounds,
			"completed": completed,
			"aborted":   aborted,
			"samples":   samples,
			"uptime":    time.Since(s.started).String(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// serveAdmin blocks until the context ends or the listener fails.
// Context shutdown drains in-flight requests before returning.
func (s *Service) serveAdmin(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.buildAdminRouter()}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()
	log.Info().Str("addr", addr).Msg("explore.Service admin listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
