package api

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rthmn/signal-engine/internal/ingest"
	"github.com/rthmn/signal-engine/internal/scanner"
	"github.com/rthmn/signal-engine/internal/tracker"
)

// Handler bundles the components the operational and ingress HTTP
// routes need.
type Handler struct {
	Dispatcher *ingest.Dispatcher
	Detector   *scanner.Detector
	Tracker    *tracker.Tracker
	StartedAt  time.Time
}

// SetupRouter builds the Gin engine exposing the ingress WebSocket and
// the operational health/status endpoints.
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", h.handleHealth)
	r.GET("/api/status", h.handleStatus)
	r.GET("/ws", h.HandleIngress)

	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "signal-engine",
		"uptimeSec": int(time.Since(h.StartedAt).Seconds()),
	})
}

func (h *Handler) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"scanner": gin.H{
			"totalPaths":    h.Detector.PathCount(),
			"isInitialized": true,
		},
		"activeSignals":       h.Tracker.GetActiveCount(),
		"activeSignalsByPair": h.Tracker.GetActiveByPair(),
	})
}
