package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// Handler serves liveness and readiness probes.
type Handler struct {
	service string
	checks  map[string]Checker
}

// NewHandler creates a health handler with a database check.
func NewHandler(db *gorm.DB, service string) *Handler {
	h := &Handler{service: service, checks: make(map[string]Checker)}
	if db != nil {
		h.AddCheck("postgres", func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
	}
	return h
}

// AddCheck registers an extra readiness check.
func (h *Handler) AddCheck(name string, check Checker) {
	h.checks[name] = check
}

// RegisterRoutes mounts /health/live and /health/ready.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health/live", h.Live)
	r.GET("/health/ready", h.Ready)
}

// Live always answers ok while the process is up.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": h.service})
}

// Ready runs every registered check.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "unavailable"
	}
	c.JSON(status, gin.H{"status": state, "service": h.service, "checks": results})
}
