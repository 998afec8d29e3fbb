package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Pinger is anything whose reachability /health reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

type DefaultController struct {
	db    *gorm.DB
	cache Pinger
}

func NewDefaultController(db *gorm.DB, cache Pinger) *DefaultController {
	return &DefaultController{db: db, cache: cache}
}

func (c *DefaultController) GetHome(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"message": "Welcome to Eden Store API. Check GET /health for service status.",
	})
}

// GetHealth pings the database and the cache. Any failure answers 503.
func (c *DefaultController) GetHealth(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok", "cache": "ok"}
	status := http.StatusOK

	if err := c.pingDB(pingCtx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if c.cache != nil {
		if err := c.cache.Ping(pingCtx); err != nil {
			checks["cache"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	ctx.JSON(status, gin.H{"status": state, "checks": checks})
}

func (c *DefaultController) pingDB(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
