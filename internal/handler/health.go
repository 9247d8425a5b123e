package handler

import (
	"context"
	"net/http"
	"time"

	"tiendaapi/internal/infra"
	"tiendaapi/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// DB and Redis decide the status code; the SMTP breaker and the notification
// DLQ are informative only.
func Health(db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		var dlq int64
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		} else {
			dlq, _ = worker.DLQLength(ctx, rdb, worker.QueueNotificaciones)
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":                 status == http.StatusOK,
			"db":                 dbStatus,
			"redis":              redisStatus,
			"dlq_notificaciones": dlq,
		}
		if smtpCB != nil {
			body["smtp"] = smtpCB.State().String()
		}
		c.JSON(status, body)
	}
}
