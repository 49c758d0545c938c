package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freight-backend/internal/interface/http/response"
	"github.com/ignatzorin/freight-backend/internal/logger"
)

// Recovery перехватывает panic в хэндлерах и отвечает INTERNAL_ERROR в общем формате.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.WithFields(logrus.Fields{
					"panic":  fmt.Sprint(r),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
					"stack":  string(debug.Stack()),
				}).Error("http: panic в обработчике")
				response.Error(c, fmt.Errorf("panic: %v", r))
			}
		}()
		c.Next()
	}
}

// ErrorHandler дописывает ответ для ошибок, оставленных через c.Error, и логирует запрос.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			response.Error(c, c.Errors.Last().Err)
		}

		fields := logrus.Fields{
			"path":     c.FullPath(),
			"method":   c.Request.Method,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}
		if actor, ok := ActorFrom(c); ok {
			fields["user_id"] = actor.ID
		}
		entry := logger.Log.WithFields(fields)
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("http: запрос завершился ошибкой")
			return
		}
		entry.Debug("http: запрос обработан")
	}
}
