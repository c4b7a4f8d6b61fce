package devserver

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/r9s-ai/devserve/internal/logx"
)

func requestLogger(l *log.Logger, color bool) gin.HandlerFunc {
	if l == nil {
		l = log.New(os.Stdout, "", 0)
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]any{}
		for key, name := range map[string]string{
			ctxType:     "type",
			ctxResolved: "resolved",
			ctxStage:    "stage",
			ctxError:    "error",
		} {
			if v, ok := c.Get(key); ok {
				fields[name] = v
			}
		}
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path += "?" + q
		}
		l.Println(logx.FormatRequestLine(time.Now(), c.Writer.Status(), time.Since(start), c.ClientIP(), c.Request.Method, path, fields, color))
	}
}
