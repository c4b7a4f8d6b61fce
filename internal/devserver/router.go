package devserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/r9s-ai/devserve/internal/pipeline"
)

const (
	ctxRequest  = "dev.request"
	ctxType     = "dev.type"
	ctxResolved = "dev.resolved"
	ctxStage    = "dev.stage"
	ctxError    = "dev.error"
)

// HealthPath lives in a reserved namespace so it never shadows project files.
const HealthPath = "/__devserve/healthz"

// NewRouter builds the gin engine. Every stage of the chain becomes one
// middleware, in order; a stage error aborts the rest of the chain for that
// request only. accessLog may be nil to disable request logging.
func NewRouter(s *Server, accessLog *log.Logger, color bool) *gin.Engine {
	r := gin.New()
	if accessLog != nil {
		r.Use(requestLogger(accessLog, color))
	}
	r.Use(gin.Recovery())

	r.GET(HealthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "packages": s.Index().Len()})
	})

	handlers := make([]gin.HandlerFunc, 0, len(s.Chain())+2)
	handlers = append(handlers, beginRequest)
	for _, st := range s.Chain() {
		handlers = append(handlers, stageMiddleware(st))
	}
	handlers = append(handlers, respond)
	r.NoRoute(handlers...)
	return r
}

func beginRequest(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Header("Allow", "GET, HEAD")
		c.AbortWithStatus(http.StatusMethodNotAllowed)
		return
	}
	req := pipeline.NewRequest(c.Request.URL.Path, c.Request.URL.RawQuery)
	c.Set(ctxRequest, req)
	c.Next()
	// The chain may stop before anyone drains the body.
	_ = req.Body.Close()
}

func requestFrom(c *gin.Context) *pipeline.Request {
	v, ok := c.Get(ctxRequest)
	if !ok {
		return nil
	}
	req, _ := v.(*pipeline.Request)
	return req
}

func stageMiddleware(st pipeline.Stage) gin.HandlerFunc {
	name := st.Name()
	return func(c *gin.Context) {
		req := requestFrom(c)
		if req == nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		if err := st.Apply(c.Request.Context(), req); err != nil {
			fail(c, name, err)
			return
		}
		c.Next()
	}
}

func fail(c *gin.Context, stage string, err error) {
	c.Set(ctxStage, stage)
	c.Set(ctxError, err)
	_ = c.Error(err)
	status := pipeline.StatusFor(err)
	if status == http.StatusNotFound {
		c.AbortWithStatus(status)
		return
	}
	c.Data(status, "text/plain; charset=utf-8", []byte(stage+": "+err.Error()))
	c.Abort()
}

// respond writes the body in whatever form the chain left it: materialized
// text as a sized payload, an untouched file stream as-is.
func respond(c *gin.Context) {
	req := requestFrom(c)
	if req == nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Set(ctxType, req.Type)
	if req.Path != req.OriginalPath {
		c.Set(ctxResolved, req.Path)
	}
	ct := pipeline.ContentTypeHeader(req.Type)
	if req.Body.Materialized() {
		text, _ := req.Body.Text()
		c.Data(http.StatusOK, ct, []byte(text))
		return
	}
	c.DataFromReader(http.StatusOK, -1, ct, req.Body.Reader(), nil)
}
