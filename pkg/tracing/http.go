package tracing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// untracedPaths are probe and scrape routes that would only add noise.
var untracedPaths = map[string]bool{
	"/":        true,
	"/health":  true,
	"/healthz": true,
	"/metrics": true,
}

func GinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, otelgin.WithFilter(traced))
}

func traced(r *http.Request) bool {
	return !untracedPaths[r.URL.Path]
}
