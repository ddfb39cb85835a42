package handlers

import (
	"sort"
	"strings"

	"jupyterchat/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RouteInfo represents information about a single route
type RouteInfo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	HandlerName string `json:"handler_name"`
}

// CollectRoutes extracts all routes from a Gin engine, sorted by path then method
func CollectRoutes(engine *gin.Engine) []RouteInfo {
	var routes []RouteInfo
	for _, route := range engine.Routes() {
		// Skip internal Gin routes
		if strings.HasPrefix(route.Path, "/debug/") {
			continue
		}
		routes = append(routes, RouteInfo{
			Method:      route.Method,
			Path:        route.Path,
			HandlerName: route.Handler,
		})
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

// UndocumentedRoutes returns the routes under basePath that have no operation in the API document.
// Routes outside basePath (such as /health) are not part of the document and are ignored.
func UndocumentedRoutes(routes []RouteInfo, loader *middleware.SchemaLoader, basePath string) []RouteInfo {
	prefix := strings.TrimSuffix(basePath, "/")

	var missing []RouteInfo
	for _, route := range routes {
		if prefix != "" && !strings.HasPrefix(route.Path, prefix+"/") {
			continue
		}
		rel := strings.TrimPrefix(route.Path, prefix)
		if rel == "/health" {
			continue
		}
		if !loader.IsEndpointDocumented(rel, route.Method) {
			missing = append(missing, route)
		}
	}
	return missing
}
