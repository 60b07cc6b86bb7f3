// Package web serves the embedded chat page.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static
var staticFiles embed.FS

// RegisterStaticRoutes serves the embedded page. API routes must already be
// registered on the router.
func RegisterStaticRoutes(router *gin.Engine) error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return err
	}
	index, err := fs.ReadFile(staticFS, "index.html")
	if err != nil {
		return err
	}
	fileServer := http.FileServer(http.FS(staticFS))

	serveIndex := func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	}
	router.GET("/", serveIndex)
	router.NoRoute(func(c *gin.Context) {
		if _, err := fs.Stat(staticFS, c.Request.URL.Path[1:]); err != nil {
			serveIndex(c)
			return
		}
		fileServer.ServeHTTP(c.Writer, c.Request)
	})
	return nil
}
