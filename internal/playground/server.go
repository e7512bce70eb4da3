// Package playground serves the recipe generator page: server-rendered HTML
// for each browser session plus a websocket that pushes every state change.
package playground

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"recipegen/internal/logger"
	"recipegen/internal/monitoring"
	"recipegen/internal/shell"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SessionCookie names the cookie that carries the browser session id.
const SessionCookie = "recipegen_session"

const pageTitle = "AI Recipe Generator"

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// PlaygroundServer renders the page and keeps browsers in sync with their shell
type PlaygroundServer struct {
	router    *gin.Engine
	store     *shell.Store
	monitor   *monitoring.Monitor
	log       zerolog.Logger
	templates *template.Template
}

// pageData is what every template receives
type pageData struct {
	Title string
	shell.Snapshot
}

// NewPlaygroundServer creates a new playground server instance
func NewPlaygroundServer(store *shell.Store, monitor *monitoring.Monitor, log zerolog.Logger) (*PlaygroundServer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), logger.Middleware(log))
	router.SetHTMLTemplate(tmpl)

	server := &PlaygroundServer{
		router:    router,
		store:     store,
		monitor:   monitor,
		log:       log,
		templates: tmpl,
	}

	if err := server.setupRoutes(); err != nil {
		return nil, err
	}
	return server, nil
}

// setupRoutes configures the page, websocket and session state routes
func (s *PlaygroundServer) setupRoutes() error {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}
	s.router.StaticFS("/static", http.FS(static))

	page := s.router.Group("/", s.sessionMiddleware())
	{
		page.GET("/", s.handleHome)
		page.POST("/generate", s.handleGenerate)
		page.POST("/cancel", s.handleCancel)
		page.GET("/ws", s.handleWebSocket)
		page.GET("/api/v1/state", s.handleState)
	}
	return nil
}

// Router returns the Gin router
func (s *PlaygroundServer) Router() *gin.Engine {
	return s.router
}

// renderApp renders the dynamic part of the page for a websocket push.
func (s *PlaygroundServer) renderApp(snap shell.Snapshot) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "app", pageData{Title: pageTitle, Snapshot: snap}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
