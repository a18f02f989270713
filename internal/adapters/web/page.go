package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/jsamuelsen/neuroboss/internal/content"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	templateName = "page"
	formField    = "project"
)

// PageConfig configures the HTML page.
type PageConfig struct {
	// Content supplies page strings and the demo result.
	Content *content.Content

	// Generator calls the generation endpoint.
	Generator Generator

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Page serves the form at / and its static assets at /static/.
type Page struct {
	tmpl       *template.Template
	static     fs.FS
	ui         content.UI
	controller *Controller
	now        func() time.Time
}

type pageView struct {
	UI   content.UI
	Form *Form
	Year int
}

// NewPage parses the embedded templates and builds the page.
func NewPage(cfg PageConfig) (*Page, error) {
	if cfg.Content == nil {
		return nil, fmt.Errorf("web page: content is required")
	}

	if cfg.Generator == nil {
		return nil, fmt.Errorf("web page: generator is required")
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing page templates: %w", err)
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("opening static assets: %w", err)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	ui := cfg.Content.UI

	return &Page{
		tmpl:   tmpl,
		static: static,
		ui:     ui,
		controller: NewController(cfg.Generator, cfg.Content.DemoResult(), Messages{
			EmptyProject: ui.EmptyProject,
			DemoNotice:   ui.DemoNotice,
		}),
		now: now,
	}, nil
}

// Index handles GET / with an idle form.
func (p *Page) Index(c *gin.Context) {
	p.render(c, NewForm())
}

// Submit handles POST / by running the form submission and rendering the outcome.
func (p *Page) Submit(c *gin.Context) {
	form := NewForm()
	p.controller.Submit(c.Request.Context(), form, c.PostForm(formField))
	p.render(c, form)
}

// RegisterRoutes registers the page and static asset routes.
func (p *Page) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/", p.Index)
	engine.POST("/", p.Submit)
	engine.StaticFS("/static", http.FS(p.static))
}

func (p *Page) render(c *gin.Context, form *Form) {
	c.Render(http.StatusOK, render.HTML{
		Template: p.tmpl,
		Name:     templateName,
		Data: pageView{
			UI:   p.ui,
			Form: form,
			Year: p.now().Year(),
		},
	})
}
