// Package web provides the embedded web UI: a unit dashboard and a
// transpiler playground.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lemonberrylabs/lumin/pkg/store"
	"github.com/lemonberrylabs/lumin/pkg/transpiler"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the web UI pages.
type Handler struct {
	store   *store.Store
	tr      *transpiler.Transpiler
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler.
func New(s *store.Store, tr *transpiler.Transpiler) *Handler {
	return &Handler{
		store: s,
		tr:    tr,
		funcMap: template.FuncMap{
			"unitID":     unitID,
			"timeAgo":    timeAgo,
			"formatTime": formatTime,
			"stateClass": stateClass,
			"stateIcon":  stateIcon,
			"truncate":   truncate,
			"countLines": countLines,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	// Each page gets its own template set so that "content" blocks do not
	// collide across pages.
	tmpl := template.Must(
		template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
	)

	pd := pageData{
		NavActive: navActive,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.dashboard)
	app.Get("/ui/units/:id", h.unitDetail)
	app.Get("/ui/playground", h.playground)
	app.Post("/ui/playground", h.playgroundSubmit)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type dashboardContent struct {
	Units         []*store.Unit
	CompiledCount int
	FailedCount   int
}

type unitDetailContent struct {
	Unit *store.Unit
	ID   string
}

type playgroundContent struct {
	Source string
	Output string
	Error  string
	Line   int
	Col    int
}

type notFoundContent struct {
	Message string
}

const playgroundSample = `class Point
  pub num x = 0
  func init(x: num)
    self.x = x
  end
end

func double(p: Point) -> num
  return p.x * 2
end

output double(Point(21))
`

// --- Page Handlers ---

func (h *Handler) dashboard(c *fiber.Ctx) error {
	units := h.store.ListUnits()

	var compiled, failed int
	for _, u := range units {
		switch u.State {
		case store.UnitCompiled:
			compiled++
		case store.UnitFailed:
			failed++
		}
	}

	return h.render(c, "dashboard.html", "dashboard", dashboardContent{
		Units:         units,
		CompiledCount: compiled,
		FailedCount:   failed,
	})
}

func (h *Handler) unitDetail(c *fiber.Ctx) error {
	id := c.Params("id")

	u, err := h.store.GetUnit(id)
	if err != nil {
		c.Status(404)
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Unit '%s' not found", id),
		})
	}

	return h.render(c, "unit_detail.html", "dashboard", unitDetailContent{
		Unit: u,
		ID:   id,
	})
}

func (h *Handler) playground(c *fiber.Ctx) error {
	return h.render(c, "playground.html", "playground", h.compile(playgroundSample))
}

func (h *Handler) playgroundSubmit(c *fiber.Ctx) error {
	return h.render(c, "playground.html", "playground", h.compile(c.FormValue("source")))
}

func (h *Handler) compile(source string) playgroundContent {
	content := playgroundContent{Source: source}
	out, err := h.tr.Transpile(source)
	if err != nil {
		content.Error = err.Error()
		if pos, ok := transpiler.Position(err); ok {
			content.Line, content.Col = pos.Line, pos.Col
		}
		return content
	}
	content.Output = out
	return content
}

// --- Template Helpers ---

func unitID(name string) string {
	return strings.TrimPrefix(name, "units/")
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func stateClass(state store.UnitState) string {
	switch state {
	case store.UnitCompiled:
		return "state-compiled"
	case store.UnitFailed:
		return "state-failed"
	default:
		return ""
	}
}

func stateIcon(state store.UnitState) template.HTML {
	switch state {
	case store.UnitCompiled:
		return "&#10003;"
	case store.UnitFailed:
		return "&#10007;"
	default:
		return "&#8226;"
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(s, "\n"), "\n") + 1
}
