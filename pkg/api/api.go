// Package api implements the REST API for transpiling Lumin sources and
// managing stored units.
package api

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/lemonberrylabs/lumin/pkg/store"
	"github.com/lemonberrylabs/lumin/pkg/transpiler"
)

// SourceExt is the file extension of Lumin sources.
const SourceExt = ".lum"

// Options configures the API server.
type Options struct {
	// AccessLog enables per-request logging.
	AccessLog bool
}

// Server is the HTTP API server.
type Server struct {
	app   *fiber.App
	store *store.Store
	tr    *transpiler.Transpiler
}

// New creates a new API server.
func New(s *store.Store, tr *transpiler.Transpiler, opts Options) *Server {
	srv := &Server{store: s, tr: tr}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency}\n",
		}))
	}

	app.Post("/v1/transpile", srv.transpile)

	// Units API
	app.Post("/v1/units", srv.createUnit)
	app.Get("/v1/units/:unit", srv.getUnit)
	app.Get("/v1/units", srv.listUnits)
	app.Patch("/v1/units/:unit", srv.updateUnit)
	app.Delete("/v1/units/:unit", srv.deleteUnit)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// Compile transpiles source and packages the result for the store.
func Compile(tr *transpiler.Transpiler, source string) store.Compilation {
	out, err := tr.Transpile(source)
	if err != nil {
		return store.Compilation{Err: unitError(err)}
	}
	return store.Compilation{Output: out}
}

func unitError(err error) *store.UnitError {
	ue := &store.UnitError{Message: err.Error()}
	if pos, ok := transpiler.Position(err); ok {
		ue.Line, ue.Col = pos.Line, pos.Col
	}
	return ue
}

// --- Transpile Handler ---

type transpileRequest struct {
	Source string `json:"source"`
}

func (s *Server) transpile(c *fiber.Ctx) error {
	var req transpileRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}

	out, err := s.tr.Transpile(req.Source)
	if err != nil {
		if !transpiler.IsSourceError(err) {
			log.Printf("Transpile failed: %v", err)
			return apiError(c, 500, "INTERNAL", err.Error())
		}
		body := errorBody(400, "INVALID_ARGUMENT", err.Error())
		if pos, ok := transpiler.Position(err); ok {
			body["position"] = fiber.Map{"line": pos.Line, "col": pos.Col}
		}
		return c.Status(400).JSON(fiber.Map{"error": body})
	}

	return c.JSON(fiber.Map{"output": out})
}

// --- Unit Handlers ---

type unitRequest struct {
	Source      string `json:"source"`
	Description string `json:"description"`
}

var validUnitID = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

func (s *Server) createUnit(c *fiber.Ctx) error {
	unitID := c.Query("unitId")
	if unitID == "" {
		return apiError(c, 400, "INVALID_ARGUMENT", "unitId query parameter is required")
	}
	if !validUnitID.MatchString(unitID) || len(unitID) > 128 {
		return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid unitId %q", unitID))
	}

	var req unitRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	if req.Source == "" {
		return apiError(c, 400, "INVALID_ARGUMENT", "source is required")
	}

	// Sources that fail to transpile are still stored so the failure can be
	// inspected.
	u, err := s.store.CreateUnit(unitID, req.Source, req.Description, Compile(s.tr, req.Source))
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return apiError(c, 409, "ALREADY_EXISTS", err.Error())
		}
		return apiError(c, 500, "INTERNAL", err.Error())
	}

	return c.Status(200).JSON(unitToJSON(u))
}

func (s *Server) getUnit(c *fiber.Ctx) error {
	u, err := s.store.GetUnit(c.Params("unit"))
	if err != nil {
		return apiError(c, 404, "NOT_FOUND", err.Error())
	}
	return c.JSON(unitToJSON(u))
}

func (s *Server) listUnits(c *fiber.Ctx) error {
	units := s.store.ListUnits()

	items := make([]fiber.Map, len(units))
	for i, u := range units {
		items[i] = unitToJSON(u)
	}

	return c.JSON(fiber.Map{
		"units": items,
	})
}

func (s *Server) updateUnit(c *fiber.Ctx) error {
	id := c.Params("unit")

	var req unitRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}

	current, err := s.store.GetUnit(id)
	if err != nil {
		return apiError(c, 404, "NOT_FOUND", err.Error())
	}
	source := req.Source
	if source == "" {
		source = current.Source
	}

	u, err := s.store.UpdateUnit(id, source, req.Description, Compile(s.tr, source))
	if err != nil {
		return apiError(c, 404, "NOT_FOUND", err.Error())
	}
	return c.JSON(unitToJSON(u))
}

func (s *Server) deleteUnit(c *fiber.Ctx) error {
	id := c.Params("unit")
	if err := s.store.DeleteUnit(id); err != nil {
		return apiError(c, 404, "NOT_FOUND", err.Error())
	}
	return c.JSON(fiber.Map{
		"name": store.UnitName(id),
		"done": true,
	})
}

// --- Directory Loading ---

// LoadDir stores every .lum file in dir as a unit. The file name (sans
// extension, lowercased) becomes the unit ID. Files that fail to transpile
// are stored in the FAILED state. It returns the number of units loaded.
func (s *Server) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading sources directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != SourceExt {
			continue
		}

		base := strings.TrimSuffix(name, ext)
		unitID := strings.ToLower(base)

		if unitID != base {
			log.Printf("Warning: lowercased unit ID %q (from file %q)", unitID, name)
		}

		if !validUnitID.MatchString(unitID) || len(unitID) > 128 {
			log.Printf("Warning: skipping file %q: invalid unit ID %q", name, unitID)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("Warning: could not read %q: %v", name, err)
			continue
		}

		u := s.store.PutUnit(unitID, string(data), Compile(s.tr, string(data)))
		if u.Error != nil {
			log.Printf("Warning: %s: %s", name, u.Error.Message)
		}
		loaded++
		log.Printf("Loaded unit %q from %s (%s)", unitID, name, u.State)
	}

	log.Printf("Loaded %d unit(s) from %s", loaded, dir)
	return loaded, nil
}

// --- Helpers ---

func errorBody(code int, status, message string) fiber.Map {
	return fiber.Map{
		"code":    code,
		"message": message,
		"status":  status,
	}
}

func apiError(c *fiber.Ctx, code int, status, message string) error {
	return c.Status(code).JSON(fiber.Map{"error": errorBody(code, status, message)})
}

func unitToJSON(u *store.Unit) fiber.Map {
	result := fiber.Map{
		"name":       u.Name,
		"state":      u.State,
		"revisionId": u.RevisionID,
		"createTime": u.CreateTime.Format(time.RFC3339),
		"updateTime": u.UpdateTime.Format(time.RFC3339),
		"source":     u.Source,
	}
	if u.Description != "" {
		result["description"] = u.Description
	}
	if u.Output != "" {
		result["output"] = u.Output
	}
	if u.Error != nil {
		e := fiber.Map{"message": u.Error.Message}
		if u.Error.Line > 0 {
			e["position"] = fiber.Map{"line": u.Error.Line, "col": u.Error.Col}
		}
		result["error"] = e
	}
	return result
}
