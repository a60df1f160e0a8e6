// Package handlers implements the request handlers of the data filters API.
package handlers

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/crawlpulse/datafilters/pkg/api/openapi"
	"github.com/crawlpulse/datafilters/pkg/catalog"
	"github.com/crawlpulse/datafilters/pkg/evaluator"
	"github.com/crawlpulse/datafilters/pkg/export"
	"github.com/crawlpulse/datafilters/pkg/filter"
	"github.com/crawlpulse/datafilters/pkg/pipeline"
	"github.com/crawlpulse/datafilters/pkg/presets"
)

// Previewer runs capped evaluations
type Previewer interface {
	Evaluate(ctx context.Context, req evaluator.Request) (*evaluator.Result, error)
}

// Exporter accepts export requests
type Exporter interface {
	Submit(ctx context.Context, req export.Request) (*export.Receipt, error)
}

// Deps are the services the handlers serve
type Deps struct {
	Catalog   catalog.Catalog
	Operators *filter.Registry
	Pipelines *pipeline.Registry
	Presets   *presets.Store
	Preview   Previewer
	Exports   Exporter
	Schema    *openapi.Validator
}

// Server holds the handlers
type Server struct {
	deps Deps
	log  logrus.FieldLogger
}

// NewServer creates a new API server instance
func NewServer(deps Deps, log logrus.FieldLogger) *Server {
	return &Server{
		deps: deps,
		log:  log.WithField("component", "api.handlers"),
	}
}

// Register mounts every route on router
func (s *Server) Register(router fiber.Router) {
	router.Get("/datasets/:type/fields", s.GetFields)
	router.Get("/operators", s.ListOperators)
	router.Get("/operators/:fieldType", s.GetOperators)
	router.Get("/transformations", s.ListTransformations)
	router.Get("/presets", s.ListPresets)
	router.Get("/presets/:id", s.GetPreset)
	router.Post("/validate", s.Validate)
	router.Post("/preview", s.Preview)
	router.Post("/exports", s.CreateExport)
	router.Get("/openapi.yaml", s.Document)
}

// Document handles GET /api/v1/openapi.yaml
func (s *Server) Document(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "application/yaml")
	return c.Status(fiber.StatusOK).Send(openapi.Document())
}

// decode validates body against the named schema and decodes it into v
func (s *Server) decode(c fiber.Ctx, schema string, v any) error {
	body := c.Body()
	if s.deps.Schema != nil {
		if err := s.deps.Schema.ValidateBody(schema, body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	if err := c.Bind().JSON(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body: "+err.Error())
	}

	return nil
}
