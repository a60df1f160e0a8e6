package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/crawlpulse/datafilters/pkg/evaluator"
	"github.com/crawlpulse/datafilters/pkg/export"
	"github.com/crawlpulse/datafilters/pkg/filter"
)

// ValidateResponse reports problems in a definition without evaluating it
type ValidateResponse struct {
	Valid            bool                    `json:"valid"`
	ValidationErrors filter.ValidationErrors `json:"validationErrors"`
	Advisories       []filter.Warning        `json:"advisories"`
	// Lineage maps each derived field to the fields it was computed from
	Lineage map[string][]string `json:"lineage"`
	// Fields is the field set the pipeline produces
	Fields filter.Fields `json:"fields"`
}

// Validate handles POST /api/v1/validate
func (s *Server) Validate(c fiber.Ctx) error {
	var req evaluator.Request
	if err := s.decode(c, "DefinitionRequest", &req); err != nil {
		return s.fail(c, err)
	}

	fields, err := s.deps.Catalog.GetFields(c.Context(), req.DatasetType)
	if err != nil {
		return s.fail(c, err)
	}

	errs := filter.Validate(req.Conditions, fields, s.deps.Operators)
	report := s.deps.Pipelines.Validate(req.Transformations, fields)
	errs = append(errs, report.Errors...)

	resp := ValidateResponse{
		Valid:            len(errs) == 0,
		ValidationErrors: errs,
		Advisories:       report.Advisories,
		Lineage:          map[string][]string{},
		Fields:           report.Layout.Fields,
	}
	if resp.ValidationErrors == nil {
		resp.ValidationErrors = filter.ValidationErrors{}
	}
	if resp.Advisories == nil {
		resp.Advisories = []filter.Warning{}
	}
	if report.Lineage != nil {
		resp.Lineage = report.Lineage.Derived()
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// Preview handles POST /api/v1/preview
func (s *Server) Preview(c fiber.Ctx) error {
	var req evaluator.Request
	if err := s.decode(c, "PreviewRequest", &req); err != nil {
		return s.fail(c, err)
	}

	res, err := s.deps.Preview.Evaluate(c.Context(), req)
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(res)
}

// CreateExport handles POST /api/v1/exports
func (s *Server) CreateExport(c fiber.Ctx) error {
	var req export.Request
	if err := s.decode(c, "ExportRequest", &req); err != nil {
		return s.fail(c, err)
	}

	receipt, err := s.deps.Exports.Submit(c.Context(), req)
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(receipt)
}
