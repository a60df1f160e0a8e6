package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/crawlpulse/datafilters/pkg/filter"
	"github.com/crawlpulse/datafilters/pkg/pipeline"
)

// FieldsResponse is the field catalog of a dataset type
type FieldsResponse struct {
	DatasetType string        `json:"datasetType"`
	Fields      filter.Fields `json:"fields"`
}

// OperatorsResponse lists the operators of one field type
type OperatorsResponse struct {
	FieldType filter.FieldType  `json:"fieldType"`
	Operators []filter.Operator `json:"operators"`
	Default   filter.Operator   `json:"default"`
}

// TransformationsResponse lists the pipeline vocabulary
type TransformationsResponse struct {
	Kinds       []pipeline.Kind        `json:"kinds"`
	Directions  []pipeline.Direction   `json:"directions"`
	Aggregates  []pipeline.AggregateOp `json:"aggregates"`
	Expressions []pipeline.Expression  `json:"expressions"`
	Formatters  []pipeline.Formatter   `json:"formatters"`
}

// GetFields handles GET /api/v1/datasets/:type/fields
func (s *Server) GetFields(c fiber.Ctx) error {
	datasetType := c.Params("type")

	fields, err := s.deps.Catalog.GetFields(c.Context(), datasetType)
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(FieldsResponse{DatasetType: datasetType, Fields: fields})
}

// ListOperators handles GET /api/v1/operators
func (s *Server) ListOperators(c fiber.Ctx) error {
	response := make([]OperatorsResponse, 0, len(filter.FieldTypes()))
	for _, t := range filter.FieldTypes() {
		response = append(response, s.operatorsFor(t))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"operators": response,
	})
}

// GetOperators handles GET /api/v1/operators/:fieldType
func (s *Server) GetOperators(c fiber.Ctx) error {
	t := filter.FieldType(c.Params("fieldType"))
	if !t.IsValid() {
		return s.fail(c, ErrUnknownFieldType)
	}

	return c.Status(fiber.StatusOK).JSON(s.operatorsFor(t))
}

func (s *Server) operatorsFor(t filter.FieldType) OperatorsResponse {
	return OperatorsResponse{
		FieldType: t,
		Operators: s.deps.Operators.Operators(t),
		Default:   s.deps.Operators.Default(t),
	}
}

// ListTransformations handles GET /api/v1/transformations
func (s *Server) ListTransformations(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(TransformationsResponse{
		Kinds:       pipeline.Kinds(),
		Directions:  []pipeline.Direction{pipeline.Ascending, pipeline.Descending},
		Aggregates:  pipeline.AggregateOps(),
		Expressions: s.deps.Pipelines.Expressions().List(),
		Formatters:  s.deps.Pipelines.Formatters().List(),
	})
}
