package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/crawlpulse/datafilters/pkg/catalog"
	"github.com/crawlpulse/datafilters/pkg/export"
	"github.com/crawlpulse/datafilters/pkg/filter"
	"github.com/crawlpulse/datafilters/pkg/presets"
)

// ErrUnknownFieldType is returned when an operator lookup names no field type
var ErrUnknownFieldType = fiber.NewError(fiber.StatusBadRequest, "unknown field type, expected text, number, date or boolean")

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error            string                  `json:"error"`
	Code             int                     `json:"code"`
	ValidationErrors filter.ValidationErrors `json:"validationErrors,omitempty"`
}

// statusOf maps service errors to HTTP status codes
func statusOf(err error) int {
	var fiberErr *fiber.Error
	var fetchErr *catalog.FetchError

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, catalog.ErrUnknownDataset), errors.Is(err, presets.ErrPresetNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, catalog.ErrDatasetRequired),
		errors.Is(err, export.ErrDatasetRequired),
		errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, export.ErrInvalidSchedule):
		return fiber.StatusBadRequest
	case errors.Is(err, export.ErrInvalidDefinition):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &fetchErr), errors.Is(err, catalog.ErrEmptyCatalog):
		return fiber.StatusBadGateway
	}

	return fiber.StatusInternalServerError
}

// fail writes err as an ErrorResponse
func (s *Server) fail(c fiber.Ctx, err error) error {
	code := statusOf(err)

	resp := ErrorResponse{Error: err.Error(), Code: code}
	if code == fiber.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.Path()).Error("Request failed")
		resp.Error = "Internal Server Error"
	}

	var verrs filter.ValidationErrors
	if errors.As(err, &verrs) {
		resp.ValidationErrors = verrs
	}

	return c.Status(code).JSON(resp)
}
