package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// ListPresets handles GET /api/v1/presets
func (s *Server) ListPresets(c fiber.Ctx) error {
	list := s.deps.Presets.List()

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"presets": list,
		"total":   len(list),
	})
}

// GetPreset handles GET /api/v1/presets/:id
func (s *Server) GetPreset(c fiber.Ctx) error {
	p, err := s.deps.Presets.Get(c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(p)
}
